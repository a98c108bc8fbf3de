package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harbor-go/models"
	"harbor-go/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func useMemoryStore(t *testing.T) *utils.MemoryStore {
	t.Helper()
	prev := utils.DB
	m := utils.NewMemoryStore()
	utils.DB = m
	t.Cleanup(func() { utils.DB = prev })
	return m
}

func doRequest(api *API, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	useMemoryStore(t)
	status := statusConnecting
	api := NewAPI(utils.HTTPConfig{}, func() string { return status }, nil)

	w := doRequest(api, http.MethodGet, apiHealthCheck, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	status = statusOnline
	w = doRequest(api, http.MethodGet, apiHealthCheck, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, statusOnline, body["status"])
	assert.Equal(t, true, body["database"])
}

func TestStats(t *testing.T) {
	useMemoryStore(t)
	api := NewAPI(utils.HTTPConfig{}, nil, nil)

	w := doRequest(api, http.MethodGet, apiStats, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	for _, key := range []string{"sessions", "open_tickets", "cache", "interactions", "rate_limiter", "process"} {
		assert.Contains(t, body, key)
	}
}

func TestTranscript(t *testing.T) {
	m := useMemoryStore(t)
	require.NoError(t, m.SaveTranscript(context.Background(), &models.Transcript{
		ID:        "tr-1",
		ChannelID: "c1",
		Content:   "Ticket #0001\nhello\n",
		CreatedAt: time.Now(),
	}))
	api := NewAPI(utils.HTTPConfig{Token: "secret"}, nil, nil)

	assert.Equal(t, http.StatusUnauthorized, doRequest(api, http.MethodGet, "/transcripts/tr-1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(api, http.MethodGet, "/transcripts/tr-1", "wrong").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(api, http.MethodGet, "/transcripts/missing", "secret").Code)

	w := doRequest(api, http.MethodGet, "/transcripts/tr-1", "secret")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ticket #0001\nhello\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "transcript-tr-1.txt")

	w = doRequest(api, http.MethodGet, "/transcripts/tr-1?format=json", "secret")
	require.Equal(t, http.StatusOK, w.Code)
	var tr models.Transcript
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tr))
	assert.Equal(t, "c1", tr.ChannelID)
}

func TestTranscriptDisabledWithoutToken(t *testing.T) {
	useMemoryStore(t)
	api := NewAPI(utils.HTTPConfig{}, nil, nil)
	assert.Equal(t, http.StatusNotFound, doRequest(api, http.MethodGet, "/transcripts/tr-1", "").Code)
}

func TestServeShutsDown(t *testing.T) {
	api := NewAPI(utils.HTTPConfig{Listen: "127.0.0.1:0"}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- api.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(utils.DefaultShutdownTimeout):
		t.Fatal("server did not stop")
	}
}
