package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"harbor-go/utils"
)

const (
	apiHealthCheck    = "/health"
	apiStats          = "/stats"
	apiTranscript     = "/transcripts/:id"
	readHeaderTimeout = 5 * time.Second
)

type httpError struct {
	Error string `json:"error"`
}

// StatusFunc reports the gateway state shown by the health check
type StatusFunc func() string

// API is the HTTP surface: health, stats and transcript downloads
type API struct {
	engine     *gin.Engine
	httpServer *http.Server
	status     StatusFunc
	token      string
	logger     *slog.Logger
}

// NewAPI builds the router. An empty token leaves the transcript route
// unregistered.
func NewAPI(cfg utils.HTTPConfig, status StatusFunc, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	if status == nil {
		status = func() string { return "unknown" }
	}

	r := gin.New()
	api := &API{
		engine: r,
		status: status,
		token:  cfg.Token,
		logger: logger.With("logger", "api"),
	}
	api.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	r.Use(gin.Recovery(), api.loggingMiddleware())
	r.GET(apiHealthCheck, api.healthCheck)
	r.GET(apiStats, api.stats)
	if api.token != "" {
		protected := r.Group("/")
		protected.Use(bearerAuth(api.token))
		protected.GET(apiTranscript, api.transcript)
	}
	return api
}

// Serve listens until ctx is done, then shuts the server down
func (a *API) Serve(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		a.logger.Info("http listening", "addr", a.httpServer.Addr)
		errs <- a.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), utils.DefaultShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (a *API) healthCheck(c *gin.Context) {
	status := a.status()
	code := http.StatusOK
	if status != statusOnline {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":   status,
		"database": utils.DB.Ping(c.Request.Context()) == nil,
		"uptime":   time.Since(startedAt).Truncate(time.Second).String(),
	})
}

func (a *API) stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions":     utils.Sessions.Stats(),
		"open_tickets": utils.Tickets.Count(),
		"cache":        utils.GetCacheStats(),
		"interactions": utils.Metrics.Snapshot(),
		"rate_limiter": gin.H{"tracked_users": utils.RateLimiter.Size()},
		"process":      CollectProcessStats(c.Request.Context()),
	})
}

func (a *API) transcript(c *gin.Context) {
	t, err := utils.DB.GetTranscript(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, utils.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, httpError{Error: "transcript not found"})
		return
	case err != nil:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, httpError{Error: "error loading transcript"})
		return
	}
	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, t)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="transcript-%s.txt"`, t.ID))
	c.String(http.StatusOK, t.Content)
}

func bearerAuth(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpError{Error: "unauthorized"})
			return
		}
		c.Next()
	}
}

func (a *API) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"duration", time.Since(start),
			slog.Group("response", "status_code", c.Writer.Status(), "body_size", c.Writer.Size()),
		}
		msg := fmt.Sprintf("%s %s finished", c.Request.Method, c.Request.URL.Path)
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			a.logger.Error(msg, append(attrs, "errors", errs.Errors())...)
			return
		}
		a.logger.Debug(msg, attrs...)
	}
}
