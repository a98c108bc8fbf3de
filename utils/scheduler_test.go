package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerAdd(t *testing.T) {
	s := NewScheduler(nil)
	require.NoError(t, s.Add(ScheduledJob{Name: "ok", Spec: "@every 1m", Run: func(context.Context) {}}))
	require.NoError(t, s.Add(ScheduledJob{Name: "seconds", Spec: "*/30 * * * * *", Run: func(context.Context) {}}))

	err := s.Add(ScheduledJob{Name: "bad", Spec: "every minute", Run: func(context.Context) {}})
	assert.ErrorContains(t, err, "bad")
	assert.Equal(t, 2, s.Entries())
}

func TestSchedulerRunsJobs(t *testing.T) {
	s := NewScheduler(nil)
	ran := make(chan struct{}, 1)
	require.NoError(t, s.Add(ScheduledJob{Name: "tick", Spec: "@every 1s", Run: func(ctx context.Context) {
		assert.NoError(t, ctx.Err())
		select {
		case ran <- struct{}{}:
		default:
		}
	}}))
	require.NoError(t, s.Add(ScheduledJob{Name: "panics", Spec: "@every 1s", Run: func(context.Context) {
		panic("recovered by the scheduler")
	}}))

	s.Start(context.Background())
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestHousekeepingJobs(t *testing.T) {
	assert.Len(t, HousekeepingJobs(nil), 3)

	s := NewScheduler(nil)
	for _, job := range HousekeepingJobs(nil) {
		require.NoError(t, s.Add(job), job.Name)
	}
}
