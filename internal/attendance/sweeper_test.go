package attendance

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_RunOnce(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, "acc-1", "branch-1", time.Minute)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sweeper := NewSweeper(svc, logger, time.Minute)
	require.NoError(t, sweeper.RunOnce(ctx))

	assert.Contains(t, buf.String(), `"deleted_count":1`)
}

func TestSweeper_StartStopsOnCancel(t *testing.T) {
	svc, _ := newTestService(t)
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSweeper(svc, logger, 10*time.Millisecond).Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
