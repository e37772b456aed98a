package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darmiel/callsign/internal/core"
	"github.com/darmiel/callsign/internal/logging"
	"github.com/darmiel/callsign/internal/store"
)

func TestManager_RunNow(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register("ok", 0, func(_ context.Context, l logging.InternalLogger) error {
		l.Info("hello %s", "world")
		return nil
	}))
	require.NoError(t, m.Register("fail", 0, func(context.Context, logging.InternalLogger) error {
		return errors.New("boom")
	}))

	status, err := m.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, "success", status.LastResult)
	assert.Equal(t, 1, status.Runs)
	assert.True(t, status.NextRun.IsZero())

	logs, err := m.GetLogs("ok")
	require.NoError(t, err)
	var messages []string
	for _, l := range logs {
		messages = append(messages, l.Message)
	}
	assert.Contains(t, messages, "hello world")

	status, err = m.RunNow(context.Background(), "fail")
	require.NoError(t, err)
	assert.Equal(t, "failed: boom", status.LastResult)

	list := m.ListStatus()
	require.Len(t, list, 2)
	assert.Equal(t, "fail", list[0].Name)
	assert.Equal(t, "ok", list[1].Name)
}

func TestManager_Errors(t *testing.T) {
	m := NewManager()
	noop := func(context.Context, logging.InternalLogger) error { return nil }
	require.NoError(t, m.Register("a", 0, noop))

	assert.ErrorAs(t, m.Register("a", 0, noop), &TaskExistsError{})
	assert.ErrorAs(t, m.Trigger("missing"), &TaskNotFoundError{})
	_, err := m.GetLogs("missing")
	assert.ErrorAs(t, err, &TaskNotFoundError{})
}

func TestManager_Schedule(t *testing.T) {
	var runs atomic.Int32
	m := NewManager()
	require.NoError(t, m.Register("tick", 10*time.Millisecond, func(context.Context, logging.InternalLogger) error {
		runs.Add(1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	m.Wait()
}

func TestRunnableTask_SkipsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	m := NewManager()
	require.NoError(t, m.Register("slow", 0, func(context.Context, logging.InternalLogger) error {
		close(started)
		<-release
		return nil
	}))
	require.NoError(t, m.Trigger("slow"))
	<-started

	task, err := m.get("slow")
	require.NoError(t, err)
	assert.True(t, task.Status().Running)
	assert.False(t, task.Run(context.Background()))

	close(release)
	assert.Eventually(t, func() bool { return !task.Status().Running }, time.Second, 5*time.Millisecond)
}

func TestPruneCredentials(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := store.NewInMemoryCredentialStore()
	require.NoError(t, s.Save(ctx, core.CredentialRecord{CorrelationID: "expired", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, s.Save(ctx, core.CredentialRecord{CorrelationID: "active", ExpiresAt: now.Add(time.Hour)}))

	m := NewManager()
	require.NoError(t, m.Register(PruneCredentialsTask, 0, PruneCredentials(s)))

	status, err := m.RunNow(ctx, PruneCredentialsTask)
	require.NoError(t, err)
	assert.Equal(t, "success", status.LastResult)

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "active", active[0].CorrelationID)

	logs, err := m.GetLogs(PruneCredentialsTask)
	require.NoError(t, err)
	var found bool
	for _, l := range logs {
		if l.Message == "pruned 1 expired credential records" {
			found = true
		}
	}
	assert.True(t, found)
}
