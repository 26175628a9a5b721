package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/domain/models"
)

// fakeSweepLock mimics the store-level advisory lock: held by at most one
// sweep at a time, across any number of schedulers.
type fakeSweepLock struct {
	mu   sync.Mutex
	held bool
}

func (l *fakeSweepLock) Acquire(context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeSweepLock) Release(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	return nil
}

func TestTriggerNowRejectsOverlappingSweeps(t *testing.T) {
	f := newSweepFixture()
	f.store.entered = make(chan struct{})
	f.store.release = make(chan struct{})

	scheduler := NewScheduler(f.engine, time.Hour, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := scheduler.TriggerNow(context.Background(), nil)
		done <- err
	}()

	// Wait until the first sweep holds the guard inside the store call.
	select {
	case <-f.store.entered:
	case <-time.After(time.Second):
		t.Fatal("first sweep never reached the store")
	}

	_, err := scheduler.TriggerNow(context.Background(), nil)
	assert.ErrorIs(t, err, models.ErrorSweepInProgress)

	close(f.store.release)
	require.NoError(t, <-done)

	// Once the first sweep finishes the guard is free again.
	_, err = scheduler.TriggerNow(context.Background(), nil)
	assert.NoError(t, err)
}

func TestTriggerNowGuardHoldsAcrossSchedulers(t *testing.T) {
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	lock := &fakeSweepLock{}

	// Two schedulers over the same store and journal, as when the api
	// mode's manual trigger races the audit process's scheduled tick.
	first := newSweepFixture(reviewOrder("O1", now.Add(-49*time.Hour)))
	first.store.entered = make(chan struct{})
	first.store.release = make(chan struct{})
	firstScheduler := NewScheduler(first.engine, time.Hour, nil, lock)

	second := newSweepFixture(reviewOrder("O1", now.Add(-49*time.Hour)))
	second.journal = first.journal
	second.engine.journal = first.journal
	secondScheduler := NewScheduler(second.engine, time.Hour, nil, lock)

	done := make(chan error, 1)
	go func() {
		_, err := firstScheduler.TriggerNow(context.Background(), nil)
		done <- err
	}()

	select {
	case <-first.store.entered:
	case <-time.After(time.Second):
		t.Fatal("first sweep never reached the store")
	}

	// While the first sweep is in flight the second must be refused, or
	// both pass the journal check and the violation dispatches twice.
	_, err := secondScheduler.TriggerNow(context.Background(), nil)
	assert.ErrorIs(t, err, models.ErrorSweepInProgress)
	assert.Empty(t, second.dispatcher.sent)

	close(first.store.release)
	require.NoError(t, <-done)

	// The first sweep journaled the violation, so the retried trigger
	// suppresses it: exactly one notification in total.
	summary, err := secondScheduler.TriggerNow(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.NotificationsSent)
	assert.Len(t, first.dispatcher.sent, 1)
	assert.Empty(t, second.dispatcher.sent)
}

func TestTriggerNowKeepsSweepingOnReloadFailure(t *testing.T) {
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	f := newSweepFixture(reviewOrder("O1", now.Add(-49*time.Hour)))

	reload := func() error { return errors.New("config file unreadable") }
	scheduler := NewScheduler(f.engine, time.Hour, reload, nil)

	summary, err := scheduler.TriggerNow(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NotificationsSent)
}

func TestTriggerNowReloadsPolicyBeforeSweeping(t *testing.T) {
	f := newSweepFixture()

	reloaded := false
	scheduler := NewScheduler(f.engine, time.Hour, func() error {
		reloaded = true
		return nil
	}, nil)

	_, err := scheduler.TriggerNow(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, reloaded)
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	f := newSweepFixture()
	scheduler := NewScheduler(f.engine, 10*time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(stopped)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}
