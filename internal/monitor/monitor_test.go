package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/perbu/sessmon/internal/config"
	"github.com/perbu/sessmon/internal/store"
)

func newTestMonitor(t *testing.T) (*Monitor, *store.Store) {
	t.Helper()

	st, err := store.Open("sqlite", "", t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.DefaultConfig()
	cfg.Reload.Interval = "0" // no auto-reload in tests

	m, err := New(cfg, st, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m, st
}

func TestMonitorReloadPublishesSessions(t *testing.T) {
	m, st := newTestMonitor(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	refreshed := make(chan struct{}, 4)
	m.OnRefresh(func() { refreshed <- struct{}{} })

	m.Touch("alpha", "10.0.0.1:1", "ua")
	m.Touch("beta", "10.0.0.2:2", "ua")

	go func() { done <- m.Run(ctx) }()

	// Run kicks off an initial reload.
	select {
	case <-refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for initial reload")
	}

	sessions := m.Sessions()
	if len(sessions) != 2 {
		t.Fatalf("Sessions() returned %d, want 2", len(sessions))
	}

	// The audit store should have exactly one succeeded run with the count.
	var run *store.TaskRun
	deadline := time.Now().Add(2 * time.Second)
	for {
		runs, err := st.ListRuns(10)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) == 1 && runs[0].State == "succeeded" {
			run = runs[0]
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no succeeded run recorded, got %+v", runs)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !run.ItemCount.Valid || run.ItemCount.Int64 != 2 {
		t.Errorf("ItemCount = %+v, want 2", run.ItemCount)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not shut down")
	}
}

func TestMonitorCancelReloadWhenIdle(t *testing.T) {
	m, _ := newTestMonitor(t)
	defer func() {
		m.pool.Close()
		m.dispatcher.Close()
	}()

	if id := m.CancelReload(); id != 0 {
		t.Errorf("CancelReload() = %d, want 0", id)
	}
	if id := m.Current(); id != 0 {
		t.Errorf("Current() = %d, want 0", id)
	}
}

func TestMonitorTouchTracksSessions(t *testing.T) {
	m, _ := newTestMonitor(t)
	defer func() {
		m.pool.Close()
		m.dispatcher.Close()
	}()

	m.Touch("a", "", "")
	m.Touch("a", "", "")
	m.Touch("b", "", "")

	if n := m.registry.Len(); n != 2 {
		t.Errorf("registry.Len() = %d, want 2", n)
	}
}
