package daemon_test

import (
	"context"
	"testing"

	"backlog/internal/daemon"
	"backlog/internal/scheduler"
	"backlog/internal/testsupport"
)

func newDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	sched := scheduler.New(store, nil)

	d, err := daemon.New(cfg, store, sched, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestStartRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	sched := scheduler.New(store, nil)
	ctx := context.Background()

	first, err := daemon.New(cfg, store, sched, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(first.Close)
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}

	second, err := daemon.New(cfg, store, sched, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(second.Close)
	if err := second.Start(ctx); err == nil {
		t.Fatal("second Start should fail while lock is held")
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("Start after release failed: %v", err)
	}
}

func TestStopRequestLifecycle(t *testing.T) {
	d := newDaemon(t)

	if d.StopRequested() {
		t.Fatal("fresh daemon should have no stop request")
	}
	if err := d.RequestStop(); err != nil {
		t.Fatalf("RequestStop failed: %v", err)
	}
	if !d.StopRequested() {
		t.Fatal("stop request not visible")
	}
	// Clearing twice is harmless.
	if err := d.ClearStopRequest(); err != nil {
		t.Fatalf("ClearStopRequest failed: %v", err)
	}
	if err := d.ClearStopRequest(); err != nil {
		t.Fatalf("second ClearStopRequest failed: %v", err)
	}
	if d.StopRequested() {
		t.Fatal("stop request should be cleared")
	}
}

func TestStatusReportsState(t *testing.T) {
	d := newDaemon(t)
	ctx := context.Background()

	status := d.Status(ctx)
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if status.RunID == "" || status.RunID != d.RunID() {
		t.Fatalf("unexpected run id: %q", status.RunID)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status = d.Status(ctx)
	if !status.Running || status.PID == 0 {
		t.Fatalf("unexpected status after start: %#v", status)
	}
	if !status.Database.DatabaseReadable || !status.Database.IntegrityCheck {
		t.Fatalf("database health not reported: %#v", status.Database)
	}
}
