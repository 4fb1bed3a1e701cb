package daemon

import (
	"context"
	"testing"

	"orrery/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	d, _ := newTestDaemon(t)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(d.Stop)

	status := d.Status()
	if !status.Running || status.PassRunning {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Scheduler.Active {
		t.Fatal("scheduler disabled in test config, expected inactive")
	}
	if d.APIAddr() == "" {
		t.Fatal("expected api listen address")
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected error starting a running daemon")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected stopped daemon")
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	first, err := New(cfg, store, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(first.Stop)

	cfg.Paths.APIBind = "127.0.0.1:0"
	second, err := New(cfg, store, nil)
	if err != nil {
		t.Fatalf("New second daemon failed: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected lock conflict for second instance")
	}
}
