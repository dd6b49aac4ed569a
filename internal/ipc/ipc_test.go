package ipc_test

import (
	"context"
	"testing"

	"backlog/internal/daemon"
	"backlog/internal/ipc"
	"backlog/internal/scheduler"
	"backlog/internal/testsupport"
)

func startServer(t *testing.T) *ipc.Client {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	sched := scheduler.New(store, nil)

	d, err := daemon.New(cfg, store, sched, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Close)

	server, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, nil)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client
}

func seedDrafts(t *testing.T, client *ipc.Client, count int) {
	t.Helper()
	drafts := make([]ipc.Draft, 0, count)
	for i := 0; i < count; i++ {
		drafts = append(drafts, ipc.Draft{
			Category:    "core",
			Name:        "feature",
			Description: "does a thing",
			Steps:       []string{"do it"},
		})
	}
	resp, err := client.CreateBulk(drafts)
	if err != nil {
		t.Fatalf("CreateBulk: %v", err)
	}
	if resp.Error != "" || resp.Created != count {
		t.Fatalf("unexpected create response: %#v", resp)
	}
}

func TestPingAndStatus(t *testing.T) {
	client := startServer(t)

	ping, err := client.Ping()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if ping.RunID == "" {
		t.Fatal("expected run id")
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.RunID != ping.RunID {
		t.Fatalf("unexpected status: %#v", status)
	}
	if !status.DatabaseReadable || !status.IntegrityCheck {
		t.Fatalf("database health not reported: %#v", status)
	}
}

func TestWorkLifecycleOverSocket(t *testing.T) {
	client := startServer(t)
	seedDrafts(t, client, 2)

	fetch, err := client.FetchNext()
	if err != nil {
		t.Fatalf("FetchNext: %v", err)
	}
	if fetch.Feature == nil || fetch.Resumed {
		t.Fatalf("expected fresh claim, got %#v", fetch)
	}
	firstID := fetch.Feature.ID

	again, err := client.FetchNext()
	if err != nil {
		t.Fatalf("FetchNext: %v", err)
	}
	if !again.Resumed || again.Feature.ID != firstID {
		t.Fatalf("expected resume of %d, got %#v", firstID, again)
	}

	pass, err := client.MarkPassing(firstID)
	if err != nil {
		t.Fatalf("MarkPassing: %v", err)
	}
	if pass.Error != "" || !pass.Feature.Passes {
		t.Fatalf("unexpected pass response: %#v", pass)
	}

	stats, err := client.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Passing != 1 || stats.Total != 2 || stats.Percentage != 50.0 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestDomainErrorsTravelAsFields(t *testing.T) {
	client := startServer(t)
	seedDrafts(t, client, 1)

	pass, err := client.MarkPassing(999)
	if err != nil {
		t.Fatalf("MarkPassing should not RPC-fail on unknown id: %v", err)
	}
	if pass.Error == "" {
		t.Fatal("expected structured not-found error")
	}

	resp, err := client.CreateBulk([]ipc.Draft{{Category: "core"}})
	if err != nil {
		t.Fatalf("CreateBulk: %v", err)
	}
	if resp.Error == "" || resp.InvalidIndex != 0 || len(resp.MissingFields) == 0 {
		t.Fatalf("expected validation details, got %#v", resp)
	}
	if resp.Created != 0 {
		t.Fatalf("nothing should be created, got %d", resp.Created)
	}

	list, err := client.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Features) != 1 {
		t.Fatalf("invalid batch must not add rows, got %d", len(list.Features))
	}
}

func TestAutoSkipOverSocket(t *testing.T) {
	client := startServer(t)
	seedDrafts(t, client, 2)

	fetch, err := client.FetchNext()
	if err != nil {
		t.Fatalf("FetchNext: %v", err)
	}
	id := fetch.Feature.ID

	for i := 0; i < 5; i++ {
		resp, err := client.RecordFailure(id, "segfault")
		if err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
		if resp.Error != "" {
			t.Fatalf("unexpected domain error: %q", resp.Error)
		}
	}

	skipped, err := client.FetchNext()
	if err != nil {
		t.Fatalf("FetchNext: %v", err)
	}
	if !skipped.AutoSkipped || skipped.SkippedFeatureID != id {
		t.Fatalf("expected auto-skip of %d, got %#v", id, skipped)
	}
	if skipped.LastError != "segfault" {
		t.Fatalf("auto-skip should report last error, got %q", skipped.LastError)
	}

	next, err := client.FetchNext()
	if err != nil {
		t.Fatalf("FetchNext: %v", err)
	}
	if next.Feature == nil || next.Feature.ID == id {
		t.Fatalf("expected the other feature next, got %#v", next)
	}
}

func TestSkipAndRegressionOverSocket(t *testing.T) {
	client := startServer(t)
	seedDrafts(t, client, 3)

	list, err := client.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	skip, err := client.Skip(list.Features[0].ID)
	if err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if skip.Error != "" || skip.NewPriority <= skip.OldPriority {
		t.Fatalf("unexpected skip response: %#v", skip)
	}

	for _, feature := range list.Features {
		if _, err := client.MarkPassing(feature.ID); err != nil {
			t.Fatalf("MarkPassing: %v", err)
		}
	}

	sample, err := client.Regression(2)
	if err != nil {
		t.Fatalf("Regression: %v", err)
	}
	if sample.Count != 2 || len(sample.Features) != 2 {
		t.Fatalf("unexpected sample: %#v", sample)
	}
}

func TestStopRequestOverSocket(t *testing.T) {
	client := startServer(t)

	stop, err := client.RequestStop()
	if err != nil {
		t.Fatalf("RequestStop: %v", err)
	}
	if !stop.Requested {
		t.Fatal("expected stop requested")
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.StopRequested {
		t.Fatal("status should reflect pending stop request")
	}

	cleared, err := client.ClearStop()
	if err != nil {
		t.Fatalf("ClearStop: %v", err)
	}
	if !cleared.Cleared {
		t.Fatal("expected stop cleared")
	}

	status, err = client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.StopRequested {
		t.Fatal("stop request should be gone")
	}
}
