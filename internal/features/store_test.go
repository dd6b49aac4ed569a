package features_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"backlog/internal/features"
	"backlog/internal/testsupport"
)

func TestCreateBatchAssignsSequentialPriorities(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	created, err := store.CreateBatch(ctx, []features.Draft{
		{Category: "auth", Name: "login", Description: "login flow", Steps: []string{"open page", "submit"}},
		{Category: "auth", Name: "logout", Description: "logout flow", Steps: []string{"click logout"}},
	})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 created, got %d", created)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Priority != 1 || items[1].Priority != 2 {
		t.Fatalf("expected priorities 1,2; got %d,%d", items[0].Priority, items[1].Priority)
	}
	if items[0].Name != "login" || items[1].Name != "logout" {
		t.Fatalf("caller order not preserved: %q, %q", items[0].Name, items[1].Name)
	}
	if items[0].Passes || items[0].InProgress || items[0].FailureCount != 0 {
		t.Fatalf("new feature should start clean: %#v", items[0])
	}
}

func TestCreateBatchAppendsAfterExisting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedFeatures(t, store, 3)
	if _, err := store.CreateBatch(ctx, []features.Draft{
		{Category: "ui", Name: "later", Description: "added later", Steps: []string{"step"}},
	}); err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	last := items[len(items)-1]
	if last.Name != "later" || last.Priority != 4 {
		t.Fatalf("expected appended feature at priority 4, got %q at %d", last.Name, last.Priority)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.GetByID(context.Background(), 999); !errors.Is(err, features.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClaimNextOrdersByPriorityThenID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedFeatures(t, store, 3)

	claimed, err := store.ClaimNext(ctx, 5)
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	if claimed == nil || claimed.Name != "feature-1" {
		t.Fatalf("expected feature-1 claimed, got %#v", claimed)
	}
	if !claimed.InProgress {
		t.Fatal("claimed feature should be in progress")
	}
}

func TestClaimNextSkipsPassingAndBlocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedFeatures(t, store, 3)
	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if _, err := store.MarkPassing(ctx, items[0].ID); err != nil {
		t.Fatalf("MarkPassing failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := store.RecordFailure(ctx, items[1].ID, "boom"); err != nil {
			t.Fatalf("RecordFailure failed: %v", err)
		}
	}

	claimed, err := store.ClaimNext(ctx, 5)
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	if claimed == nil || claimed.ID != items[2].ID {
		t.Fatalf("expected third feature claimed, got %#v", claimed)
	}
}

func TestClaimNextReturnsNilWhenNothingEligible(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	claimed, err := store.ClaimNext(ctx, 5)
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	if claimed != nil {
		t.Fatalf("expected nil on empty table, got %#v", claimed)
	}
}

func TestFirstInProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedFeatures(t, store, 2)

	inProgress, err := store.FirstInProgress(ctx)
	if err != nil {
		t.Fatalf("FirstInProgress failed: %v", err)
	}
	if inProgress != nil {
		t.Fatalf("expected none in progress, got %#v", inProgress)
	}

	claimed, err := store.ClaimNext(ctx, 5)
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	inProgress, err = store.FirstInProgress(ctx)
	if err != nil {
		t.Fatalf("FirstInProgress failed: %v", err)
	}
	if inProgress == nil || inProgress.ID != claimed.ID {
		t.Fatalf("expected claimed feature in progress, got %#v", inProgress)
	}
}

func TestMoveToBackReassignsPriority(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedFeatures(t, store, 3)
	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	target := items[0]
	if _, err := store.RecordFailure(ctx, target.ID, "flaky"); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}

	oldPriority, newPriority, err := store.MoveToBack(ctx, target.ID, false)
	if err != nil {
		t.Fatalf("MoveToBack failed: %v", err)
	}
	if oldPriority != 1 || newPriority != 4 {
		t.Fatalf("expected move 1 -> 4, got %d -> %d", oldPriority, newPriority)
	}

	moved, err := store.GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if moved.Priority != 4 || moved.InProgress || moved.FailureCount != 0 {
		t.Fatalf("unexpected state after move: %#v", moved)
	}
	if moved.LastError != "flaky" {
		t.Fatalf("last error should be preserved when clearLastError is false, got %q", moved.LastError)
	}

	_, _, err = store.MoveToBack(ctx, target.ID, true)
	if err != nil {
		t.Fatalf("MoveToBack failed: %v", err)
	}
	moved, err = store.GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if moved.LastError != "" {
		t.Fatalf("last error should be cleared, got %q", moved.LastError)
	}
}

func TestMoveToBackUnknownID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, _, err := store.MoveToBack(context.Background(), 42, true); !errors.Is(err, features.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkPassingClearsFailureState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedFeatures(t, store, 1)
	items, _ := store.List(ctx)
	id := items[0].ID

	if _, err := store.RecordFailure(ctx, id, "first try failed"); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}
	if _, err := store.ClaimNext(ctx, 5); err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}

	passed, err := store.MarkPassing(ctx, id)
	if err != nil {
		t.Fatalf("MarkPassing failed: %v", err)
	}
	if !passed.Passes || passed.InProgress || passed.FailureCount != 0 || passed.LastError != "" {
		t.Fatalf("unexpected state after passing: %#v", passed)
	}

	// Idempotent.
	if _, err := store.MarkPassing(ctx, id); err != nil {
		t.Fatalf("second MarkPassing failed: %v", err)
	}

	if _, err := store.MarkPassing(ctx, 999); !errors.Is(err, features.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordFailureIncrementsAndTruncates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedFeatures(t, store, 1)
	items, _ := store.List(ctx)
	id := items[0].ID

	long := strings.Repeat("x", features.MaxErrorLength+100)
	feature, err := store.RecordFailure(ctx, id, long)
	if err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}
	if feature.FailureCount != 1 {
		t.Fatalf("expected failure count 1, got %d", feature.FailureCount)
	}
	if len(feature.LastError) != features.MaxErrorLength {
		t.Fatalf("expected error truncated to %d, got %d", features.MaxErrorLength, len(feature.LastError))
	}

	feature, err = store.RecordFailure(ctx, id, "second")
	if err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}
	if feature.FailureCount != 2 || feature.LastError != "second" {
		t.Fatalf("unexpected state: count=%d lastError=%q", feature.FailureCount, feature.LastError)
	}
	if feature.InProgress {
		t.Fatal("RecordFailure must not touch in_progress")
	}
}

func TestCountStatsAndBlocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedFeatures(t, store, 3)
	items, _ := store.List(ctx)

	if _, err := store.MarkPassing(ctx, items[0].ID); err != nil {
		t.Fatalf("MarkPassing failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := store.RecordFailure(ctx, items[1].ID, "boom"); err != nil {
			t.Fatalf("RecordFailure failed: %v", err)
		}
	}

	stats, err := store.CountStats(ctx)
	if err != nil {
		t.Fatalf("CountStats failed: %v", err)
	}
	if stats.Total != 3 || stats.Passing != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	blocked, err := store.CountBlocked(ctx, 5)
	if err != nil {
		t.Fatalf("CountBlocked failed: %v", err)
	}
	if blocked != 1 {
		t.Fatalf("expected 1 blocked, got %d", blocked)
	}
}

func TestStepsRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	steps := []string{"open settings", "toggle \"dark mode\"", "reload"}
	if _, err := store.CreateBatch(ctx, []features.Draft{
		{Category: "ui", Name: "dark mode", Description: "theme toggle", Steps: steps},
	}); err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	got := items[0].Steps
	if len(got) != len(steps) {
		t.Fatalf("expected %d steps, got %d", len(steps), len(got))
	}
	for i := range steps {
		if got[i] != steps[i] {
			t.Fatalf("step %d mismatch: %q != %q", i, got[i], steps[i])
		}
	}
}

func TestCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	testsupport.SeedFeatures(t, store, 2)

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists || !health.IntegrityCheck {
		t.Fatalf("unexpected health: %#v", health)
	}
	if health.TotalFeatures != 2 {
		t.Fatalf("expected 2 features, got %d", health.TotalFeatures)
	}
}
