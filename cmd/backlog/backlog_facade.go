package main

import (
	"context"
	"errors"
	"fmt"

	"backlog/internal/features"
	"backlog/internal/ipc"
	"backlog/internal/scheduler"
)

// backlogAPI is the surface the feature commands consume. It is served by the
// daemon over IPC when it is running, or directly from the store otherwise.
type backlogAPI interface {
	Stats(ctx context.Context) (*ipc.StatsResponse, error)
	FetchNext(ctx context.Context) (*ipc.FetchNextResponse, error)
	Regression(ctx context.Context, limit int) (*ipc.RegressionResponse, error)
	MarkPassing(ctx context.Context, id int64) (*ipc.MarkPassingResponse, error)
	Skip(ctx context.Context, id int64) (*ipc.SkipResponse, error)
	RecordFailure(ctx context.Context, id int64, message string) (*ipc.RecordFailureResponse, error)
	CreateBulk(ctx context.Context, drafts []ipc.Draft) (*ipc.CreateBulkResponse, error)
	List(ctx context.Context) ([]ipc.Feature, error)
	Get(ctx context.Context, id int64) (*ipc.GetResponse, error)
}

// --- IPC adapter ---

type backlogIPCAdapter struct {
	client *ipc.Client
}

func (a *backlogIPCAdapter) Stats(_ context.Context) (*ipc.StatsResponse, error) {
	return a.client.Stats()
}

func (a *backlogIPCAdapter) FetchNext(_ context.Context) (*ipc.FetchNextResponse, error) {
	return a.client.FetchNext()
}

func (a *backlogIPCAdapter) Regression(_ context.Context, limit int) (*ipc.RegressionResponse, error) {
	return a.client.Regression(limit)
}

func (a *backlogIPCAdapter) MarkPassing(_ context.Context, id int64) (*ipc.MarkPassingResponse, error) {
	return a.client.MarkPassing(id)
}

func (a *backlogIPCAdapter) Skip(_ context.Context, id int64) (*ipc.SkipResponse, error) {
	return a.client.Skip(id)
}

func (a *backlogIPCAdapter) RecordFailure(_ context.Context, id int64, message string) (*ipc.RecordFailureResponse, error) {
	return a.client.RecordFailure(id, message)
}

func (a *backlogIPCAdapter) CreateBulk(_ context.Context, drafts []ipc.Draft) (*ipc.CreateBulkResponse, error) {
	return a.client.CreateBulk(drafts)
}

func (a *backlogIPCAdapter) List(_ context.Context) ([]ipc.Feature, error) {
	resp, err := a.client.List()
	if err != nil {
		return nil, err
	}
	return resp.Features, nil
}

func (a *backlogIPCAdapter) Get(_ context.Context, id int64) (*ipc.GetResponse, error) {
	return a.client.Get(id)
}

// --- Store adapter ---

type backlogStoreAdapter struct {
	store *features.Store
	sched *scheduler.Scheduler
}

func (a *backlogStoreAdapter) Stats(ctx context.Context) (*ipc.StatsResponse, error) {
	stats, err := a.sched.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &ipc.StatsResponse{Passing: stats.Passing, Total: stats.Total, Percentage: stats.Percentage}, nil
}

func (a *backlogStoreAdapter) FetchNext(ctx context.Context) (*ipc.FetchNextResponse, error) {
	result, err := a.sched.FetchNext(ctx)
	if err != nil {
		return nil, err
	}
	return ipc.FetchNextResponseFrom(result)
}

func (a *backlogStoreAdapter) Regression(ctx context.Context, limit int) (*ipc.RegressionResponse, error) {
	sample, err := a.sched.Regression(ctx, limit)
	if err != nil {
		return nil, err
	}
	resp := &ipc.RegressionResponse{Features: make([]ipc.Feature, 0, len(sample))}
	for _, feature := range sample {
		if dto := ipc.FromFeature(feature); dto != nil {
			resp.Features = append(resp.Features, *dto)
		}
	}
	resp.Count = len(resp.Features)
	return resp, nil
}

func (a *backlogStoreAdapter) MarkPassing(ctx context.Context, id int64) (*ipc.MarkPassingResponse, error) {
	feature, err := a.sched.MarkPassing(ctx, id)
	if errors.Is(err, features.ErrNotFound) {
		return &ipc.MarkPassingResponse{Error: notFoundMessage(id)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ipc.MarkPassingResponse{Feature: ipc.FromFeature(feature)}, nil
}

func (a *backlogStoreAdapter) Skip(ctx context.Context, id int64) (*ipc.SkipResponse, error) {
	result, err := a.sched.Skip(ctx, id)
	if errors.Is(err, features.ErrNotFound) {
		return &ipc.SkipResponse{Error: notFoundMessage(id)}, nil
	}
	if errors.Is(err, scheduler.ErrAlreadyPassing) {
		return &ipc.SkipResponse{Error: fmt.Sprintf("feature %d is already passing and cannot be skipped", id)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ipc.SkipResponse{
		ID:          result.ID,
		Name:        result.Name,
		OldPriority: result.OldPriority,
		NewPriority: result.NewPriority,
		Message:     "feature moved to back of queue",
	}, nil
}

func (a *backlogStoreAdapter) RecordFailure(ctx context.Context, id int64, message string) (*ipc.RecordFailureResponse, error) {
	result, err := a.sched.RecordFailure(ctx, id, message)
	if errors.Is(err, features.ErrNotFound) {
		return &ipc.RecordFailureResponse{Error: notFoundMessage(id)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ipc.RecordFailureResponse{
		FeatureID:         result.FeatureID,
		FeatureName:       result.FeatureName,
		FailureCount:      result.FailureCount,
		MaxFailures:       result.MaxFailures,
		ThresholdExceeded: result.ThresholdExceeded,
		Warning:           result.Warning,
		Message:           fmt.Sprintf("failure recorded (%d of %d)", result.FailureCount, result.MaxFailures),
	}, nil
}

func (a *backlogStoreAdapter) CreateBulk(ctx context.Context, drafts []ipc.Draft) (*ipc.CreateBulkResponse, error) {
	created, err := a.sched.CreateBulk(ctx, drafts)
	var invalid *scheduler.ValidationError
	if errors.As(err, &invalid) {
		return &ipc.CreateBulkResponse{
			Error:         invalid.Error(),
			InvalidIndex:  invalid.Index,
			MissingFields: append([]string(nil), invalid.Missing...),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ipc.CreateBulkResponse{Created: created}, nil
}

func (a *backlogStoreAdapter) List(ctx context.Context) ([]ipc.Feature, error) {
	items, err := a.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ipc.Feature, 0, len(items))
	for _, feature := range items {
		if dto := ipc.FromFeature(feature); dto != nil {
			out = append(out, *dto)
		}
	}
	return out, nil
}

func (a *backlogStoreAdapter) Get(ctx context.Context, id int64) (*ipc.GetResponse, error) {
	feature, err := a.store.GetByID(ctx, id)
	if errors.Is(err, features.ErrNotFound) {
		return &ipc.GetResponse{Error: notFoundMessage(id)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ipc.GetResponse{Feature: ipc.FromFeature(feature)}, nil
}

func notFoundMessage(id int64) string {
	return fmt.Sprintf("feature with id %d not found", id)
}
