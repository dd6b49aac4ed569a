package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"backlog/internal/features"
	"backlog/internal/logging"
)

// MaxFailures is the number of consecutive recorded failures after which a
// feature is no longer eligible for normal selection and is auto-skipped on
// the next fetch. Fixed policy, not configuration.
const MaxFailures = 5

const (
	// DefaultRegressionLimit is used when a regression request carries no limit.
	DefaultRegressionLimit = 3
	// MaxRegressionLimit bounds a regression sample.
	MaxRegressionLimit = 10
)

// Scheduler applies backlog scheduling policy over an injected store handle.
// It holds no mutable state of its own; all state lives in the store.
type Scheduler struct {
	store  *features.Store
	logger *slog.Logger
	rng    *rand.Rand
}

// Option adjusts scheduler construction.
type Option func(*Scheduler)

// WithRand overrides the randomness source used for regression sampling so
// tests can seed it.
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// New constructs a scheduler over the given store.
func New(store *features.Store, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Scheduler{
		store:  store,
		logger: logger.With(logging.String("component", "scheduler")),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchNext returns the next feature to work on.
//
// An in-progress feature under the failure threshold is returned again
// (resume after a crash) rather than selecting new work. An in-progress
// feature at or above the threshold is auto-skipped to the back of the
// queue and reported; the caller fetches again for real work. Otherwise the
// first pending feature ordered by (priority, id) is claimed. When nothing
// is eligible the result distinguishes a blocked backlog from a finished one.
func (s *Scheduler) FetchNext(ctx context.Context) (*FetchResult, error) {
	inProgress, err := s.store.FirstInProgress(ctx)
	if err != nil {
		return nil, err
	}

	if inProgress != nil {
		if inProgress.FailureCount >= MaxFailures {
			// Preserve last_error: the auto-skip payload reports why the
			// feature was abandoned, unlike a manual skip's clean slate.
			if _, _, err := s.store.MoveToBack(ctx, inProgress.ID, false); err != nil {
				return nil, err
			}
			s.logger.Warn("feature auto-skipped after repeated failures",
				logging.String(logging.FieldEventType, "feature_auto_skipped"),
				logging.Int64(logging.FieldFeatureID, inProgress.ID),
				logging.String("name", inProgress.Name),
				logging.Int("failure_count", inProgress.FailureCount))
			return &FetchResult{
				Outcome: OutcomeAutoSkipped,
				Skipped: &SkipNotice{
					ID:        inProgress.ID,
					Name:      inProgress.Name,
					Reason:    fmt.Sprintf("feature failed %d times consecutively and was auto-skipped", inProgress.FailureCount),
					LastError: inProgress.LastError,
				},
			}, nil
		}

		s.logger.Info("resuming previously started feature",
			logging.String(logging.FieldEventType, "feature_resumed"),
			logging.Int64(logging.FieldFeatureID, inProgress.ID),
			logging.String("name", inProgress.Name))
		return &FetchResult{
			Outcome:           OutcomeResumed,
			Feature:           inProgress,
			AttemptsRemaining: MaxFailures - inProgress.FailureCount,
		}, nil
	}

	claimed, err := s.store.ClaimNext(ctx, MaxFailures)
	if err != nil {
		return nil, err
	}
	if claimed == nil {
		blocked, err := s.store.CountBlocked(ctx, MaxFailures)
		if err != nil {
			return nil, err
		}
		if blocked > 0 {
			return &FetchResult{Outcome: OutcomeBlocked, BlockedCount: blocked}, nil
		}
		return &FetchResult{Outcome: OutcomeAllComplete}, nil
	}

	result := &FetchResult{Outcome: OutcomeClaimed, Feature: claimed}
	if claimed.FailureCount > 0 {
		result.AttemptsRemaining = MaxFailures - claimed.FailureCount
		result.Warning = fmt.Sprintf("this feature has failed %d time(s) previously", claimed.FailureCount)
	}
	s.logger.Info("feature claimed",
		logging.String(logging.FieldEventType, "feature_claimed"),
		logging.Int64(logging.FieldFeatureID, claimed.ID),
		logging.String("name", claimed.Name),
		logging.Int64("priority", claimed.Priority))
	return result, nil
}

// MarkPassing transitions a feature into the passing terminal state and
// returns the updated snapshot. Idempotent; features.ErrNotFound when the
// id is unknown.
func (s *Scheduler) MarkPassing(ctx context.Context, id int64) (*features.Feature, error) {
	feature, err := s.store.MarkPassing(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("feature marked passing",
		logging.String(logging.FieldEventType, "feature_passed"),
		logging.Int64(logging.FieldFeatureID, feature.ID),
		logging.String("name", feature.Name))
	return feature, nil
}

// Skip moves a feature to the back of the queue with a clean failure slate.
// Returns features.ErrNotFound for unknown ids and ErrAlreadyPassing when
// the feature is already complete.
func (s *Scheduler) Skip(ctx context.Context, id int64) (*SkipResult, error) {
	feature, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if feature.Passes {
		return nil, ErrAlreadyPassing
	}

	oldPriority, newPriority, err := s.store.MoveToBack(ctx, id, true)
	if err != nil {
		return nil, err
	}
	s.logger.Info("feature skipped to back of queue",
		logging.String(logging.FieldEventType, "feature_skipped"),
		logging.Int64(logging.FieldFeatureID, id),
		logging.String("name", feature.Name),
		logging.Int64("old_priority", oldPriority),
		logging.Int64("new_priority", newPriority))
	return &SkipResult{
		ID:          id,
		Name:        feature.Name,
		OldPriority: oldPriority,
		NewPriority: newPriority,
	}, nil
}

// RecordFailure increments a feature's failure counter and stores the
// truncated error message. It reports whether the threshold was reached but
// never reprioritizes; enforcement is deferred to the next FetchNext.
func (s *Scheduler) RecordFailure(ctx context.Context, id int64, message string) (*FailureResult, error) {
	feature, err := s.store.RecordFailure(ctx, id, message)
	if err != nil {
		return nil, err
	}

	result := &FailureResult{
		FeatureID:         feature.ID,
		FeatureName:       feature.Name,
		FailureCount:      feature.FailureCount,
		MaxFailures:       MaxFailures,
		ThresholdExceeded: feature.FailureCount >= MaxFailures,
	}
	if result.ThresholdExceeded {
		result.Warning = "feature will be auto-skipped on next fetch"
	}
	s.logger.Warn("feature failure recorded",
		logging.String(logging.FieldEventType, "failure_recorded"),
		logging.Int64(logging.FieldFeatureID, feature.ID),
		logging.String("name", feature.Name),
		logging.Int("failure_count", feature.FailureCount),
		logging.Bool("threshold_exceeded", result.ThresholdExceeded))
	return result, nil
}

// CreateBulk validates and inserts a batch of drafts with sequential
// priorities appended after all existing work. The first invalid entry
// aborts the whole batch with a ValidationError; nothing is created.
func (s *Scheduler) CreateBulk(ctx context.Context, drafts []features.Draft) (int, error) {
	for i, draft := range drafts {
		if missing := missingFields(draft); len(missing) > 0 {
			return 0, &ValidationError{Index: i, Missing: missing}
		}
	}

	created, err := s.store.CreateBatch(ctx, drafts)
	if err != nil {
		return 0, err
	}
	s.logger.Info("features created",
		logging.String(logging.FieldEventType, "features_created"),
		logging.Int("count", created))
	return created, nil
}

// Stats returns completion counts and a percentage rounded to one decimal.
func (s *Scheduler) Stats(ctx context.Context) (StatsResult, error) {
	stats, err := s.store.CountStats(ctx)
	if err != nil {
		return StatsResult{}, err
	}
	result := StatsResult{Passing: stats.Passing, Total: stats.Total}
	if stats.Total > 0 {
		result.Percentage = math.Round(float64(stats.Passing)/float64(stats.Total)*1000) / 10
	}
	return result, nil
}

// Regression returns a random sample of passing features for regression
// testing. The limit is clamped to [1, MaxRegressionLimit]; zero or negative
// means DefaultRegressionLimit. Fewer passing features than the limit is not
// an error. Sampling is an explicit shuffle over the filtered set so a
// seeded source makes it reproducible.
func (s *Scheduler) Regression(ctx context.Context, limit int) ([]*features.Feature, error) {
	if limit <= 0 {
		limit = DefaultRegressionLimit
	}
	if limit > MaxRegressionLimit {
		limit = MaxRegressionLimit
	}

	passing, err := s.store.ListPassing(ctx)
	if err != nil {
		return nil, err
	}

	s.rng.Shuffle(len(passing), func(i, j int) {
		passing[i], passing[j] = passing[j], passing[i]
	})
	if len(passing) > limit {
		passing = passing[:limit]
	}
	return passing, nil
}

func missingFields(draft features.Draft) []string {
	var missing []string
	if draft.Category == "" {
		missing = append(missing, "category")
	}
	if draft.Name == "" {
		missing = append(missing, "name")
	}
	if draft.Description == "" {
		missing = append(missing, "description")
	}
	if len(draft.Steps) == 0 {
		missing = append(missing, "steps")
	}
	return missing
}
