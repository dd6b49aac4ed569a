package scheduler

import "backlog/internal/features"

// FetchOutcome tags the result of a FetchNext call.
type FetchOutcome string

const (
	// OutcomeClaimed means a fresh feature was selected and marked in-progress.
	OutcomeClaimed FetchOutcome = "claimed"
	// OutcomeResumed means a previously started feature is returned again.
	OutcomeResumed FetchOutcome = "resumed"
	// OutcomeAutoSkipped means the in-progress feature crossed the failure
	// threshold and was moved to the back of the queue; call FetchNext again.
	OutcomeAutoSkipped FetchOutcome = "auto_skipped"
	// OutcomeBlocked means pending features remain but all are at or above
	// the failure threshold.
	OutcomeBlocked FetchOutcome = "blocked"
	// OutcomeAllComplete means every feature passes.
	OutcomeAllComplete FetchOutcome = "all_complete"
)

// SkipNotice carries the identity and error context of an auto-skipped
// feature. Unlike a manual skip, the last error is preserved here so the
// caller can see why the feature was abandoned.
type SkipNotice struct {
	ID        int64
	Name      string
	Reason    string
	LastError string
}

// FetchResult is the snapshot returned by FetchNext.
type FetchResult struct {
	Outcome FetchOutcome

	// Feature is set for OutcomeClaimed and OutcomeResumed.
	Feature *features.Feature

	// AttemptsRemaining is set when Feature has recorded failures: the
	// number of further failures before auto-skip.
	AttemptsRemaining int

	// Warning is set when a claimed feature failed previously.
	Warning string

	// Skipped is set for OutcomeAutoSkipped.
	Skipped *SkipNotice

	// BlockedCount is set for OutcomeBlocked.
	BlockedCount int
}

// SkipResult reports a manual skip.
type SkipResult struct {
	ID          int64
	Name        string
	OldPriority int64
	NewPriority int64
}

// FailureResult reports a recorded failure.
type FailureResult struct {
	FeatureID         int64
	FeatureName       string
	FailureCount      int
	MaxFailures       int
	ThresholdExceeded bool
	Warning           string
}

// StatsResult summarizes backlog completion.
type StatsResult struct {
	Passing    int
	Total      int
	Percentage float64
}
