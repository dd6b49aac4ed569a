package ipc

import (
	"time"

	"backlog/internal/features"
)

// Feature mirrors the stored feature for IPC callers.
type Feature struct {
	ID           int64    `json:"id"`
	Priority     int64    `json:"priority"`
	Category     string   `json:"category"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Steps        []string `json:"steps"`
	Passes       bool     `json:"passes"`
	InProgress   bool     `json:"in_progress"`
	FailureCount int      `json:"failure_count"`
	LastError    string   `json:"last_error,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
}

// Draft is the caller-supplied shape for bulk creation.
type Draft = features.Draft

// FromFeature converts a stored feature into its IPC representation.
func FromFeature(feature *features.Feature) *Feature {
	if feature == nil {
		return nil
	}
	dto := &Feature{
		ID:           feature.ID,
		Priority:     feature.Priority,
		Category:     feature.Category,
		Name:         feature.Name,
		Description:  feature.Description,
		Steps:        append([]string(nil), feature.Steps...),
		Passes:       feature.Passes,
		InProgress:   feature.InProgress,
		FailureCount: feature.FailureCount,
		LastError:    feature.LastError,
	}
	if !feature.CreatedAt.IsZero() {
		dto.CreatedAt = feature.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !feature.UpdatedAt.IsZero() {
		dto.UpdatedAt = feature.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

// PingRequest checks daemon liveness.
type PingRequest struct{}

// PingResponse reports daemon liveness.
type PingResponse struct {
	RunID string `json:"run_id"`
}

// StatsRequest fetches completion statistics.
type StatsRequest struct{}

// StatsResponse reports completion statistics.
type StatsResponse struct {
	Passing    int     `json:"passing"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// FetchNextRequest asks for the next feature to work on.
type FetchNextRequest struct{}

// FetchNextResponse carries one of four outcomes: a feature snapshot
// (fresh or resumed), an auto-skip notice, or a terminal error field for a
// blocked or finished backlog.
type FetchNextResponse struct {
	Feature           *Feature `json:"feature,omitempty"`
	Resumed           bool     `json:"resumed,omitempty"`
	AttemptsRemaining int      `json:"attempts_remaining,omitempty"`
	Warning           string   `json:"warning,omitempty"`
	Message           string   `json:"message,omitempty"`

	AutoSkipped        bool   `json:"auto_skipped,omitempty"`
	SkippedFeatureID   int64  `json:"skipped_feature_id,omitempty"`
	SkippedFeatureName string `json:"skipped_feature_name,omitempty"`
	Reason             string `json:"reason,omitempty"`
	LastError          string `json:"last_error,omitempty"`

	Error        string `json:"error,omitempty"`
	BlockedCount int    `json:"blocked_count,omitempty"`
	AllComplete  bool   `json:"all_complete,omitempty"`
}

// RegressionRequest fetches random passing features. Limit is clamped to
// 1..10; zero means the default of 3.
type RegressionRequest struct {
	Limit int `json:"limit"`
}

// RegressionResponse contains the sampled features.
type RegressionResponse struct {
	Features []Feature `json:"features"`
	Count    int       `json:"count"`
}

// MarkPassingRequest marks a feature as passing.
type MarkPassingRequest struct {
	ID int64 `json:"id"`
}

// MarkPassingResponse returns the updated snapshot or a domain error.
type MarkPassingResponse struct {
	Feature *Feature `json:"feature,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// SkipRequest moves a feature to the back of the queue.
type SkipRequest struct {
	ID int64 `json:"id"`
}

// SkipResponse reports the priority change or a domain error.
type SkipResponse struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	OldPriority int64  `json:"old_priority,omitempty"`
	NewPriority int64  `json:"new_priority,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// RecordFailureRequest records a failure against a feature.
type RecordFailureRequest struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// RecordFailureResponse reports the new failure count and threshold state.
type RecordFailureResponse struct {
	FeatureID         int64  `json:"feature_id,omitempty"`
	FeatureName       string `json:"feature_name,omitempty"`
	FailureCount      int    `json:"failure_count,omitempty"`
	MaxFailures       int    `json:"max_failures,omitempty"`
	ThresholdExceeded bool   `json:"threshold_exceeded,omitempty"`
	Message           string `json:"message,omitempty"`
	Warning           string `json:"warning,omitempty"`
	Error             string `json:"error,omitempty"`
}

// CreateBulkRequest creates features in caller order.
type CreateBulkRequest struct {
	Features []Draft `json:"features"`
}

// CreateBulkResponse reports the created count or the first invalid entry.
type CreateBulkResponse struct {
	Created       int      `json:"created"`
	Error         string   `json:"error,omitempty"`
	InvalidIndex  int      `json:"invalid_index,omitempty"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// ListRequest fetches all features ordered by (priority, id).
type ListRequest struct{}

// ListResponse contains the full backlog.
type ListResponse struct {
	Features []Feature `json:"features"`
}

// GetRequest fetches a single feature by id.
type GetRequest struct {
	ID int64 `json:"id"`
}

// GetResponse contains the feature or a domain error.
type GetResponse struct {
	Feature *Feature `json:"feature,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and backlog status.
type StatusResponse struct {
	Running       bool    `json:"running"`
	PID           int     `json:"pid"`
	RunID         string  `json:"run_id"`
	StartedAt     string  `json:"started_at,omitempty"`
	DBPath        string  `json:"db_path"`
	LockPath      string  `json:"lock_path"`
	SocketPath    string  `json:"socket_path"`
	StopRequested bool    `json:"stop_requested"`
	Passing       int     `json:"passing"`
	Total         int     `json:"total"`
	Percentage    float64 `json:"percentage"`

	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	TableExists      bool   `json:"table_exists"`
	IntegrityCheck   bool   `json:"integrity_check"`
	DatabaseError    string `json:"database_error,omitempty"`
}

// RequestStopRequest asks the external agent to stop after the current item.
type RequestStopRequest struct{}

// RequestStopResponse acknowledges the stop request.
type RequestStopResponse struct {
	Requested bool `json:"requested"`
}

// ClearStopRequest removes a pending stop request.
type ClearStopRequest struct{}

// ClearStopResponse acknowledges the removal.
type ClearStopResponse struct {
	Cleared bool `json:"cleared"`
}
