package features

import (
	"strings"
	"time"
)

// MaxErrorLength bounds the stored last_error text. Longer messages are
// truncated on write so a runaway agent traceback cannot bloat the database.
const MaxErrorLength = 500

// Feature is a single schedulable unit of backlog work.
type Feature struct {
	ID           int64
	Priority     int64
	Category     string
	Name         string
	Description  string
	Steps        []string
	Passes       bool
	InProgress   bool
	FailureCount int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Draft is the caller-supplied shape of a feature before it is persisted.
// All four fields are required; validation happens in the scheduler so the
// offending batch index can be reported.
type Draft struct {
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
}

// Stats summarizes backlog completion counts.
type Stats struct {
	Passing int
	Total   int
}

// DatabaseHealth captures diagnostic information about the backlog database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalFeatures    int
	Error            string
}

// TruncateError clamps an error message to MaxErrorLength runes.
func TruncateError(message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return ""
	}
	runes := []rune(message)
	if len(runes) <= MaxErrorLength {
		return message
	}
	return string(runes[:MaxErrorLength])
}
