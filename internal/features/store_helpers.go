package features

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const featureColumns = "id, priority, category, name, description, steps_json, passes, in_progress, failure_count, last_error, created_at, updated_at"

func scanFeature(scanner interface{ Scan(dest ...any) error }) (*Feature, error) {
	var (
		id           int64
		priority     int64
		category     string
		name         string
		description  string
		stepsJSON    string
		passes       sql.NullInt64
		inProgress   sql.NullInt64
		failureCount sql.NullInt64
		lastError    sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&priority,
		&category,
		&name,
		&description,
		&stepsJSON,
		&passes,
		&inProgress,
		&failureCount,
		&lastError,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	steps, err := decodeSteps(stepsJSON)
	if err != nil {
		return nil, fmt.Errorf("decode steps for feature %d: %w", id, err)
	}

	feature := &Feature{
		ID:          id,
		Priority:    priority,
		Category:    category,
		Name:        name,
		Description: description,
		Steps:       steps,
		Passes:      passes.Int64 != 0,
		InProgress:  inProgress.Int64 != 0,
		LastError:   lastError.String,
	}
	if failureCount.Valid {
		feature.FailureCount = int(failureCount.Int64)
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		feature.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		feature.UpdatedAt = updated
	}
	return feature, nil
}

func encodeSteps(steps []string) (string, error) {
	if len(steps) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("marshal steps: %w", err)
	}
	return string(data), nil
}

func decodeSteps(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var steps []string
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
