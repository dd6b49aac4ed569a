package features

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetByID fetches a feature by identifier. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Feature, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+featureColumns+` FROM features WHERE id = ?`, id)
	feature, err := scanFeature(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get feature: %w", err)
	}
	return feature, nil
}

// List returns all features ordered by (priority, id).
func (s *Store) List(ctx context.Context) ([]*Feature, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+featureColumns+` FROM features ORDER BY priority, id`)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	defer rows.Close()

	var items []*Feature
	for rows.Next() {
		feature, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, feature)
	}
	return items, rows.Err()
}

// ListPassing returns all passing features ordered by (priority, id).
func (s *Store) ListPassing(ctx context.Context) ([]*Feature, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+featureColumns+` FROM features WHERE passes = 1 ORDER BY priority, id`)
	if err != nil {
		return nil, fmt.Errorf("list passing features: %w", err)
	}
	defer rows.Close()

	var items []*Feature
	for rows.Next() {
		feature, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, feature)
	}
	return items, rows.Err()
}

// FirstInProgress returns the in-progress feature, or nil when none exists.
// At most one is expected by the calling protocol; if an earlier invariant
// violation left several, the first by (priority, id) is canonical.
func (s *Store) FirstInProgress(ctx context.Context) (*Feature, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+featureColumns+` FROM features WHERE in_progress = 1 ORDER BY priority, id LIMIT 1`,
	)
	feature, err := scanFeature(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("first in-progress feature: %w", err)
	}
	return feature, nil
}

// CountBlocked counts pending features whose failure count is at or above
// the threshold, i.e. work that needs operator intervention.
func (s *Store) CountBlocked(ctx context.Context, maxFailures int) (int, error) {
	var count int
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM features WHERE passes = 0 AND failure_count >= ?`,
		maxFailures,
	)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count blocked features: %w", err)
	}
	return count, nil
}

// CountStats returns total and passing feature counts.
func (s *Store) CountStats(ctx context.Context) (Stats, error) {
	var stats Stats
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1), COALESCE(SUM(passes), 0) FROM features`,
	)
	if err := row.Scan(&stats.Total, &stats.Passing); err != nil {
		return Stats{}, fmt.Errorf("count stats: %w", err)
	}
	return stats, nil
}

// CreateBatch inserts drafts with sequential priorities starting at
// max(existing priority)+1 (or 1 on an empty table), preserving caller
// order. The whole batch commits in one transaction; any failure leaves
// zero rows created.
func (s *Store) CreateBatch(ctx context.Context, drafts []Draft) (int, error) {
	if len(drafts) == 0 {
		return 0, nil
	}

	created := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		startPriority, err := maxPriorityTx(ctx, tx)
		if err != nil {
			return err
		}
		startPriority++

		now := timestamp()
		for i, draft := range drafts {
			stepsJSON, err := encodeSteps(draft.Steps)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(
				ctx,
				`INSERT INTO features (
                    priority, category, name, description, steps_json,
                    passes, in_progress, failure_count, created_at, updated_at
                ) VALUES (?, ?, ?, ?, ?, 0, 0, 0, ?, ?)`,
				startPriority+int64(i),
				draft.Category,
				draft.Name,
				draft.Description,
				stepsJSON,
				now,
				now,
			)
			if err != nil {
				return fmt.Errorf("insert feature %d: %w", i, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// ClaimNext selects the first eligible pending feature ordered by
// (priority, id) and marks it in-progress within one transaction.
// Returns nil when no eligible feature exists.
func (s *Store) ClaimNext(ctx context.Context, maxFailures int) (*Feature, error) {
	var claimedID int64
	found := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(
			ctx,
			`SELECT id FROM features
             WHERE passes = 0 AND failure_count < ?
             ORDER BY priority, id LIMIT 1`,
			maxFailures,
		)
		if err := row.Scan(&claimedID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("select next feature: %w", err)
		}
		found = true
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE features SET in_progress = 1, updated_at = ? WHERE id = ?`,
			timestamp(),
			claimedID,
		); err != nil {
			return fmt.Errorf("claim feature %d: %w", claimedID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return s.GetByID(ctx, claimedID)
}

// MoveToBack reassigns a feature's priority to max(existing)+1, clears its
// in-progress flag, and resets the failure counter. When clearLastError is
// true the stored error is also wiped (manual skip gives a clean slate;
// auto-skip keeps the error for the caller's payload). Select-max and
// update commit in the same transaction so two moves cannot share a priority.
func (s *Store) MoveToBack(ctx context.Context, id int64, clearLastError bool) (oldPriority, newPriority int64, err error) {
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT priority FROM features WHERE id = ?`, id)
		if scanErr := row.Scan(&oldPriority); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("read priority for feature %d: %w", id, scanErr)
		}

		maxPriority, maxErr := maxPriorityTx(ctx, tx)
		if maxErr != nil {
			return maxErr
		}
		newPriority = maxPriority + 1

		query := `UPDATE features
            SET priority = ?, in_progress = 0, failure_count = 0, updated_at = ?
            WHERE id = ?`
		if clearLastError {
			query = `UPDATE features
                SET priority = ?, in_progress = 0, failure_count = 0, last_error = NULL, updated_at = ?
                WHERE id = ?`
		}
		if _, execErr := tx.ExecContext(ctx, query, newPriority, timestamp(), id); execErr != nil {
			return fmt.Errorf("move feature %d to back: %w", id, execErr)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return oldPriority, newPriority, nil
}

// MarkPassing transitions a feature into the passing terminal state,
// enforcing the invariant that passing features carry no in-progress flag,
// failure count, or stored error. Idempotent.
func (s *Store) MarkPassing(ctx context.Context, id int64) (*Feature, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE features
         SET passes = 1, in_progress = 0, failure_count = 0, last_error = NULL, updated_at = ?
         WHERE id = ?`,
		timestamp(),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("mark feature %d passing: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// RecordFailure increments the failure counter and stores the truncated
// error message. It never touches in_progress or priority; threshold
// enforcement is deferred to the next claim.
func (s *Store) RecordFailure(ctx context.Context, id int64, message string) (*Feature, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE features
         SET failure_count = failure_count + 1, last_error = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(TruncateError(message)),
		timestamp(),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("record failure for feature %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func maxPriorityTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	var max int64
	row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(priority), 0) FROM features`)
	if err := row.Scan(&max); err != nil {
		return 0, fmt.Errorf("max priority: %w", err)
	}
	return max, nil
}
