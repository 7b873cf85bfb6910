package queue

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// rollbackCase builds the CASE expression that returns an interrupted
// processing status to the start of its stage.
func rollbackCase() (string, []any) {
	var b strings.Builder
	args := make([]any, 0, len(stageRollbackTransitions)*2)
	b.WriteString("CASE status")
	for _, transition := range stageRollbackTransitions {
		b.WriteString(" WHEN ? THEN ?")
		args = append(args, transition.from, transition.to)
	}
	b.WriteString(" ELSE status END")
	return b.String(), args
}

// ResetStuckProcessing resets items in processing states back to the start of
// their current stage. Used on daemon startup before the workflow begins.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	caseExpr, args := rollbackCase()
	placeholders := makePlaceholders(len(stageRollbackTransitions))
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	for _, transition := range stageRollbackTransitions {
		args = append(args, transition.from)
	}

	query := `UPDATE queue_items
        SET status = ` + caseExpr + `,
            progress_stage = 'Reset from stuck processing',
            progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
        WHERE status IN (` + placeholders + `)`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return res.RowsAffected()
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight item.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_items SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleProcessing returns items whose heartbeat expired back to the
// start of their current stage. An empty status filter reclaims every
// processing status; lanes pass their own statuses so a healthy foreground
// lane does not reclaim background work.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		for _, transition := range stageRollbackTransitions {
			statuses = append(statuses, transition.from)
		}
	}

	caseExpr, args := rollbackCase()
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	placeholders := makePlaceholders(len(statuses))
	for _, status := range statuses {
		args = append(args, status)
	}
	args = append(args, cutoff.UTC().Format(time.RFC3339Nano))

	query := `UPDATE queue_items
        SET status = ` + caseExpr + `,
            progress_stage = 'Reclaimed from stale processing',
            progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
        WHERE status IN (` + placeholders + `) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale items: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed items back to pending for reprocessing. With no
// ids every failed item retries.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE queue_items
            SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
                progress_message = NULL, error_message = NULL, updated_at = ?
            WHERE status = ?`,
			StatusPending,
			time.Now().UTC().Format(time.RFC3339Nano),
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed items: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusPending, time.Now().UTC().Format(time.RFC3339Nano))
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE queue_items
        SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = '` + string(StatusFailed) + `'`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected items: %w", err)
	}
	return res.RowsAffected()
}

// StopItems marks the given items for review with the user-stop reason.
// Completed, failed, and already-reviewed items are left alone; the workflow
// notices the status change at its next stage boundary.
func (s *Store) StopItems(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+6)
	args = append(args,
		StatusReview,
		UserStopReason,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, StatusCompleted, StatusFailed, StatusReview)

	query := `UPDATE queue_items
        SET status = ?, needs_review = 1, review_reason = ?,
            progress_stage = 'Stopped', progress_message = NULL, last_heartbeat = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status NOT IN (?, ?, ?)`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("stop items: %w", err)
	}
	return res.RowsAffected()
}
