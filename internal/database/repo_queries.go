package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/pkg/models"
)

// InsertQueryRecord stores one natural-language query and its outcome.
func (db *DB) InsertQueryRecord(ctx context.Context, q *models.QueryRecord) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO query_history (
			query_id, tenant_id, user_id, question, generated_sql,
			was_executed, execution_time_ms, row_count, error_message
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''))
	`, q.QueryID, q.TenantID, q.UserID, q.Question, q.GeneratedSQL,
		q.WasExecuted, q.ExecutionTimeMs, q.RowCount, q.ErrorMessage)
	if err != nil {
		return fmt.Errorf("inserting query record: %w", err)
	}
	return nil
}

// ListQueryHistory returns a tenant's most recent queries, newest first.
func (db *DB) ListQueryHistory(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]models.QueryRecord, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT query_id, tenant_id, user_id, question, generated_sql,
		       was_executed, execution_time_ms, row_count, COALESCE(error_message, ''),
		       user_rating, COALESCE(user_feedback, ''), was_helpful, created_at
		FROM query_history
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying query history: %w", err)
	}
	defer rows.Close()

	var results []models.QueryRecord
	for rows.Next() {
		var q models.QueryRecord
		if err := rows.Scan(
			&q.QueryID, &q.TenantID, &q.UserID, &q.Question, &q.GeneratedSQL,
			&q.WasExecuted, &q.ExecutionTimeMs, &q.RowCount, &q.ErrorMessage,
			&q.UserRating, &q.UserFeedback, &q.WasHelpful, &q.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning query record: %w", err)
		}
		results = append(results, q)
	}
	return results, rows.Err()
}

// RateQuery stores user feedback on a generated query. Returns the number of
// rows updated so callers can distinguish a missing query from success.
func (db *DB) RateQuery(ctx context.Context, tenantID, queryID uuid.UUID, rating *int, feedback string, wasHelpful *bool) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE query_history
		SET user_rating = COALESCE($1, user_rating),
		    user_feedback = COALESCE(NULLIF($2, ''), user_feedback),
		    was_helpful = COALESCE($3, was_helpful)
		WHERE tenant_id = $4 AND query_id = $5
	`, rating, feedback, wasHelpful, tenantID, queryID)
	if err != nil {
		return 0, fmt.Errorf("rating query: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertTrainingItem stores one NL-to-SQL training example.
func (db *DB) InsertTrainingItem(ctx context.Context, item *models.TrainingItem) error {
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO training_items (tenant_id, kind, question, content)
		VALUES ($1,$2,NULLIF($3,''),$4)
		RETURNING id, created_at
	`, item.TenantID, item.Kind, item.Question, item.Content).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting training item: %w", err)
	}
	return nil
}

// ListTrainingItems returns a tenant's training data, optionally filtered by kind.
func (db *DB) ListTrainingItems(ctx context.Context, tenantID uuid.UUID, kind models.TrainingKind) ([]models.TrainingItem, error) {
	query := `
		SELECT id, tenant_id, kind, COALESCE(question, ''), content, created_at
		FROM training_items WHERE tenant_id = $1`
	args := []any{tenantID}
	if kind != "" {
		query += ` AND kind = $2`
		args = append(args, kind)
	}
	query += ` ORDER BY id`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying training items: %w", err)
	}
	defer rows.Close()

	var results []models.TrainingItem
	for rows.Next() {
		var item models.TrainingItem
		if err := rows.Scan(&item.ID, &item.TenantID, &item.Kind, &item.Question, &item.Content, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning training item: %w", err)
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// CountTrainingItems returns per-kind training data counts for a tenant.
func (db *DB) CountTrainingItems(ctx context.Context, tenantID uuid.UUID) (map[models.TrainingKind]int, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT kind, COUNT(*) FROM training_items WHERE tenant_id = $1 GROUP BY kind
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("counting training items: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TrainingKind]int)
	for rows.Next() {
		var kind models.TrainingKind
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scanning training count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// DeleteTrainingItems removes all training data for a tenant. Used before a
// full retrain so stale schema examples do not linger.
func (db *DB) DeleteTrainingItems(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM training_items WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return 0, fmt.Errorf("deleting training items: %w", err)
	}
	return tag.RowsAffected(), nil
}
