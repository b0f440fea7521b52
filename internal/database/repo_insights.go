package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/pkg/models"
)

// InsertInsight stores a generated insight.
func (db *DB) InsertInsight(ctx context.Context, in *models.Insight) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO insights (
			insight_id, tenant_id, type, severity, status, title, description,
			recommendation, metrics, affected_entities, current_value,
			previous_value, change_percent, generated_at, data_source, confidence_score
		) VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),$9,$10,$11,$12,$13,$14,NULLIF($15,''),$16)
	`, in.InsightID, in.TenantID, in.Type, in.Severity, in.Status, in.Title, in.Description,
		in.Recommendation, in.Metrics, in.AffectedEntities, in.CurrentValue,
		in.PreviousValue, in.ChangePercent, in.GeneratedAt, in.DataSource, in.ConfidenceScore)
	if err != nil {
		return fmt.Errorf("inserting insight: %w", err)
	}
	return nil
}

const insightColumns = `
	insight_id, tenant_id, type, severity, status, title, description,
	COALESCE(recommendation, ''), metrics, affected_entities, current_value,
	previous_value, change_percent, generated_at, viewed_at, resolved_at,
	COALESCE(data_source, ''), confidence_score`

func scanInsight(row interface{ Scan(...any) error }) (*models.Insight, error) {
	var in models.Insight
	err := row.Scan(
		&in.InsightID, &in.TenantID, &in.Type, &in.Severity, &in.Status, &in.Title, &in.Description,
		&in.Recommendation, &in.Metrics, &in.AffectedEntities, &in.CurrentValue,
		&in.PreviousValue, &in.ChangePercent, &in.GeneratedAt, &in.ViewedAt, &in.ResolvedAt,
		&in.DataSource, &in.ConfidenceScore,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// InsightFilter narrows ListInsights results. Zero values mean no filter.
type InsightFilter struct {
	Type     models.InsightType
	Severity models.Severity
	Status   models.InsightStatus
	Limit    int
	Offset   int
}

// ListInsights returns a tenant's insights, newest first.
func (db *DB) ListInsights(ctx context.Context, tenantID uuid.UUID, f InsightFilter) ([]models.Insight, error) {
	query := `SELECT` + insightColumns + ` FROM insights WHERE tenant_id = $1`
	args := []any{tenantID}

	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if f.Severity != "" {
		args = append(args, f.Severity)
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY generated_at DESC LIMIT $%d", len(args))
	args = append(args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying insights: %w", err)
	}
	defer rows.Close()

	var results []models.Insight
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning insight: %w", err)
		}
		results = append(results, *in)
	}
	return results, rows.Err()
}

// GetInsight retrieves one insight scoped to a tenant.
func (db *DB) GetInsight(ctx context.Context, tenantID, insightID uuid.UUID) (*models.Insight, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT`+insightColumns+` FROM insights WHERE tenant_id = $1 AND insight_id = $2`,
		tenantID, insightID)
	return scanInsight(row)
}

// MarkInsightViewed transitions a new insight to viewed and stamps viewed_at.
// Insights already past the new state are left untouched.
func (db *DB) MarkInsightViewed(ctx context.Context, tenantID, insightID uuid.UUID) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE insights SET status = $1, viewed_at = NOW()
		WHERE tenant_id = $2 AND insight_id = $3 AND status = $4
	`, models.InsightViewed, tenantID, insightID, models.InsightNew)
	if err != nil {
		return fmt.Errorf("marking insight viewed: %w", err)
	}
	return nil
}

// UpdateInsightStatus sets a new lifecycle status on an insight.
// Transitioning to resolved stamps resolved_at.
func (db *DB) UpdateInsightStatus(ctx context.Context, tenantID, insightID uuid.UUID, status models.InsightStatus) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE insights
		SET status = $1,
		    resolved_at = CASE WHEN $1 = 'resolved' THEN NOW() ELSE resolved_at END
		WHERE tenant_id = $2 AND insight_id = $3
	`, status, tenantID, insightID)
	if err != nil {
		return 0, fmt.Errorf("updating insight status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// BatchUpdateInsightStatus applies one status to multiple insights at once.
func (db *DB) BatchUpdateInsightStatus(ctx context.Context, tenantID uuid.UUID, insightIDs []uuid.UUID, status models.InsightStatus) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE insights
		SET status = $1,
		    resolved_at = CASE WHEN $1 = 'resolved' THEN NOW() ELSE resolved_at END
		WHERE tenant_id = $2 AND insight_id = ANY($3)
	`, status, tenantID, insightIDs)
	if err != nil {
		return 0, fmt.Errorf("batch updating insight status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteInsight removes an insight.
func (db *DB) DeleteInsight(ctx context.Context, tenantID, insightID uuid.UUID) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM insights WHERE tenant_id = $1 AND insight_id = $2`, tenantID, insightID)
	if err != nil {
		return 0, fmt.Errorf("deleting insight: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsightStats summarizes a tenant's insights over a recent window.
type InsightStats struct {
	Total      int            `json:"total"`
	Unviewed   int            `json:"unviewed"`
	BySeverity map[string]int `json:"by_severity"`
	ByType     map[string]int `json:"by_type"`
	ByStatus   map[string]int `json:"by_status"`
}

// GetInsightStats aggregates insight counts for insights generated since the cutoff.
func (db *DB) GetInsightStats(ctx context.Context, tenantID uuid.UUID, since time.Time) (*InsightStats, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT type, severity, status, COUNT(*)
		FROM insights
		WHERE tenant_id = $1 AND generated_at >= $2
		GROUP BY type, severity, status
	`, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("querying insight stats: %w", err)
	}
	defer rows.Close()

	stats := &InsightStats{
		BySeverity: make(map[string]int),
		ByType:     make(map[string]int),
		ByStatus:   make(map[string]int),
	}
	for rows.Next() {
		var typ, severity, status string
		var n int
		if err := rows.Scan(&typ, &severity, &status, &n); err != nil {
			return nil, fmt.Errorf("scanning insight stats: %w", err)
		}
		stats.Total += n
		stats.ByType[typ] += n
		stats.BySeverity[severity] += n
		stats.ByStatus[status] += n
		if status == string(models.InsightNew) {
			stats.Unviewed += n
		}
	}
	return stats, rows.Err()
}
