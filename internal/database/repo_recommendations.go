package database

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/pkg/models"
)

// InsertRecommendation stores a generated recommendation and fills in its ID.
func (db *DB) InsertRecommendation(ctx context.Context, r *models.Recommendation) error {
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO recommendations (
			tenant_id, type, priority, status, title, description, reasoning,
			action_items, expected_impact, data_sources, confidence_score, expires_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at
	`, r.TenantID, r.Type, r.Priority, r.Status, r.Title, r.Description, r.Reasoning,
		r.ActionItems, r.ExpectedImpact, r.DataSources, r.ConfidenceScore, r.ExpiresAt,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting recommendation: %w", err)
	}
	return nil
}

// RecommendationFilter narrows ListRecommendations. Zero values mean no filter.
type RecommendationFilter struct {
	Type     models.RecommendationType
	Status   models.RecommendationStatus
	Priority models.RecommendationPriority
	Limit    int
	Offset   int
}

const recommendationColumns = `
	id, tenant_id, type, priority, status, title, description, reasoning,
	action_items, expected_impact, data_sources, confidence_score,
	created_at, expires_at, acted_on_at, user_feedback, effectiveness_score`

func scanRecommendation(row interface{ Scan(...any) error }) (*models.Recommendation, error) {
	var r models.Recommendation
	err := row.Scan(
		&r.ID, &r.TenantID, &r.Type, &r.Priority, &r.Status, &r.Title, &r.Description, &r.Reasoning,
		&r.ActionItems, &r.ExpectedImpact, &r.DataSources, &r.ConfidenceScore,
		&r.CreatedAt, &r.ExpiresAt, &r.ActedOnAt, &r.UserFeedback, &r.EffectivenessScore,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRecommendations returns a tenant's recommendations, newest first.
func (db *DB) ListRecommendations(ctx context.Context, tenantID uuid.UUID, f RecommendationFilter) ([]models.Recommendation, error) {
	query := `SELECT` + recommendationColumns + ` FROM recommendations WHERE tenant_id = $1`
	args := []any{tenantID}

	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying recommendations: %w", err)
	}
	defer rows.Close()

	var results []models.Recommendation
	for rows.Next() {
		r, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning recommendation: %w", err)
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

// GetRecommendation retrieves one recommendation scoped to a tenant.
func (db *DB) GetRecommendation(ctx context.Context, tenantID uuid.UUID, id int64) (*models.Recommendation, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT`+recommendationColumns+` FROM recommendations WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)
	return scanRecommendation(row)
}

// UpdateRecommendationStatus transitions a recommendation and optionally attaches
// user feedback. Accepting or rejecting stamps acted_on_at.
func (db *DB) UpdateRecommendationStatus(ctx context.Context, tenantID uuid.UUID, id int64, status models.RecommendationStatus, feedback map[string]any) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE recommendations
		SET status = $1,
		    user_feedback = COALESCE($2, user_feedback),
		    acted_on_at = CASE WHEN $1 IN ('accepted','rejected','completed') THEN NOW() ELSE acted_on_at END
		WHERE tenant_id = $3 AND id = $4
	`, status, feedback, tenantID, id)
	if err != nil {
		return 0, fmt.Errorf("updating recommendation status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ExpireRecommendations transitions active recommendations past their expiry.
// Returns the number of rows expired.
func (db *DB) ExpireRecommendations(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE recommendations SET status = $1
		WHERE tenant_id = $2 AND status = $3 AND expires_at IS NOT NULL AND expires_at < NOW()
	`, models.RecExpired, tenantID, models.RecActive)
	if err != nil {
		return 0, fmt.Errorf("expiring recommendations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertRecommendationMetrics stores a post-hoc impact measurement.
func (db *DB) InsertRecommendationMetrics(ctx context.Context, m *models.RecommendationMetrics) error {
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO recommendation_metrics (
			recommendation_id, tenant_id, predicted_impact, actual_impact,
			acceptance_rate, completion_rate, roi, time_to_action, measured_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at
	`, m.RecommendationID, m.TenantID, m.PredictedImpact, m.ActualImpact,
		m.AcceptanceRate, m.CompletionRate, m.ROI, m.TimeToActionHrs, m.MeasuredAt,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting recommendation metrics: %w", err)
	}
	return nil
}

// ListRecommendationTemplates returns the active rule templates.
func (db *DB) ListRecommendationTemplates(ctx context.Context) ([]models.RecommendationTemplate, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, type, name, title_template, description_template, trigger_conditions,
		       data_requirements, priority_default, is_active, created_at, updated_at
		FROM recommendation_templates WHERE is_active ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying recommendation templates: %w", err)
	}
	defer rows.Close()

	var results []models.RecommendationTemplate
	for rows.Next() {
		var t models.RecommendationTemplate
		if err := rows.Scan(
			&t.ID, &t.Type, &t.Name, &t.TitleTemplate, &t.DescriptionTemplate, &t.TriggerConditions,
			&t.DataRequirements, &t.PriorityDefault, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning recommendation template: %w", err)
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

// SeedTemplates inserts the default recommendation templates if not present.
func (db *DB) SeedTemplates(ctx context.Context) error {
	templates := []models.RecommendationTemplate{
		{
			Type:                models.RecPromotion,
			Name:                "slow_day_promotion",
			TitleTemplate:       "Boost bookings on {day}",
			DescriptionTemplate: "{day} runs {pct}% below your busiest day. A targeted promotion can fill the gap.",
			TriggerConditions:   map[string]any{"slow_day_ratio_below": 0.6},
			DataRequirements:    []string{"bookings"},
			PriorityDefault:     models.PriorityMedium,
		},
		{
			Type:                models.RecScheduling,
			Name:                "peak_hour_staffing",
			TitleTemplate:       "Add staff during peak hours",
			DescriptionTemplate: "Hours {hours} take {pct}% of daily bookings. Align technician shifts with demand.",
			TriggerConditions:   map[string]any{"peak_concentration_above": 0.4},
			DataRequirements:    []string{"bookings", "technicians"},
			PriorityDefault:     models.PriorityHigh,
		},
		{
			Type:                models.RecRetention,
			Name:                "churn_risk_outreach",
			TitleTemplate:       "Win back {count} at-risk customers",
			DescriptionTemplate: "{count} high-value customers have not visited recently. A personal offer can bring them back.",
			TriggerConditions:   map[string]any{"high_risk_customers_above": 0},
			DataRequirements:    []string{"customers", "bookings"},
			PriorityDefault:     models.PriorityHigh,
		},
		{
			Type:                models.RecInventory,
			Name:                "restock_alert",
			TitleTemplate:       "Restock {count} low products",
			DescriptionTemplate: "{count} products are at or below their minimum stock level.",
			TriggerConditions:   map[string]any{"low_stock_products_above": 0},
			DataRequirements:    []string{"products"},
			PriorityDefault:     models.PriorityMedium,
		},
		{
			Type:                models.RecPricing,
			Name:                "price_review",
			TitleTemplate:       "Review pricing for {service}",
			DescriptionTemplate: "Demand for {service} grew {pct}% month over month. Sustained growth supports a modest price increase.",
			TriggerConditions:   map[string]any{"demand_growth_above": 0.25, "min_prior_bookings": 5},
			DataRequirements:    []string{"bookings", "services"},
			PriorityDefault:     models.PriorityMedium,
		},
		{
			Type:                models.RecServiceBundling,
			Name:                "service_bundle",
			TitleTemplate:       "Bundle {service_a} with {service_b}",
			DescriptionTemplate: "These services are booked together in {pct}% of visits. A bundle price can lift attach rate further.",
			TriggerConditions:   map[string]any{"pair_rate_above": 0.15},
			DataRequirements:    []string{"bookings", "services"},
			PriorityDefault:     models.PriorityLow,
		},
	}

	for _, t := range templates {
		_, err := db.Pool.Exec(ctx, `
			INSERT INTO recommendation_templates (
				type, name, title_template, description_template,
				trigger_conditions, data_requirements, priority_default
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (name) DO UPDATE
			SET title_template = EXCLUDED.title_template,
			    description_template = EXCLUDED.description_template,
			    trigger_conditions = EXCLUDED.trigger_conditions,
			    updated_at = NOW()
		`, t.Type, t.Name, t.TitleTemplate, t.DescriptionTemplate,
			t.TriggerConditions, t.DataRequirements, t.PriorityDefault)
		if err != nil {
			return fmt.Errorf("seeding template %s: %w", t.Name, err)
		}
	}

	log.Printf("database: seeded %d recommendation templates", len(templates))
	return nil
}
