package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/pkg/models"
)

// InsertPrediction stores a forecast result and fills in the generated ID.
func (db *DB) InsertPrediction(ctx context.Context, p *models.Prediction) error {
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO predictions (
			tenant_id, prediction_type, model_type, target_date, target_entity_id,
			predicted_value, confidence_interval, confidence_score, extra_data, valid_until
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at
	`, p.TenantID, p.PredictionType, p.ModelType, p.TargetDate, p.TargetEntityID,
		p.PredictedValue, p.ConfidenceInterval, p.ConfidenceScore, p.ExtraData, p.ValidUntil,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting prediction: %w", err)
	}
	return nil
}

// ListPredictions returns a tenant's stored predictions, newest first,
// optionally filtered by prediction type.
func (db *DB) ListPredictions(ctx context.Context, tenantID uuid.UUID, predType models.PredictionType, limit int) ([]models.Prediction, error) {
	query := `
		SELECT id, tenant_id, prediction_type, model_type, target_date, target_entity_id,
		       predicted_value, confidence_interval, confidence_score, extra_data, created_at, valid_until
		FROM predictions WHERE tenant_id = $1`
	args := []any{tenantID}
	if predType != "" {
		args = append(args, predType)
		query += fmt.Sprintf(" AND prediction_type = $%d", len(args))
	}
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying predictions: %w", err)
	}
	defer rows.Close()

	var results []models.Prediction
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(
			&p.ID, &p.TenantID, &p.PredictionType, &p.ModelType, &p.TargetDate, &p.TargetEntityID,
			&p.PredictedValue, &p.ConfidenceInterval, &p.ConfidenceScore, &p.ExtraData, &p.CreatedAt, &p.ValidUntil,
		); err != nil {
			return nil, fmt.Errorf("scanning prediction: %w", err)
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// GetPrediction retrieves one prediction scoped to a tenant.
func (db *DB) GetPrediction(ctx context.Context, tenantID uuid.UUID, id int64) (*models.Prediction, error) {
	var p models.Prediction
	err := db.Pool.QueryRow(ctx, `
		SELECT id, tenant_id, prediction_type, model_type, target_date, target_entity_id,
		       predicted_value, confidence_interval, confidence_score, extra_data, created_at, valid_until
		FROM predictions WHERE tenant_id = $1 AND id = $2
	`, tenantID, id).Scan(
		&p.ID, &p.TenantID, &p.PredictionType, &p.ModelType, &p.TargetDate, &p.TargetEntityID,
		&p.PredictedValue, &p.ConfidenceInterval, &p.ConfidenceScore, &p.ExtraData, &p.CreatedAt, &p.ValidUntil,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertPredictionFeedback records the observed outcome for a prediction.
func (db *DB) InsertPredictionFeedback(ctx context.Context, fb *models.PredictionFeedback) error {
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO prediction_feedback (prediction_id, actual_value, error, error_percentage)
		VALUES ($1,$2,$3,$4)
		RETURNING id, recorded_at
	`, fb.PredictionID, fb.ActualValue, fb.Error, fb.ErrorPercentage).Scan(&fb.ID, &fb.RecordedAt)
	if err != nil {
		return fmt.Errorf("inserting prediction feedback: %w", err)
	}
	return nil
}

// RegisterModel records a newly trained model version and deactivates any
// previously active model for the same tenant, model type, and prediction type.
// Both steps run in one transaction so exactly one model stays active.
func (db *DB) RegisterModel(ctx context.Context, m *models.MLModel) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning model registration: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE ml_models SET is_active = FALSE
		WHERE tenant_id = $1 AND model_type = $2 AND prediction_type = $3 AND is_active
	`, m.TenantID, m.ModelType, m.PredictionType)
	if err != nil {
		return fmt.Errorf("deactivating prior models: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO ml_models (
			tenant_id, model_type, prediction_type, version, performance_metrics,
			feature_importance, training_samples, is_active, training_config
		) VALUES ($1,$2,$3,$4,$5,$6,$7,TRUE,$8)
		RETURNING id, trained_at
	`, m.TenantID, m.ModelType, m.PredictionType, m.Version, m.PerformanceMetrics,
		m.FeatureImportance, m.TrainingSamples, m.TrainingConfig,
	).Scan(&m.ID, &m.TrainedAt)
	if err != nil {
		return fmt.Errorf("inserting model: %w", err)
	}
	m.IsActive = true

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing model registration: %w", err)
	}
	return nil
}

// GetActiveModel returns the active model for a tenant and prediction type, or
// nil when no model has been registered yet.
func (db *DB) GetActiveModel(ctx context.Context, tenantID uuid.UUID, predType models.PredictionType) (*models.MLModel, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, tenant_id, model_type, prediction_type, version, performance_metrics,
		       feature_importance, training_samples, is_active, trained_at, last_used_at, training_config
		FROM ml_models
		WHERE tenant_id = $1 AND prediction_type = $2 AND is_active
		ORDER BY trained_at DESC LIMIT 1
	`, tenantID, predType)
	if err != nil {
		return nil, fmt.Errorf("querying active model: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var m models.MLModel
	if err := rows.Scan(
		&m.ID, &m.TenantID, &m.ModelType, &m.PredictionType, &m.Version, &m.PerformanceMetrics,
		&m.FeatureImportance, &m.TrainingSamples, &m.IsActive, &m.TrainedAt, &m.LastUsedAt, &m.TrainingConfig,
	); err != nil {
		return nil, fmt.Errorf("scanning active model: %w", err)
	}
	return &m, rows.Err()
}

// TouchModelUsed stamps last_used_at on a model after it served a prediction.
func (db *DB) TouchModelUsed(ctx context.Context, modelID int64) error {
	_, err := db.Pool.Exec(ctx, `UPDATE ml_models SET last_used_at = NOW() WHERE id = $1`, modelID)
	if err != nil {
		return fmt.Errorf("touching model: %w", err)
	}
	return nil
}
