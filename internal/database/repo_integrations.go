package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/pkg/models"
)

// CreateIntegration stores a POS integration configuration.
func (db *DB) CreateIntegration(ctx context.Context, in *models.Integration) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO integrations (
			integration_id, tenant_id, integration_type, integration_name,
			credentials, config, schema_mapping, status, sync_frequency_minutes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, in.IntegrationID, in.TenantID, in.IntegrationType, in.IntegrationName,
		in.Credentials, in.Config, in.SchemaMapping, in.Status, in.SyncFrequencyM)
	if err != nil {
		return fmt.Errorf("inserting integration: %w", err)
	}
	return nil
}

const integrationColumns = `
	integration_id, tenant_id, integration_type, integration_name,
	credentials, config, schema_mapping, is_active, status, COALESCE(last_error, ''),
	last_sync_at, next_sync_at, sync_frequency_minutes, created_at, updated_at`

func scanIntegration(row interface{ Scan(...any) error }) (*models.Integration, error) {
	var in models.Integration
	err := row.Scan(
		&in.IntegrationID, &in.TenantID, &in.IntegrationType, &in.IntegrationName,
		&in.Credentials, &in.Config, &in.SchemaMapping, &in.IsActive, &in.Status, &in.LastError,
		&in.LastSyncAt, &in.NextSyncAt, &in.SyncFrequencyM, &in.CreatedAt, &in.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// ListIntegrations returns a tenant's integrations.
func (db *DB) ListIntegrations(ctx context.Context, tenantID uuid.UUID) ([]models.Integration, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT`+integrationColumns+` FROM integrations WHERE tenant_id = $1 ORDER BY created_at`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying integrations: %w", err)
	}
	defer rows.Close()

	var results []models.Integration
	for rows.Next() {
		in, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning integration: %w", err)
		}
		results = append(results, *in)
	}
	return results, rows.Err()
}

// GetIntegration retrieves one integration scoped to a tenant.
func (db *DB) GetIntegration(ctx context.Context, tenantID, integrationID uuid.UUID) (*models.Integration, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT`+integrationColumns+` FROM integrations WHERE tenant_id = $1 AND integration_id = $2`,
		tenantID, integrationID)
	return scanIntegration(row)
}

// UpdateIntegration updates mutable integration fields. Nil maps leave the
// stored value untouched so partial updates are safe.
func (db *DB) UpdateIntegration(ctx context.Context, in *models.Integration) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE integrations
		SET integration_name = $1,
		    credentials = COALESCE($2, credentials),
		    config = COALESCE($3, config),
		    schema_mapping = COALESCE($4, schema_mapping),
		    is_active = $5,
		    status = $6,
		    sync_frequency_minutes = $7,
		    updated_at = NOW()
		WHERE tenant_id = $8 AND integration_id = $9
	`, in.IntegrationName, in.Credentials, in.Config, in.SchemaMapping,
		in.IsActive, in.Status, in.SyncFrequencyM, in.TenantID, in.IntegrationID)
	if err != nil {
		return 0, fmt.Errorf("updating integration: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RecordIntegrationSync stamps the outcome of a sync attempt. An empty errMsg
// marks success and schedules the next sync from the stored frequency.
func (db *DB) RecordIntegrationSync(ctx context.Context, tenantID, integrationID uuid.UUID, errMsg string) error {
	var err error
	if errMsg == "" {
		_, err = db.Pool.Exec(ctx, `
			UPDATE integrations
			SET status = $1, last_error = NULL, last_sync_at = NOW(),
			    next_sync_at = NOW() + (sync_frequency_minutes || ' minutes')::interval,
			    updated_at = NOW()
			WHERE tenant_id = $2 AND integration_id = $3
		`, models.IntegrationActive, tenantID, integrationID)
	} else {
		_, err = db.Pool.Exec(ctx, `
			UPDATE integrations
			SET status = $1, last_error = $2, updated_at = NOW()
			WHERE tenant_id = $3 AND integration_id = $4
		`, models.IntegrationError, errMsg, tenantID, integrationID)
	}
	if err != nil {
		return fmt.Errorf("recording integration sync: %w", err)
	}
	return nil
}

// DeleteIntegration removes an integration.
func (db *DB) DeleteIntegration(ctx context.Context, tenantID, integrationID uuid.UUID) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM integrations WHERE tenant_id = $1 AND integration_id = $2`,
		tenantID, integrationID)
	if err != nil {
		return 0, fmt.Errorf("deleting integration: %w", err)
	}
	return tag.RowsAffected(), nil
}
