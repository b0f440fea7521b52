package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/pkg/models"
)

// CreateTenant inserts a new tenant row.
func (db *DB) CreateTenant(ctx context.Context, t *models.Tenant) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO tenants (
			tenant_id, salon_name, owner_email, subscription_tier,
			subscription_status, trial_ends_at, settings, monthly_query_limit
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, t.TenantID, t.SalonName, t.OwnerEmail, t.SubscriptionTier,
		t.SubscriptionStatus, t.TrialEndsAt, t.Settings, t.MonthlyQueryLimit)
	if err != nil {
		return fmt.Errorf("inserting tenant: %w", err)
	}
	return nil
}

// GetTenant retrieves a tenant by ID.
func (db *DB) GetTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	var t models.Tenant
	err := db.Pool.QueryRow(ctx, `
		SELECT tenant_id, salon_name, owner_email, subscription_tier, subscription_status,
		       trial_ends_at, settings, pos_integrated, COALESCE(pos_type, ''), last_sync_at,
		       is_active, query_count, monthly_query_limit, created_at, updated_at
		FROM tenants WHERE tenant_id = $1
	`, tenantID).Scan(
		&t.TenantID, &t.SalonName, &t.OwnerEmail, &t.SubscriptionTier, &t.SubscriptionStatus,
		&t.TrialEndsAt, &t.Settings, &t.POSIntegrated, &t.POSType, &t.LastSyncAt,
		&t.IsActive, &t.QueryCount, &t.MonthlyQueryLimit, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TenantExistsByEmail reports whether a tenant is already registered with this owner email.
func (db *DB) TenantExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM tenants WHERE owner_email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking tenant email: %w", err)
	}
	return exists, nil
}

// IncrementTenantQueryCount bumps the lifetime query counter for a tenant.
func (db *DB) IncrementTenantQueryCount(ctx context.Context, tenantID uuid.UUID) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE tenants SET query_count = query_count + 1, updated_at = NOW()
		WHERE tenant_id = $1
	`, tenantID)
	if err != nil {
		return fmt.Errorf("incrementing query count: %w", err)
	}
	return nil
}

// CreateUser inserts a new user row.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (user_id, tenant_id, email, hashed_password, full_name, role, is_active, is_verified)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, u.UserID, u.TenantID, u.Email, u.HashedPassword, u.FullName, u.Role, u.IsActive, u.IsVerified)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email address.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := db.Pool.QueryRow(ctx, `
		SELECT user_id, tenant_id, email, hashed_password, full_name, role,
		       is_active, is_verified, last_login, created_at, updated_at
		FROM users WHERE email = $1
	`, email).Scan(
		&u.UserID, &u.TenantID, &u.Email, &u.HashedPassword, &u.FullName, &u.Role,
		&u.IsActive, &u.IsVerified, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser retrieves a user by ID.
func (db *DB) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var u models.User
	err := db.Pool.QueryRow(ctx, `
		SELECT user_id, tenant_id, email, hashed_password, full_name, role,
		       is_active, is_verified, last_login, created_at, updated_at
		FROM users WHERE user_id = $1
	`, userID).Scan(
		&u.UserID, &u.TenantID, &u.Email, &u.HashedPassword, &u.FullName, &u.Role,
		&u.IsActive, &u.IsVerified, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// TouchUserLogin records a successful login time.
func (db *DB) TouchUserLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE users SET last_login = $1, updated_at = NOW() WHERE user_id = $2`, at, userID)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}
