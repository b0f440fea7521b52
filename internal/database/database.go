// Package database manages PostgreSQL connections and provides the data access layer.
//
// SalonPulse uses schema-per-tenant isolation: shared platform tables live in
// the public schema, while each salon's operational data lives in its own
// tenant_{id} schema created at registration time.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the PostgreSQL connection pool and provides query methods.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(dsn string) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	config.MaxConns = 20
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// TenantSchemaName derives the schema name for a tenant. Hyphens are replaced
// with underscores so the name is a plain SQL identifier; the input is a parsed
// UUID, never raw user text.
func TenantSchemaName(tenantID uuid.UUID) string {
	return "tenant_" + strings.ReplaceAll(tenantID.String(), "-", "_")
}

// TenantConn is a pooled connection pinned to a tenant's schema via search_path.
// Release must be called to reset the search_path and return the connection.
type TenantConn struct {
	Conn *pgxpool.Conn
}

// Release resets the search_path and returns the connection to the pool.
func (tc *TenantConn) Release() {
	// Best effort: the pool also resets session state on acquire, but an
	// explicit reset keeps the connection safe for non-tenant callers.
	_, _ = tc.Conn.Exec(context.Background(), "SET search_path TO public")
	tc.Conn.Release()
}

// AcquireTenant returns a connection with search_path set to the tenant's schema.
func (db *DB) AcquireTenant(ctx context.Context, tenantID uuid.UUID) (*TenantConn, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring tenant connection: %w", err)
	}

	schema := TenantSchemaName(tenantID)
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s, public", schema)); err != nil {
		conn.Release()
		return nil, fmt.Errorf("setting search_path to %s: %w", schema, err)
	}

	return &TenantConn{Conn: conn}, nil
}

// Migrate runs platform schema migrations.
// An advisory lock prevents concurrent replicas from racing on DDL statements.
func (db *DB) Migrate(ctx context.Context) error {
	// Acquire a dedicated connection for the advisory lock.
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection for migration: %w", err)
	}
	defer conn.Release()

	// Application-specific lock ID to avoid collisions with other apps on the
	// same PostgreSQL instance.
	const migrationLockID int64 = 0x53_50_4C_01 // "SPL" prefix + 01
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("acquiring migration lock: %w", err)
	}
	defer conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID)

	schema := `
	CREATE TABLE IF NOT EXISTS tenants (
		tenant_id            UUID PRIMARY KEY,
		salon_name           TEXT NOT NULL,
		owner_email          TEXT NOT NULL UNIQUE,
		subscription_tier    TEXT NOT NULL DEFAULT 'starter',
		subscription_status  TEXT NOT NULL DEFAULT 'trial',
		trial_ends_at        TIMESTAMPTZ,
		settings             JSONB NOT NULL DEFAULT '{}',
		pos_integrated       BOOLEAN NOT NULL DEFAULT FALSE,
		pos_type             TEXT,
		last_sync_at         TIMESTAMPTZ,
		is_active            BOOLEAN NOT NULL DEFAULT TRUE,
		query_count          BIGINT NOT NULL DEFAULT 0,
		monthly_query_limit  BIGINT NOT NULL DEFAULT 1000,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS users (
		user_id          UUID PRIMARY KEY,
		tenant_id        UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
		email            TEXT NOT NULL UNIQUE,
		hashed_password  TEXT NOT NULL,
		full_name        TEXT NOT NULL,
		role             TEXT NOT NULL DEFAULT 'user',
		is_active        BOOLEAN NOT NULL DEFAULT TRUE,
		is_verified      BOOLEAN NOT NULL DEFAULT FALSE,
		last_login       TIMESTAMPTZ,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS query_history (
		query_id           UUID PRIMARY KEY,
		tenant_id          UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
		user_id            UUID REFERENCES users(user_id),
		question           TEXT NOT NULL,
		generated_sql      TEXT NOT NULL,
		was_executed       BOOLEAN NOT NULL DEFAULT FALSE,
		execution_time_ms  DOUBLE PRECISION,
		row_count          INTEGER,
		error_message      TEXT,
		user_rating        INTEGER,
		user_feedback      TEXT,
		was_helpful        BOOLEAN,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS training_items (
		id          BIGSERIAL PRIMARY KEY,
		tenant_id   UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
		kind        TEXT NOT NULL,
		question    TEXT,
		content     TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS insights (
		insight_id         UUID PRIMARY KEY,
		tenant_id          UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
		type               TEXT NOT NULL,
		severity           TEXT NOT NULL,
		status             TEXT NOT NULL DEFAULT 'new',
		title              TEXT NOT NULL,
		description        TEXT NOT NULL,
		recommendation     TEXT,
		metrics            JSONB,
		affected_entities  JSONB,
		current_value      DOUBLE PRECISION,
		previous_value     DOUBLE PRECISION,
		change_percent     DOUBLE PRECISION,
		generated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		viewed_at          TIMESTAMPTZ,
		resolved_at        TIMESTAMPTZ,
		data_source        TEXT,
		confidence_score   DOUBLE PRECISION
	);

	CREATE TABLE IF NOT EXISTS predictions (
		id                   BIGSERIAL PRIMARY KEY,
		tenant_id            UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
		prediction_type      TEXT NOT NULL,
		model_type           TEXT NOT NULL,
		target_date          DATE,
		target_entity_id     BIGINT,
		predicted_value      JSONB NOT NULL,
		confidence_interval  JSONB,
		confidence_score     DOUBLE PRECISION,
		extra_data           JSONB,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		valid_until          TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS ml_models (
		id                   BIGSERIAL PRIMARY KEY,
		tenant_id            UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
		model_type           TEXT NOT NULL,
		prediction_type      TEXT NOT NULL,
		version              TEXT NOT NULL,
		performance_metrics  JSONB,
		feature_importance   JSONB,
		training_samples     INTEGER,
		is_active            BOOLEAN NOT NULL DEFAULT TRUE,
		trained_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_used_at         TIMESTAMPTZ,
		training_config      JSONB
	);

	CREATE TABLE IF NOT EXISTS prediction_feedback (
		id                BIGSERIAL PRIMARY KEY,
		prediction_id     BIGINT NOT NULL REFERENCES predictions(id) ON DELETE CASCADE,
		actual_value      JSONB NOT NULL,
		error             DOUBLE PRECISION,
		error_percentage  DOUBLE PRECISION,
		recorded_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS recommendations (
		id                   BIGSERIAL PRIMARY KEY,
		tenant_id            UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
		type                 TEXT NOT NULL,
		priority             TEXT NOT NULL,
		status               TEXT NOT NULL DEFAULT 'active',
		title                TEXT NOT NULL,
		description          TEXT NOT NULL,
		reasoning            JSONB NOT NULL,
		action_items         JSONB NOT NULL,
		expected_impact      JSONB,
		data_sources         JSONB,
		confidence_score     DOUBLE PRECISION,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at           TIMESTAMPTZ,
		acted_on_at          TIMESTAMPTZ,
		user_feedback        JSONB,
		effectiveness_score  DOUBLE PRECISION
	);

	CREATE TABLE IF NOT EXISTS recommendation_templates (
		id                    BIGSERIAL PRIMARY KEY,
		type                  TEXT NOT NULL,
		name                  TEXT NOT NULL UNIQUE,
		title_template        TEXT NOT NULL,
		description_template  TEXT NOT NULL,
		trigger_conditions    JSONB NOT NULL,
		data_requirements     JSONB NOT NULL,
		priority_default      TEXT NOT NULL,
		is_active             BOOLEAN NOT NULL DEFAULT TRUE,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS recommendation_metrics (
		id                 BIGSERIAL PRIMARY KEY,
		recommendation_id  BIGINT NOT NULL REFERENCES recommendations(id) ON DELETE CASCADE,
		tenant_id          UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
		predicted_impact   JSONB NOT NULL,
		actual_impact      JSONB,
		acceptance_rate    DOUBLE PRECISION,
		completion_rate    DOUBLE PRECISION,
		roi                DOUBLE PRECISION,
		time_to_action     INTEGER,
		measured_at        TIMESTAMPTZ,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS integrations (
		integration_id          UUID PRIMARY KEY,
		tenant_id               UUID NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
		integration_type        TEXT NOT NULL,
		integration_name        TEXT NOT NULL,
		credentials             JSONB NOT NULL,
		config                  JSONB NOT NULL DEFAULT '{}',
		schema_mapping          JSONB NOT NULL DEFAULT '{}',
		is_active               BOOLEAN NOT NULL DEFAULT TRUE,
		status                  TEXT NOT NULL DEFAULT 'pending',
		last_error              TEXT,
		last_sync_at            TIMESTAMPTZ,
		next_sync_at            TIMESTAMPTZ,
		sync_frequency_minutes  INTEGER NOT NULL DEFAULT 15,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_tenant_id ON users(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_query_history_tenant_id ON query_history(tenant_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_training_items_tenant_kind ON training_items(tenant_id, kind);
	CREATE INDEX IF NOT EXISTS idx_insights_tenant_id ON insights(tenant_id, generated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_insights_status ON insights(tenant_id, status);
	CREATE INDEX IF NOT EXISTS idx_predictions_tenant_type ON predictions(tenant_id, prediction_type, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_ml_models_tenant ON ml_models(tenant_id, prediction_type, is_active);
	CREATE INDEX IF NOT EXISTS idx_recommendations_tenant ON recommendations(tenant_id, status, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_integrations_tenant ON integrations(tenant_id);
	`

	_, err = conn.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// tenantTables is the standard salon schema created for every tenant.
var tenantTables = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		customer_id    SERIAL PRIMARY KEY,
		first_name     VARCHAR(50) NOT NULL,
		last_name      VARCHAR(50) NOT NULL,
		phone          VARCHAR(20),
		email          VARCHAR(100),
		date_of_birth  DATE,
		created_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		notes          TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS technicians (
		technician_id    SERIAL PRIMARY KEY,
		first_name       VARCHAR(50) NOT NULL,
		last_name        VARCHAR(50) NOT NULL,
		phone            VARCHAR(20),
		email            VARCHAR(100),
		specialties      TEXT,
		hire_date        DATE,
		is_active        BOOLEAN DEFAULT TRUE,
		commission_rate  DECIMAL(5,2) DEFAULT 50.00
	)`,
	`CREATE TABLE IF NOT EXISTS services (
		service_id        SERIAL PRIMARY KEY,
		service_name      VARCHAR(100) NOT NULL,
		category          VARCHAR(50) NOT NULL,
		base_price        DECIMAL(10,2) NOT NULL,
		duration_minutes  INT NOT NULL,
		description       TEXT,
		is_active         BOOLEAN DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		booking_id       SERIAL PRIMARY KEY,
		customer_id      INT NOT NULL REFERENCES customers(customer_id),
		technician_id    INT NOT NULL REFERENCES technicians(technician_id),
		booking_date     DATE NOT NULL,
		booking_time     TIME NOT NULL,
		status           VARCHAR(20) DEFAULT 'scheduled',
		total_amount     DECIMAL(10,2) NOT NULL,
		discount_amount  DECIMAL(10,2) DEFAULT 0,
		tip_amount       DECIMAL(10,2) DEFAULT 0,
		payment_method   VARCHAR(50),
		notes            TEXT,
		created_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS booking_services (
		booking_service_id  SERIAL PRIMARY KEY,
		booking_id          INT NOT NULL REFERENCES bookings(booking_id) ON DELETE CASCADE,
		service_id          INT NOT NULL REFERENCES services(service_id),
		price               DECIMAL(10,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		product_id       SERIAL PRIMARY KEY,
		product_name     VARCHAR(100) NOT NULL,
		category         VARCHAR(50),
		unit_price       DECIMAL(10,2) NOT NULL,
		current_stock    INT DEFAULT 0,
		min_stock_level  INT DEFAULT 10,
		supplier         VARCHAR(100)
	)`,
	`CREATE TABLE IF NOT EXISTS product_sales (
		sale_id      SERIAL PRIMARY KEY,
		booking_id   INT REFERENCES bookings(booking_id),
		product_id   INT NOT NULL REFERENCES products(product_id),
		quantity     INT NOT NULL,
		unit_price   DECIMAL(10,2) NOT NULL,
		total_price  DECIMAL(10,2) NOT NULL,
		sale_date    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

// CreateTenantSchema creates a tenant's schema and its standard salon tables.
// Called once at registration; idempotent so a retried registration is safe.
func (db *DB) CreateTenantSchema(ctx context.Context, tenantID uuid.UUID) error {
	schema := TenantSchemaName(tenantID)

	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection for tenant schema: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("creating schema %s: %w", schema, err)
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema)); err != nil {
		return fmt.Errorf("setting search_path to %s: %w", schema, err)
	}
	defer conn.Exec(ctx, "SET search_path TO public")

	for _, ddl := range tenantTables {
		if _, err := conn.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("creating tenant table in %s: %w", schema, err)
		}
	}

	return nil
}
