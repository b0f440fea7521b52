// Package quota enforces per-tenant monthly query limits.
//
// Counters live in Redis keyed by calendar month so they roll over without a
// scheduled reset job. The tenant row holds the limit and a lifetime total.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/internal/database"
	"github.com/polishedlabs/salonpulse/pkg/cache"
)

// ErrQuotaExceeded is returned when a tenant has used its monthly query allowance.
var ErrQuotaExceeded = errors.New("quota: monthly query limit exceeded")

// Enforcer checks and records query usage against tenant limits.
type Enforcer struct {
	db       *database.DB
	cache    *cache.Cache
	failOpen bool
}

// NewEnforcer creates a quota enforcer. When failOpen is true, Redis outages
// allow queries through instead of blocking every tenant on a cache failure.
func NewEnforcer(db *database.DB, c *cache.Cache, failOpen bool) *Enforcer {
	return &Enforcer{db: db, cache: c, failOpen: failOpen}
}

// Usage describes a tenant's current standing against its monthly limit.
type Usage struct {
	Used      int64 `json:"used"`
	Limit     int64 `json:"limit"`
	Remaining int64 `json:"remaining"`
}

// Consume advances the usage snapshot by one query, so a response can echo
// the standing after the query it just ran. Unlimited tenants are untouched.
func (u *Usage) Consume() {
	if u.Limit <= 0 {
		return
	}
	u.Used++
	if u.Remaining > 0 {
		u.Remaining--
	}
}

// Check returns the tenant's current usage, or ErrQuotaExceeded when the
// monthly allowance is spent. A zero or negative limit means unlimited.
func (e *Enforcer) Check(ctx context.Context, tenantID uuid.UUID) (*Usage, error) {
	tenant, err := e.db.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("quota: loading tenant: %w", err)
	}

	if tenant.MonthlyQueryLimit <= 0 {
		return &Usage{Used: 0, Limit: 0, Remaining: -1}, nil
	}

	if e.cache == nil {
		// No Redis means no usage counter. Treat like a lookup failure so the
		// failOpen flag decides.
		if e.failOpen {
			return &Usage{Used: 0, Limit: tenant.MonthlyQueryLimit, Remaining: tenant.MonthlyQueryLimit}, nil
		}
		return nil, fmt.Errorf("quota: usage counter unavailable")
	}

	used, err := e.cache.GetMonthlyUsage(ctx, tenantID.String())
	if err != nil {
		if e.failOpen {
			log.Printf("[WARN] quota: usage lookup failed for %s, allowing query: %v", tenantID, err)
			return &Usage{Used: 0, Limit: tenant.MonthlyQueryLimit, Remaining: tenant.MonthlyQueryLimit}, nil
		}
		return nil, fmt.Errorf("quota: usage lookup: %w", err)
	}

	usage := &Usage{
		Used:      used,
		Limit:     tenant.MonthlyQueryLimit,
		Remaining: tenant.MonthlyQueryLimit - used,
	}
	if usage.Remaining <= 0 {
		usage.Remaining = 0
		return usage, ErrQuotaExceeded
	}
	return usage, nil
}

// Record counts one executed query against the tenant's month and lifetime
// totals. Counter failures are logged, not surfaced: the query already ran
// and the user should still get their result.
func (e *Enforcer) Record(ctx context.Context, tenantID uuid.UUID) {
	if e.cache != nil {
		if _, err := e.cache.IncrMonthlyUsage(ctx, tenantID.String()); err != nil {
			log.Printf("[WARN] quota: failed to record monthly usage for %s: %v", tenantID, err)
		}
	}
	if err := e.db.IncrementTenantQueryCount(ctx, tenantID); err != nil {
		log.Printf("[WARN] quota: failed to record lifetime usage for %s: %v", tenantID, err)
	}
}
