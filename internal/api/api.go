// Package api implements the SalonPulse REST API handlers.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polishedlabs/salonpulse/internal/auth"
	"github.com/polishedlabs/salonpulse/internal/database"
	"github.com/polishedlabs/salonpulse/internal/forecast"
	"github.com/polishedlabs/salonpulse/internal/insight"
	"github.com/polishedlabs/salonpulse/internal/middleware"
	"github.com/polishedlabs/salonpulse/internal/nlquery"
	"github.com/polishedlabs/salonpulse/internal/quota"
	"github.com/polishedlabs/salonpulse/internal/recommend"
	"github.com/polishedlabs/salonpulse/pkg/cache"
)

// Handlers holds dependencies for API endpoints.
type Handlers struct {
	DB        *database.DB
	Cache     *cache.Cache
	Issuer    *auth.TokenIssuer
	Query     *nlquery.Service
	Quota     *quota.Enforcer
	Forecast  *forecast.Service
	Insights  *insight.Engine
	Recommend *recommend.Engine
}

// requireDB checks database availability and writes a 503 if unavailable.
// Returns true if the DB is available.
func (h *Handlers) requireDB(c *gin.Context) bool {
	if h.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
		return false
	}
	return true
}

// claims returns the authenticated caller's claims. Routes registered behind
// RequireAuth always have them; a nil result means a wiring bug, answered
// with a 401 rather than a panic.
func (h *Handlers) claims(c *gin.Context) *auth.Claims {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return claims
}

// HealthCheck reports service and dependency status.
func (h *Handlers) HealthCheck(c *gin.Context) {
	status := "healthy"
	checks := gin.H{}

	if h.DB != nil {
		if err := h.DB.Pool.Ping(c.Request.Context()); err != nil {
			checks["database"] = "unreachable"
			status = "degraded"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
		status = "degraded"
	}

	if h.Cache != nil {
		if err := h.Cache.Client().Ping(c.Request.Context()).Err(); err != nil {
			checks["redis"] = "unreachable"
			status = "degraded"
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "not configured"
		status = "degraded"
	}

	// The LLM backend is only called on demand, so health reports wiring
	// rather than probing it on every check.
	if h.Query != nil {
		checks["llm"] = "configured"
	} else {
		checks["llm"] = "not configured"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "checks": checks})
}
