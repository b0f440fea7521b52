// Package middleware provides HTTP middleware for the SalonPulse API server.
package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polishedlabs/salonpulse/internal/auth"
	"github.com/polishedlabs/salonpulse/pkg/cache"
	"github.com/polishedlabs/salonpulse/pkg/models"
)

// ClaimsKey is the gin context key under which validated claims are stored.
const ClaimsKey = "auth_claims"

// LoggingMiddleware logs request details with latency and status.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		switch {
		case status >= 500:
			log.Printf("[ERROR] %s %s -> %d (%v)", method, path, status, latency)
		case status >= 400:
			log.Printf("[WARN] %s %s -> %d (%v)", method, path, status, latency)
		default:
			log.Printf("[INFO] %s %s -> %d (%v)", method, path, status, latency)
		}
	}
}

// RecoveryMiddleware recovers from panics and returns a 500 error.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[ERROR] panic recovered: %v", r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// RequireAuth validates the Bearer token and stores its claims in the context.
// Requests without a valid token are rejected before reaching handlers.
func RequireAuth(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := issuer.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests from callers below the minimum role rank.
// Must run after RequireAuth.
func RequireRole(min models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if claims.Role.Rank() < min.Rank() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

// GetClaims returns the validated claims stored by RequireAuth, or nil.
func GetClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// RateLimitMiddleware enforces a fixed-window per-tenant rate limit backed by
// Redis. Unauthenticated routes fall back to the client IP. If Redis is
// unavailable the request is allowed: availability over strict limiting.
func RateLimitMiddleware(c *cache.Cache, maxRequests int64, window time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c == nil {
			ctx.Next()
			return
		}

		key := ctx.ClientIP()
		if claims := GetClaims(ctx); claims != nil {
			key = claims.TenantID.String()
		}

		allowed, err := c.RateLimitCheck(ctx.Request.Context(), key, maxRequests, window)
		if err != nil {
			log.Printf("[WARN] rate limit check failed, allowing request: %v", err)
			ctx.Next()
			return
		}

		if !allowed {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, try again later",
			})
			return
		}
		ctx.Next()
	}
}
