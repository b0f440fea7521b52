package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/internal/auth"
	"github.com/polishedlabs/salonpulse/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(issuer *auth.TokenIssuer, min models.Role) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{RequireAuth(issuer)}
	if min != "" {
		handlers = append(handlers, RequireRole(min))
	}
	handlers = append(handlers, func(c *gin.Context) {
		claims := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"tenant_id": claims.TenantID})
	})
	r.GET("/protected", handlers...)
	return r
}

func issueToken(t *testing.T, issuer *auth.TokenIssuer, role models.Role) string {
	t.Helper()
	token, err := issuer.Issue(&models.User{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Email:    "user@example.com",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return token
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	r := newRouter(issuer, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_BadScheme(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	r := newRouter(issuer, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	r := newRouter(issuer, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, issuer, models.RoleUser))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	expired := auth.NewTokenIssuer("secret", -time.Minute)
	r := newRouter(auth.NewTokenIssuer("secret", time.Hour), "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, expired, models.RoleUser))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)

	tests := []struct {
		name   string
		role   models.Role
		min    models.Role
		status int
	}{
		{"user below admin", models.RoleUser, models.RoleAdmin, http.StatusForbidden},
		{"admin meets admin", models.RoleAdmin, models.RoleAdmin, http.StatusOK},
		{"owner above admin", models.RoleOwner, models.RoleAdmin, http.StatusOK},
		{"manager below admin", models.RoleManager, models.RoleAdmin, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(issuer, tt.min)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+issueToken(t, issuer, tt.role))
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
		})
	}
}
