package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/internal/auth"
	"github.com/polishedlabs/salonpulse/pkg/models"
)

type registerRequest struct {
	SalonName string `json:"salon_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FullName  string `json:"full_name" binding:"required"`
}

// Register creates a tenant, its isolated schema, and the owner account.
func (h *Handlers) Register(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	exists, err := h.DB.TenantExistsByEmail(ctx, req.Email)
	if err != nil {
		log.Printf("[ERROR] register: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "a salon is already registered with this email"})
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("[ERROR] register: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	trialEnds := time.Now().AddDate(0, 0, 14)
	tenant := &models.Tenant{
		TenantID:           uuid.New(),
		SalonName:          req.SalonName,
		OwnerEmail:         req.Email,
		SubscriptionTier:   models.TierStarter,
		SubscriptionStatus: models.SubscriptionTrial,
		TrialEndsAt:        &trialEnds,
		MonthlyQueryLimit:  1000,
	}
	if err := h.DB.CreateTenant(ctx, tenant); err != nil {
		log.Printf("[ERROR] register: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	if err := h.DB.CreateTenantSchema(ctx, tenant.TenantID); err != nil {
		log.Printf("[ERROR] register: creating schema: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	user := &models.User{
		UserID:         uuid.New(),
		TenantID:       tenant.TenantID,
		Email:          req.Email,
		HashedPassword: hashed,
		FullName:       req.FullName,
		Role:           models.RoleOwner,
		IsActive:       true,
	}
	if err := h.DB.CreateUser(ctx, user); err != nil {
		log.Printf("[ERROR] register: creating owner: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	// New tenants get NL query training seeded immediately so the first
	// question works without a manual training step.
	if h.Query != nil {
		if _, err := h.Query.AutoTrain(ctx, tenant.TenantID); err != nil {
			log.Printf("[WARN] register: auto-train failed for %s: %v", tenant.TenantID, err)
		}
	}

	token, err := h.Issuer.Issue(user)
	if err != nil {
		log.Printf("[ERROR] register: issuing token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"tenant":       tenant,
		"user":         user,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and returns an access token.
func (h *Handlers) Login(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, err := h.DB.GetUserByEmail(ctx, req.Email)
	if err != nil || !auth.VerifyPassword(req.Password, user.HashedPassword) {
		// Identical response for unknown email and bad password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "account is disabled"})
		return
	}

	if err := h.DB.TouchUserLogin(ctx, user.UserID, time.Now()); err != nil {
		log.Printf("[WARN] login: %v", err)
	}

	token, err := h.Issuer.Issue(user)
	if err != nil {
		log.Printf("[ERROR] login: issuing token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

// Me returns the authenticated user's profile and tenant.
func (h *Handlers) Me(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	ctx := c.Request.Context()
	user, err := h.DB.GetUser(ctx, claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	tenant, err := h.DB.GetTenant(ctx, claims.TenantID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "tenant": tenant})
}
