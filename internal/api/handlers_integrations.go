package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/pkg/models"
)

type createIntegrationRequest struct {
	IntegrationType string         `json:"integration_type" binding:"required"`
	IntegrationName string         `json:"integration_name" binding:"required"`
	Credentials     map[string]any `json:"credentials" binding:"required"`
	Config          map[string]any `json:"config"`
	SchemaMapping   map[string]any `json:"schema_mapping"`
	SyncFrequencyM  int            `json:"sync_frequency_minutes"`
}

// CreateIntegration registers a POS integration. Credentials are accepted on
// input but never echoed back.
func (h *Handlers) CreateIntegration(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	var req createIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SyncFrequencyM <= 0 {
		req.SyncFrequencyM = 60
	}

	in := &models.Integration{
		IntegrationID:   uuid.New(),
		TenantID:        claims.TenantID,
		IntegrationType: req.IntegrationType,
		IntegrationName: req.IntegrationName,
		Credentials:     req.Credentials,
		Config:          req.Config,
		SchemaMapping:   req.SchemaMapping,
		Status:          models.IntegrationPending,
		SyncFrequencyM:  req.SyncFrequencyM,
	}
	if err := h.DB.CreateIntegration(c.Request.Context(), in); err != nil {
		log.Printf("[ERROR] create integration: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create integration"})
		return
	}
	c.JSON(http.StatusCreated, in)
}

// ListIntegrations lists the tenant's integrations.
func (h *Handlers) ListIntegrations(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	integrations, err := h.DB.ListIntegrations(c.Request.Context(), claims.TenantID)
	if err != nil {
		log.Printf("[ERROR] list integrations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load integrations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"integrations": integrations, "count": len(integrations)})
}

// GetIntegration returns one integration.
func (h *Handlers) GetIntegration(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	integrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid integration ID"})
		return
	}

	in, err := h.DB.GetIntegration(c.Request.Context(), claims.TenantID, integrationID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "integration not found"})
		return
	}
	c.JSON(http.StatusOK, in)
}

type updateIntegrationRequest struct {
	IntegrationName string         `json:"integration_name"`
	Credentials     map[string]any `json:"credentials"`
	Config          map[string]any `json:"config"`
	SchemaMapping   map[string]any `json:"schema_mapping"`
	IsActive        *bool          `json:"is_active"`
	SyncFrequencyM  *int           `json:"sync_frequency_minutes"`
}

// UpdateIntegration modifies integration settings. Omitted fields keep their
// stored values.
func (h *Handlers) UpdateIntegration(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	integrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid integration ID"})
		return
	}

	var req updateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	in, err := h.DB.GetIntegration(ctx, claims.TenantID, integrationID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "integration not found"})
		return
	}

	if req.IntegrationName != "" {
		in.IntegrationName = req.IntegrationName
	}
	in.Credentials = req.Credentials
	in.Config = req.Config
	in.SchemaMapping = req.SchemaMapping
	if req.IsActive != nil {
		in.IsActive = *req.IsActive
		if !in.IsActive {
			in.Status = models.IntegrationDisabled
		} else if in.Status == models.IntegrationDisabled {
			in.Status = models.IntegrationPending
		}
	}
	if req.SyncFrequencyM != nil && *req.SyncFrequencyM > 0 {
		in.SyncFrequencyM = *req.SyncFrequencyM
	}

	if _, err := h.DB.UpdateIntegration(ctx, in); err != nil {
		log.Printf("[ERROR] update integration: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update integration"})
		return
	}

	updated, err := h.DB.GetIntegration(ctx, claims.TenantID, integrationID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "integration not found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteIntegration removes an integration and its stored credentials.
func (h *Handlers) DeleteIntegration(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	integrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid integration ID"})
		return
	}

	n, err := h.DB.DeleteIntegration(c.Request.Context(), claims.TenantID, integrationID)
	if err != nil {
		log.Printf("[ERROR] delete integration: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete integration"})
		return
	}
	if n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "integration not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
