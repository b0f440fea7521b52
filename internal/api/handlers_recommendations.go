package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/internal/database"
	"github.com/polishedlabs/salonpulse/pkg/models"
)

// GenerateRecommendations runs every generator and returns what triggered.
func (h *Handlers) GenerateRecommendations(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	recs, err := h.Recommend.Generate(c.Request.Context(), claims.TenantID)
	if err != nil {
		log.Printf("[ERROR] generate recommendations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recommendation generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs, "count": len(recs)})
}

var recCategories = map[string]models.RecommendationType{
	"promotions": models.RecPromotion,
	"scheduling": models.RecScheduling,
	"retention":  models.RecRetention,
	"inventory":  models.RecInventory,
	"pricing":    models.RecPricing,
	"bundling":   models.RecServiceBundling,
}

// GenerateRecommendationByCategory runs a single category's generator. A 204
// means the category's conditions did not trigger.
func (h *Handlers) GenerateRecommendationByCategory(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	recType, ok := recCategories[c.Param("category")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown recommendation category"})
		return
	}

	rec, err := h.Recommend.GenerateByType(c.Request.Context(), claims.TenantID, recType)
	if err != nil {
		log.Printf("[ERROR] generate %s recommendation: %v", recType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recommendation generation failed"})
		return
	}
	if rec == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ListRecommendations lists recommendations with optional filters.
func (h *Handlers) ListRecommendations(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
		return
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := database.RecommendationFilter{
		Type:     models.RecommendationType(c.Query("type")),
		Status:   models.RecommendationStatus(c.Query("status")),
		Priority: models.RecommendationPriority(c.Query("priority")),
		Limit:    limit,
		Offset:   offset,
	}

	recs, err := h.DB.ListRecommendations(c.Request.Context(), claims.TenantID, filter)
	if err != nil {
		log.Printf("[ERROR] list recommendations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recommendations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs, "count": len(recs)})
}

// GetRecommendation returns one recommendation.
func (h *Handlers) GetRecommendation(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recommendation ID"})
		return
	}

	rec, err := h.DB.GetRecommendation(c.Request.Context(), claims.TenantID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recommendation not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

var validRecStatuses = map[models.RecommendationStatus]bool{
	models.RecAccepted:  true,
	models.RecRejected:  true,
	models.RecCompleted: true,
}

type recStatusRequest struct {
	Status   models.RecommendationStatus `json:"status" binding:"required"`
	Feedback map[string]any              `json:"feedback"`
}

// UpdateRecommendationStatus accepts, rejects, or completes a recommendation.
func (h *Handlers) UpdateRecommendationStatus(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recommendation ID"})
		return
	}

	var req recStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validRecStatuses[req.Status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be accepted, rejected, or completed"})
		return
	}

	n, err := h.DB.UpdateRecommendationStatus(c.Request.Context(), claims.TenantID, id, req.Status, req.Feedback)
	if err != nil {
		log.Printf("[ERROR] update recommendation status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update recommendation"})
		return
	}
	if n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "recommendation not found"})
		return
	}

	// Record the outcome for effectiveness tracking. The transition already
	// succeeded, so a metrics failure only gets logged.
	if err := h.recordRecommendationMetrics(c.Request.Context(), claims.TenantID, id, req.Status); err != nil {
		log.Printf("[WARN] record recommendation metrics: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

func (h *Handlers) recordRecommendationMetrics(ctx context.Context, tenantID uuid.UUID, id int64, status models.RecommendationStatus) error {
	rec, err := h.DB.GetRecommendation(ctx, tenantID, id)
	if err != nil {
		return err
	}

	accepted := 0.0
	if status == models.RecAccepted || status == models.RecCompleted {
		accepted = 1.0
	}
	completed := 0.0
	if status == models.RecCompleted {
		completed = 1.0
	}
	hoursToAction := int(time.Since(rec.CreatedAt).Hours())
	now := time.Now()

	return h.DB.InsertRecommendationMetrics(ctx, &models.RecommendationMetrics{
		RecommendationID: id,
		TenantID:         tenantID,
		PredictedImpact:  rec.ExpectedImpact,
		AcceptanceRate:   &accepted,
		CompletionRate:   &completed,
		TimeToActionHrs:  &hoursToAction,
		MeasuredAt:       &now,
	})
}

type saveRecommendationRequest struct {
	Type            models.RecommendationType     `json:"type" binding:"required"`
	Priority        models.RecommendationPriority `json:"priority"`
	Title           string                        `json:"title" binding:"required"`
	Description     string                        `json:"description" binding:"required"`
	Reasoning       map[string]any                `json:"reasoning"`
	ActionItems     []string                      `json:"action_items"`
	ExpectedImpact  map[string]any                `json:"expected_impact"`
	DataSources     []string                      `json:"data_sources"`
	ConfidenceScore *float64                      `json:"confidence_score"`
}

var validRecPriorities = map[models.RecommendationPriority]bool{
	models.PriorityLow:      true,
	models.PriorityMedium:   true,
	models.PriorityHigh:     true,
	models.PriorityCritical: true,
}

// SaveRecommendation stores a caller-authored recommendation, typically one
// drafted outside the generators.
func (h *Handlers) SaveRecommendation(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	var req saveRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	valid := false
	for _, t := range recCategories {
		if t == req.Type {
			valid = true
		}
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown recommendation type"})
		return
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	} else if !validRecPriorities[req.Priority] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priority must be low, medium, high, or critical"})
		return
	}

	rec := &models.Recommendation{
		Type:            req.Type,
		Priority:        req.Priority,
		Title:           req.Title,
		Description:     req.Description,
		Reasoning:       req.Reasoning,
		ActionItems:     req.ActionItems,
		ExpectedImpact:  req.ExpectedImpact,
		DataSources:     req.DataSources,
		ConfidenceScore: req.ConfidenceScore,
	}
	if err := h.Recommend.Save(c.Request.Context(), claims.TenantID, rec); err != nil {
		log.Printf("[ERROR] save recommendation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save recommendation"})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// RecommendationDashboard summarizes active recommendations by priority and type.
func (h *Handlers) RecommendationDashboard(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	recs, err := h.DB.ListRecommendations(c.Request.Context(), claims.TenantID, database.RecommendationFilter{
		Status: models.RecActive,
		Limit:  200,
	})
	if err != nil {
		log.Printf("[ERROR] recommendation dashboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load dashboard"})
		return
	}

	byPriority := make(map[string]int)
	byType := make(map[string]int)
	var top []models.Recommendation
	for _, r := range recs {
		byPriority[string(r.Priority)]++
		byType[string(r.Type)]++
	}
	// Highest priority first, capped for the dashboard card.
	for rank := 4; rank >= 1 && len(top) < 5; rank-- {
		for _, r := range recs {
			if r.Priority.Rank() == rank && len(top) < 5 {
				top = append(top, r)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"active":      len(recs),
		"by_priority": byPriority,
		"by_type":     byType,
		"top":         top,
	})
}
