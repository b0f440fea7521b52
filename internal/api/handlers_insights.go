package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/internal/database"
	"github.com/polishedlabs/salonpulse/pkg/models"
)

// GenerateInsights runs every insight check and returns what triggered.
func (h *Handlers) GenerateInsights(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	insights, err := h.Insights.Generate(c.Request.Context(), claims.TenantID)
	if err != nil {
		log.Printf("[ERROR] generate insights: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "insight generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights, "count": len(insights)})
}

// ListInsights lists insights with optional type/severity/status filters.
func (h *Handlers) ListInsights(c *gin.Context) {
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

	filter := database.InsightFilter{
		Type:     models.InsightType(c.Query("type")),
		Severity: models.Severity(c.Query("severity")),
		Status:   models.InsightStatus(c.Query("status")),
		Limit:    limit,
		Offset:   offset,
	}

	insights, err := h.DB.ListInsights(c.Request.Context(), claims.TenantID, filter)
	if err != nil {
		log.Printf("[ERROR] list insights: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load insights"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights, "count": len(insights)})
}

// GetInsight returns one insight and marks it viewed on first read.
func (h *Handlers) GetInsight(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	insightID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid insight ID"})
		return
	}

	ctx := c.Request.Context()
	in, err := h.DB.GetInsight(ctx, claims.TenantID, insightID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "insight not found"})
		return
	}

	if in.Status == models.InsightNew {
		if err := h.DB.MarkInsightViewed(ctx, claims.TenantID, insightID); err != nil {
			log.Printf("[WARN] mark insight viewed: %v", err)
		} else {
			in.Status = models.InsightViewed
			now := time.Now()
			in.ViewedAt = &now
		}
	}

	c.JSON(http.StatusOK, in)
}

var validInsightStatuses = map[models.InsightStatus]bool{
	models.InsightNew:          true,
	models.InsightViewed:       true,
	models.InsightAcknowledged: true,
	models.InsightResolved:     true,
	models.InsightDismissed:    true,
}

type insightStatusRequest struct {
	Status models.InsightStatus `json:"status" binding:"required"`
}

// UpdateInsightStatus transitions one insight's lifecycle state.
func (h *Handlers) UpdateInsightStatus(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	insightID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid insight ID"})
		return
	}

	var req insightStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validInsightStatuses[req.Status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	n, err := h.DB.UpdateInsightStatus(c.Request.Context(), claims.TenantID, insightID, req.Status)
	if err != nil {
		log.Printf("[ERROR] update insight status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update insight"})
		return
	}
	if n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "insight not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

type batchStatusRequest struct {
	InsightIDs []uuid.UUID          `json:"insight_ids" binding:"required,min=1"`
	Status     models.InsightStatus `json:"status" binding:"required"`
}

// BatchUpdateInsights applies one status to multiple insights.
func (h *Handlers) BatchUpdateInsights(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	var req batchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validInsightStatuses[req.Status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	n, err := h.DB.BatchUpdateInsightStatus(c.Request.Context(), claims.TenantID, req.InsightIDs, req.Status)
	if err != nil {
		log.Printf("[ERROR] batch update insights: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update insights"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// DeleteInsight removes an insight.
func (h *Handlers) DeleteInsight(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	insightID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid insight ID"})
		return
	}

	n, err := h.DB.DeleteInsight(c.Request.Context(), claims.TenantID, insightID)
	if err != nil {
		log.Printf("[ERROR] delete insight: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete insight"})
		return
	}
	if n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "insight not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// InsightStats summarizes recent insights.
func (h *Handlers) InsightStats(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 || days > 365 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
		return
	}

	since := time.Now().AddDate(0, 0, -days)
	stats, err := h.DB.GetInsightStats(c.Request.Context(), claims.TenantID, since)
	if err != nil {
		log.Printf("[ERROR] insight stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load insight stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
