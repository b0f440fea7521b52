package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/internal/nlquery"
	"github.com/polishedlabs/salonpulse/internal/quota"
	"github.com/polishedlabs/salonpulse/pkg/models"
)

type askRequest struct {
	Question string `json:"question" binding:"required"`
	Execute  *bool  `json:"execute"`
}

// AskQuery answers a natural-language question against the tenant's data.
func (h *Handlers) AskQuery(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	execute := req.Execute == nil || *req.Execute

	ctx := c.Request.Context()
	usage, err := h.Quota.Check(ctx, claims.TenantID)
	if err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "monthly query limit reached",
				"usage": usage,
			})
			return
		}
		log.Printf("[ERROR] query: quota check: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	result, err := h.Query.Ask(ctx, claims.TenantID, &claims.UserID, req.Question, execute)
	if err != nil {
		if errors.Is(err, nlquery.ErrUnsafeSQL) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not generate a safe query for this question"})
			return
		}
		log.Printf("[ERROR] query: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "query generation failed"})
		return
	}

	if execute && !result.Cached {
		h.Quota.Record(ctx, claims.TenantID)
		usage.Consume()
	}

	c.JSON(http.StatusOK, gin.H{"result": result, "usage": usage})
}

type generateSQLRequest struct {
	Question string `json:"question" binding:"required"`
}

// GenerateSQL returns the SQL for a question without executing it. Nothing
// runs against the database, so the monthly quota is untouched.
func (h *Handlers) GenerateSQL(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	var req generateSQLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Query.Ask(c.Request.Context(), claims.TenantID, &claims.UserID, req.Question, false)
	if err != nil {
		if errors.Is(err, nlquery.ErrUnsafeSQL) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not generate a safe query for this question"})
			return
		}
		log.Printf("[ERROR] generate sql: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "query generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query_id": result.QueryID, "question": result.Question, "sql": result.SQL})
}

// QueryHistory lists the tenant's past queries.
func (h *Handlers) QueryHistory(c *gin.Context) {
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
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be non-negative"})
		return
	}

	history, err := h.DB.ListQueryHistory(c.Request.Context(), claims.TenantID, limit, offset)
	if err != nil {
		log.Printf("[ERROR] query history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load query history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queries": history, "count": len(history)})
}

type queryFeedbackRequest struct {
	Rating     *int   `json:"rating" binding:"omitempty,min=1,max=5"`
	Feedback   string `json:"feedback"`
	WasHelpful *bool  `json:"was_helpful"`
}

// RateQuery records user feedback on a past query.
func (h *Handlers) RateQuery(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	queryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query ID"})
		return
	}

	var req queryFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Rating == nil && req.Feedback == "" && req.WasHelpful == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "feedback payload is empty"})
		return
	}

	n, err := h.DB.RateQuery(c.Request.Context(), claims.TenantID, queryID, req.Rating, req.Feedback, req.WasHelpful)
	if err != nil {
		log.Printf("[ERROR] query feedback: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record feedback"})
		return
	}
	if n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "query not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

// TrainingStatus reports the tenant's NL training data counts.
func (h *Handlers) TrainingStatus(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	status, err := h.Query.Status(c.Request.Context(), claims.TenantID)
	if err != nil {
		log.Printf("[ERROR] training status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load training status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// AutoTrain seeds default training data. Idempotent.
func (h *Handlers) AutoTrain(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	status, err := h.Query.AutoTrain(c.Request.Context(), claims.TenantID)
	if err != nil {
		log.Printf("[ERROR] auto-train: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "training failed"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// Retrain wipes and reseeds the tenant's training data.
func (h *Handlers) Retrain(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	status, err := h.Query.Retrain(c.Request.Context(), claims.TenantID)
	if err != nil {
		log.Printf("[ERROR] retrain: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "retraining failed"})
		return
	}
	c.JSON(http.StatusOK, status)
}

type addTrainingRequest struct {
	Kind     models.TrainingKind `json:"kind" binding:"required"`
	Question string              `json:"question"`
	Content  string              `json:"content" binding:"required"`
}

// AddTraining stores one custom training item.
func (h *Handlers) AddTraining(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	var req addTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.Query.AddTraining(c.Request.Context(), claims.TenantID, req.Kind, req.Question, req.Content)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, item)
}
