package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polishedlabs/salonpulse/pkg/models"
)

// horizonParam parses a forecast horizon in days, bounded to 1..max.
func horizonParam(c *gin.Context, max int) (int, bool) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 || days > max {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("days must be between 1 and %d", max)})
		return 0, false
	}
	return days, true
}

// forecastError maps forecasting failures to responses. Thin-history errors
// come back as 422 so clients can tell "not enough data" from a server fault.
func forecastError(c *gin.Context, op string, err error) {
	log.Printf("[WARN] %s: %v", op, err)
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
}

// PredictRevenue forecasts daily revenue up to a year out. The method
// parameter forces moving_average or seasonal; empty picks by data volume.
func (h *Handlers) PredictRevenue(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}
	days, ok := horizonParam(c, 365)
	if !ok {
		return
	}
	method := c.Query("method")
	if method != "" && method != "moving_average" && method != "seasonal" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "method must be moving_average or seasonal"})
		return
	}

	result, err := h.Forecast.ForecastRevenue(c.Request.Context(), claims.TenantID, days, method)
	if err != nil {
		forecastError(c, "predict revenue", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PredictBookings forecasts booking demand up to 30 days out, with hourly
// peaks unless include_hourly=false.
func (h *Handlers) PredictBookings(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}
	days, ok := horizonParam(c, 30)
	if !ok {
		return
	}
	includeHourly, err := strconv.ParseBool(c.DefaultQuery("include_hourly", "true"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "include_hourly must be true or false"})
		return
	}

	result, err := h.Forecast.ForecastBookings(c.Request.Context(), claims.TenantID, days, includeHourly)
	if err != nil {
		forecastError(c, "predict bookings", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PredictChurn scores customer churn risk. The method parameter forces
// rule_based or weighted_rfm scoring; threshold sets the at-risk cutoff.
func (h *Handlers) PredictChurn(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}
	method := c.Query("method")
	if method != "" && method != "rule_based" && method != "weighted_rfm" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "method must be rule_based or weighted_rfm"})
		return
	}
	threshold, err := strconv.ParseFloat(c.DefaultQuery("threshold", "0.7"), 64)
	if err != nil || threshold < 0 || threshold > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be between 0 and 1"})
		return
	}

	result, err := h.Forecast.ScoreChurn(c.Request.Context(), claims.TenantID, method, threshold)
	if err != nil {
		forecastError(c, "predict churn", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PredictCLV estimates customer lifetime value. An optional customer_id
// narrows the response to one customer.
func (h *Handlers) PredictCLV(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	result, err := h.Forecast.EstimateValue(c.Request.Context(), claims.TenantID)
	if err != nil {
		forecastError(c, "predict clv", err)
		return
	}

	if raw := c.Query("customer_id"); raw != "" {
		customerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer ID"})
			return
		}
		for _, e := range result.Estimates {
			if e.CustomerID == customerID {
				c.JSON(http.StatusOK, gin.H{"estimate": e, "prediction_id": result.PredictionID})
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "customer has no completed bookings"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RevenueAnomalies flags days with unusually high or low revenue.
func (h *Handlers) RevenueAnomalies(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	daysBack, err := strconv.Atoi(c.DefaultQuery("days_back", "30"))
	if err != nil || daysBack < 7 || daysBack > 90 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days_back must be between 7 and 90"})
		return
	}

	result, err := h.Forecast.DetectRevenueAnomalies(c.Request.Context(), claims.TenantID, daysBack)
	if err != nil {
		forecastError(c, "revenue anomalies", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RetrainModels re-runs the main forecasts to refresh the model registry.
func (h *Handlers) RetrainModels(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	results := h.Forecast.RetrainModels(c.Request.Context(), claims.TenantID)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// PredictCapacity assesses staffing against booked demand. An optional
// target_date plans for that weekday; available_staff overrides the active
// technician count.
func (h *Handlers) PredictCapacity(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	var targetDate *time.Time
	if raw := c.Query("target_date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target_date must be YYYY-MM-DD"})
			return
		}
		targetDate = &d
	}

	availableStaff := 0
	if raw := c.Query("available_staff"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "available_staff must be a positive integer"})
			return
		}
		availableStaff = n
	}

	result, err := h.Forecast.PlanStaffing(c.Request.Context(), claims.TenantID, targetDate, availableStaff)
	if err != nil {
		forecastError(c, "predict capacity", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PredictTrends analyzes demand or revenue direction. The type parameter
// selects service_popularity (default), revenue, or seasonal analysis.
func (h *Handlers) PredictTrends(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	periodDays, err := strconv.Atoi(c.DefaultQuery("period_days", "90"))
	if err != nil || periodDays < 30 || periodDays > 365 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period_days must be between 30 and 365"})
		return
	}

	ctx := c.Request.Context()
	switch trendType := c.DefaultQuery("type", "service_popularity"); trendType {
	case "service_popularity":
		result, err := h.Forecast.AnalyzeTrends(ctx, claims.TenantID)
		if err != nil {
			forecastError(c, "predict trends", err)
			return
		}
		c.JSON(http.StatusOK, result)
	case "revenue":
		result, err := h.Forecast.AnalyzeRevenueDirection(ctx, claims.TenantID, periodDays)
		if err != nil {
			forecastError(c, "predict trends", err)
			return
		}
		c.JSON(http.StatusOK, result)
	case "seasonal":
		result, err := h.Forecast.AnalyzeSeasonalPatterns(ctx, claims.TenantID, periodDays)
		if err != nil {
			forecastError(c, "predict trends", err)
			return
		}
		c.JSON(http.StatusOK, result)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be service_popularity, revenue, or seasonal"})
	}
}

// PredictionDashboard aggregates the latest prediction of each type.
func (h *Handlers) PredictionDashboard(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	dashboard, err := h.Forecast.Dashboard(c.Request.Context(), claims.TenantID)
	if err != nil {
		log.Printf("[ERROR] prediction dashboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load dashboard"})
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// ListPredictions lists stored predictions, optionally filtered by type.
func (h *Handlers) ListPredictions(c *gin.Context) {
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

	predType := models.PredictionType(c.Query("type"))
	preds, err := h.DB.ListPredictions(c.Request.Context(), claims.TenantID, predType, limit)
	if err != nil {
		log.Printf("[ERROR] list predictions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load predictions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": preds, "count": len(preds)})
}

type predictionFeedbackRequest struct {
	Actual map[string]any `json:"actual" binding:"required"`
}

// PredictionFeedback records the observed outcome for a prediction.
func (h *Handlers) PredictionFeedback(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	claims := h.claims(c)
	if claims == nil {
		return
	}

	predictionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prediction ID"})
		return
	}

	var req predictionFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fb, err := h.Forecast.RecordFeedback(c.Request.Context(), claims.TenantID, predictionID, req.Actual)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "prediction not found"})
		return
	}
	c.JSON(http.StatusCreated, fb)
}
