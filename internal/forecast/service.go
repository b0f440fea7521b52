package forecast

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/internal/database"
	"github.com/polishedlabs/salonpulse/pkg/models"
)

// Service runs forecasts against tenant data and persists the results.
type Service struct {
	db *database.DB
}

// NewService creates the forecasting service.
func NewService(db *database.DB) *Service {
	return &Service{db: db}
}

const (
	revenueHistoryDays = 90
	bookingHistoryDays = 60
	capacityWindowDays = 30
	trendWindowWeeks   = 12
	predictionValidFor = 7 * 24 * time.Hour
)

// RevenueResult is a revenue forecast plus detected anomalies.
type RevenueResult struct {
	PredictionID int64            `json:"prediction_id"`
	Method       models.ModelType `json:"method"`
	Forecast     *Series          `json:"forecast"`
	Anomalies    []Anomaly        `json:"anomalies,omitempty"`
	HistoryDays  int              `json:"history_days"`
}

// ForecastRevenue predicts daily revenue. An empty method picks automatically:
// tenants with at least 60 days of history get the seasonal model, thinner
// histories fall back to the moving average model. An explicit method is
// honored as-is, so forcing seasonal on a thin history fails.
func (s *Service) ForecastRevenue(ctx context.Context, tenantID uuid.UUID, horizon int, method string) (*RevenueResult, error) {
	history, err := s.loadDailyRevenue(ctx, tenantID, revenueHistoryDays)
	if err != nil {
		return nil, fmt.Errorf("forecast: loading revenue history: %w", err)
	}

	var series *Series
	modelType := models.ModelSeasonal
	switch method {
	case "seasonal":
		series, err = SeasonalForecast(history, horizon)
	case "moving_average":
		modelType = models.ModelMovingAverage
		series, err = MovingAverageForecast(history, horizon)
	case "":
		series, err = SeasonalForecast(history, horizon)
		if err != nil {
			modelType = models.ModelMovingAverage
			series, err = MovingAverageForecast(history, horizon)
		}
	default:
		return nil, fmt.Errorf("forecast: unknown revenue method %q", method)
	}
	if err != nil {
		return nil, err
	}

	result := &RevenueResult{
		Method:      modelType,
		Forecast:    series,
		Anomalies:   DetectAnomalies(history),
		HistoryDays: len(history),
	}

	pred := &models.Prediction{
		TenantID:       tenantID,
		PredictionType: models.PredictRevenue,
		ModelType:      modelType,
		PredictedValue: map[string]any{
			"total":   series.Total,
			"horizon": horizon,
			"points":  series.Points,
		},
		ConfidenceInterval: ciBounds(series),
		ConfidenceScore:    &series.Confidence,
		ExtraData:          map[string]any{"history_days": len(history), "anomaly_count": len(result.Anomalies)},
	}
	s.persist(ctx, pred, len(history))
	result.PredictionID = pred.ID

	return result, nil
}

// BookingResult combines the demand forecast with the hourly profile.
type BookingResult struct {
	PredictionID int64            `json:"prediction_id"`
	Method       models.ModelType `json:"method"`
	Demand       *DemandForecast  `json:"demand"`
	Hours        *HourProfile     `json:"hours,omitempty"`
}

// ForecastBookings predicts daily booking counts. With includeHourly set it
// also identifies peak and slow hours over the recent window.
func (s *Service) ForecastBookings(ctx context.Context, tenantID uuid.UUID, horizon int, includeHourly bool) (*BookingResult, error) {
	history, err := s.loadDailyBookings(ctx, tenantID, bookingHistoryDays)
	if err != nil {
		return nil, fmt.Errorf("forecast: loading booking history: %w", err)
	}

	demand, err := ForecastDemand(history, horizon)
	if err != nil {
		return nil, err
	}

	result := &BookingResult{
		Method: models.ModelMovingAverage,
		Demand: demand,
	}
	if includeHourly {
		hours, err := s.loadHourCounts(ctx, tenantID, bookingHistoryDays)
		if err != nil {
			return nil, fmt.Errorf("forecast: loading hourly bookings: %w", err)
		}
		result.Hours = AnalyzeHours(hours)
	}

	pred := &models.Prediction{
		TenantID:       tenantID,
		PredictionType: models.PredictBookingDemand,
		ModelType:      result.Method,
		PredictedValue: map[string]any{
			"horizon":         horizon,
			"points":          demand.Points,
			"completion_rate": demand.CompletionRate,
		},
		ConfidenceScore: &demand.Confidence,
	}
	if result.Hours != nil {
		pred.ExtraData = map[string]any{
			"peak_hours": result.Hours.Peak,
			"slow_hours": result.Hours.Slow,
		}
	}
	s.persist(ctx, pred, len(history))
	result.PredictionID = pred.ID

	return result, nil
}

// ChurnResult carries churn scores and the method that produced them. AtRisk
// holds the customers at or above the caller's threshold.
type ChurnResult struct {
	PredictionID int64            `json:"prediction_id"`
	Method       models.ModelType `json:"method"`
	Threshold    float64          `json:"threshold"`
	Scores       []ChurnScore     `json:"scores"`
	AtRisk       []ChurnScore     `json:"at_risk"`
	HighRisk     int              `json:"high_risk_count"`
	MediumRisk   int              `json:"medium_risk_count"`
}

// ScoreChurn assesses every customer's churn risk. An empty method picks
// automatically: tenants with at least 30 customers get percentile-ranked RFM
// scoring, smaller bases fall back to the fixed-weight rules. Customers
// scoring at or above threshold land in the at-risk list.
func (s *Service) ScoreChurn(ctx context.Context, tenantID uuid.UUID, method string, threshold float64) (*ChurnResult, error) {
	customers, err := s.loadCustomerActivity(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("forecast: loading customer activity: %w", err)
	}
	if len(customers) == 0 {
		return nil, fmt.Errorf("forecast: no customer history to score")
	}

	now := time.Now()
	var scores []ChurnScore
	modelType := models.ModelWeightedRFM
	switch method {
	case "weighted_rfm":
		scores, err = WeightedRFMChurn(customers, now)
		if err != nil {
			return nil, err
		}
	case "rule_based":
		modelType = models.ModelRuleBased
		scores = RuleBasedChurn(customers, now)
	case "":
		scores, err = WeightedRFMChurn(customers, now)
		if err != nil {
			modelType = models.ModelRuleBased
			scores = RuleBasedChurn(customers, now)
		}
	default:
		return nil, fmt.Errorf("forecast: unknown churn method %q", method)
	}

	result := &ChurnResult{Method: modelType, Threshold: threshold, Scores: scores}
	for _, sc := range scores {
		if sc.Score >= threshold {
			result.AtRisk = append(result.AtRisk, sc)
		}
		switch sc.Level {
		case "high":
			result.HighRisk++
		case "medium":
			result.MediumRisk++
		}
	}

	conf := 0.7
	pred := &models.Prediction{
		TenantID:       tenantID,
		PredictionType: models.PredictChurnRisk,
		ModelType:      modelType,
		PredictedValue: map[string]any{
			"high_risk":   result.HighRisk,
			"medium_risk": result.MediumRisk,
			"at_risk":     len(result.AtRisk),
			"customers":   len(scores),
		},
		ConfidenceScore: &conf,
	}
	s.persist(ctx, pred, len(customers))
	result.PredictionID = pred.ID

	return result, nil
}

// CLVResult carries lifetime value estimates and segment counts.
type CLVResult struct {
	PredictionID int64          `json:"prediction_id"`
	Estimates    []CLVEstimate  `json:"estimates"`
	Segments     map[string]int `json:"segments"`
	AvgCLV       float64        `json:"avg_clv"`
}

// EstimateValue projects customer lifetime value across the customer base.
func (s *Service) EstimateValue(ctx context.Context, tenantID uuid.UUID) (*CLVResult, error) {
	customers, err := s.loadCustomerActivity(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("forecast: loading customer activity: %w", err)
	}

	estimates := EstimateCLV(customers, time.Now())
	if len(estimates) == 0 {
		return nil, fmt.Errorf("forecast: no customer history to value")
	}

	result := &CLVResult{Estimates: estimates, Segments: make(map[string]int)}
	var sum float64
	for _, e := range estimates {
		result.Segments[e.Segment]++
		sum += e.CLV
	}
	result.AvgCLV = round2(sum / float64(len(estimates)))

	conf := 0.65
	pred := &models.Prediction{
		TenantID:       tenantID,
		PredictionType: models.PredictCLV,
		ModelType:      models.ModelRuleBased,
		PredictedValue: map[string]any{
			"avg_clv":  result.AvgCLV,
			"segments": result.Segments,
		},
		ConfidenceScore: &conf,
	}
	s.persist(ctx, pred, len(estimates))
	result.PredictionID = pred.ID

	return result, nil
}

// CapacityResult wraps a capacity plan with its prediction ID.
type CapacityResult struct {
	PredictionID int64         `json:"prediction_id"`
	TargetDate   *time.Time    `json:"target_date,omitempty"`
	Plan         *CapacityPlan `json:"plan"`
}

// PlanStaffing compares recent booked hours against staff capacity. A target
// date narrows the history to that weekday, so a plan for next Saturday is
// built from past Saturdays. availableStaff overrides the active technician
// count when positive.
func (s *Service) PlanStaffing(ctx context.Context, tenantID uuid.UUID, targetDate *time.Time, availableStaff int) (*CapacityResult, error) {
	windowDays := capacityWindowDays
	if targetDate != nil {
		// A single weekday needs a longer window for enough samples.
		windowDays = capacityWindowDays * 3
	}
	loads, err := s.loadDayLoads(ctx, tenantID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("forecast: loading day loads: %w", err)
	}
	if targetDate != nil {
		filtered := loads[:0]
		for _, l := range loads {
			if l.Date.Weekday() == targetDate.Weekday() {
				filtered = append(filtered, l)
			}
		}
		loads = filtered
	}

	staff := availableStaff
	if staff <= 0 {
		staff, err = s.countActiveTechnicians(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("forecast: counting technicians: %w", err)
		}
	}

	plan, err := PlanCapacity(loads, staff)
	if err != nil {
		return nil, err
	}

	conf := 0.75
	pred := &models.Prediction{
		TenantID:       tenantID,
		PredictionType: models.PredictCapacity,
		ModelType:      models.ModelRuleBased,
		TargetDate:     targetDate,
		PredictedValue: map[string]any{
			"utilization_pct": plan.UtilizationPct,
			"band":            plan.UtilizationBand,
			"optimal_staff":   plan.OptimalStaff,
			"active_staff":    plan.ActiveStaff,
		},
		ConfidenceScore: &conf,
	}
	s.persist(ctx, pred, len(loads))

	return &CapacityResult{PredictionID: pred.ID, TargetDate: targetDate, Plan: plan}, nil
}

// TrendResult carries per-service demand trends.
type TrendResult struct {
	PredictionID int64          `json:"prediction_id"`
	Trends       []ServiceTrend `json:"trends"`
	Growing      int            `json:"growing_count"`
	Declining    int            `json:"declining_count"`
}

// AnalyzeTrends classifies each service's demand direction over recent weeks.
func (s *Service) AnalyzeTrends(ctx context.Context, tenantID uuid.UUID) (*TrendResult, error) {
	series, err := s.loadServiceSeries(ctx, tenantID, trendWindowWeeks)
	if err != nil {
		return nil, fmt.Errorf("forecast: loading service series: %w", err)
	}

	trends := AnalyzeServiceTrends(series)
	if len(trends) == 0 {
		return nil, fmt.Errorf("forecast: not enough booking history for trend analysis")
	}

	result := &TrendResult{Trends: trends}
	for _, t := range trends {
		switch t.Direction {
		case "growing":
			result.Growing++
		case "declining":
			result.Declining++
		}
	}

	conf := 0.7
	pred := &models.Prediction{
		TenantID:       tenantID,
		PredictionType: models.PredictServiceTrend,
		ModelType:      models.ModelLinearRegression,
		PredictedValue: map[string]any{
			"growing":   result.Growing,
			"declining": result.Declining,
			"services":  len(trends),
		},
		ConfidenceScore: &conf,
	}
	s.persist(ctx, pred, len(series))
	result.PredictionID = pred.ID

	return result, nil
}

// AnomalyResult lists unusual revenue days inside a lookback window.
type AnomalyResult struct {
	DaysBack  int       `json:"days_back"`
	Anomalies []Anomaly `json:"anomalies"`
}

// DetectRevenueAnomalies flags days whose revenue deviates sharply from the
// window mean. Read-only: nothing is persisted.
func (s *Service) DetectRevenueAnomalies(ctx context.Context, tenantID uuid.UUID, daysBack int) (*AnomalyResult, error) {
	history, err := s.loadDailyRevenue(ctx, tenantID, daysBack)
	if err != nil {
		return nil, fmt.Errorf("forecast: loading revenue history: %w", err)
	}
	if len(history) < minMovingAverageDays {
		return nil, fmt.Errorf("forecast: anomaly detection needs %d days of history, have %d",
			minMovingAverageDays, len(history))
	}
	return &AnomalyResult{DaysBack: daysBack, Anomalies: DetectAnomalies(history)}, nil
}

// AnalyzeRevenueDirection classifies overall revenue direction over weekly
// totals within the period.
func (s *Service) AnalyzeRevenueDirection(ctx context.Context, tenantID uuid.UUID, periodDays int) (*RevenueTrend, error) {
	weekly, err := s.loadWeeklyRevenue(ctx, tenantID, periodDays)
	if err != nil {
		return nil, fmt.Errorf("forecast: loading weekly revenue: %w", err)
	}
	return AnalyzeRevenueTrend(weekly)
}

// AnalyzeSeasonalPatterns summarizes weekday and monthly revenue patterns
// within the period.
func (s *Service) AnalyzeSeasonalPatterns(ctx context.Context, tenantID uuid.UUID, periodDays int) (*SeasonalProfile, error) {
	history, err := s.loadDailyRevenue(ctx, tenantID, periodDays)
	if err != nil {
		return nil, fmt.Errorf("forecast: loading revenue history: %w", err)
	}
	return AnalyzeSeasonality(history)
}

// RetrainModels re-runs the main forecasts so the model registry reflects
// current data volumes. Each forecast is independent; failures are reported
// per prediction type instead of aborting the batch.
func (s *Service) RetrainModels(ctx context.Context, tenantID uuid.UUID) map[string]any {
	results := make(map[string]any, 3)

	if r, err := s.ForecastRevenue(ctx, tenantID, 7, ""); err != nil {
		results[string(models.PredictRevenue)] = map[string]any{"error": err.Error()}
	} else {
		results[string(models.PredictRevenue)] = map[string]any{"method": r.Method, "prediction_id": r.PredictionID}
	}

	if r, err := s.ForecastBookings(ctx, tenantID, 7, true); err != nil {
		results[string(models.PredictBookingDemand)] = map[string]any{"error": err.Error()}
	} else {
		results[string(models.PredictBookingDemand)] = map[string]any{"method": r.Method, "prediction_id": r.PredictionID}
	}

	if r, err := s.ScoreChurn(ctx, tenantID, "", churnHighThreshold); err != nil {
		results[string(models.PredictChurnRisk)] = map[string]any{"error": err.Error()}
	} else {
		results[string(models.PredictChurnRisk)] = map[string]any{"method": r.Method, "prediction_id": r.PredictionID}
	}

	return results
}

// Dashboard aggregates the most recent stored prediction of each type.
func (s *Service) Dashboard(ctx context.Context, tenantID uuid.UUID) (map[string]any, error) {
	types := []models.PredictionType{
		models.PredictRevenue, models.PredictBookingDemand, models.PredictChurnRisk,
		models.PredictCLV, models.PredictCapacity, models.PredictServiceTrend,
	}

	dashboard := make(map[string]any, len(types))
	for _, pt := range types {
		preds, err := s.db.ListPredictions(ctx, tenantID, pt, 1)
		if err != nil {
			return nil, fmt.Errorf("forecast: loading dashboard predictions: %w", err)
		}
		if len(preds) == 0 {
			continue
		}
		p := preds[0]
		dashboard[string(pt)] = map[string]any{
			"prediction_id": p.ID,
			"model_type":    p.ModelType,
			"value":         p.PredictedValue,
			"confidence":    p.ConfidenceScore,
			"created_at":    p.CreatedAt,
			"stale":         p.ValidUntil != nil && p.ValidUntil.Before(time.Now()),
		}
	}
	return dashboard, nil
}

// RecordFeedback stores the observed outcome for a prediction and computes
// the forecast error when both sides carry a comparable "total" value.
func (s *Service) RecordFeedback(ctx context.Context, tenantID uuid.UUID, predictionID int64, actual map[string]any) (*models.PredictionFeedback, error) {
	pred, err := s.db.GetPrediction(ctx, tenantID, predictionID)
	if err != nil {
		return nil, fmt.Errorf("forecast: loading prediction: %w", err)
	}

	fb := &models.PredictionFeedback{
		PredictionID: pred.ID,
		ActualValue:  actual,
	}

	predicted, okP := numericField(pred.PredictedValue, "total")
	observed, okA := numericField(actual, "total")
	if okP && okA {
		errAbs := math.Abs(observed - predicted)
		fb.Error = &errAbs
		if observed != 0 {
			pct := round2(errAbs / math.Abs(observed) * 100)
			fb.ErrorPercentage = &pct
		}
	}

	if err := s.db.InsertPredictionFeedback(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

func numericField(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// persist stores the prediction and keeps the model registry current. Registry
// or storage failures are logged rather than failing the forecast: the caller
// already has the computed result.
func (s *Service) persist(ctx context.Context, pred *models.Prediction, samples int) {
	until := time.Now().Add(predictionValidFor)
	pred.ValidUntil = &until

	if err := s.db.InsertPrediction(ctx, pred); err != nil {
		log.Printf("[WARN] forecast: failed to store prediction: %v", err)
		return
	}

	active, err := s.db.GetActiveModel(ctx, pred.TenantID, pred.PredictionType)
	if err != nil {
		log.Printf("[WARN] forecast: model registry lookup failed: %v", err)
		return
	}

	if active == nil || active.ModelType != pred.ModelType {
		m := &models.MLModel{
			TenantID:        pred.TenantID,
			ModelType:       pred.ModelType,
			PredictionType:  pred.PredictionType,
			Version:         time.Now().UTC().Format("20060102150405"),
			TrainingSamples: &samples,
		}
		if err := s.db.RegisterModel(ctx, m); err != nil {
			log.Printf("[WARN] forecast: failed to register model: %v", err)
		}
		return
	}

	if err := s.db.TouchModelUsed(ctx, active.ID); err != nil {
		log.Printf("[WARN] forecast: failed to touch model: %v", err)
	}
}

func ciBounds(s *Series) map[string]any {
	if s == nil || len(s.Points) == 0 {
		return nil
	}
	var lower, upper float64
	for _, p := range s.Points {
		lower += p.Lower
		upper += p.Upper
	}
	return map[string]any{"lower": round2(lower), "upper": round2(upper)}
}
