// Package insight scans a tenant's operational data for conditions worth
// surfacing: inventory gaps, booking swings, revenue anomalies, churn risk,
// demand peaks, staff imbalance, no-show rates, and service popularity.
package insight

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/internal/database"
	"github.com/polishedlabs/salonpulse/internal/forecast"
	"github.com/polishedlabs/salonpulse/pkg/models"
)

// Engine generates insights for tenants.
type Engine struct {
	db *database.DB
}

// NewEngine creates an insight engine.
func NewEngine(db *database.DB) *Engine {
	return &Engine{db: db}
}

// Generate runs every check against the tenant's data, stores the triggered
// insights, and returns them. A failing check is logged and skipped so one
// bad query does not suppress the rest.
func (e *Engine) Generate(ctx context.Context, tenantID uuid.UUID) ([]models.Insight, error) {
	type check struct {
		name string
		run  func(context.Context, uuid.UUID) ([]*models.Insight, error)
	}
	checks := []check{
		{"low_inventory", e.checkInventory},
		{"booking_trend", e.checkBookingTrend},
		{"revenue_anomaly", e.checkRevenueAnomalies},
		{"churn_risk", e.checkChurnRisk},
		{"peak_hours", e.checkPeakHours},
		{"staff_performance", e.checkStaffPerformance},
		{"no_show_rate", e.checkNoShowRate},
		{"service_popularity", e.checkServicePopularity},
	}

	var generated []models.Insight
	for _, c := range checks {
		found, err := c.run(ctx, tenantID)
		if err != nil {
			log.Printf("[WARN] insight: %s check failed for %s: %v", c.name, tenantID, err)
			continue
		}
		for _, in := range found {
			if in == nil {
				continue
			}
			in.InsightID = uuid.New()
			in.TenantID = tenantID
			in.Status = models.InsightNew
			in.GeneratedAt = time.Now()
			if err := e.db.InsertInsight(ctx, in); err != nil {
				log.Printf("[WARN] insight: failed to store %s insight: %v", in.Type, err)
				continue
			}
			generated = append(generated, *in)
		}
	}
	return generated, nil
}

// LowStockProduct is a product at or below its reorder point.
type LowStockProduct struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	MinLevel  int    `json:"min_level"`
}

// BuildInventoryInsight flags low or exhausted stock. Any product at zero
// makes the insight critical.
func BuildInventoryInsight(products []LowStockProduct) *models.Insight {
	if len(products) == 0 {
		return nil
	}

	severity := models.SeverityWarning
	outOfStock := 0
	for _, p := range products {
		if p.Stock == 0 {
			outOfStock++
		}
	}
	if outOfStock > 0 {
		severity = models.SeverityCritical
	}

	val := float64(len(products))
	return &models.Insight{
		Type:     models.InsightLowInventory,
		Severity: severity,
		Title:    fmt.Sprintf("%d products need restocking", len(products)),
		Description: fmt.Sprintf(
			"%d products are at or below their minimum stock level, %d completely out of stock.",
			len(products), outOfStock),
		Recommendation:   "Review the affected products and place supplier orders before you lose retail sales.",
		Metrics:          map[string]any{"low_stock": len(products), "out_of_stock": outOfStock},
		AffectedEntities: map[string]any{"products": products},
		CurrentValue:     &val,
		DataSource:       "products",
	}
}

// BuildBookingTrendInsight compares this week's bookings to the recent weekly
// average. Swings beyond 15% in either direction are surfaced; beyond 25% the
// insight escalates to critical.
func BuildBookingTrendInsight(thisWeek, weeklyAvg int) *models.Insight {
	if weeklyAvg == 0 {
		return nil
	}
	change := (float64(thisWeek) - float64(weeklyAvg)) / float64(weeklyAvg) * 100
	if change > -15 && change < 15 {
		return nil
	}

	severity := models.SeverityWarning
	if change > 25 || change < -25 {
		severity = models.SeverityCritical
	}

	title := fmt.Sprintf("Bookings up %.0f%% this week", change)
	recommendation := "Make sure staffing covers the extra demand."
	if change < 0 {
		title = fmt.Sprintf("Bookings down %.0f%% this week", -change)
		recommendation = "Consider a promotion or outreach to fill the open slots."
	}

	cur, prev := float64(thisWeek), float64(weeklyAvg)
	conf := 0.85
	return &models.Insight{
		Type:        models.InsightBookingTrend,
		Severity:    severity,
		Title:       title,
		Description: fmt.Sprintf("This week has %d bookings versus a recent weekly average of %d.", thisWeek, weeklyAvg),
		Recommendation:  recommendation,
		CurrentValue:    &cur,
		PreviousValue:   &prev,
		ChangePercent:   &change,
		ConfidenceScore: &conf,
		DataSource:      "bookings",
	}
}

// BuildAnomalyInsights converts detected revenue anomalies into insights.
func BuildAnomalyInsights(anomalies []forecast.Anomaly) []*models.Insight {
	var insights []*models.Insight
	for _, a := range anomalies {
		severity := models.SeverityInfo
		if a.Severity == "high" {
			severity = models.SeverityWarning
		}

		direction := "above"
		if a.Value < a.Expected {
			direction = "below"
			if a.Severity == "high" {
				severity = models.SeverityCritical
			}
		}

		val, exp := a.Value, a.Expected
		insights = append(insights, &models.Insight{
			Type:     models.InsightRevenueAnomaly,
			Severity: severity,
			Title:    fmt.Sprintf("Unusual revenue on %s", a.Date.Format("Jan 2")),
			Description: fmt.Sprintf("Revenue of $%.2f was far %s the typical $%.2f (z-score %.1f).",
				a.Value, direction, a.Expected, a.ZScore),
			Metrics:       map[string]any{"z_score": a.ZScore},
			CurrentValue:  &val,
			PreviousValue: &exp,
			DataSource:    "bookings",
		})
	}
	return insights
}

// BuildChurnInsight flags valuable customers drifting toward churn: those
// whose last visit falls in the 60-120 day window.
func BuildChurnInsight(atRisk int, names []string) *models.Insight {
	if atRisk == 0 {
		return nil
	}

	val := float64(atRisk)
	conf := 0.90
	return &models.Insight{
		Type:     models.InsightChurnRisk,
		Severity: models.SeverityWarning,
		Title:    fmt.Sprintf("%d valuable customers may be drifting away", atRisk),
		Description: fmt.Sprintf(
			"%d customers have not visited in 60 to 120 days.", atRisk),
		Recommendation:   "Send a win-back offer before they churn for good.",
		AffectedEntities: map[string]any{"customers": names},
		CurrentValue:     &val,
		ConfidenceScore:  &conf,
		DataSource:       "customers",
	}
}

// BuildPeakHoursInsight summarizes demand concentration across the day.
func BuildPeakHoursInsight(profile *forecast.HourProfile) *models.Insight {
	if profile == nil || len(profile.Peak) == 0 {
		return nil
	}

	peaks := make([]int, 0, len(profile.Peak))
	for _, h := range profile.Peak {
		peaks = append(peaks, h.Hour)
	}

	return &models.Insight{
		Type:        models.InsightPeakHours,
		Severity:    models.SeverityInfo,
		Title:       "Your busiest hours are mapped",
		Description: fmt.Sprintf("Demand concentrates in %d peak hours; %d hours run slow.", len(profile.Peak), len(profile.Slow)),
		Recommendation: "Schedule senior technicians through the peaks and push promotions into the slow hours.",
		Metrics:        map[string]any{"peak_hours": peaks},
		DataSource:     "bookings",
	}
}

// TechPerformance is one technician's completed work this month.
type TechPerformance struct {
	TechnicianID int64   `json:"technician_id"`
	Name         string  `json:"name"`
	AvgTip       float64 `json:"avg_tip"`
	Bookings     int     `json:"bookings"`
	Revenue      float64 `json:"revenue"`
}

// BuildStaffInsight highlights the technician with the highest average tip
// month to date. Tips track customer satisfaction more directly than revenue,
// which mostly reflects service mix. Needs at least two technicians with
// completed bookings to rank.
func BuildStaffInsight(techs []TechPerformance) *models.Insight {
	var ranked []TechPerformance
	for _, t := range techs {
		if t.Bookings > 0 {
			ranked = append(ranked, t)
		}
	}
	if len(ranked) < 2 {
		return nil
	}

	top := ranked[0]
	for _, t := range ranked[1:] {
		if t.AvgTip > top.AvgTip {
			top = t
		}
	}

	cur := top.AvgTip
	conf := 0.85
	return &models.Insight{
		Type:     models.InsightStaffPerformance,
		Severity: models.SeverityInfo,
		Title:    fmt.Sprintf("%s is this month's top performer", top.Name),
		Description: fmt.Sprintf("%s leads on customer satisfaction with an average tip of $%.2f across %d completed bookings this month.",
			top.Name, top.AvgTip, top.Bookings),
		Recommendation: "Recognize your top performer and have them share techniques with the rest of the team.",
		Metrics: map[string]any{
			"avg_tip":             top.AvgTip,
			"bookings_this_month": top.Bookings,
			"revenue_generated":   top.Revenue,
		},
		AffectedEntities: map[string]any{"technician": top.Name},
		CurrentValue:     &cur,
		ConfidenceScore:  &conf,
		DataSource:       "technicians",
	}
}

// BuildNoShowInsight flags elevated no-show rates: warning above 10%,
// critical above 20%.
func BuildNoShowInsight(noShows, total int) *models.Insight {
	if total == 0 {
		return nil
	}
	rate := float64(noShows) / float64(total) * 100
	if rate <= 10 {
		return nil
	}

	severity := models.SeverityWarning
	if rate > 20 {
		severity = models.SeverityCritical
	}

	return &models.Insight{
		Type:        models.InsightNoShowRate,
		Severity:    severity,
		Title:       fmt.Sprintf("No-show rate at %.1f%%", rate),
		Description: fmt.Sprintf("%d of %d bookings this month were no-shows.", noShows, total),
		Recommendation: "Enable booking reminders and consider a deposit for repeat offenders.",
		Metrics:        map[string]any{"no_shows": noShows, "total": total},
		CurrentValue:   &rate,
		DataSource:     "bookings",
	}
}

// ServiceShare is one service's share of recent bookings.
type ServiceShare struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// BuildPopularityInsight reports the leading service once it clears a third
// of all bookings.
func BuildPopularityInsight(top *ServiceShare) *models.Insight {
	if top == nil || top.Share < 1.0/3 {
		return nil
	}

	share := top.Share * 100
	return &models.Insight{
		Type:        models.InsightServicePopularity,
		Severity:    models.SeverityInfo,
		Title:       fmt.Sprintf("%s dominates your bookings", top.Name),
		Description: fmt.Sprintf("%s accounts for %.0f%% of bookings this month.", top.Name, share),
		Recommendation: "Protect availability for this service and consider premium pricing or bundles around it.",
		Metrics:        map[string]any{"count": top.Count},
		CurrentValue:   &share,
		DataSource:     "services",
	}
}
