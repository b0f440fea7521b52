// Package recommend turns a tenant's recent patterns into concrete business
// recommendations: promotions for slow days, staffing for peak hours,
// win-back outreach, restocking, and service bundles.
package recommend

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/internal/database"
	"github.com/polishedlabs/salonpulse/pkg/models"
)

// recommendationTTL is how long a generated recommendation stays actionable.
const recommendationTTL = 30 * 24 * time.Hour

// Engine generates and stores recommendations.
type Engine struct {
	db *database.DB
}

// NewEngine creates a recommendation engine.
func NewEngine(db *database.DB) *Engine {
	return &Engine{db: db}
}

// templates loads the active rule templates keyed by type. A load failure is
// not fatal: builders carry built-in text as a fallback.
func (e *Engine) templates(ctx context.Context) map[models.RecommendationType]*models.RecommendationTemplate {
	tpls, err := e.db.ListRecommendationTemplates(ctx)
	if err != nil {
		log.Printf("[WARN] recommend: failed to load templates, using built-in text: %v", err)
		return nil
	}
	byType := make(map[models.RecommendationType]*models.RecommendationTemplate, len(tpls))
	for i := range tpls {
		byType[tpls[i].Type] = &tpls[i]
	}
	return byType
}

// Generate expires stale recommendations, runs every generator, and stores
// what triggers. A failing generator is logged and skipped.
func (e *Engine) Generate(ctx context.Context, tenantID uuid.UUID) ([]models.Recommendation, error) {
	if _, err := e.db.ExpireRecommendations(ctx, tenantID); err != nil {
		log.Printf("[WARN] recommend: failed to expire stale recommendations: %v", err)
	}
	tpls := e.templates(ctx)

	type generator struct {
		typ models.RecommendationType
		run func(context.Context, uuid.UUID, *models.RecommendationTemplate) (*models.Recommendation, error)
	}
	generators := []generator{
		{models.RecPromotion, e.generatePromotion},
		{models.RecScheduling, e.generateScheduling},
		{models.RecRetention, e.generateRetention},
		{models.RecInventory, e.generateInventory},
		{models.RecPricing, e.generatePricing},
		{models.RecServiceBundling, e.generateBundling},
	}

	var out []models.Recommendation
	for _, g := range generators {
		rec, err := g.run(ctx, tenantID, tpls[g.typ])
		if err != nil {
			log.Printf("[WARN] recommend: %s generator failed for %s: %v", g.typ, tenantID, err)
			continue
		}
		if rec == nil {
			continue
		}
		if err := e.store(ctx, tenantID, rec); err != nil {
			log.Printf("[WARN] recommend: failed to store %s recommendation: %v", rec.Type, err)
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

// GenerateByType runs one category's generator and stores the result. A nil
// recommendation with nil error means the category's conditions did not
// trigger.
func (e *Engine) GenerateByType(ctx context.Context, tenantID uuid.UUID, recType models.RecommendationType) (*models.Recommendation, error) {
	var run func(context.Context, uuid.UUID, *models.RecommendationTemplate) (*models.Recommendation, error)
	switch recType {
	case models.RecPromotion:
		run = e.generatePromotion
	case models.RecScheduling:
		run = e.generateScheduling
	case models.RecRetention:
		run = e.generateRetention
	case models.RecInventory:
		run = e.generateInventory
	case models.RecPricing:
		run = e.generatePricing
	case models.RecServiceBundling:
		run = e.generateBundling
	default:
		return nil, fmt.Errorf("recommend: no generator for type %q", recType)
	}

	rec, err := run(ctx, tenantID, e.templates(ctx)[recType])
	if err != nil || rec == nil {
		return nil, err
	}
	if err := e.store(ctx, tenantID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Save stores a caller-supplied recommendation as active with the standard
// expiry window.
func (e *Engine) Save(ctx context.Context, tenantID uuid.UUID, rec *models.Recommendation) error {
	return e.store(ctx, tenantID, rec)
}

func (e *Engine) store(ctx context.Context, tenantID uuid.UUID, rec *models.Recommendation) error {
	rec.TenantID = tenantID
	rec.Status = models.RecActive
	expires := time.Now().Add(recommendationTTL)
	rec.ExpiresAt = &expires
	return e.db.InsertRecommendation(ctx, rec)
}

// DayVolume is booking volume for one weekday.
type DayVolume struct {
	Weekday  time.Weekday `json:"weekday"`
	Bookings int          `json:"bookings"`
}

// BuildPromotionRec proposes a promotion when the slowest day runs below 60%
// of the busiest day's volume.
func BuildPromotionRec(days []DayVolume, tpl *models.RecommendationTemplate) *models.Recommendation {
	if len(days) < 2 {
		return nil
	}

	busiest, slowest := days[0], days[0]
	for _, d := range days[1:] {
		if d.Bookings > busiest.Bookings {
			busiest = d
		}
		if d.Bookings < slowest.Bookings {
			slowest = d
		}
	}
	if busiest.Bookings == 0 {
		return nil
	}
	ratio := float64(slowest.Bookings) / float64(busiest.Bookings)
	if ratio >= 0.6 {
		return nil
	}

	gapPct := (1 - ratio) * 100
	conf := 0.8
	rec := &models.Recommendation{
		Type:        models.RecPromotion,
		Priority:    models.PriorityMedium,
		Title:       fmt.Sprintf("Run a %s promotion", slowest.Weekday),
		Description: fmt.Sprintf("%ss average %d bookings versus %d on %ss, a %.0f%% gap. A targeted discount can fill those chairs.",
			slowest.Weekday, slowest.Bookings, busiest.Bookings, busiest.Weekday, gapPct),
		Reasoning: map[string]any{
			"slowest_day":      slowest.Weekday.String(),
			"busiest_day":      busiest.Weekday.String(),
			"slow_to_busy_pct": round1(ratio * 100),
		},
		ActionItems: []string{
			fmt.Sprintf("Create a %s-only discount of 10-15%%", slowest.Weekday),
			"Promote it to customers who usually book on busy days",
			"Track redemption for four weeks",
		},
		ExpectedImpact: map[string]any{
			"metric":       "bookings",
			"uplift_range": "10-25%",
			"day":          slowest.Weekday.String(),
		},
		DataSources:     []string{"bookings"},
		ConfidenceScore: &conf,
	}
	applyTemplate(rec, tpl, map[string]string{
		"day": slowest.Weekday.String(),
		"pct": fmt.Sprintf("%.0f", gapPct),
	})
	return rec
}

// PeakWindow summarizes how concentrated bookings are in the busiest hours.
type PeakWindow struct {
	Hours         []int   `json:"hours"`
	Concentration float64 `json:"concentration"`
}

// BuildSchedulingRec proposes shift changes when the peak hours carry more
// than 40% of all bookings.
func BuildSchedulingRec(peak PeakWindow, tpl *models.RecommendationTemplate) *models.Recommendation {
	if len(peak.Hours) == 0 || peak.Concentration <= 0.4 {
		return nil
	}

	conf := 0.75
	rec := &models.Recommendation{
		Type:     models.RecScheduling,
		Priority: models.PriorityHigh,
		Title:    "Align technician shifts with peak demand",
		Description: fmt.Sprintf("%.0f%% of bookings land in %d peak hours. Staggered shifts would cut waits without adding headcount.",
			peak.Concentration*100, len(peak.Hours)),
		Reasoning: map[string]any{
			"peak_hours":        peak.Hours,
			"concentration_pct": round1(peak.Concentration * 100),
		},
		ActionItems: []string{
			"Shift at least one technician's hours to cover the full peak window",
			"Move admin tasks and breaks outside peak hours",
			"Review wait times after two weeks",
		},
		ExpectedImpact: map[string]any{
			"metric": "wait_time",
			"change": "shorter peak-hour waits",
		},
		DataSources:     []string{"bookings", "technicians"},
		ConfidenceScore: &conf,
	}

	hours := make([]string, len(peak.Hours))
	for i, h := range peak.Hours {
		hours[i] = fmt.Sprintf("%d:00", h)
	}
	applyTemplate(rec, tpl, map[string]string{
		"hours": strings.Join(hours, ", "),
		"pct":   fmt.Sprintf("%.0f", peak.Concentration*100),
	})
	return rec
}

// AtRiskCustomer is a churn-risk customer worth chasing.
type AtRiskCustomer struct {
	Name           string  `json:"name"`
	DaysSinceVisit int     `json:"days_since_visit"`
	TotalSpent     float64 `json:"total_spent"`
}

// BuildRetentionRec proposes win-back outreach when valuable customers are
// drifting. Priority escalates to critical past ten at-risk customers.
func BuildRetentionRec(atRisk []AtRiskCustomer, tpl *models.RecommendationTemplate) *models.Recommendation {
	if len(atRisk) == 0 {
		return nil
	}

	var revenue float64
	for _, c := range atRisk {
		revenue += c.TotalSpent
	}

	priority := models.PriorityHigh
	if len(atRisk) > 10 {
		priority = models.PriorityCritical
	}

	conf := 0.7
	rec := &models.Recommendation{
		Type:     models.RecRetention,
		Priority: priority,
		Title:    fmt.Sprintf("Win back %d at-risk customers", len(atRisk)),
		Description: fmt.Sprintf("%d customers worth $%.0f in past revenue have not visited in over 60 days. A personal offer beats losing them outright.",
			len(atRisk), revenue),
		Reasoning: map[string]any{
			"at_risk_count":   len(atRisk),
			"revenue_at_risk": round1(revenue),
		},
		ActionItems: []string{
			"Send a personalized comeback offer to each customer",
			"Prioritize the highest spenders for a phone call",
			"Track who rebooks within 30 days",
		},
		ExpectedImpact: map[string]any{
			"metric":          "retained_revenue",
			"revenue_at_risk": round1(revenue),
		},
		DataSources:     []string{"customers", "bookings"},
		ConfidenceScore: &conf,
	}
	applyTemplate(rec, tpl, map[string]string{
		"count": fmt.Sprintf("%d", len(atRisk)),
	})
	return rec
}

// RestockItem is a product below its reorder point.
type RestockItem struct {
	Name     string `json:"name"`
	Stock    int    `json:"stock"`
	MinLevel int    `json:"min_level"`
}

// BuildInventoryRec proposes restocking. Priority escalates to high when any
// product is fully out of stock.
func BuildInventoryRec(items []RestockItem, tpl *models.RecommendationTemplate) *models.Recommendation {
	if len(items) == 0 {
		return nil
	}

	outOfStock := 0
	for _, it := range items {
		if it.Stock == 0 {
			outOfStock++
		}
	}
	priority := models.PriorityMedium
	if outOfStock > 0 {
		priority = models.PriorityHigh
	}

	conf := 0.9
	rec := &models.Recommendation{
		Type:     models.RecInventory,
		Priority: priority,
		Title:    fmt.Sprintf("Restock %d products", len(items)),
		Description: fmt.Sprintf("%d products sit at or below their minimum stock level; %d are out entirely. Empty shelves cost retail revenue.",
			len(items), outOfStock),
		Reasoning: map[string]any{
			"low_stock":    len(items),
			"out_of_stock": outOfStock,
		},
		ActionItems: []string{
			"Place supplier orders for all flagged products",
			"Raise minimum levels on anything that sold out",
		},
		ExpectedImpact: map[string]any{
			"metric": "retail_sales",
			"change": "avoid stockout losses",
		},
		DataSources:     []string{"products"},
		ConfidenceScore: &conf,
	}
	applyTemplate(rec, tpl, map[string]string{
		"count": fmt.Sprintf("%d", len(items)),
	})
	return rec
}

// ServiceDemand compares a service's booking volume across two equal windows.
type ServiceDemand struct {
	Name   string `json:"name"`
	Recent int    `json:"recent"`
	Prior  int    `json:"prior"`
}

// BuildPricingRec proposes a price review for the fastest-growing service.
// Growth above 25% on a meaningful base signals room to raise prices.
func BuildPricingRec(services []ServiceDemand, tpl *models.RecommendationTemplate) *models.Recommendation {
	var best *ServiceDemand
	var bestGrowth float64
	for i, s := range services {
		if s.Prior < 5 || s.Recent <= s.Prior {
			continue
		}
		growth := float64(s.Recent-s.Prior) / float64(s.Prior)
		if best == nil || growth > bestGrowth {
			best = &services[i]
			bestGrowth = growth
		}
	}
	if best == nil || bestGrowth <= 0.25 {
		return nil
	}

	conf := 0.6
	rec := &models.Recommendation{
		Type:     models.RecPricing,
		Priority: models.PriorityMedium,
		Title:    fmt.Sprintf("Review pricing for %s", best.Name),
		Description: fmt.Sprintf("Demand for %s grew %.0f%% month over month (%d vs %d bookings). Sustained demand at this level supports a modest price increase.",
			best.Name, bestGrowth*100, best.Recent, best.Prior),
		Reasoning: map[string]any{
			"service":         best.Name,
			"growth_pct":      round1(bestGrowth * 100),
			"recent_bookings": best.Recent,
			"prior_bookings":  best.Prior,
		},
		ActionItems: []string{
			fmt.Sprintf("Test a 5-10%% price increase on %s", best.Name),
			"Watch booking volume for four weeks after the change",
			"Roll back if demand drops more than the price gained",
		},
		ExpectedImpact: map[string]any{
			"metric": "revenue_per_booking",
			"change": "5-10% on the reviewed service",
		},
		DataSources:     []string{"bookings", "services"},
		ConfidenceScore: &conf,
	}
	applyTemplate(rec, tpl, map[string]string{
		"service": best.Name,
		"pct":     fmt.Sprintf("%.0f", bestGrowth*100),
	})
	return rec
}

// ServicePair is two services frequently booked together.
type ServicePair struct {
	ServiceA string  `json:"service_a"`
	ServiceB string  `json:"service_b"`
	Together int     `json:"together"`
	Rate     float64 `json:"rate"`
}

// BuildBundlingRec proposes a bundle once a pair appears in more than 15% of
// multi-service visits.
func BuildBundlingRec(top *ServicePair, tpl *models.RecommendationTemplate) *models.Recommendation {
	if top == nil || top.Rate <= 0.15 {
		return nil
	}

	conf := 0.65
	rec := &models.Recommendation{
		Type:     models.RecServiceBundling,
		Priority: models.PriorityLow,
		Title:    fmt.Sprintf("Bundle %s with %s", top.ServiceA, top.ServiceB),
		Description: fmt.Sprintf("%s and %s already appear together in %.0f%% of multi-service visits. A bundle price formalizes the habit and lifts average ticket.",
			top.ServiceA, top.ServiceB, top.Rate*100),
		Reasoning: map[string]any{
			"pair_rate_pct": round1(top.Rate * 100),
			"pair_bookings": top.Together,
		},
		ActionItems: []string{
			fmt.Sprintf("Create a %s + %s package at a small discount", top.ServiceA, top.ServiceB),
			"Train front desk to offer the bundle at booking time",
		},
		ExpectedImpact: map[string]any{
			"metric": "average_ticket",
			"change": "higher attach rate",
		},
		DataSources:     []string{"bookings", "services"},
		ConfidenceScore: &conf,
	}
	applyTemplate(rec, tpl, map[string]string{
		"service_a": top.ServiceA,
		"service_b": top.ServiceB,
		"pct":       fmt.Sprintf("%.0f", top.Rate*100),
	})
	return rec
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// renderTemplate substitutes {key} placeholders with their values.
func renderTemplate(tpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

// applyTemplate overrides a recommendation's title and description with the
// tenant template's rendered text. Priority is left to the builder, which may
// have escalated it beyond the template default.
func applyTemplate(rec *models.Recommendation, tpl *models.RecommendationTemplate, vars map[string]string) {
	if tpl == nil {
		return
	}
	if tpl.TitleTemplate != "" {
		rec.Title = renderTemplate(tpl.TitleTemplate, vars)
	}
	if tpl.DescriptionTemplate != "" {
		rec.Description = renderTemplate(tpl.DescriptionTemplate, vars)
	}
}
