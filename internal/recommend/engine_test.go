package recommend

import (
	"testing"
	"time"

	"github.com/polishedlabs/salonpulse/pkg/models"
)

func TestBuildPromotionRec(t *testing.T) {
	balanced := []DayVolume{
		{time.Monday, 18}, {time.Tuesday, 20}, {time.Wednesday, 22},
		{time.Thursday, 19}, {time.Friday, 24}, {time.Saturday, 25},
	}
	if got := BuildPromotionRec(balanced, nil); got != nil {
		t.Errorf("balanced week should not trigger, got %+v", got)
	}

	uneven := []DayVolume{
		{time.Monday, 5}, {time.Tuesday, 20}, {time.Wednesday, 22},
		{time.Thursday, 19}, {time.Friday, 24}, {time.Saturday, 30},
	}
	rec := BuildPromotionRec(uneven, nil)
	if rec == nil {
		t.Fatal("expected a promotion recommendation")
	}
	if rec.Type != models.RecPromotion {
		t.Errorf("unexpected type %s", rec.Type)
	}
	if rec.Priority != models.PriorityMedium {
		t.Errorf("expected medium priority, got %s", rec.Priority)
	}
	if rec.Reasoning["slowest_day"] != "Monday" {
		t.Errorf("expected Monday as slowest day, got %v", rec.Reasoning["slowest_day"])
	}
	if len(rec.ActionItems) == 0 {
		t.Error("expected action items")
	}
}

func TestBuildPromotionRec_Degenerate(t *testing.T) {
	if got := BuildPromotionRec(nil, nil); got != nil {
		t.Errorf("no data should not trigger, got %+v", got)
	}
	if got := BuildPromotionRec([]DayVolume{{time.Monday, 0}, {time.Tuesday, 0}}, nil); got != nil {
		t.Errorf("all-zero week should not trigger, got %+v", got)
	}
}

func TestBuildSchedulingRec(t *testing.T) {
	if got := BuildSchedulingRec(PeakWindow{Hours: []int{14, 15, 16}, Concentration: 0.3}, nil); got != nil {
		t.Errorf("30%% concentration should not trigger, got %+v", got)
	}

	rec := BuildSchedulingRec(PeakWindow{Hours: []int{14, 15, 16}, Concentration: 0.55}, nil)
	if rec == nil {
		t.Fatal("expected a scheduling recommendation")
	}
	if rec.Priority != models.PriorityHigh {
		t.Errorf("expected high priority, got %s", rec.Priority)
	}
}

func TestBuildRetentionRec(t *testing.T) {
	if got := BuildRetentionRec(nil, nil); got != nil {
		t.Errorf("no at-risk customers should not trigger, got %+v", got)
	}

	few := []AtRiskCustomer{
		{Name: "Ana Perez", DaysSinceVisit: 70, TotalSpent: 800},
		{Name: "Mai Tran", DaysSinceVisit: 65, TotalSpent: 450},
	}
	rec := BuildRetentionRec(few, nil)
	if rec == nil {
		t.Fatal("expected a retention recommendation")
	}
	if rec.Priority != models.PriorityHigh {
		t.Errorf("expected high priority for small group, got %s", rec.Priority)
	}
	if rec.Reasoning["revenue_at_risk"] != 1250.0 {
		t.Errorf("expected revenue_at_risk 1250, got %v", rec.Reasoning["revenue_at_risk"])
	}

	many := make([]AtRiskCustomer, 12)
	for i := range many {
		many[i] = AtRiskCustomer{Name: "Customer", DaysSinceVisit: 70, TotalSpent: 100}
	}
	if rec := BuildRetentionRec(many, nil); rec.Priority != models.PriorityCritical {
		t.Errorf("expected critical priority past 10 customers, got %s", rec.Priority)
	}
}

func TestBuildInventoryRec(t *testing.T) {
	if got := BuildInventoryRec(nil, nil); got != nil {
		t.Errorf("no restock items should not trigger, got %+v", got)
	}

	low := []RestockItem{{Name: "Top Coat", Stock: 2, MinLevel: 10}}
	rec := BuildInventoryRec(low, nil)
	if rec == nil {
		t.Fatal("expected an inventory recommendation")
	}
	if rec.Priority != models.PriorityMedium {
		t.Errorf("expected medium priority, got %s", rec.Priority)
	}

	out := []RestockItem{
		{Name: "Top Coat", Stock: 0, MinLevel: 10},
		{Name: "Base Coat", Stock: 3, MinLevel: 10},
	}
	if rec := BuildInventoryRec(out, nil); rec.Priority != models.PriorityHigh {
		t.Errorf("expected high priority with an outage, got %s", rec.Priority)
	}
}

func TestBuildPricingRec(t *testing.T) {
	if got := BuildPricingRec(nil, nil); got != nil {
		t.Errorf("no services should not trigger, got %+v", got)
	}

	flat := []ServiceDemand{
		{Name: "Gel Manicure", Recent: 22, Prior: 20},
		{Name: "Classic Pedicure", Recent: 15, Prior: 16},
	}
	if got := BuildPricingRec(flat, nil); got != nil {
		t.Errorf("flat demand should not trigger, got %+v", got)
	}

	// 3 -> 9 is 200% growth but the base is too thin to price against.
	thin := []ServiceDemand{{Name: "Nail Art", Recent: 9, Prior: 3}}
	if got := BuildPricingRec(thin, nil); got != nil {
		t.Errorf("thin base should not trigger, got %+v", got)
	}

	growing := []ServiceDemand{
		{Name: "Gel Manicure", Recent: 28, Prior: 20},
		{Name: "Acrylic Full Set", Recent: 18, Prior: 10},
	}
	rec := BuildPricingRec(growing, nil)
	if rec == nil {
		t.Fatal("expected a pricing recommendation")
	}
	if rec.Type != models.RecPricing {
		t.Errorf("unexpected type %s", rec.Type)
	}
	if rec.Reasoning["service"] != "Acrylic Full Set" {
		t.Errorf("expected fastest grower to win, got %v", rec.Reasoning["service"])
	}
	if rec.Reasoning["growth_pct"] != 80.0 {
		t.Errorf("expected growth_pct 80, got %v", rec.Reasoning["growth_pct"])
	}
}

func TestBuildBundlingRec(t *testing.T) {
	if got := BuildBundlingRec(nil, nil); got != nil {
		t.Errorf("nil pair should not trigger, got %+v", got)
	}
	if got := BuildBundlingRec(&ServicePair{ServiceA: "Manicure", ServiceB: "Pedicure", Together: 5, Rate: 0.1}, nil); got != nil {
		t.Errorf("10%% pair rate should not trigger, got %+v", got)
	}

	rec := BuildBundlingRec(&ServicePair{ServiceA: "Gel Manicure", ServiceB: "Classic Pedicure", Together: 40, Rate: 0.3}, nil)
	if rec == nil {
		t.Fatal("expected a bundling recommendation")
	}
	if rec.Type != models.RecServiceBundling {
		t.Errorf("unexpected type %s", rec.Type)
	}
	if rec.Priority != models.PriorityLow {
		t.Errorf("expected low priority, got %s", rec.Priority)
	}
}

func TestApplyTemplateText(t *testing.T) {
	uneven := []DayVolume{
		{time.Monday, 5}, {time.Tuesday, 20}, {time.Wednesday, 22},
		{time.Thursday, 19}, {time.Friday, 24}, {time.Saturday, 30},
	}
	tpl := &models.RecommendationTemplate{
		Type:                models.RecPromotion,
		TitleTemplate:       "Boost {day} bookings",
		DescriptionTemplate: "{day} runs {pct}% behind your busiest day.",
	}

	rec := BuildPromotionRec(uneven, tpl)
	if rec == nil {
		t.Fatal("expected a promotion recommendation")
	}
	if rec.Title != "Boost Monday bookings" {
		t.Errorf("template title not applied, got %q", rec.Title)
	}
	if rec.Description != "Monday runs 83% behind your busiest day." {
		t.Errorf("template description not applied, got %q", rec.Description)
	}
	// Escalated priority from the builder survives templating.
	if rec.Priority != models.PriorityMedium {
		t.Errorf("unexpected priority %s", rec.Priority)
	}
}

func TestApplyTemplateEmptyFields(t *testing.T) {
	few := []AtRiskCustomer{{Name: "Ana Perez", DaysSinceVisit: 70, TotalSpent: 800}}
	rec := BuildRetentionRec(few, &models.RecommendationTemplate{Type: models.RecRetention})
	if rec == nil {
		t.Fatal("expected a retention recommendation")
	}
	if rec.Title == "" || rec.Description == "" {
		t.Error("empty template fields must not blank out built-in text")
	}
}

func TestPriorityRank(t *testing.T) {
	if models.PriorityCritical.Rank() <= models.PriorityHigh.Rank() {
		t.Error("critical must outrank high")
	}
	if models.PriorityLow.Rank() <= models.RecommendationPriority("bogus").Rank() {
		t.Error("low must outrank unknown priorities")
	}
}
