package forecast

import (
	"fmt"
	"testing"
	"time"
)

var scoringNow = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

func customer(id int64, lastVisitDaysAgo, visits int, spent float64) CustomerActivity {
	return CustomerActivity{
		CustomerID: id,
		Name:       fmt.Sprintf("Customer %d", id),
		FirstVisit: scoringNow.AddDate(-1, 0, 0),
		LastVisit:  scoringNow.AddDate(0, 0, -lastVisitDaysAgo),
		VisitCount: visits,
		TotalSpent: spent,
	}
}

func TestRuleBasedChurn_Ordering(t *testing.T) {
	customers := []CustomerActivity{
		customer(1, 3, 24, 2400),  // weekly regular, big spender
		customer(2, 100, 2, 80),   // long gone, rare, cheap
		customer(3, 45, 6, 600),   // middling
	}

	scores := RuleBasedChurn(customers, scoringNow)
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}

	// Sorted highest risk first.
	if scores[0].CustomerID != 2 {
		t.Errorf("expected customer 2 at highest risk, got %d", scores[0].CustomerID)
	}
	if scores[len(scores)-1].CustomerID != 1 {
		t.Errorf("expected customer 1 at lowest risk, got %d", scores[len(scores)-1].CustomerID)
	}

	for _, sc := range scores {
		if sc.Score < 0 || sc.Score > 1 {
			t.Errorf("score out of range for customer %d: %v", sc.CustomerID, sc.Score)
		}
	}
}

func TestRuleBasedChurn_Levels(t *testing.T) {
	scores := RuleBasedChurn([]CustomerActivity{
		customer(1, 120, 1, 40), // everything bad
		customer(2, 0, 30, 3000), // everything good
	}, scoringNow)

	byID := make(map[int64]ChurnScore)
	for _, sc := range scores {
		byID[sc.CustomerID] = sc
	}

	if byID[1].Level != "high" {
		t.Errorf("expected high risk, got %s (score %v)", byID[1].Level, byID[1].Score)
	}
	if byID[2].Level != "low" {
		t.Errorf("expected low risk, got %s (score %v)", byID[2].Level, byID[2].Score)
	}
}

func TestWeightedRFMChurn_MinimumCustomers(t *testing.T) {
	customers := make([]CustomerActivity, 29)
	for i := range customers {
		customers[i] = customer(int64(i+1), i, 5, 300)
	}
	if _, err := WeightedRFMChurn(customers, scoringNow); err == nil {
		t.Error("expected error below 30 customers")
	}
}

func TestWeightedRFMChurn_ChurnedCustomersMaxScore(t *testing.T) {
	customers := make([]CustomerActivity, 30)
	for i := range customers {
		customers[i] = customer(int64(i+1), i*2, 5+i, 100*float64(i+1))
	}
	// Customer index 29 last visited 58 days ago; push one past the boundary.
	customers[0].LastVisit = scoringNow.AddDate(0, 0, -120)

	scores, err := WeightedRFMChurn(customers, scoringNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if scores[0].CustomerID != 1 {
		t.Fatalf("expected churned customer 1 first, got %d", scores[0].CustomerID)
	}
	if scores[0].Score != 1.0 {
		t.Errorf("customer past 90 days should score 1.0, got %v", scores[0].Score)
	}
	if scores[0].Level != "high" {
		t.Errorf("expected high level, got %s", scores[0].Level)
	}
}

func TestEstimateCLV(t *testing.T) {
	customers := []CustomerActivity{
		{
			CustomerID: 1, Name: "Monthly VIP",
			FirstVisit: scoringNow.AddDate(0, -12, 0),
			LastVisit:  scoringNow.AddDate(0, 0, -10),
			VisitCount: 12, TotalSpent: 1440, // $120/visit, ~1/month
		},
		{
			CustomerID: 2, Name: "Occasional",
			FirstVisit: scoringNow.AddDate(0, -12, 0),
			LastVisit:  scoringNow.AddDate(0, 0, -60),
			VisitCount: 3, TotalSpent: 90, // $30/visit, rare
		},
		{
			CustomerID: 3, Name: "No Visits",
			FirstVisit: scoringNow, LastVisit: scoringNow,
			VisitCount: 0, TotalSpent: 0,
		},
	}

	estimates := EstimateCLV(customers, scoringNow)
	if len(estimates) != 2 {
		t.Fatalf("customers without visits must be skipped, got %d estimates", len(estimates))
	}

	vip := estimates[0]
	if vip.CustomerID != 1 {
		t.Fatalf("expected VIP first, got %d", vip.CustomerID)
	}
	// 120 * ~1/month * 36 months ≈ 4260 with a 365/30 month divisor.
	if vip.CLV < 3500 || vip.CLV > 5000 {
		t.Errorf("unexpected VIP CLV: %v", vip.CLV)
	}
	if vip.Segment != "VIP" {
		t.Errorf("expected VIP segment, got %s", vip.Segment)
	}

	if estimates[1].Segment != "Low Value" {
		t.Errorf("expected Low Value segment for occasional customer, got %s", estimates[1].Segment)
	}
}

func TestRuleBasedChurn_RecencyBands(t *testing.T) {
	// Identical except for days since the last visit, on opposite sides of
	// the 120-day threshold.
	scores := RuleBasedChurn([]CustomerActivity{
		customer(1, 95, 2, 80),
		customer(2, 125, 2, 80),
	}, scoringNow)

	byID := make(map[int64]ChurnScore)
	for _, sc := range scores {
		byID[sc.CustomerID] = sc
	}

	if byID[2].Score <= byID[1].Score {
		t.Errorf("125-day customer should outscore 95-day customer: %v vs %v",
			byID[2].Score, byID[1].Score)
	}
	if byID[2].Level != "high" {
		t.Errorf("customer past 120 days should be high risk, got %s (score %v)",
			byID[2].Level, byID[2].Score)
	}

	wantFactor := "Last visit 125 days ago (>120 days)"
	found := false
	for _, f := range byID[2].RiskFactors {
		if f == wantFactor {
			found = true
		}
	}
	if !found {
		t.Errorf("expected risk factor %q, got %v", wantFactor, byID[2].RiskFactors)
	}
	if len(byID[2].RecommendedActions) == 0 {
		t.Error("high-risk customer should carry recommended actions")
	}
}

func TestChurnLevelThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.9, "high"},
		{0.7, "high"},
		{0.69, "medium"},
		{0.4, "medium"},
		{0.39, "low"},
		{0.0, "low"},
	}
	for _, tt := range tests {
		if got := churnLevel(tt.score); got != tt.want {
			t.Errorf("churnLevel(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
