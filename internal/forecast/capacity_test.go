package forecast

import (
	"strings"
	"testing"
)

func loads(days int, minutesPerDay float64) []DayLoad {
	result := make([]DayLoad, days)
	for i := range result {
		result[i] = DayLoad{Date: day(i), BookedMinutes: minutesPerDay}
	}
	return result
}

func TestPlanCapacity_Balanced(t *testing.T) {
	// 2 staff * 8h = 16h available; 11.2h booked = 70% utilization.
	plan, err := PlanCapacity(loads(14, 11.2*60), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.UtilizationPct != 70 {
		t.Errorf("expected 70%% utilization, got %v", plan.UtilizationPct)
	}
	if plan.UtilizationBand != "balanced" {
		t.Errorf("expected balanced band, got %s", plan.UtilizationBand)
	}
	// ceil(11.2 / 6.4) = 2
	if plan.OptimalStaff != 2 {
		t.Errorf("expected optimal staff 2, got %d", plan.OptimalStaff)
	}
	if len(plan.Alerts) != 0 {
		t.Errorf("expected no alerts at 70%%, got %v", plan.Alerts)
	}
}

func TestPlanCapacity_Underutilized(t *testing.T) {
	// 4 staff * 8h = 32h available; 9.6h booked = 30% utilization.
	plan, err := PlanCapacity(loads(14, 9.6*60), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.UtilizationBand != "underutilized" {
		t.Errorf("expected underutilized band, got %s", plan.UtilizationBand)
	}
	if len(plan.Alerts) != 1 || !strings.Contains(plan.Alerts[0], "utilization") {
		t.Errorf("expected a low-utilization alert, got %v", plan.Alerts)
	}
	// ceil(9.6 / 6.4) = 2
	if plan.OptimalStaff != 2 {
		t.Errorf("expected optimal staff 2, got %d", plan.OptimalStaff)
	}
}

func TestPlanCapacity_Overloaded(t *testing.T) {
	// 1 staff * 8h available; 7.6h booked = 95% utilization.
	plan, err := PlanCapacity(loads(14, 7.6*60), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.UtilizationBand != "overloaded" {
		t.Errorf("expected overloaded band, got %s", plan.UtilizationBand)
	}
	if len(plan.Alerts) != 1 {
		t.Errorf("expected a high-utilization alert, got %v", plan.Alerts)
	}
	// ceil(7.6 / 6.4) = 2
	if plan.OptimalStaff != 2 {
		t.Errorf("expected optimal staff 2, got %d", plan.OptimalStaff)
	}
}

func TestPlanCapacity_MinimumOneStaff(t *testing.T) {
	// Nearly empty book still needs one person on the floor.
	plan, err := PlanCapacity(loads(7, 30), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.OptimalStaff != 1 {
		t.Errorf("expected minimum staff 1, got %d", plan.OptimalStaff)
	}
}

func TestPlanCapacity_Errors(t *testing.T) {
	if _, err := PlanCapacity(loads(6, 480), 2); err == nil {
		t.Error("expected error for under a week of history")
	}
	if _, err := PlanCapacity(loads(14, 480), 0); err == nil {
		t.Error("expected error for zero staff")
	}
}
