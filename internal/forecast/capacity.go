package forecast

import (
	"fmt"
	"math"
	"time"
)

// DayLoad is the booked service time for one day.
type DayLoad struct {
	Date          time.Time `json:"date"`
	BookedMinutes float64   `json:"booked_minutes"`
}

// CapacityPlan assesses staffing against demand.
type CapacityPlan struct {
	AvgDailyHours   float64  `json:"avg_daily_hours"`
	ActiveStaff     int      `json:"active_staff"`
	UtilizationPct  float64  `json:"utilization_pct"`
	UtilizationBand string   `json:"utilization_band"`
	OptimalStaff    int      `json:"optimal_staff"`
	Alerts          []string `json:"alerts,omitempty"`
}

const (
	workdayHours     = 8.0
	targetOccupancy  = 0.8
	minCapacityDays  = 7
	underutilizedPct = 50.0
	overloadedPct    = 85.0
	lowAlertPct      = 60.0
	highAlertPct     = 90.0
)

// PlanCapacity compares booked service hours against available staff hours.
// Optimal staffing assumes an 8-hour day at 80% target occupancy.
func PlanCapacity(loads []DayLoad, activeStaff int) (*CapacityPlan, error) {
	if len(loads) < minCapacityDays {
		return nil, fmt.Errorf("forecast: capacity planning needs %d days of history, have %d",
			minCapacityDays, len(loads))
	}
	if activeStaff < 1 {
		return nil, fmt.Errorf("forecast: capacity planning needs at least one active technician")
	}

	var totalMinutes float64
	for _, l := range loads {
		totalMinutes += l.BookedMinutes
	}
	avgDailyHours := totalMinutes / 60 / float64(len(loads))

	available := float64(activeStaff) * workdayHours
	utilization := avgDailyHours / available * 100

	band := "balanced"
	switch {
	case utilization < underutilizedPct:
		band = "underutilized"
	case utilization > overloadedPct:
		band = "overloaded"
	}

	optimal := int(math.Ceil(avgDailyHours / (workdayHours * targetOccupancy)))
	if optimal < 1 {
		optimal = 1
	}

	plan := &CapacityPlan{
		AvgDailyHours:   round2(avgDailyHours),
		ActiveStaff:     activeStaff,
		UtilizationPct:  round2(utilization),
		UtilizationBand: band,
		OptimalStaff:    optimal,
	}

	if utilization < lowAlertPct {
		plan.Alerts = append(plan.Alerts,
			fmt.Sprintf("Staff utilization is %.0f%%. Consider shorter shifts or promotions to fill capacity.", utilization))
	}
	if utilization > highAlertPct {
		plan.Alerts = append(plan.Alerts,
			fmt.Sprintf("Staff utilization is %.0f%%. Customers may face long waits; consider adding staff.", utilization))
	}

	return plan, nil
}
