package forecast

import "fmt"

// LinearSlope fits y = intercept + slope*x over indices 0..n-1 by least squares.
func LinearSlope(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return 0, values[0]
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// ServiceSeries is one service's bookings aggregated into consecutive periods,
// oldest first.
type ServiceSeries struct {
	ServiceID int64     `json:"service_id"`
	Name      string    `json:"name"`
	Counts    []float64 `json:"counts"`
}

// ServiceTrend classifies how a service's demand is moving.
type ServiceTrend struct {
	ServiceID int64   `json:"service_id"`
	Name      string  `json:"name"`
	Slope     float64 `json:"slope"`
	TrendPct  float64 `json:"trend_pct"`
	Direction string  `json:"direction"`
	Total     float64 `json:"total_bookings"`
}

const minTrendPeriods = 3

// classifyTrend fits a trend line over the values and classifies direction.
// trendPct is the fitted line's percent change across the window.
func classifyTrend(values []float64) (slope, trendPct float64, direction string) {
	slope, intercept := LinearSlope(values)

	var total float64
	for _, v := range values {
		total += v
	}

	first := intercept
	if first <= 0 {
		first = total / float64(len(values))
	}
	if first > 0 {
		trendPct = slope * float64(len(values)-1) / first * 100
	}

	direction = "stable"
	switch {
	case trendPct > 10:
		direction = "growing"
	case trendPct < -10:
		direction = "declining"
	}
	return slope, trendPct, direction
}

// RevenueTrend classifies overall revenue direction over weekly totals.
type RevenueTrend struct {
	WeeklyTotals []float64 `json:"weekly_totals"`
	Slope        float64   `json:"slope"`
	TrendPct     float64   `json:"trend_pct"`
	Direction    string    `json:"direction"`
}

// AnalyzeRevenueTrend fits a trend over weekly revenue totals, oldest first.
func AnalyzeRevenueTrend(weekly []float64) (*RevenueTrend, error) {
	if len(weekly) < minTrendPeriods {
		return nil, fmt.Errorf("forecast: revenue trend needs %d weeks of history, have %d",
			minTrendPeriods, len(weekly))
	}
	slope, pct, direction := classifyTrend(weekly)
	return &RevenueTrend{
		WeeklyTotals: weekly,
		Slope:        round2(slope),
		TrendPct:     round2(pct),
		Direction:    direction,
	}, nil
}

// SeasonalProfile summarizes recurring weekday and monthly revenue patterns.
type SeasonalProfile struct {
	WeekdayAvg map[string]float64 `json:"weekday_avg"`
	MonthlyAvg map[string]float64 `json:"monthly_avg"`
	BestDay    string             `json:"best_day"`
	SlowestDay string             `json:"slowest_day"`
}

// AnalyzeSeasonality averages daily revenue by weekday and calendar month.
func AnalyzeSeasonality(history []DailyPoint) (*SeasonalProfile, error) {
	if len(history) < minMovingAverageDays {
		return nil, fmt.Errorf("forecast: seasonality needs %d days of history, have %d",
			minMovingAverageDays, len(history))
	}

	daySums := make(map[string]float64)
	dayCounts := make(map[string]float64)
	monthSums := make(map[string]float64)
	monthCounts := make(map[string]float64)
	for _, p := range history {
		wd := p.Date.Weekday().String()
		daySums[wd] += p.Value
		dayCounts[wd]++
		m := p.Date.Month().String()
		monthSums[m] += p.Value
		monthCounts[m]++
	}

	profile := &SeasonalProfile{
		WeekdayAvg: make(map[string]float64, len(daySums)),
		MonthlyAvg: make(map[string]float64, len(monthSums)),
	}
	var best, slowest float64
	for wd, sum := range daySums {
		avg := round2(sum / dayCounts[wd])
		profile.WeekdayAvg[wd] = avg
		if profile.BestDay == "" || avg > best {
			profile.BestDay, best = wd, avg
		}
		if profile.SlowestDay == "" || avg < slowest {
			profile.SlowestDay, slowest = wd, avg
		}
	}
	for m, sum := range monthSums {
		profile.MonthlyAvg[m] = round2(sum / monthCounts[m])
	}
	return profile, nil
}

// AnalyzeServiceTrends fits a trend line per service and classifies direction.
// Change above +10% over the window is growing, below -10% is declining.
func AnalyzeServiceTrends(series []ServiceSeries) []ServiceTrend {
	var trends []ServiceTrend
	for _, s := range series {
		if len(s.Counts) < minTrendPeriods {
			continue
		}

		slope, trendPct, direction := classifyTrend(s.Counts)

		var total float64
		for _, c := range s.Counts {
			total += c
		}

		trends = append(trends, ServiceTrend{
			ServiceID: s.ServiceID,
			Name:      s.Name,
			Slope:     round2(slope),
			TrendPct:  round2(trendPct),
			Direction: direction,
			Total:     total,
		})
	}
	return trends
}
