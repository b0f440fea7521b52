// Package forecast implements SalonPulse's predictive analytics: revenue and
// booking demand forecasting, churn risk scoring, customer lifetime value,
// capacity planning, and service trend analysis.
//
// The algorithms are deliberately simple statistical models that work on the
// data volumes a single salon produces. Each forecaster states its minimum
// history requirement and the orchestrator falls back to a simpler method
// when a tenant's data is too thin.
package forecast

import (
	"fmt"
	"math"
	"time"
)

// DailyPoint is one day's observed value, typically revenue.
type DailyPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ForecastPoint is one predicted day with its confidence interval.
type ForecastPoint struct {
	Date      time.Time `json:"date"`
	Predicted float64   `json:"predicted"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// Series is a forecast over consecutive future days.
type Series struct {
	Points     []ForecastPoint `json:"points"`
	Total      float64         `json:"total"`
	Confidence float64         `json:"confidence"`
}

const (
	minMovingAverageDays = 14
	minSeasonalDays      = 60
	movingAverageWindow  = 30
)

// weekdayFactors returns the ratio of each weekday's mean to the overall mean.
// Days with no observations get factor 1 so they fall back to the base level.
func weekdayFactors(history []DailyPoint) [7]float64 {
	var sums, counts [7]float64
	var total float64
	for _, p := range history {
		wd := int(p.Date.Weekday())
		sums[wd] += p.Value
		counts[wd]++
		total += p.Value
	}
	overall := total / float64(len(history))

	var factors [7]float64
	for i := range factors {
		if counts[i] == 0 || overall == 0 {
			factors[i] = 1
			continue
		}
		factors[i] = (sums[i] / counts[i]) / overall
	}
	return factors
}

// MovingAverageForecast projects future daily values from a trailing mean
// adjusted by day-of-week factors. Needs at least 14 days of history.
func MovingAverageForecast(history []DailyPoint, horizon int) (*Series, error) {
	if len(history) < minMovingAverageDays {
		return nil, fmt.Errorf("forecast: moving average needs %d days of history, have %d",
			minMovingAverageDays, len(history))
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("forecast: horizon must be positive")
	}

	window := history
	if len(window) > movingAverageWindow {
		window = window[len(window)-movingAverageWindow:]
	}
	var sum float64
	for _, p := range window {
		sum += p.Value
	}
	base := sum / float64(len(window))

	factors := weekdayFactors(history)
	last := history[len(history)-1].Date

	series := &Series{Confidence: 0.75}
	for i := 1; i <= horizon; i++ {
		date := last.AddDate(0, 0, i)
		predicted := base * factors[int(date.Weekday())]
		series.Points = append(series.Points, ForecastPoint{
			Date:      date,
			Predicted: round2(predicted),
			Lower:     round2(predicted * 0.8),
			Upper:     round2(predicted * 1.2),
		})
		series.Total += predicted
	}
	series.Total = round2(series.Total)
	return series, nil
}

// SeasonalForecast fits a least-squares trend line and multiplies it by
// weekly seasonality factors. Needs at least 60 days of history.
func SeasonalForecast(history []DailyPoint, horizon int) (*Series, error) {
	if len(history) < minSeasonalDays {
		return nil, fmt.Errorf("forecast: seasonal model needs %d days of history, have %d",
			minSeasonalDays, len(history))
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("forecast: horizon must be positive")
	}

	values := make([]float64, len(history))
	for i, p := range history {
		values[i] = p.Value
	}
	slope, intercept := LinearSlope(values)
	factors := weekdayFactors(history)
	last := history[len(history)-1].Date
	n := float64(len(history))

	series := &Series{Confidence: 0.85}
	for i := 1; i <= horizon; i++ {
		date := last.AddDate(0, 0, i)
		trend := intercept + slope*(n+float64(i)-1)
		predicted := trend * factors[int(date.Weekday())]
		if predicted < 0 {
			predicted = 0
		}
		series.Points = append(series.Points, ForecastPoint{
			Date:      date,
			Predicted: round2(predicted),
			Lower:     round2(predicted * 0.85),
			Upper:     round2(predicted * 1.15),
		})
		series.Total += predicted
	}
	series.Total = round2(series.Total)
	return series, nil
}

// Anomaly is one day whose value deviates sharply from the historical mean.
type Anomaly struct {
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`
	Expected  float64   `json:"expected"`
	ZScore    float64   `json:"z_score"`
	Direction string    `json:"direction"`
	Severity  string    `json:"severity"`
}

// DetectAnomalies flags days whose z-score exceeds 2 standard deviations.
// Deviations beyond 3 are marked high severity.
func DetectAnomalies(history []DailyPoint) []Anomaly {
	if len(history) < minMovingAverageDays {
		return nil
	}

	var sum float64
	for _, p := range history {
		sum += p.Value
	}
	mean := sum / float64(len(history))

	var variance float64
	for _, p := range history {
		d := p.Value - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(history)))
	if stddev == 0 {
		return nil
	}

	var anomalies []Anomaly
	for _, p := range history {
		z := (p.Value - mean) / stddev
		if math.Abs(z) <= 2 {
			continue
		}
		severity := "medium"
		if math.Abs(z) > 3 {
			severity = "high"
		}
		direction := "spike"
		if z < 0 {
			direction = "drop"
		}
		anomalies = append(anomalies, Anomaly{
			Date:      p.Date,
			Value:     p.Value,
			Expected:  round2(mean),
			ZScore:    round2(z),
			Direction: direction,
			Severity:  severity,
		})
	}
	return anomalies
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
