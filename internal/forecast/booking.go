package forecast

import (
	"fmt"
	"sort"
	"time"
)

// DayBookings is one day's booking counts.
type DayBookings struct {
	Date      time.Time `json:"date"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
}

// DemandPoint is one forecast day of expected bookings.
type DemandPoint struct {
	Date      time.Time `json:"date"`
	Predicted float64   `json:"predicted"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// DemandForecast projects expected daily booking counts.
type DemandForecast struct {
	Points         []DemandPoint `json:"points"`
	CompletionRate float64       `json:"completion_rate"`
	Confidence     float64       `json:"confidence"`
}

const minDemandDays = 14

// ForecastDemand projects booking counts from day-of-week averages, scaled by
// the historical completion rate so no-shows and cancellations are priced in.
func ForecastDemand(history []DayBookings, horizon int) (*DemandForecast, error) {
	if len(history) < minDemandDays {
		return nil, fmt.Errorf("forecast: demand needs %d days of history, have %d",
			minDemandDays, len(history))
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("forecast: horizon must be positive")
	}

	var sums, counts [7]float64
	var total, completed int
	for _, d := range history {
		wd := int(d.Date.Weekday())
		sums[wd] += float64(d.Total)
		counts[wd]++
		total += d.Total
		completed += d.Completed
	}

	completionRate := 1.0
	if total > 0 {
		completionRate = float64(completed) / float64(total)
	}

	overall := float64(total) / float64(len(history))
	last := history[len(history)-1].Date

	fc := &DemandForecast{
		CompletionRate: round2(completionRate),
		Confidence:     0.80,
	}
	for i := 1; i <= horizon; i++ {
		date := last.AddDate(0, 0, i)
		wd := int(date.Weekday())
		base := overall
		if counts[wd] > 0 {
			base = sums[wd] / counts[wd]
		}
		predicted := base * completionRate
		fc.Points = append(fc.Points, DemandPoint{
			Date:      date,
			Predicted: round2(predicted),
			Lower:     round2(predicted * 0.85),
			Upper:     round2(predicted * 1.15),
		})
	}
	return fc, nil
}

// HourCount is a booking count for one hour of the day.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// HourProfile classifies hours of the day by booking volume.
type HourProfile struct {
	Peak []HourCount `json:"peak_hours"`
	Slow []HourCount `json:"slow_hours"`
}

// AnalyzeHours splits the day into peak and slow hours. Hours at or above the
// 80th percentile of volume are peak, at or below the 20th are slow. Hours
// with zero bookings are ignored so closed hours do not skew the percentiles.
func AnalyzeHours(hours []HourCount) *HourProfile {
	active := make([]HourCount, 0, len(hours))
	for _, h := range hours {
		if h.Count > 0 {
			active = append(active, h)
		}
	}
	if len(active) == 0 {
		return &HourProfile{}
	}

	counts := make([]int, len(active))
	for i, h := range active {
		counts[i] = h.Count
	}
	sort.Ints(counts)

	p80 := counts[(len(counts)-1)*80/100]
	p20 := counts[(len(counts)-1)*20/100]

	profile := &HourProfile{}
	for _, h := range active {
		switch {
		case h.Count >= p80:
			profile.Peak = append(profile.Peak, h)
		case h.Count <= p20:
			profile.Slow = append(profile.Slow, h)
		}
	}
	sort.Slice(profile.Peak, func(i, j int) bool { return profile.Peak[i].Hour < profile.Peak[j].Hour })
	sort.Slice(profile.Slow, func(i, j int) bool { return profile.Slow[i].Hour < profile.Slow[j].Hour })
	return profile
}
