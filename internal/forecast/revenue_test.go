package forecast

import (
	"math"
	"testing"
	"time"
)

// day returns a fixed Monday plus an offset, keeping weekday math predictable.
func day(offset int) time.Time {
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) // a Monday
	return base.AddDate(0, 0, offset)
}

func flatHistory(days int, value float64) []DailyPoint {
	points := make([]DailyPoint, days)
	for i := range points {
		points[i] = DailyPoint{Date: day(i), Value: value}
	}
	return points
}

func TestMovingAverageForecast_FlatHistory(t *testing.T) {
	history := flatHistory(30, 500)

	series, err := MovingAverageForecast(history, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(series.Points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(series.Points))
	}
	if series.Confidence != 0.75 {
		t.Errorf("expected confidence 0.75, got %v", series.Confidence)
	}

	for _, p := range series.Points {
		if math.Abs(p.Predicted-500) > 0.01 {
			t.Errorf("flat history should predict 500 on %s, got %v", p.Date, p.Predicted)
		}
		if math.Abs(p.Lower-400) > 0.01 || math.Abs(p.Upper-600) > 0.01 {
			t.Errorf("expected [400, 600] interval, got [%v, %v]", p.Lower, p.Upper)
		}
	}
	if math.Abs(series.Total-3500) > 0.1 {
		t.Errorf("expected total 3500, got %v", series.Total)
	}
}

func TestMovingAverageForecast_WeekdayFactors(t *testing.T) {
	// Saturdays earn double everything else.
	history := make([]DailyPoint, 28)
	for i := range history {
		d := day(i)
		v := 100.0
		if d.Weekday() == time.Saturday {
			v = 200
		}
		history[i] = DailyPoint{Date: d, Value: v}
	}

	series, err := MovingAverageForecast(history, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var saturday, tuesday float64
	for _, p := range series.Points {
		switch p.Date.Weekday() {
		case time.Saturday:
			saturday = p.Predicted
		case time.Tuesday:
			tuesday = p.Predicted
		}
	}
	if saturday <= tuesday {
		t.Errorf("saturday forecast (%v) should exceed tuesday (%v)", saturday, tuesday)
	}
	if math.Abs(saturday/tuesday-2) > 0.05 {
		t.Errorf("saturday/tuesday ratio should be ~2, got %v", saturday/tuesday)
	}
}

func TestMovingAverageForecast_InsufficientHistory(t *testing.T) {
	if _, err := MovingAverageForecast(flatHistory(13, 100), 7); err == nil {
		t.Error("expected error for 13 days of history")
	}
	if _, err := MovingAverageForecast(flatHistory(30, 100), 0); err == nil {
		t.Error("expected error for zero horizon")
	}
}

func TestSeasonalForecast_CapturesTrend(t *testing.T) {
	// Linearly growing revenue: 100, 102, 104, ...
	history := make([]DailyPoint, 70)
	for i := range history {
		history[i] = DailyPoint{Date: day(i), Value: 100 + 2*float64(i)}
	}

	series, err := SeasonalForecast(history, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Confidence != 0.85 {
		t.Errorf("expected confidence 0.85, got %v", series.Confidence)
	}

	// The forecast week should average above the last observed week.
	var lastWeek float64
	for _, p := range history[len(history)-7:] {
		lastWeek += p.Value
	}
	lastWeek /= 7

	forecastAvg := series.Total / 7
	if forecastAvg <= lastWeek {
		t.Errorf("growing series should forecast above last week's average %v, got %v",
			lastWeek, forecastAvg)
	}
}

func TestSeasonalForecast_NeverNegative(t *testing.T) {
	// Steeply declining revenue crosses zero inside the horizon.
	history := make([]DailyPoint, 60)
	for i := range history {
		v := 600 - 10*float64(i)
		if v < 0 {
			v = 0
		}
		history[i] = DailyPoint{Date: day(i), Value: v}
	}

	series, err := SeasonalForecast(history, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range series.Points {
		if p.Predicted < 0 {
			t.Errorf("forecast must not go negative, got %v on %s", p.Predicted, p.Date)
		}
	}
}

func TestSeasonalForecast_InsufficientHistory(t *testing.T) {
	if _, err := SeasonalForecast(flatHistory(59, 100), 7); err == nil {
		t.Error("expected error for 59 days of history")
	}
}

func TestDetectAnomalies(t *testing.T) {
	history := flatHistory(30, 100)
	// Inject noise so the baseline has nonzero variance, then one huge spike.
	for i := range history {
		if i%2 == 0 {
			history[i].Value = 105
		} else {
			history[i].Value = 95
		}
	}
	history[15].Value = 400

	anomalies := DetectAnomalies(history)
	if len(anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %d", len(anomalies))
	}
	a := anomalies[0]
	if !a.Date.Equal(day(15)) {
		t.Errorf("expected anomaly on %s, got %s", day(15), a.Date)
	}
	if a.Severity != "high" {
		t.Errorf("a spike this large should be high severity, got %s", a.Severity)
	}
	if a.ZScore <= 3 {
		t.Errorf("expected z-score above 3, got %v", a.ZScore)
	}
}

func TestDetectAnomalies_FlatSeries(t *testing.T) {
	if got := DetectAnomalies(flatHistory(30, 100)); got != nil {
		t.Errorf("flat series should produce no anomalies, got %v", got)
	}
}
