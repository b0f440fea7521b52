package forecast

import (
	"math"
	"testing"
	"time"
)

func TestLinearSlope(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		slope     float64
		intercept float64
	}{
		{"empty", nil, 0, 0},
		{"single", []float64{5}, 0, 5},
		{"flat", []float64{3, 3, 3, 3}, 0, 3},
		{"unit slope", []float64{0, 1, 2, 3, 4}, 1, 0},
		{"offset line", []float64{10, 12, 14, 16}, 2, 10},
		{"declining", []float64{9, 6, 3, 0}, -3, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slope, intercept := LinearSlope(tt.values)
			if math.Abs(slope-tt.slope) > 1e-9 {
				t.Errorf("slope = %v, want %v", slope, tt.slope)
			}
			if math.Abs(intercept-tt.intercept) > 1e-9 {
				t.Errorf("intercept = %v, want %v", intercept, tt.intercept)
			}
		})
	}
}

func TestAnalyzeRevenueTrend(t *testing.T) {
	if _, err := AnalyzeRevenueTrend([]float64{1000, 1100}); err == nil {
		t.Error("two weeks of history should be rejected")
	}

	growing, err := AnalyzeRevenueTrend([]float64{1000, 1200, 1400, 1600})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if growing.Direction != "growing" {
		t.Errorf("expected growing, got %s (%.1f%%)", growing.Direction, growing.TrendPct)
	}
	// Perfect line: slope 200, first 1000, pct = 200*3/1000*100 = 60.
	if growing.TrendPct != 60 {
		t.Errorf("expected trend_pct 60, got %v", growing.TrendPct)
	}

	flat, err := AnalyzeRevenueTrend([]float64{1500, 1480, 1520, 1500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flat.Direction != "stable" {
		t.Errorf("expected stable, got %s (%.1f%%)", flat.Direction, flat.TrendPct)
	}
}

func TestAnalyzeSeasonality(t *testing.T) {
	base := day(0)
	var history []DailyPoint
	for i := 0; i < 28; i++ {
		d := base.AddDate(0, 0, i)
		value := 500.0
		if d.Weekday() == time.Saturday {
			value = 900
		}
		if d.Weekday() == time.Monday {
			value = 300
		}
		history = append(history, DailyPoint{Date: d, Value: value})
	}

	profile, err := AnalyzeSeasonality(history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.BestDay != "Saturday" {
		t.Errorf("expected Saturday as best day, got %s", profile.BestDay)
	}
	if profile.SlowestDay != "Monday" {
		t.Errorf("expected Monday as slowest day, got %s", profile.SlowestDay)
	}
	if profile.WeekdayAvg["Saturday"] != 900 {
		t.Errorf("expected Saturday avg 900, got %v", profile.WeekdayAvg["Saturday"])
	}

	if _, err := AnalyzeSeasonality(history[:5]); err == nil {
		t.Error("five days of history should be rejected")
	}
}

func TestAnalyzeServiceTrends(t *testing.T) {
	series := []ServiceSeries{
		{ServiceID: 1, Name: "Gel Manicure", Counts: []float64{10, 14, 18, 22, 26, 30}},
		{ServiceID: 2, Name: "Acrylic Full Set", Counts: []float64{30, 26, 22, 18, 14, 10}},
		{ServiceID: 3, Name: "Classic Pedicure", Counts: []float64{20, 21, 19, 20, 21, 19}},
		{ServiceID: 4, Name: "Too New", Counts: []float64{5, 6}},
	}

	trends := AnalyzeServiceTrends(series)
	if len(trends) != 3 {
		t.Fatalf("series shorter than 3 periods must be skipped, got %d trends", len(trends))
	}

	byID := make(map[int64]ServiceTrend)
	for _, tr := range trends {
		byID[tr.ServiceID] = tr
	}

	if byID[1].Direction != "growing" {
		t.Errorf("gel manicure should be growing, got %s (%.1f%%)", byID[1].Direction, byID[1].TrendPct)
	}
	if byID[2].Direction != "declining" {
		t.Errorf("acrylic should be declining, got %s (%.1f%%)", byID[2].Direction, byID[2].TrendPct)
	}
	if byID[3].Direction != "stable" {
		t.Errorf("pedicure should be stable, got %s (%.1f%%)", byID[3].Direction, byID[3].TrendPct)
	}

	if byID[1].Total != 120 {
		t.Errorf("expected total 120, got %v", byID[1].Total)
	}
	if byID[1].TrendPct <= 0 || byID[2].TrendPct >= 0 {
		t.Errorf("trend percentages should carry sign: %v, %v", byID[1].TrendPct, byID[2].TrendPct)
	}
}
