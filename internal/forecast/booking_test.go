package forecast

import (
	"math"
	"testing"
	"time"
)

func TestForecastDemand(t *testing.T) {
	// 28 days: 10 bookings a day, 8 completed, Saturdays at 20/16.
	history := make([]DayBookings, 28)
	for i := range history {
		d := day(i)
		total, completed := 10, 8
		if d.Weekday() == time.Saturday {
			total, completed = 20, 16
		}
		history[i] = DayBookings{Date: d, Total: total, Completed: completed}
	}

	fc, err := ForecastDemand(history, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fc.Confidence != 0.80 {
		t.Errorf("expected confidence 0.80, got %v", fc.Confidence)
	}
	if math.Abs(fc.CompletionRate-0.8) > 0.001 {
		t.Errorf("expected completion rate 0.8, got %v", fc.CompletionRate)
	}
	if len(fc.Points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(fc.Points))
	}

	for _, p := range fc.Points {
		want := 8.0 // 10 * 0.8
		if p.Date.Weekday() == time.Saturday {
			want = 16 // 20 * 0.8
		}
		if math.Abs(p.Predicted-want) > 0.01 {
			t.Errorf("expected %v on %s, got %v", want, p.Date.Weekday(), p.Predicted)
		}
		if p.Lower >= p.Predicted || p.Upper <= p.Predicted {
			t.Errorf("interval [%v, %v] must bracket %v", p.Lower, p.Upper, p.Predicted)
		}
	}
}

func TestForecastDemand_InsufficientHistory(t *testing.T) {
	history := make([]DayBookings, 13)
	for i := range history {
		history[i] = DayBookings{Date: day(i), Total: 5, Completed: 4}
	}
	if _, err := ForecastDemand(history, 7); err == nil {
		t.Error("expected error for 13 days of history")
	}
}

func TestAnalyzeHours(t *testing.T) {
	hours := []HourCount{
		{Hour: 9, Count: 5},
		{Hour: 10, Count: 12},
		{Hour: 11, Count: 30},
		{Hour: 12, Count: 28},
		{Hour: 13, Count: 15},
		{Hour: 14, Count: 25},
		{Hour: 15, Count: 40},
		{Hour: 16, Count: 35},
		{Hour: 17, Count: 18},
		{Hour: 18, Count: 4},
	}

	profile := AnalyzeHours(hours)

	peakSet := make(map[int]bool)
	for _, h := range profile.Peak {
		peakSet[h.Hour] = true
	}
	slowSet := make(map[int]bool)
	for _, h := range profile.Slow {
		slowSet[h.Hour] = true
	}

	if !peakSet[15] || !peakSet[16] {
		t.Errorf("15:00 and 16:00 should be peak hours, got %v", profile.Peak)
	}
	if !slowSet[9] || !slowSet[18] {
		t.Errorf("9:00 and 18:00 should be slow hours, got %v", profile.Slow)
	}
	for h := range peakSet {
		if slowSet[h] {
			t.Errorf("hour %d classified as both peak and slow", h)
		}
	}
}

func TestAnalyzeHours_IgnoresClosedHours(t *testing.T) {
	hours := []HourCount{
		{Hour: 3, Count: 0},
		{Hour: 10, Count: 10},
		{Hour: 11, Count: 20},
		{Hour: 12, Count: 30},
	}

	profile := AnalyzeHours(hours)
	for _, h := range profile.Slow {
		if h.Hour == 3 {
			t.Error("closed hours must not appear in the slow list")
		}
	}
}

func TestAnalyzeHours_Empty(t *testing.T) {
	profile := AnalyzeHours(nil)
	if len(profile.Peak) != 0 || len(profile.Slow) != 0 {
		t.Errorf("empty input should produce empty profile, got %+v", profile)
	}
}
