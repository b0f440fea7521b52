package insight

import (
	"strings"
	"testing"
	"time"

	"github.com/polishedlabs/salonpulse/internal/forecast"
	"github.com/polishedlabs/salonpulse/pkg/models"
)

func TestBuildInventoryInsight(t *testing.T) {
	if got := BuildInventoryInsight(nil); got != nil {
		t.Errorf("no low stock should produce no insight, got %+v", got)
	}

	in := BuildInventoryInsight([]LowStockProduct{
		{ProductID: 1, Name: "Gel Polish Red", Stock: 3, MinLevel: 10},
	})
	if in == nil {
		t.Fatal("expected an insight")
	}
	if in.Severity != models.SeverityWarning {
		t.Errorf("low stock without outage should be warning, got %s", in.Severity)
	}

	in = BuildInventoryInsight([]LowStockProduct{
		{ProductID: 1, Name: "Gel Polish Red", Stock: 0, MinLevel: 10},
		{ProductID: 2, Name: "Cuticle Oil", Stock: 4, MinLevel: 10},
	})
	if in.Severity != models.SeverityCritical {
		t.Errorf("out-of-stock product should escalate to critical, got %s", in.Severity)
	}
}

func TestBuildBookingTrendInsight(t *testing.T) {
	tests := []struct {
		name      string
		thisWeek  int
		weeklyAvg int
		want      models.Severity // "" means no insight
	}{
		{"no baseline", 10, 0, ""},
		{"small change", 11, 10, ""},
		{"fourteen percent up", 114, 100, ""},
		{"sixteen percent up", 116, 100, models.SeverityWarning},
		{"twenty percent down", 80, 100, models.SeverityWarning},
		{"thirty percent up", 130, 100, models.SeverityCritical},
		{"thirty percent down", 70, 100, models.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := BuildBookingTrendInsight(tt.thisWeek, tt.weeklyAvg)
			if tt.want == "" {
				if in != nil {
					t.Errorf("expected no insight, got %+v", in)
				}
				return
			}
			if in == nil {
				t.Fatal("expected an insight")
			}
			if in.Severity != tt.want {
				t.Errorf("severity = %s, want %s", in.Severity, tt.want)
			}
			if in.ChangePercent == nil {
				t.Error("expected change percent to be set")
			}
		})
	}
}

func TestBuildAnomalyInsights(t *testing.T) {
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	insights := BuildAnomalyInsights([]forecast.Anomaly{
		{Date: date, Value: 900, Expected: 400, ZScore: 3.5, Severity: "high"},
		{Date: date, Value: 50, Expected: 400, ZScore: -3.2, Severity: "high"},
		{Date: date, Value: 620, Expected: 400, ZScore: 2.2, Severity: "medium"},
	})

	if len(insights) != 3 {
		t.Fatalf("expected 3 insights, got %d", len(insights))
	}
	if insights[0].Severity != models.SeverityWarning {
		t.Errorf("high spike should be warning, got %s", insights[0].Severity)
	}
	if insights[1].Severity != models.SeverityCritical {
		t.Errorf("high drop should be critical, got %s", insights[1].Severity)
	}
	if insights[2].Severity != models.SeverityInfo {
		t.Errorf("medium anomaly should be info, got %s", insights[2].Severity)
	}
}

func TestBuildChurnInsight(t *testing.T) {
	if got := BuildChurnInsight(0, nil); got != nil {
		t.Errorf("zero at-risk customers should produce no insight, got %+v", got)
	}

	in := BuildChurnInsight(4, []string{"Ana Perez", "Mai Tran"})
	if in == nil {
		t.Fatal("expected an insight")
	}
	if in.Type != models.InsightChurnRisk {
		t.Errorf("unexpected type %s", in.Type)
	}
	if *in.CurrentValue != 4 {
		t.Errorf("expected current value 4, got %v", *in.CurrentValue)
	}
	if in.Severity != models.SeverityWarning {
		t.Errorf("expected warning severity, got %s", in.Severity)
	}
	// The wording must match the 60-120 day window the loader queries.
	if !strings.Contains(in.Description, "60 to 120 days") {
		t.Errorf("description should name the 60-120 day window, got %q", in.Description)
	}
}

func TestBuildStaffInsight(t *testing.T) {
	if got := BuildStaffInsight([]TechPerformance{{Name: "Solo", AvgTip: 12, Bookings: 20}}); got != nil {
		t.Errorf("one technician should produce no insight, got %+v", got)
	}

	// A second technician without completed bookings does not count.
	in := BuildStaffInsight([]TechPerformance{
		{TechnicianID: 1, Name: "Linh", AvgTip: 12, Bookings: 20},
		{TechnicianID: 2, Name: "Rosa", AvgTip: 0, Bookings: 0},
	})
	if in != nil {
		t.Errorf("one ranked technician should not trigger, got %+v", in)
	}

	in = BuildStaffInsight([]TechPerformance{
		{TechnicianID: 1, Name: "Linh", AvgTip: 8.50, Bookings: 42, Revenue: 3900},
		{TechnicianID: 2, Name: "Rosa", AvgTip: 12.25, Bookings: 38, Revenue: 3400},
		{TechnicianID: 3, Name: "Kim", AvgTip: 6.75, Bookings: 15, Revenue: 1200},
	})
	if in == nil {
		t.Fatal("expected an insight")
	}
	if in.AffectedEntities["technician"] != "Rosa" {
		t.Errorf("expected Rosa as top performer, got %v", in.AffectedEntities["technician"])
	}
	if *in.CurrentValue != 12.25 {
		t.Errorf("expected top average tip 12.25, got %v", *in.CurrentValue)
	}
	if in.Metrics["bookings_this_month"] != 38 {
		t.Errorf("expected 38 bookings, got %v", in.Metrics["bookings_this_month"])
	}
	if in.Severity != models.SeverityInfo {
		t.Errorf("expected info severity, got %s", in.Severity)
	}
}

func TestBuildNoShowInsight(t *testing.T) {
	tests := []struct {
		name    string
		noShows int
		total   int
		want    models.Severity
	}{
		{"no bookings", 0, 0, ""},
		{"healthy rate", 5, 100, ""},
		{"exactly ten percent", 10, 100, ""},
		{"elevated", 15, 100, models.SeverityWarning},
		{"severe", 25, 100, models.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := BuildNoShowInsight(tt.noShows, tt.total)
			if tt.want == "" {
				if in != nil {
					t.Errorf("expected no insight, got %+v", in)
				}
				return
			}
			if in == nil {
				t.Fatal("expected an insight")
			}
			if in.Severity != tt.want {
				t.Errorf("severity = %s, want %s", in.Severity, tt.want)
			}
		})
	}
}

func TestBuildPopularityInsight(t *testing.T) {
	if got := BuildPopularityInsight(nil); got != nil {
		t.Errorf("nil share should produce no insight, got %+v", got)
	}
	if got := BuildPopularityInsight(&ServiceShare{Name: "Pedicure", Count: 10, Share: 0.2}); got != nil {
		t.Errorf("20%% share should not trigger, got %+v", got)
	}

	in := BuildPopularityInsight(&ServiceShare{Name: "Gel Manicure", Count: 45, Share: 0.45})
	if in == nil {
		t.Fatal("expected an insight")
	}
	if *in.CurrentValue != 45 {
		t.Errorf("expected share 45%%, got %v", *in.CurrentValue)
	}
}

func TestBuildPeakHoursInsight(t *testing.T) {
	if got := BuildPeakHoursInsight(&forecast.HourProfile{}); got != nil {
		t.Errorf("empty profile should produce no insight, got %+v", got)
	}

	in := BuildPeakHoursInsight(&forecast.HourProfile{
		Peak: []forecast.HourCount{{Hour: 14, Count: 40}, {Hour: 15, Count: 38}},
		Slow: []forecast.HourCount{{Hour: 9, Count: 3}},
	})
	if in == nil {
		t.Fatal("expected an insight")
	}
	if in.Severity != models.SeverityInfo {
		t.Errorf("expected info severity, got %s", in.Severity)
	}
}
