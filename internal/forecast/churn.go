package forecast

import (
	"fmt"
	"sort"
	"time"
)

// CustomerActivity summarizes one customer's booking history.
type CustomerActivity struct {
	CustomerID int64     `json:"customer_id"`
	Name       string    `json:"name"`
	FirstVisit time.Time `json:"first_visit"`
	LastVisit  time.Time `json:"last_visit"`
	VisitCount int       `json:"visit_count"`
	TotalSpent float64   `json:"total_spent"`
}

// ChurnScore is one customer's churn risk assessment.
type ChurnScore struct {
	CustomerID         int64    `json:"customer_id"`
	Name               string   `json:"name"`
	Score              float64  `json:"score"`
	Level              string   `json:"level"`
	DaysSinceVisit     int      `json:"days_since_visit"`
	VisitCount         int      `json:"visit_count"`
	TotalSpent         float64  `json:"total_spent"`
	RiskFactors        []string `json:"risk_factors,omitempty"`
	RecommendedActions []string `json:"recommended_actions,omitempty"`
}

const (
	churnHighThreshold   = 0.7
	churnMediumThreshold = 0.4
	churnedAfterDays     = 90
	minRFMCustomers      = 30
)

func churnLevel(score float64) string {
	switch {
	case score >= churnHighThreshold:
		return "high"
	case score >= churnMediumThreshold:
		return "medium"
	default:
		return "low"
	}
}

// recencyScore maps days since last visit onto a banded risk score. The bands
// step at 30, 60, 90, and 120 days so two customers on different sides of a
// threshold never land on the same score.
func recencyScore(days int) (float64, string) {
	switch {
	case days > 120:
		return 1.0, fmt.Sprintf("Last visit %d days ago (>120 days)", days)
	case days > 90:
		return 0.8, fmt.Sprintf("Last visit %d days ago (>90 days)", days)
	case days > 60:
		return 0.6, fmt.Sprintf("Last visit %d days ago (>60 days)", days)
	case days > 30:
		return 0.3, fmt.Sprintf("Last visit %d days ago (>30 days)", days)
	default:
		return 0, ""
	}
}

// churnActions suggests retention steps for a risk level.
func churnActions(level string) []string {
	switch level {
	case "high":
		return []string{
			"Send a personalized win-back offer",
			"Follow up with a phone call from their usual technician",
		}
	case "medium":
		return []string{
			"Include in the next re-engagement campaign",
			"Offer a loyalty discount on their usual service",
		}
	default:
		return nil
	}
}

// RuleBasedChurn scores churn risk from recency, frequency, and monetary value
// with fixed weights (0.5/0.3/0.2). Works with any number of customers, so it
// is the fallback for salons with little history.
func RuleBasedChurn(customers []CustomerActivity, now time.Time) []ChurnScore {
	var maxSpent float64
	for _, c := range customers {
		if c.TotalSpent > maxSpent {
			maxSpent = c.TotalSpent
		}
	}

	scores := make([]ChurnScore, 0, len(customers))
	for _, c := range customers {
		days := int(now.Sub(c.LastVisit).Hours() / 24)
		if days < 0 {
			days = 0
		}

		var factors []string
		recency, recencyFactor := recencyScore(days)
		if recencyFactor != "" {
			factors = append(factors, recencyFactor)
		}

		// Frequency: regulars at ~2+ visits/month score 0.
		months := now.Sub(c.FirstVisit).Hours() / 24 / 30
		if months < 1 {
			months = 1
		}
		perMonth := float64(c.VisitCount) / months
		frequency := 1 - perMonth/2
		if frequency < 0 {
			frequency = 0
		}
		if frequency > 0.5 {
			factors = append(factors, fmt.Sprintf("Low visit frequency (%.1f visits/month)", perMonth))
		}

		// Value: low spenders relative to the top customer are riskier.
		value := 1.0
		if maxSpent > 0 {
			value = 1 - c.TotalSpent/maxSpent
		}

		score := round2(0.5*recency + 0.3*frequency + 0.2*value)
		if c.TotalSpent > 1000 && score >= churnMediumThreshold {
			factors = append(factors, fmt.Sprintf("High-value customer ($%.2f lifetime value)", c.TotalSpent))
		}

		level := churnLevel(score)
		scores = append(scores, ChurnScore{
			CustomerID:         c.CustomerID,
			Name:               c.Name,
			Score:              score,
			Level:              level,
			DaysSinceVisit:     days,
			VisitCount:         c.VisitCount,
			TotalSpent:         c.TotalSpent,
			RiskFactors:        factors,
			RecommendedActions: churnActions(level),
		})
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores
}

// WeightedRFMChurn scores churn risk by ranking each customer's recency,
// frequency, and monetary value against the rest of the customer base.
// Needs at least 30 customers for the rank percentiles to be meaningful.
func WeightedRFMChurn(customers []CustomerActivity, now time.Time) ([]ChurnScore, error) {
	if len(customers) < minRFMCustomers {
		return nil, fmt.Errorf("forecast: weighted RFM needs %d customers, have %d",
			minRFMCustomers, len(customers))
	}

	n := len(customers)
	recRank := percentileRanks(customers, func(c CustomerActivity) float64 {
		return now.Sub(c.LastVisit).Hours()
	})
	freqRank := percentileRanks(customers, func(c CustomerActivity) float64 {
		return -float64(c.VisitCount)
	})
	valRank := percentileRanks(customers, func(c CustomerActivity) float64 {
		return -c.TotalSpent
	})

	scores := make([]ChurnScore, 0, n)
	for i, c := range customers {
		days := int(now.Sub(c.LastVisit).Hours() / 24)
		if days < 0 {
			days = 0
		}

		score := 0.5*recRank[i] + 0.3*freqRank[i] + 0.2*valRank[i]
		if days >= churnedAfterDays {
			score = 1.0
		}
		score = round2(score)

		var factors []string
		if _, f := recencyScore(days); f != "" {
			factors = append(factors, f)
		}
		if freqRank[i] > 0.8 {
			factors = append(factors, "Visits less often than most of the customer base")
		}

		level := churnLevel(score)
		scores = append(scores, ChurnScore{
			CustomerID:         c.CustomerID,
			Name:               c.Name,
			Score:              score,
			Level:              level,
			DaysSinceVisit:     days,
			VisitCount:         c.VisitCount,
			TotalSpent:         c.TotalSpent,
			RiskFactors:        factors,
			RecommendedActions: churnActions(level),
		})
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores, nil
}

// percentileRanks maps each customer to its 0..1 rank of the keyed value,
// higher key meaning higher risk.
func percentileRanks(customers []CustomerActivity, key func(CustomerActivity) float64) []float64 {
	n := len(customers)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return key(customers[idx[a]]) < key(customers[idx[b]])
	})

	ranks := make([]float64, n)
	for pos, i := range idx {
		if n == 1 {
			ranks[i] = 0
			continue
		}
		ranks[i] = float64(pos) / float64(n-1)
	}
	return ranks
}

// CLVEstimate is a customer's projected lifetime value.
type CLVEstimate struct {
	CustomerID     int64   `json:"customer_id"`
	Name           string  `json:"name"`
	AvgTransaction float64 `json:"avg_transaction"`
	VisitsPerMonth float64 `json:"visits_per_month"`
	CLV            float64 `json:"clv"`
	Segment        string  `json:"segment"`
}

// clvHorizonMonths is the assumed customer relationship length.
const clvHorizonMonths = 36

// EstimateCLV projects lifetime value as average transaction times monthly
// visit rate over a three-year horizon, then segments customers by value.
func EstimateCLV(customers []CustomerActivity, now time.Time) []CLVEstimate {
	estimates := make([]CLVEstimate, 0, len(customers))
	for _, c := range customers {
		if c.VisitCount == 0 {
			continue
		}
		avg := c.TotalSpent / float64(c.VisitCount)

		months := now.Sub(c.FirstVisit).Hours() / 24 / 30
		if months < 1 {
			months = 1
		}
		perMonth := float64(c.VisitCount) / months

		clv := round2(avg * perMonth * clvHorizonMonths)

		segment := "Low Value"
		switch {
		case clv >= 2000:
			segment = "VIP"
		case clv >= 1000:
			segment = "High Value"
		case clv >= 500:
			segment = "Medium Value"
		}

		estimates = append(estimates, CLVEstimate{
			CustomerID:     c.CustomerID,
			Name:           c.Name,
			AvgTransaction: round2(avg),
			VisitsPerMonth: round2(perMonth),
			CLV:            clv,
			Segment:        segment,
		})
	}

	sort.Slice(estimates, func(i, j int) bool { return estimates[i].CLV > estimates[j].CLV })
	return estimates
}
