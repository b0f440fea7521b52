package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/polishedlabs/salonpulse/pkg/models"
)

// Generators read 60 days of history; enough to smooth week-to-week noise
// without dragging in stale seasonal patterns.
const windowDays = 60

func (e *Engine) generatePromotion(ctx context.Context, tenantID uuid.UUID, tpl *models.RecommendationTemplate) (*models.Recommendation, error) {
	tc, err := e.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT EXTRACT(DOW FROM booking_date)::int, COUNT(*)::int
		FROM bookings
		WHERE booking_date >= CURRENT_DATE - $1::int AND status != 'cancelled'
		GROUP BY 1
	`, windowDays)
	if err != nil {
		return nil, fmt.Errorf("querying weekday volume: %w", err)
	}
	defer rows.Close()

	var days []DayVolume
	for rows.Next() {
		var dow, count int
		if err := rows.Scan(&dow, &count); err != nil {
			return nil, fmt.Errorf("scanning weekday volume: %w", err)
		}
		days = append(days, DayVolume{Weekday: time.Weekday(dow), Bookings: count})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return BuildPromotionRec(days, tpl), nil
}

func (e *Engine) generateScheduling(ctx context.Context, tenantID uuid.UUID, tpl *models.RecommendationTemplate) (*models.Recommendation, error) {
	tc, err := e.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT EXTRACT(HOUR FROM booking_time)::int, COUNT(*)::int
		FROM bookings
		WHERE booking_date >= CURRENT_DATE - $1::int AND status != 'cancelled'
		GROUP BY 1 ORDER BY 2 DESC
	`, windowDays)
	if err != nil {
		return nil, fmt.Errorf("querying hourly volume: %w", err)
	}
	defer rows.Close()

	type hc struct{ hour, count int }
	var hours []hc
	total := 0
	for rows.Next() {
		var h hc
		if err := rows.Scan(&h.hour, &h.count); err != nil {
			return nil, fmt.Errorf("scanning hourly volume: %w", err)
		}
		hours = append(hours, h)
		total += h.count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if total == 0 || len(hours) < 3 {
		return nil, nil
	}

	// Top three hours define the peak window.
	peak := PeakWindow{}
	peakCount := 0
	for _, h := range hours[:3] {
		peak.Hours = append(peak.Hours, h.hour)
		peakCount += h.count
	}
	peak.Concentration = float64(peakCount) / float64(total)

	return BuildSchedulingRec(peak, tpl), nil
}

func (e *Engine) generateRetention(ctx context.Context, tenantID uuid.UUID, tpl *models.RecommendationTemplate) (*models.Recommendation, error) {
	tc, err := e.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT c.first_name || ' ' || c.last_name,
		       (CURRENT_DATE - MAX(b.booking_date))::int,
		       SUM(b.total_amount - b.discount_amount)::float8
		FROM customers c
		JOIN bookings b ON b.customer_id = c.customer_id
		WHERE b.status = 'completed'
		GROUP BY c.customer_id, c.first_name, c.last_name
		HAVING COUNT(*) >= 3
		   AND MAX(b.booking_date) < CURRENT_DATE - 60
		   AND MAX(b.booking_date) >= CURRENT_DATE - 120
		ORDER BY SUM(b.total_amount - b.discount_amount) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying at-risk customers: %w", err)
	}
	defer rows.Close()

	var atRisk []AtRiskCustomer
	for rows.Next() {
		var c AtRiskCustomer
		if err := rows.Scan(&c.Name, &c.DaysSinceVisit, &c.TotalSpent); err != nil {
			return nil, fmt.Errorf("scanning at-risk customer: %w", err)
		}
		atRisk = append(atRisk, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return BuildRetentionRec(atRisk, tpl), nil
}

func (e *Engine) generateInventory(ctx context.Context, tenantID uuid.UUID, tpl *models.RecommendationTemplate) (*models.Recommendation, error) {
	tc, err := e.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT product_name, current_stock, min_stock_level
		FROM products
		WHERE current_stock <= min_stock_level
		ORDER BY current_stock
	`)
	if err != nil {
		return nil, fmt.Errorf("querying restock candidates: %w", err)
	}
	defer rows.Close()

	var items []RestockItem
	for rows.Next() {
		var it RestockItem
		if err := rows.Scan(&it.Name, &it.Stock, &it.MinLevel); err != nil {
			return nil, fmt.Errorf("scanning restock candidate: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return BuildInventoryRec(items, tpl), nil
}

func (e *Engine) generatePricing(ctx context.Context, tenantID uuid.UUID, tpl *models.RecommendationTemplate) (*models.Recommendation, error) {
	tc, err := e.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	// Last 30 days versus the 30 before, per service.
	rows, err := tc.Conn.Query(ctx, `
		SELECT sv.service_name,
		       COUNT(*) FILTER (WHERE b.booking_date >= CURRENT_DATE - 30)::int,
		       COUNT(*) FILTER (WHERE b.booking_date < CURRENT_DATE - 30)::int
		FROM booking_services bs
		JOIN services sv ON sv.service_id = bs.service_id
		JOIN bookings b ON b.booking_id = bs.booking_id
		WHERE b.booking_date >= CURRENT_DATE - $1::int AND b.status != 'cancelled'
		GROUP BY sv.service_name
	`, windowDays)
	if err != nil {
		return nil, fmt.Errorf("querying service demand: %w", err)
	}
	defer rows.Close()

	var services []ServiceDemand
	for rows.Next() {
		var s ServiceDemand
		if err := rows.Scan(&s.Name, &s.Recent, &s.Prior); err != nil {
			return nil, fmt.Errorf("scanning service demand: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return BuildPricingRec(services, tpl), nil
}

func (e *Engine) generateBundling(ctx context.Context, tenantID uuid.UUID, tpl *models.RecommendationTemplate) (*models.Recommendation, error) {
	tc, err := e.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	// Most common service pair within multi-service bookings, with the pair
	// rate measured against all multi-service bookings in the window.
	row := tc.Conn.QueryRow(ctx, `
		WITH multi AS (
			SELECT bs.booking_id
			FROM booking_services bs
			JOIN bookings b ON b.booking_id = bs.booking_id
			WHERE b.booking_date >= CURRENT_DATE - $1::int AND b.status != 'cancelled'
			GROUP BY bs.booking_id
			HAVING COUNT(*) >= 2
		),
		pairs AS (
			SELECT s1.service_name AS a, s2.service_name AS b, COUNT(*)::int AS together
			FROM multi m
			JOIN booking_services bs1 ON bs1.booking_id = m.booking_id
			JOIN booking_services bs2 ON bs2.booking_id = m.booking_id
			     AND bs1.service_id < bs2.service_id
			JOIN services s1 ON s1.service_id = bs1.service_id
			JOIN services s2 ON s2.service_id = bs2.service_id
			GROUP BY s1.service_name, s2.service_name
		)
		SELECT a, b, together, together::float8 / (SELECT COUNT(*) FROM multi)
		FROM pairs ORDER BY together DESC LIMIT 1
	`, windowDays)

	var pair ServicePair
	if err := row.Scan(&pair.ServiceA, &pair.ServiceB, &pair.Together, &pair.Rate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No multi-service bookings yet is a normal outcome.
			return nil, nil
		}
		return nil, fmt.Errorf("querying service pairs: %w", err)
	}
	return BuildBundlingRec(&pair, tpl), nil
}
