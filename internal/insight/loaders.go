package insight

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/internal/database"
	"github.com/polishedlabs/salonpulse/internal/forecast"
	"github.com/polishedlabs/salonpulse/pkg/models"
)

func (e *Engine) tenantConn(ctx context.Context, tenantID uuid.UUID) (*database.TenantConn, error) {
	return e.db.AcquireTenant(ctx, tenantID)
}

func (e *Engine) checkInventory(ctx context.Context, tenantID uuid.UUID) ([]*models.Insight, error) {
	tc, err := e.tenantConn(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT product_id, product_name, current_stock, min_stock_level
		FROM products
		WHERE current_stock <= min_stock_level
		ORDER BY current_stock
	`)
	if err != nil {
		return nil, fmt.Errorf("querying low stock: %w", err)
	}
	defer rows.Close()

	var products []LowStockProduct
	for rows.Next() {
		var p LowStockProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Stock, &p.MinLevel); err != nil {
			return nil, fmt.Errorf("scanning low stock: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return []*models.Insight{BuildInventoryInsight(products)}, nil
}

func (e *Engine) checkBookingTrend(ctx context.Context, tenantID uuid.UUID) ([]*models.Insight, error) {
	tc, err := e.tenantConn(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	// Current week against the average of the four weeks before it.
	var thisWeek, weeklyAvg int
	err = tc.Conn.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE booking_date >= CURRENT_DATE - 6)::int,
			(COUNT(*) FILTER (WHERE booking_date >= CURRENT_DATE - 34 AND booking_date < CURRENT_DATE - 6) / 4)::int
		FROM bookings
		WHERE booking_date >= CURRENT_DATE - 34 AND status != 'cancelled'
	`).Scan(&thisWeek, &weeklyAvg)
	if err != nil {
		return nil, fmt.Errorf("querying booking trend: %w", err)
	}
	return []*models.Insight{BuildBookingTrendInsight(thisWeek, weeklyAvg)}, nil
}

func (e *Engine) checkRevenueAnomalies(ctx context.Context, tenantID uuid.UUID) ([]*models.Insight, error) {
	tc, err := e.tenantConn(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT booking_date, SUM(total_amount - discount_amount)::float8
		FROM bookings
		WHERE status = 'completed' AND booking_date >= CURRENT_DATE - 30
		GROUP BY booking_date
		ORDER BY booking_date
	`)
	if err != nil {
		return nil, fmt.Errorf("querying revenue history: %w", err)
	}
	defer rows.Close()

	var history []forecast.DailyPoint
	for rows.Next() {
		var p forecast.DailyPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("scanning revenue history: %w", err)
		}
		history = append(history, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return BuildAnomalyInsights(forecast.DetectAnomalies(history)), nil
}

func (e *Engine) checkChurnRisk(ctx context.Context, tenantID uuid.UUID) ([]*models.Insight, error) {
	tc, err := e.tenantConn(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	// Top lifetime spenders whose last visit fell 60 to 120 days ago.
	rows, err := tc.Conn.Query(ctx, `
		SELECT c.first_name || ' ' || c.last_name
		FROM customers c
		JOIN bookings b ON b.customer_id = c.customer_id
		WHERE b.status = 'completed'
		GROUP BY c.customer_id, c.first_name, c.last_name
		HAVING CURRENT_DATE - MAX(b.booking_date) BETWEEN 60 AND 120
		ORDER BY SUM(b.total_amount - b.discount_amount) DESC
		LIMIT 20
	`)
	if err != nil {
		return nil, fmt.Errorf("querying churn candidates: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning churn candidate: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return []*models.Insight{BuildChurnInsight(len(names), names)}, nil
}

func (e *Engine) checkPeakHours(ctx context.Context, tenantID uuid.UUID) ([]*models.Insight, error) {
	tc, err := e.tenantConn(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT EXTRACT(HOUR FROM booking_time)::int, COUNT(*)::int
		FROM bookings
		WHERE booking_date >= CURRENT_DATE - 30 AND status != 'cancelled'
		GROUP BY 1 ORDER BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("querying hourly bookings: %w", err)
	}
	defer rows.Close()

	var hours []forecast.HourCount
	for rows.Next() {
		var h forecast.HourCount
		if err := rows.Scan(&h.Hour, &h.Count); err != nil {
			return nil, fmt.Errorf("scanning hourly bookings: %w", err)
		}
		hours = append(hours, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return []*models.Insight{BuildPeakHoursInsight(forecast.AnalyzeHours(hours))}, nil
}

func (e *Engine) checkStaffPerformance(ctx context.Context, tenantID uuid.UUID) ([]*models.Insight, error) {
	tc, err := e.tenantConn(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	// Month-to-date average tip per technician over completed bookings.
	rows, err := tc.Conn.Query(ctx, `
		SELECT t.technician_id, t.first_name || ' ' || t.last_name,
		       COALESCE(AVG(b.tip_amount), 0)::float8,
		       COUNT(b.booking_id)::int,
		       COALESCE(SUM(b.total_amount - b.discount_amount), 0)::float8
		FROM technicians t
		JOIN bookings b ON b.technician_id = t.technician_id
		WHERE t.is_active AND b.status = 'completed'
		  AND b.booking_date >= DATE_TRUNC('month', CURRENT_DATE)
		GROUP BY t.technician_id, t.first_name, t.last_name
		HAVING COUNT(b.booking_id) > 0
		ORDER BY AVG(b.tip_amount) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying technician performance: %w", err)
	}
	defer rows.Close()

	var techs []TechPerformance
	for rows.Next() {
		var t TechPerformance
		if err := rows.Scan(&t.TechnicianID, &t.Name, &t.AvgTip, &t.Bookings, &t.Revenue); err != nil {
			return nil, fmt.Errorf("scanning technician performance: %w", err)
		}
		techs = append(techs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return []*models.Insight{BuildStaffInsight(techs)}, nil
}

func (e *Engine) checkNoShowRate(ctx context.Context, tenantID uuid.UUID) ([]*models.Insight, error) {
	tc, err := e.tenantConn(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	var noShows, total int
	err = tc.Conn.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'no_show')::int, COUNT(*)::int
		FROM bookings
		WHERE booking_date >= CURRENT_DATE - 30 AND booking_date < CURRENT_DATE
	`).Scan(&noShows, &total)
	if err != nil {
		return nil, fmt.Errorf("querying no-show rate: %w", err)
	}
	return []*models.Insight{BuildNoShowInsight(noShows, total)}, nil
}

func (e *Engine) checkServicePopularity(ctx context.Context, tenantID uuid.UUID) ([]*models.Insight, error) {
	tc, err := e.tenantConn(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT sv.service_name, COUNT(*)::int
		FROM booking_services bs
		JOIN services sv ON sv.service_id = bs.service_id
		JOIN bookings b ON b.booking_id = bs.booking_id
		WHERE b.booking_date >= CURRENT_DATE - 30 AND b.status != 'cancelled'
		GROUP BY sv.service_name
		ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying service popularity: %w", err)
	}
	defer rows.Close()

	var top *ServiceShare
	total := 0
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scanning service popularity: %w", err)
		}
		if top == nil {
			top = &ServiceShare{Name: name, Count: count}
		}
		total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if top != nil && total > 0 {
		top.Share = float64(top.Count) / float64(total)
	}
	return []*models.Insight{BuildPopularityInsight(top)}, nil
}
