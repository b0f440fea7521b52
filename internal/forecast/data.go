package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// loaders read aggregated history from a tenant's schema. Every query is
// scoped by the connection's search_path, so table names stay unqualified.

func (s *Service) loadDailyRevenue(ctx context.Context, tenantID uuid.UUID, days int) ([]DailyPoint, error) {
	tc, err := s.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT booking_date, SUM(total_amount - discount_amount)::float8
		FROM bookings
		WHERE status = 'completed' AND booking_date >= CURRENT_DATE - $1::int
		GROUP BY booking_date
		ORDER BY booking_date
	`, days)
	if err != nil {
		return nil, fmt.Errorf("querying daily revenue: %w", err)
	}
	defer rows.Close()

	var points []DailyPoint
	for rows.Next() {
		var p DailyPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("scanning daily revenue: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *Service) loadDailyBookings(ctx context.Context, tenantID uuid.UUID, days int) ([]DayBookings, error) {
	tc, err := s.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT booking_date,
		       COUNT(*)::int,
		       COUNT(*) FILTER (WHERE status = 'completed')::int
		FROM bookings
		WHERE booking_date >= CURRENT_DATE - $1::int
		GROUP BY booking_date
		ORDER BY booking_date
	`, days)
	if err != nil {
		return nil, fmt.Errorf("querying daily bookings: %w", err)
	}
	defer rows.Close()

	var result []DayBookings
	for rows.Next() {
		var d DayBookings
		if err := rows.Scan(&d.Date, &d.Total, &d.Completed); err != nil {
			return nil, fmt.Errorf("scanning daily bookings: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *Service) loadHourCounts(ctx context.Context, tenantID uuid.UUID, days int) ([]HourCount, error) {
	tc, err := s.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT EXTRACT(HOUR FROM booking_time)::int AS hour, COUNT(*)::int
		FROM bookings
		WHERE booking_date >= CURRENT_DATE - $1::int AND status != 'cancelled'
		GROUP BY hour
		ORDER BY hour
	`, days)
	if err != nil {
		return nil, fmt.Errorf("querying hourly bookings: %w", err)
	}
	defer rows.Close()

	var result []HourCount
	for rows.Next() {
		var h HourCount
		if err := rows.Scan(&h.Hour, &h.Count); err != nil {
			return nil, fmt.Errorf("scanning hourly bookings: %w", err)
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

func (s *Service) loadCustomerActivity(ctx context.Context, tenantID uuid.UUID) ([]CustomerActivity, error) {
	tc, err := s.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT c.customer_id,
		       c.first_name || ' ' || c.last_name,
		       MIN(b.booking_date),
		       MAX(b.booking_date),
		       COUNT(*)::int,
		       SUM(b.total_amount - b.discount_amount)::float8
		FROM customers c
		JOIN bookings b ON b.customer_id = c.customer_id
		WHERE b.status = 'completed'
		GROUP BY c.customer_id, c.first_name, c.last_name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying customer activity: %w", err)
	}
	defer rows.Close()

	var result []CustomerActivity
	for rows.Next() {
		var c CustomerActivity
		if err := rows.Scan(&c.CustomerID, &c.Name, &c.FirstVisit, &c.LastVisit, &c.VisitCount, &c.TotalSpent); err != nil {
			return nil, fmt.Errorf("scanning customer activity: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Service) loadDayLoads(ctx context.Context, tenantID uuid.UUID, days int) ([]DayLoad, error) {
	tc, err := s.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT b.booking_date, SUM(sv.duration_minutes)::float8
		FROM bookings b
		JOIN booking_services bs ON bs.booking_id = b.booking_id
		JOIN services sv ON sv.service_id = bs.service_id
		WHERE b.booking_date >= CURRENT_DATE - $1::int AND b.status IN ('scheduled', 'completed')
		GROUP BY b.booking_date
		ORDER BY b.booking_date
	`, days)
	if err != nil {
		return nil, fmt.Errorf("querying day loads: %w", err)
	}
	defer rows.Close()

	var result []DayLoad
	for rows.Next() {
		var l DayLoad
		if err := rows.Scan(&l.Date, &l.BookedMinutes); err != nil {
			return nil, fmt.Errorf("scanning day load: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func (s *Service) countActiveTechnicians(ctx context.Context, tenantID uuid.UUID) (int, error) {
	tc, err := s.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	defer tc.Release()

	var n int
	if err := tc.Conn.QueryRow(ctx, `SELECT COUNT(*)::int FROM technicians WHERE is_active`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting technicians: %w", err)
	}
	return n, nil
}

// loadServiceSeries aggregates weekly booking counts per service over the
// given number of weeks and pivots them into ordered series.
func (s *Service) loadServiceSeries(ctx context.Context, tenantID uuid.UUID, weeks int) ([]ServiceSeries, error) {
	tc, err := s.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT sv.service_id, sv.service_name,
		       date_trunc('week', b.booking_date)::date AS week,
		       COUNT(*)::int
		FROM booking_services bs
		JOIN services sv ON sv.service_id = bs.service_id
		JOIN bookings b ON b.booking_id = bs.booking_id
		WHERE b.booking_date >= CURRENT_DATE - ($1::int * 7) AND b.status != 'cancelled'
		GROUP BY sv.service_id, sv.service_name, week
		ORDER BY sv.service_id, week
	`, weeks)
	if err != nil {
		return nil, fmt.Errorf("querying service series: %w", err)
	}
	defer rows.Close()

	type weekCount struct {
		week  time.Time
		count int
	}
	names := make(map[int64]string)
	byService := make(map[int64][]weekCount)
	var order []int64
	weekSet := make(map[time.Time]bool)

	for rows.Next() {
		var id int64
		var name string
		var wc weekCount
		if err := rows.Scan(&id, &name, &wc.week, &wc.count); err != nil {
			return nil, fmt.Errorf("scanning service series: %w", err)
		}
		if _, seen := names[id]; !seen {
			order = append(order, id)
		}
		names[id] = name
		byService[id] = append(byService[id], wc)
		weekSet[wc.week] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Align every service to the same ordered week axis, filling gaps with 0.
	allWeeks := make([]time.Time, 0, len(weekSet))
	for w := range weekSet {
		allWeeks = append(allWeeks, w)
	}
	sortTimes(allWeeks)

	var series []ServiceSeries
	for _, id := range order {
		counts := make(map[time.Time]int, len(byService[id]))
		for _, wc := range byService[id] {
			counts[wc.week] = wc.count
		}
		ss := ServiceSeries{ServiceID: id, Name: names[id]}
		for _, w := range allWeeks {
			ss.Counts = append(ss.Counts, float64(counts[w]))
		}
		series = append(series, ss)
	}
	return series, nil
}

// loadWeeklyRevenue returns completed-booking revenue bucketed by week,
// oldest first.
func (s *Service) loadWeeklyRevenue(ctx context.Context, tenantID uuid.UUID, days int) ([]float64, error) {
	tc, err := s.db.AcquireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows, err := tc.Conn.Query(ctx, `
		SELECT date_trunc('week', booking_date)::date AS week,
		       SUM(total_amount - discount_amount)::float8
		FROM bookings
		WHERE status = 'completed' AND booking_date >= CURRENT_DATE - $1::int
		GROUP BY week
		ORDER BY week
	`, days)
	if err != nil {
		return nil, fmt.Errorf("querying weekly revenue: %w", err)
	}
	defer rows.Close()

	var totals []float64
	for rows.Next() {
		var week time.Time
		var total float64
		if err := rows.Scan(&week, &total); err != nil {
			return nil, fmt.Errorf("scanning weekly revenue: %w", err)
		}
		totals = append(totals, total)
	}
	return totals, rows.Err()
}

func sortTimes(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
}
