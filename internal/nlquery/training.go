package nlquery

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/pkg/models"
)

// defaultDDL describes the standard salon schema in compact form for prompts.
// Full CREATE TABLE output wastes tokens; the model only needs names and types.
var defaultDDL = []string{
	"customers(customer_id, first_name, last_name, phone, email, date_of_birth, created_at, notes)",
	"technicians(technician_id, first_name, last_name, phone, email, specialties, hire_date, is_active, commission_rate)",
	"services(service_id, service_name, category, base_price, duration_minutes, description, is_active)",
	"bookings(booking_id, customer_id, technician_id, booking_date, booking_time, status, total_amount, discount_amount, tip_amount, payment_method, notes, created_at)",
	"booking_services(booking_service_id, booking_id, service_id, price)",
	"products(product_id, product_name, category, unit_price, current_stock, min_stock_level, supplier)",
	"product_sales(sale_id, booking_id, product_id, quantity, unit_price, total_price, sale_date)",
}

var defaultDocs = []string{
	"Booking status values are scheduled, completed, cancelled, and no_show. Revenue questions should count only completed bookings.",
	"Revenue for a booking is total_amount minus discount_amount; tips are tracked separately in tip_amount.",
	"A booking can include multiple services through the booking_services table.",
	"Retail product sales are recorded in product_sales and may be attached to a booking.",
}

var defaultExamples = []struct {
	question string
	sql      string
}{
	{
		"What was our total revenue last month?",
		"SELECT SUM(total_amount - discount_amount) AS revenue FROM bookings WHERE status = 'completed' AND booking_date >= date_trunc('month', CURRENT_DATE - INTERVAL '1 month') AND booking_date < date_trunc('month', CURRENT_DATE)",
	},
	{
		"Who are our top 10 customers by spending?",
		"SELECT c.first_name, c.last_name, SUM(b.total_amount - b.discount_amount) AS total_spent FROM customers c JOIN bookings b ON b.customer_id = c.customer_id WHERE b.status = 'completed' GROUP BY c.customer_id, c.first_name, c.last_name ORDER BY total_spent DESC LIMIT 10",
	},
	{
		"Which services are most popular this month?",
		"SELECT s.service_name, COUNT(*) AS times_booked FROM booking_services bs JOIN services s ON s.service_id = bs.service_id JOIN bookings b ON b.booking_id = bs.booking_id WHERE b.booking_date >= date_trunc('month', CURRENT_DATE) GROUP BY s.service_name ORDER BY times_booked DESC",
	},
	{
		"What is our no-show rate this month?",
		"SELECT ROUND(100.0 * COUNT(*) FILTER (WHERE status = 'no_show') / NULLIF(COUNT(*), 0), 1) AS no_show_pct FROM bookings WHERE booking_date >= date_trunc('month', CURRENT_DATE)",
	},
	{
		"Which technician brought in the most revenue this week?",
		"SELECT t.first_name, t.last_name, SUM(b.total_amount - b.discount_amount) AS revenue FROM technicians t JOIN bookings b ON b.technician_id = t.technician_id WHERE b.status = 'completed' AND b.booking_date >= date_trunc('week', CURRENT_DATE) GROUP BY t.technician_id, t.first_name, t.last_name ORDER BY revenue DESC LIMIT 1",
	},
	{
		"Which products are low on stock?",
		"SELECT product_name, current_stock, min_stock_level FROM products WHERE current_stock <= min_stock_level ORDER BY current_stock",
	},
	{
		"How many customers do we have?",
		"SELECT COUNT(*) AS customer_count FROM customers",
	},
	{
		"How many new customers did we get this month?",
		"SELECT COUNT(*) AS new_customers FROM customers WHERE created_at >= date_trunc('month', CURRENT_DATE)",
	},
	{
		"Which customers haven't visited in over 60 days?",
		"SELECT c.first_name, c.last_name, MAX(b.booking_date) AS last_visit FROM customers c JOIN bookings b ON b.customer_id = c.customer_id WHERE b.status = 'completed' GROUP BY c.customer_id, c.first_name, c.last_name HAVING MAX(b.booking_date) < CURRENT_DATE - 60 ORDER BY last_visit",
	},
	{
		"Who are our most frequent visitors this year?",
		"SELECT c.first_name, c.last_name, COUNT(*) AS visits FROM customers c JOIN bookings b ON b.customer_id = c.customer_id WHERE b.status = 'completed' AND b.booking_date >= date_trunc('year', CURRENT_DATE) GROUP BY c.customer_id, c.first_name, c.last_name ORDER BY visits DESC LIMIT 10",
	},
	{
		"Which customers have birthdays this month?",
		"SELECT first_name, last_name, date_of_birth FROM customers WHERE EXTRACT(MONTH FROM date_of_birth) = EXTRACT(MONTH FROM CURRENT_DATE) ORDER BY EXTRACT(DAY FROM date_of_birth)",
	},
	{
		"What's the average customer lifetime spend?",
		"SELECT ROUND(AVG(spent), 2) AS avg_lifetime_spend FROM (SELECT SUM(total_amount - discount_amount) AS spent FROM bookings WHERE status = 'completed' GROUP BY customer_id) t",
	},
	{
		"Which customers spent over $500 this year?",
		"SELECT c.first_name, c.last_name, SUM(b.total_amount - b.discount_amount) AS total_spent FROM customers c JOIN bookings b ON b.customer_id = c.customer_id WHERE b.status = 'completed' AND b.booking_date >= date_trunc('year', CURRENT_DATE) GROUP BY c.customer_id, c.first_name, c.last_name HAVING SUM(b.total_amount - b.discount_amount) > 500 ORDER BY total_spent DESC",
	},
	{
		"How many bookings do we have today?",
		"SELECT COUNT(*) AS todays_bookings FROM bookings WHERE booking_date = CURRENT_DATE AND status != 'cancelled'",
	},
	{
		"What's our booking completion rate this month?",
		"SELECT ROUND(100.0 * COUNT(*) FILTER (WHERE status = 'completed') / NULLIF(COUNT(*), 0), 1) AS completion_pct FROM bookings WHERE booking_date >= date_trunc('month', CURRENT_DATE)",
	},
	{
		"What are our busiest hours?",
		"SELECT EXTRACT(HOUR FROM booking_time) AS hour, COUNT(*) AS bookings FROM bookings WHERE status != 'cancelled' AND booking_date >= CURRENT_DATE - 90 GROUP BY hour ORDER BY bookings DESC",
	},
	{
		"Which day of the week has the most bookings?",
		"SELECT TO_CHAR(booking_date, 'Day') AS weekday, COUNT(*) AS bookings FROM bookings WHERE status != 'cancelled' AND booking_date >= CURRENT_DATE - 90 GROUP BY weekday ORDER BY bookings DESC LIMIT 1",
	},
	{
		"How many bookings were cancelled this month?",
		"SELECT COUNT(*) AS cancellations FROM bookings WHERE status = 'cancelled' AND booking_date >= date_trunc('month', CURRENT_DATE)",
	},
	{
		"What's the average booking value by day of week?",
		"SELECT TO_CHAR(booking_date, 'Day') AS weekday, ROUND(AVG(total_amount - discount_amount), 2) AS avg_value FROM bookings WHERE status = 'completed' AND booking_date >= CURRENT_DATE - 90 GROUP BY weekday ORDER BY avg_value DESC",
	},
	{
		"What's our highest-priced service?",
		"SELECT service_name, base_price FROM services WHERE is_active ORDER BY base_price DESC LIMIT 1",
	},
	{
		"How much revenue did each service category bring in this month?",
		"SELECT s.category, SUM(bs.price) AS revenue FROM booking_services bs JOIN services s ON s.service_id = bs.service_id JOIN bookings b ON b.booking_id = bs.booking_id WHERE b.status = 'completed' AND b.booking_date >= date_trunc('month', CURRENT_DATE) GROUP BY s.category ORDER BY revenue DESC",
	},
	{
		"Which services are booked together most often?",
		"SELECT s1.service_name AS service_a, s2.service_name AS service_b, COUNT(*) AS times_together FROM booking_services bs1 JOIN booking_services bs2 ON bs1.booking_id = bs2.booking_id AND bs1.service_id < bs2.service_id JOIN services s1 ON s1.service_id = bs1.service_id JOIN services s2 ON s2.service_id = bs2.service_id GROUP BY s1.service_name, s2.service_name ORDER BY times_together DESC LIMIT 10",
	},
	{
		"What's the average service duration?",
		"SELECT ROUND(AVG(duration_minutes), 0) AS avg_minutes FROM services WHERE is_active",
	},
	{
		"Which services haven't been booked in the last 30 days?",
		"SELECT s.service_name FROM services s WHERE s.is_active AND NOT EXISTS (SELECT 1 FROM booking_services bs JOIN bookings b ON b.booking_id = bs.booking_id WHERE bs.service_id = s.service_id AND b.booking_date >= CURRENT_DATE - 30)",
	},
	{
		"How many bookings did each technician handle this month?",
		"SELECT t.first_name, t.last_name, COUNT(*) AS bookings FROM technicians t JOIN bookings b ON b.technician_id = t.technician_id WHERE b.status = 'completed' AND b.booking_date >= date_trunc('month', CURRENT_DATE) GROUP BY t.technician_id, t.first_name, t.last_name ORDER BY bookings DESC",
	},
	{
		"Who earned the most tips this month?",
		"SELECT t.first_name, t.last_name, SUM(b.tip_amount) AS tips FROM technicians t JOIN bookings b ON b.technician_id = t.technician_id WHERE b.status = 'completed' AND b.booking_date >= date_trunc('month', CURRENT_DATE) GROUP BY t.technician_id, t.first_name, t.last_name ORDER BY tips DESC LIMIT 1",
	},
	{
		"How much commission does each technician earn this month?",
		"SELECT t.first_name, t.last_name, ROUND(SUM((b.total_amount - b.discount_amount) * t.commission_rate), 2) AS commission FROM technicians t JOIN bookings b ON b.technician_id = t.technician_id WHERE b.status = 'completed' AND b.booking_date >= date_trunc('month', CURRENT_DATE) GROUP BY t.technician_id, t.first_name, t.last_name, t.commission_rate ORDER BY commission DESC",
	},
	{
		"What's each technician's average tip per booking?",
		"SELECT t.first_name, t.last_name, ROUND(AVG(b.tip_amount), 2) AS avg_tip FROM technicians t JOIN bookings b ON b.technician_id = t.technician_id WHERE b.status = 'completed' GROUP BY t.technician_id, t.first_name, t.last_name ORDER BY avg_tip DESC",
	},
	{
		"Which technicians are currently active?",
		"SELECT first_name, last_name, specialties, hire_date FROM technicians WHERE is_active ORDER BY hire_date",
	},
	{
		"What are our best-selling products this month?",
		"SELECT p.product_name, SUM(ps.quantity) AS units_sold, SUM(ps.total_price) AS revenue FROM product_sales ps JOIN products p ON p.product_id = ps.product_id WHERE ps.sale_date >= date_trunc('month', CURRENT_DATE) GROUP BY p.product_name ORDER BY units_sold DESC LIMIT 10",
	},
	{
		"How much retail revenue did we make this month?",
		"SELECT SUM(total_price) AS retail_revenue FROM product_sales WHERE sale_date >= date_trunc('month', CURRENT_DATE)",
	},
	{
		"Which products are out of stock?",
		"SELECT product_name, supplier FROM products WHERE current_stock = 0 ORDER BY product_name",
	},
	{
		"How much revenue came from services versus retail last month?",
		"SELECT (SELECT COALESCE(SUM(total_amount - discount_amount), 0) FROM bookings WHERE status = 'completed' AND booking_date >= date_trunc('month', CURRENT_DATE - INTERVAL '1 month') AND booking_date < date_trunc('month', CURRENT_DATE)) AS service_revenue, (SELECT COALESCE(SUM(total_price), 0) FROM product_sales WHERE sale_date >= date_trunc('month', CURRENT_DATE - INTERVAL '1 month') AND sale_date < date_trunc('month', CURRENT_DATE)) AS retail_revenue",
	},
	{
		"How does this month's revenue compare to last month?",
		"SELECT SUM(CASE WHEN booking_date >= date_trunc('month', CURRENT_DATE) THEN total_amount - discount_amount ELSE 0 END) AS this_month, SUM(CASE WHEN booking_date < date_trunc('month', CURRENT_DATE) THEN total_amount - discount_amount ELSE 0 END) AS last_month FROM bookings WHERE status = 'completed' AND booking_date >= date_trunc('month', CURRENT_DATE - INTERVAL '1 month')",
	},
	{
		"How much did we collect in tips this month?",
		"SELECT SUM(tip_amount) AS total_tips FROM bookings WHERE status = 'completed' AND booking_date >= date_trunc('month', CURRENT_DATE)",
	},
	{
		"How much did we give away in discounts last month?",
		"SELECT SUM(discount_amount) AS total_discounts FROM bookings WHERE status = 'completed' AND booking_date >= date_trunc('month', CURRENT_DATE - INTERVAL '1 month') AND booking_date < date_trunc('month', CURRENT_DATE)",
	},
	{
		"What's the revenue breakdown by payment method this month?",
		"SELECT payment_method, SUM(total_amount - discount_amount) AS revenue FROM bookings WHERE status = 'completed' AND booking_date >= date_trunc('month', CURRENT_DATE) GROUP BY payment_method ORDER BY revenue DESC",
	},
	{
		"What was our average daily revenue over the last 30 days?",
		"SELECT ROUND(AVG(daily), 2) AS avg_daily_revenue FROM (SELECT booking_date, SUM(total_amount - discount_amount) AS daily FROM bookings WHERE status = 'completed' AND booking_date >= CURRENT_DATE - 30 GROUP BY booking_date) t",
	},
	{
		"Which customers have tried the most different services?",
		"SELECT c.first_name, c.last_name, COUNT(DISTINCT bs.service_id) AS distinct_services FROM customers c JOIN bookings b ON b.customer_id = c.customer_id JOIN booking_services bs ON bs.booking_id = b.booking_id WHERE b.status = 'completed' GROUP BY c.customer_id, c.first_name, c.last_name ORDER BY distinct_services DESC LIMIT 10",
	},
}

// TrainingStatus summarizes a tenant's training data.
type TrainingStatus struct {
	Trained bool                        `json:"trained"`
	Counts  map[models.TrainingKind]int `json:"counts"`
	Total   int                         `json:"total"`
}

// Status returns the tenant's current training data counts.
func (s *Service) Status(ctx context.Context, tenantID uuid.UUID) (*TrainingStatus, error) {
	counts, err := s.db.CountTrainingItems(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("nlquery: training status: %w", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &TrainingStatus{Trained: total > 0, Counts: counts, Total: total}, nil
}

// AutoTrain seeds the tenant's default training data. It is idempotent:
// a tenant that already has training items is left untouched.
func (s *Service) AutoTrain(ctx context.Context, tenantID uuid.UUID) (*TrainingStatus, error) {
	status, err := s.Status(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if status.Trained {
		return status, nil
	}

	for _, ddl := range defaultDDL {
		item := &models.TrainingItem{TenantID: tenantID, Kind: models.TrainingDDL, Content: ddl}
		if err := s.db.InsertTrainingItem(ctx, item); err != nil {
			return nil, fmt.Errorf("nlquery: seeding ddl: %w", err)
		}
	}
	for _, doc := range defaultDocs {
		item := &models.TrainingItem{TenantID: tenantID, Kind: models.TrainingDocumentation, Content: doc}
		if err := s.db.InsertTrainingItem(ctx, item); err != nil {
			return nil, fmt.Errorf("nlquery: seeding documentation: %w", err)
		}
	}
	for _, ex := range defaultExamples {
		item := &models.TrainingItem{
			TenantID: tenantID,
			Kind:     models.TrainingQuestionSQL,
			Question: ex.question,
			Content:  ex.sql,
		}
		if err := s.db.InsertTrainingItem(ctx, item); err != nil {
			return nil, fmt.Errorf("nlquery: seeding examples: %w", err)
		}
	}

	log.Printf("[INFO] nlquery: auto-trained tenant %s", tenantID)
	return s.Status(ctx, tenantID)
}

// Retrain wipes the tenant's training data and reseeds the defaults.
func (s *Service) Retrain(ctx context.Context, tenantID uuid.UUID) (*TrainingStatus, error) {
	if _, err := s.db.DeleteTrainingItems(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("nlquery: retrain: %w", err)
	}
	return s.AutoTrain(ctx, tenantID)
}

// AddTraining stores one custom training item after validating its kind.
// question_sql items must carry both a question and a SELECT statement.
func (s *Service) AddTraining(ctx context.Context, tenantID uuid.UUID, kind models.TrainingKind, question, content string) (*models.TrainingItem, error) {
	switch kind {
	case models.TrainingDDL, models.TrainingDocumentation:
	case models.TrainingQuestionSQL:
		if question == "" {
			return nil, fmt.Errorf("nlquery: question_sql training requires a question")
		}
		if err := ValidateSQL(CleanSQL(content)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("nlquery: unknown training kind %q", kind)
	}
	if content == "" {
		return nil, fmt.Errorf("nlquery: training content is required")
	}

	item := &models.TrainingItem{TenantID: tenantID, Kind: kind, Question: question, Content: content}
	if err := s.db.InsertTrainingItem(ctx, item); err != nil {
		return nil, fmt.Errorf("nlquery: adding training item: %w", err)
	}
	return item, nil
}
