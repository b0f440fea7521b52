package nlquery

import (
	"errors"
	"testing"
)

func TestCleanSQL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"bare statement",
			"SELECT * FROM bookings",
			"SELECT * FROM bookings",
		},
		{
			"sql fence",
			"```sql\nSELECT 1\n```",
			"SELECT 1",
		},
		{
			"plain fence",
			"```\nSELECT 1\n```",
			"SELECT 1",
		},
		{
			"leading prose",
			"Here is the query you asked for:\nSELECT name FROM services",
			"SELECT name FROM services",
		},
		{
			"trailing semicolon",
			"SELECT 1;",
			"SELECT 1",
		},
		{
			"cte preserved",
			"WITH t AS (SELECT 1) SELECT * FROM t",
			"WITH t AS (SELECT 1) SELECT * FROM t",
		},
		{
			"fence with prose and semicolon",
			"Sure!\n```sql\nSELECT COUNT(*) FROM customers;\n```",
			"SELECT COUNT(*) FROM customers",
		},
		{
			"prose containing with",
			"Here is a query with the results you need:\nSELECT * FROM bookings",
			"SELECT * FROM bookings",
		},
		{
			"prose containing select",
			"I selected the bookings table for this:\nWITH t AS (SELECT 1) SELECT * FROM t",
			"WITH t AS (SELECT 1) SELECT * FROM t",
		},
		{
			"indented statement",
			"  SELECT 1",
			"SELECT 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanSQL(tt.in); got != tt.want {
				t.Errorf("CleanSQL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateSQL(t *testing.T) {
	valid := []string{
		"SELECT * FROM bookings",
		"select count(*) from customers where created_at > now() - interval '30 days'",
		"WITH recent AS (SELECT * FROM bookings) SELECT COUNT(*) FROM recent",
		"SELECT service_name, base_price FROM services ORDER BY base_price DESC LIMIT 10 OFFSET 5",
	}
	for _, sql := range valid {
		if err := ValidateSQL(sql); err != nil {
			t.Errorf("ValidateSQL(%q) = %v, want nil", sql, err)
		}
	}

	invalid := []string{
		"",
		"DELETE FROM bookings",
		"DROP TABLE customers",
		"INSERT INTO services VALUES (1)",
		"UPDATE bookings SET status = 'cancelled'",
		"SELECT 1; DROP TABLE customers",
		"SELECT pg_sleep(60)",
		"EXPLAIN SELECT 1",
		"TRUNCATE bookings",
		"WITH t AS (DELETE FROM bookings RETURNING *) SELECT * FROM t",
	}
	for _, sql := range invalid {
		err := ValidateSQL(sql)
		if err == nil {
			t.Errorf("ValidateSQL(%q) = nil, want error", sql)
			continue
		}
		if !errors.Is(err, ErrUnsafeSQL) {
			t.Errorf("ValidateSQL(%q) = %v, want ErrUnsafeSQL", sql, err)
		}
	}
}

func TestValidateSQL_ColumnNamesNotBlocked(t *testing.T) {
	// Column names containing denied keywords as substrings must pass.
	sqls := []string{
		"SELECT created_at, updated_at FROM bookings",
		"SELECT last_update FROM products",
	}
	for _, sql := range sqls {
		if err := ValidateSQL(sql); err != nil {
			t.Errorf("ValidateSQL(%q) = %v, want nil", sql, err)
		}
	}
}
