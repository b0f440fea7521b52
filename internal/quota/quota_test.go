package quota

import "testing"

func TestUsageConsume(t *testing.T) {
	u := Usage{Used: 41, Limit: 100, Remaining: 59}
	u.Consume()
	if u.Used != 42 || u.Remaining != 58 {
		t.Errorf("after consume: used %d remaining %d, want 42/58", u.Used, u.Remaining)
	}
}

func TestUsageConsume_LastQuery(t *testing.T) {
	// Consuming the final query of the month must not go negative.
	u := Usage{Used: 99, Limit: 100, Remaining: 1}
	u.Consume()
	if u.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", u.Remaining)
	}
	u.Consume()
	if u.Remaining != 0 {
		t.Errorf("remaining after overshoot = %d, want 0", u.Remaining)
	}
}

func TestUsageConsume_Unlimited(t *testing.T) {
	u := Usage{Used: 0, Limit: 0, Remaining: -1}
	u.Consume()
	if u.Used != 0 || u.Remaining != -1 {
		t.Errorf("unlimited usage must not change, got %+v", u)
	}
}
