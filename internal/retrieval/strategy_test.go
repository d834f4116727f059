package retrieval

import "testing"

// TestSelectStrategy_Boundaries pins the exact tier boundaries.
func TestSelectStrategy_Boundaries(t *testing.T) {
	cases := []struct {
		count int
		want  Strategy
	}{
		{0, StrategySimple},
		{1, StrategySimple},
		{15, StrategySimple},
		{16, StrategyMedium},
		{50, StrategyMedium},
		{51, StrategyFull},
		{1000, StrategyFull},
	}

	for _, c := range cases {
		if got := SelectStrategy(c.count); got != c.want {
			t.Errorf("SelectStrategy(%d): expected %s, got %s", c.count, c.want, got)
		}
	}
}

// TestSelectStrategy_NegativeCount verifies negative counts route to the
// cheapest tier.
func TestSelectStrategy_NegativeCount(t *testing.T) {
	if got := SelectStrategy(-3); got != StrategySimple {
		t.Errorf("SelectStrategy(-3): expected simple, got %s", got)
	}
}
