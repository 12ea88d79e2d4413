package economy

import (
	"math"
	"testing"

	"github.com/talgya/circulation/internal/agents"
)

// bounded maps an arbitrary fuzz input into [0, limit].
func bounded(v, limit float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Mod(math.Abs(v), limit)
}

// FuzzClearCapital checks that any consistent economy clears within the
// ratio bounds and conserves every flow.
func FuzzClearCapital(f *testing.F) {
	// Seed corpus
	f.Add(50.0, 50.0, 50.0, 0.6, 60.0, 50.0, 0.0)
	f.Add(50.0, 50.0, 50.0, 0.6, 60.0, 0.0, 40.0)
	f.Add(10.0, 90.0, 0.0, 0.1, 5.0, 100.0, 0.0)
	f.Add(0.0, 0.0, 0.0, 1.0, 0.0, 0.0, 0.0)

	f.Fuzz(func(t *testing.T, inc1, inc2, inc3, rate, maxSaving, maxDebt, balance float64) {
		rate = bounded(rate, 1)
		balance = bounded(balance, 1000)
		pop := []*agents.Agent{
			{ID: 1, Income: bounded(inc1, 1000), ConsumptionRate: rate, MaxSaving: bounded(maxSaving, 1000), Savings: balance},
			{ID: 2, Income: bounded(inc2, 1000), ConsumptionRate: rate, MaxDebt: bounded(maxDebt, 1000), Debt: balance},
			{ID: 3, Income: bounded(inc3, 1000), ConsumptionRate: rate, MaxDebt: bounded(maxDebt, 1000) / 2},
		}

		c, err := ClearCapital(agents.GatherDesires(pop, agents.FixedRatePolicy{}))
		if err != nil {
			t.Fatalf("ClearCapital: %v", err)
		}
		r := c.Report
		if r.BorrowedVsDesired < 0 || r.BorrowedVsDesired > 1 || r.SavingsVsDesired < 0 || r.SavingsVsDesired > 1 {
			t.Fatalf("ratios out of bounds: %+v", r)
		}
		if r.BorrowedVsDesired < 1 && r.SavingsVsDesired < 1 {
			t.Fatalf("both sides rationed: %+v", r)
		}
		if err := CheckCapital(c); err != nil {
			t.Fatalf("CheckCapital: %v", err)
		}
		for _, a := range c.Allocations {
			if a.Savings < 0 || a.Debt < 0 {
				t.Fatalf("negative balance: %+v", a)
			}
		}
	})
}
