package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/talgya/circulation/internal/agents"
	"github.com/talgya/circulation/internal/economy"
	"github.com/talgya/circulation/internal/engine"
)

func sampleReport(round uint64) *engine.RoundReport {
	return &engine.RoundReport{
		Round: round,
		Capital: economy.CapitalReport{
			LoanableFunds:     20,
			BorrowerDemand:    100,
			BorrowedVsDesired: 0.2,
			SavingsVsDesired:  1,
			Degenerate:        economy.DegenerateRepaymentDemand,
		},
		Price: economy.PriceReport{AggregateSupply: 3, AggregateDemand: 150, Price: 50},
		Goods: []economy.MarketEntry{{Good: agents.GoodWater, Price: 1, Volume: 15}},
		Stats: engine.SimStats{TotalSavings: 20, TotalDebt: 20},
		Agents: []agents.Agent{
			{ID: 1, Savings: 20},
			{ID: 2},
		},
	}
}

func TestCollector_Observe(t *testing.T) {
	c := NewCollector(nil)
	c.Observe(sampleReport(1))
	c.Observe(sampleReport(2))

	if got := testutil.ToFloat64(c.loanableFunds); got != 20 {
		t.Errorf("loanable funds = %g", got)
	}
	if got := testutil.ToFloat64(c.ratios.WithLabelValues("borrowed_vs_desired")); got != 0.2 {
		t.Errorf("borrowed_vs_desired = %g", got)
	}
	if got := testutil.ToFloat64(c.price); got != 50 {
		t.Errorf("price = %g", got)
	}
	if got := testutil.ToFloat64(c.roundsTotal); got != 2 {
		t.Errorf("rounds = %g, want 2", got)
	}
	if got := testutil.ToFloat64(c.degenerateMarkets.WithLabelValues("repayment_demand")); got != 2 {
		t.Errorf("degenerate repayment = %g, want 2", got)
	}
	if got := testutil.ToFloat64(c.goodsVolume.WithLabelValues("WATER")); got != 15 {
		t.Errorf("water volume = %g", got)
	}
	if got := testutil.CollectAndCount(c.savingsDist); got != 1 {
		t.Errorf("histogram series = %d", got)
	}
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := NewCollector(nil)
	c.Observe(sampleReport(1))

	path := filepath.Join(t.TempDir(), "circsim.prom")
	if err := c.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"circsim_price 50", "circsim_rounds_total 1", `circsim_clearing_ratio{ratio="savings_vs_desired"} 1`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}
