package economy

import (
	"errors"
	"testing"

	"github.com/talgya/circulation/internal/agents"
)

func TestFormPrice(t *testing.T) {
	pop := []*agents.Agent{
		{ID: 1, Productivity: 1, ConsumedIncome: 30},
		{ID: 2, Productivity: 1, ConsumedIncome: 60},
		{ID: 3, Productivity: 1, ConsumedIncome: 60},
	}
	r, err := FormPrice(pop)
	if err != nil {
		t.Fatal(err)
	}
	if r.AggregateSupply != 3 || r.AggregateDemand != 150 || r.Price != 50 {
		t.Errorf("report = %+v", r)
	}
	for _, a := range pop {
		if a.NextIncome != 50 {
			t.Errorf("agent %d next income = %g, want 50", a.ID, a.NextIncome)
		}
	}
}

func TestFormPrice_WeightsByProductivity(t *testing.T) {
	pop := []*agents.Agent{
		{ID: 1, Productivity: 3, ConsumedIncome: 40},
		{ID: 2, Productivity: 1, ConsumedIncome: 40},
	}
	r, err := FormPrice(pop)
	if err != nil {
		t.Fatal(err)
	}
	if r.Price != 20 || pop[0].NextIncome != 60 || pop[1].NextIncome != 20 {
		t.Errorf("price %g next incomes %g, %g", r.Price, pop[0].NextIncome, pop[1].NextIncome)
	}
}

func TestFormPrice_ZeroSupplyIsFatal(t *testing.T) {
	pop := []*agents.Agent{{ID: 1, ConsumedIncome: 10}}
	_, err := FormPrice(pop)
	if !errors.Is(err, ErrDegenerateMarket) {
		t.Fatalf("err = %v, want ErrDegenerateMarket", err)
	}
	if pop[0].NextIncome != 0 {
		t.Error("next income written despite failure")
	}
}
