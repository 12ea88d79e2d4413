package economy

import (
	"fmt"

	"github.com/talgya/circulation/internal/agents"
)

// PriceReport is the single economy-wide price and the sums behind it.
type PriceReport struct {
	AggregateSupply float64 `json:"aggregate_supply" yaml:"aggregate_supply"` // Σ productivity
	AggregateDemand float64 `json:"aggregate_demand" yaml:"aggregate_demand"` // Σ consumed income
	Price           float64 `json:"price" yaml:"price"`
}

// FormPrice sets the market-clearing price from aggregate demand over
// aggregate supply and writes each agent's next income. A zero-productivity
// economy has no price and is fatal.
func FormPrice(population []*agents.Agent) (PriceReport, error) {
	var r PriceReport
	for _, a := range population {
		r.AggregateSupply += a.Productivity
		r.AggregateDemand += a.ConsumedIncome
	}

	if r.AggregateSupply <= 0 {
		return r, fmt.Errorf("aggregate supply %g: %w", r.AggregateSupply, ErrDegenerateMarket)
	}

	r.Price = r.AggregateDemand / r.AggregateSupply
	for _, a := range population {
		a.NextIncome = a.Productivity * r.Price
	}
	return r, nil
}
