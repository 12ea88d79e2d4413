// Goods round: agents produce their specialty, trade surpluses against
// shortfalls good by good, then consume their daily needs.
package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/circulation/internal/agents"
	"github.com/talgya/circulation/internal/economy"
)

// goodsOutcome summarizes one goods round.
type goodsOutcome struct {
	Entries  []economy.MarketEntry
	Produced float64
	Starving int
}

func (s *Simulation) runGoodsRound(round uint64) (goodsOutcome, error) {
	var out goodsOutcome
	s.Market.Reset()

	for _, a := range s.Agents {
		out.Produced += s.produce(a)
	}

	for _, good := range agents.AllGoods {
		res, err := s.Market.ClearGood(s.Agents, good, s.Quoter)
		if err != nil {
			return out, err
		}
		slog.Debug("goods market",
			"round", round,
			"good", good,
			"trades", len(res.Trades),
			"volume", res.Volume(),
			"unfilled_buys", len(res.UnfilledBuys),
			"unfilled_sells", len(res.UnfilledSells),
		)
	}

	for _, a := range s.Agents {
		if agents.Consume(a) > 0 {
			out.Starving++
		}
	}
	if out.Starving > 0 {
		s.EmitEvent(Event{
			Round:       round,
			Description: fmt.Sprintf("%d of %d agents went without their daily needs", out.Starving, len(s.Agents)),
			Category:    "goods",
		})
	}

	for _, good := range agents.AllGoods {
		out.Entries = append(out.Entries, *s.Market.Entries[good])
	}
	return out, nil
}

// produce has an agent work on its specialty until it covers its own need
// of that good, enough to sell for its other shortfalls, and any cash gap
// against the cost of a full daily basket. Output is capped by hours worked.
// Returns the quantity produced.
func (s *Simulation) produce(a *agents.Agent) float64 {
	specPrice := s.Market.Price(a.Specialty)
	if specPrice <= 0 || a.Productivity <= 0 {
		return 0
	}

	basket := 0.0
	need := 0.0
	for _, good := range agents.AllGoods {
		price := s.Market.Price(good)
		basket += a.Needs.Desired(good) * price

		short := math.Max(0, agents.Shortfall(a, good))
		if good == a.Specialty {
			need += short
		} else {
			need += short * price / specPrice
		}
	}
	// Excess cash reduces the need for production this round.
	need += math.Max(0, basket-a.Cash) / specPrice

	hours := math.Min(a.HoursPerDay, need/a.Productivity)
	if hours <= 0 {
		return 0
	}
	produced := a.Productivity * hours
	a.Inventory[a.Specialty] += produced
	return produced
}
