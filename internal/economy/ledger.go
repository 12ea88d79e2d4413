// Ledger checks: every round's flows must net to zero. Sums are taken in
// exact decimal so a long population does not accumulate float drift that
// could hide or fake a money leak.
package economy

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/talgya/circulation/internal/agents"
)

var epsilonDec = decimal.NewFromFloat(Epsilon)

// sumOf adds float values exactly.
func sumOf(values ...float64) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}

// finite returns a StateError for NaN or infinite values, which decimal
// cannot represent.
func finite(id agents.AgentID, fields map[string]float64) error {
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &StateError{AgentID: id, Field: name, Value: v}
		}
	}
	return nil
}

// balanced returns a BalanceError when left and right differ by more than
// Epsilon relative to their magnitude.
func balanced(identity string, left, right decimal.Decimal) error {
	scale := decimal.Max(decimal.NewFromInt(1), left.Abs(), right.Abs())
	if left.Sub(right).Abs().GreaterThan(epsilonDec.Mul(scale)) {
		return &BalanceError{Identity: identity, Left: left.InexactFloat64(), Right: right.InexactFloat64()}
	}
	return nil
}

// CheckCapital verifies a clearing conserves value: each agent's sources
// equal its uses, every loan is funded by a saving, and every repayment
// reaches a lender.
func CheckCapital(c CapitalClearing) error {
	var borrowed, saved, dissaved, repaid []float64
	var sources, uses []float64
	for _, a := range c.Allocations {
		if err := finite(a.AgentID, map[string]float64{
			"income":           a.Income,
			"saved_income":     a.SavedIncome,
			"consumed_income":  a.ConsumedIncome,
			"borrowed_income":  a.BorrowedIncome,
			"repayment_income": a.RepaymentIncome,
			"dissaved_income":  a.DissavedIncome,
		}); err != nil {
			return err
		}
		in := sumOf(a.Income, a.BorrowedIncome, a.DissavedIncome)
		out := sumOf(a.ConsumedIncome, a.SavedIncome, a.RepaymentIncome)
		if err := balanced(fmt.Sprintf("agent %d flow", a.AgentID), in, out); err != nil {
			return err
		}

		borrowed = append(borrowed, a.BorrowedIncome)
		saved = append(saved, a.SavedIncome)
		dissaved = append(dissaved, a.DissavedIncome)
		repaid = append(repaid, a.RepaymentIncome)
		sources = append(sources, a.Income, a.BorrowedIncome, a.DissavedIncome)
		uses = append(uses, a.ConsumedIncome, a.SavedIncome, a.RepaymentIncome)
	}

	if err := balanced("loans funded by savings", sumOf(borrowed...), sumOf(saved...)); err != nil {
		return err
	}
	if err := balanced("repayments received by lenders", sumOf(dissaved...), sumOf(repaid...)); err != nil {
		return err
	}
	return balanced("aggregate flow", sumOf(sources...), sumOf(uses...))
}

// CheckCirculation verifies that spending this round becomes income next
// round: Σ consumed == Σ next income == Σ income.
func CheckCirculation(population []*agents.Agent) error {
	var income, consumed, next []float64
	for _, a := range population {
		if err := finite(a.ID, map[string]float64{
			"income":          a.Income,
			"consumed_income": a.ConsumedIncome,
			"next_income":     a.NextIncome,
		}); err != nil {
			return err
		}
		income = append(income, a.Income)
		consumed = append(consumed, a.ConsumedIncome)
		next = append(next, a.NextIncome)
	}
	if err := balanced("spending becomes income", sumOf(consumed...), sumOf(next...)); err != nil {
		return err
	}
	return balanced("income spent", sumOf(income...), sumOf(consumed...))
}

// Holdings is the population's total cash and quantity of one good.
type Holdings struct {
	Cash  decimal.Decimal
	Goods decimal.Decimal
}

// SnapshotHoldings totals cash and one good across the population.
func SnapshotHoldings(population []*agents.Agent, good agents.GoodType) Holdings {
	h := Holdings{Cash: decimal.Zero, Goods: decimal.Zero}
	for _, a := range population {
		h.Cash = h.Cash.Add(decimal.NewFromFloat(a.Cash))
		h.Goods = h.Goods.Add(decimal.NewFromFloat(a.Inventory[good]))
	}
	return h
}

// CheckHoldings verifies trading neither created nor destroyed cash or goods.
func CheckHoldings(before, after Holdings) error {
	if err := balanced("cash conserved by trade", before.Cash, after.Cash); err != nil {
		return err
	}
	return balanced("goods conserved by trade", before.Goods, after.Goods)
}

// CheckNonNegative verifies no agent holds negative savings or debt.
func CheckNonNegative(population []*agents.Agent) error {
	for _, a := range population {
		if a.Savings < -Epsilon {
			return &StateError{AgentID: a.ID, Field: "savings", Value: a.Savings}
		}
		if a.Debt < -Epsilon {
			return &StateError{AgentID: a.ID, Field: "debt", Value: a.Debt}
		}
	}
	return nil
}
