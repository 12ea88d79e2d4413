// Allocation behavior: how an agent splits this round's income between
// consumption, saving, and debt repayment before the capital market clears.
package agents

import "math"

// Desire is the read-only snapshot of one agent's intentions for a round.
// The clearing core only ever sees desires, never the policy that made them.
type Desire struct {
	AgentID         AgentID
	Income          float64
	SavedIncome     float64 // supply of loanable funds
	ConsumedIncome  float64
	RepaymentIncome float64 // earmarked to pay down debt above the cap
	BorrowHeadroom  float64 // max(0, max_debt - debt)
	Savings         float64 // balance before this round
	Debt            float64 // balance before this round's repayment
}

// AllocationPolicy decides an agent's desired allocation for the round.
// Implementations must not mutate the agent.
type AllocationPolicy interface {
	Desire(a *Agent) Desire
}

// PolicyFunc adapts a function to AllocationPolicy.
type PolicyFunc func(a *Agent) Desire

// Desire calls f(a).
func (f PolicyFunc) Desire(a *Agent) Desire {
	return f(a)
}

// FixedRatePolicy saves a constant share of income, routes saving into
// repayment first while debt is above the cap, and stops saving once the
// savings cap is reached.
type FixedRatePolicy struct{}

// Desire implements AllocationPolicy.
func (FixedRatePolicy) Desire(a *Agent) Desire {
	d := Desire{
		AgentID:        a.ID,
		Income:         a.Income,
		BorrowHeadroom: a.DebtHeadroom(),
		Savings:        a.Savings,
		Debt:           a.Debt,
	}

	saved := a.Income * a.SavingRate()

	// Use saved income to pay off debt above the cap.
	if a.Debt > a.MaxDebt {
		d.RepaymentIncome = math.Min(a.Debt-a.MaxDebt, saved)
		saved -= d.RepaymentIncome
	}

	if a.Savings < a.MaxSaving {
		saved = math.Min(a.MaxSaving-a.Savings, saved)
	} else {
		saved = 0
	}
	if saved < 0 {
		saved = 0
	}

	d.SavedIncome = saved
	d.ConsumedIncome = a.Income - d.SavedIncome - d.RepaymentIncome
	return d
}

// GatherDesires runs the policy over every agent without mutating any.
func GatherDesires(population []*Agent, policy AllocationPolicy) []Desire {
	desires := make([]Desire, 0, len(population))
	for _, a := range population {
		desires = append(desires, policy.Desire(a))
	}
	return desires
}
