// Capital market clearing: reconciles savers' loanable funds against
// borrowers' unused debt headroom with a single proportional rationing
// ratio, then clears debt repayment against lenders' savings.
package economy

import (
	"math"

	"github.com/talgya/circulation/internal/agents"
)

// Epsilon is the rounding residue below which a balance counts as zero.
// Anything more negative than -Epsilon is an invalid state.
const Epsilon = 1e-9

// Degenerate flags markets whose ratio denominator was zero.
type Degenerate uint8

const (
	DegenerateBorrowerDemand Degenerate = 1 << iota
	DegenerateLoanableFunds
	DegenerateRepaymentDemand
)

// Has reports whether flag f is set.
func (d Degenerate) Has(f Degenerate) bool { return d&f != 0 }

// Names lists the set flags for logs and reports.
func (d Degenerate) Names() []string {
	var names []string
	if d.Has(DegenerateBorrowerDemand) {
		names = append(names, "borrower_demand")
	}
	if d.Has(DegenerateLoanableFunds) {
		names = append(names, "loanable_funds")
	}
	if d.Has(DegenerateRepaymentDemand) {
		names = append(names, "repayment_demand")
	}
	return names
}

// CapitalReport holds the round's aggregate sums and clearing ratios.
type CapitalReport struct {
	LoanableFunds   float64 `json:"loanable_funds" yaml:"loanable_funds"`
	BorrowerDemand  float64 `json:"borrower_demand" yaml:"borrower_demand"`
	RepaymentDemand float64 `json:"repayment_demand" yaml:"repayment_demand"`
	RepaymentSupply float64 `json:"repayment_supply" yaml:"repayment_supply"`

	BorrowedVsDesired float64 `json:"borrowed_vs_desired" yaml:"borrowed_vs_desired"`
	SavingsVsDesired  float64 `json:"savings_vs_desired" yaml:"savings_vs_desired"`
	RepaymentVsDemand float64 `json:"repayment_vs_demand" yaml:"repayment_vs_demand"`

	Degenerate Degenerate `json:"degenerate" yaml:"degenerate"`
}

// Allocation is one agent's cleared flows and resulting balances.
type Allocation struct {
	AgentID         agents.AgentID
	Income          float64
	SavedIncome     float64
	ConsumedIncome  float64
	BorrowedIncome  float64
	RepaymentIncome float64
	DissavedIncome  float64
	Savings         float64
	Debt            float64
}

// CapitalClearing is the result of clearing one round's capital market.
// Nothing has been written to agents until Apply is called.
type CapitalClearing struct {
	Report      CapitalReport
	Allocations []Allocation
}

// RationingRatios returns the executed-vs-desired ratios for borrowers and
// savers. Only the long side of the market is rationed; the short side
// always gets ratio 1. Zero or negative sums never divide, so both ratios
// stay within [0, 1].
func RationingRatios(loanableFunds, borrowerDemand float64) (borrowedVsDesired, savingsVsDesired float64) {
	loanableFunds = math.Max(loanableFunds, 0)
	borrowerDemand = math.Max(borrowerDemand, 0)
	borrowedVsDesired, savingsVsDesired = 1, 1
	if loanableFunds < borrowerDemand {
		borrowedVsDesired = loanableFunds / borrowerDemand
	}
	if loanableFunds > borrowerDemand {
		savingsVsDesired = borrowerDemand / loanableFunds
	}
	return borrowedVsDesired, savingsVsDesired
}

// RepaymentRatio returns the share of lenders' savings repaid this round,
// or 0 when nobody holds savings or nothing is repaid.
func RepaymentRatio(repaymentSupply, repaymentDemand float64) float64 {
	if repaymentDemand <= 0 || repaymentSupply <= 0 {
		return 0
	}
	return repaymentSupply / repaymentDemand
}

// ClearCapital clears the capital market for a full snapshot of desires.
// It is pure: the same desires always produce the same clearing.
func ClearCapital(desires []agents.Desire) (CapitalClearing, error) {
	snapped := make([]agents.Desire, len(desires))
	for i, d := range desires {
		if err := validateDesire(d); err != nil {
			return CapitalClearing{}, err
		}
		snapped[i] = snapDesire(d)
	}
	desires = snapped

	var r CapitalReport
	for _, d := range desires {
		r.LoanableFunds += d.SavedIncome
		r.BorrowerDemand += d.BorrowHeadroom
		// Lenders accept all payments: their claim is their whole balance.
		r.RepaymentDemand += d.Savings
		r.RepaymentSupply += d.RepaymentIncome
	}

	if r.BorrowerDemand <= 0 {
		r.Degenerate |= DegenerateBorrowerDemand
	}
	if r.LoanableFunds <= 0 {
		r.Degenerate |= DegenerateLoanableFunds
	}
	if r.RepaymentDemand <= 0 {
		r.Degenerate |= DegenerateRepaymentDemand
	}

	r.BorrowedVsDesired, r.SavingsVsDesired = RationingRatios(r.LoanableFunds, r.BorrowerDemand)
	r.RepaymentVsDemand = RepaymentRatio(r.RepaymentSupply, r.RepaymentDemand)

	allocs := make([]Allocation, 0, len(desires))
	for _, d := range desires {
		allocs = append(allocs, allocate(d, r))
	}

	for i := range allocs {
		if err := checkBalances(&allocs[i]); err != nil {
			return CapitalClearing{}, err
		}
	}

	return CapitalClearing{Report: r, Allocations: allocs}, nil
}

func allocate(d agents.Desire, r CapitalReport) Allocation {
	a := Allocation{
		AgentID:         d.AgentID,
		Income:          d.Income,
		ConsumedIncome:  d.ConsumedIncome,
		RepaymentIncome: d.RepaymentIncome,
		Debt:            d.Debt - d.RepaymentIncome,
	}

	// Borrowed money is always spent, never saved.
	a.BorrowedIncome = r.BorrowedVsDesired * d.BorrowHeadroom
	if a.BorrowedIncome > 0 {
		a.Debt += a.BorrowedIncome
		a.ConsumedIncome += a.BorrowedIncome
	}

	saved := r.SavingsVsDesired * d.SavedIncome
	if saved > 0 {
		a.SavedIncome = saved
		a.ConsumedIncome += d.SavedIncome - saved
	} else {
		// Rationed to nothing: the whole plan flows back into consumption.
		a.ConsumedIncome += d.SavedIncome
		a.SavedIncome = 0
	}

	// Repayment received shrinks the existing balance and is spent.
	a.DissavedIncome = r.RepaymentVsDemand * d.Savings
	a.ConsumedIncome += a.DissavedIncome
	a.Savings = d.Savings - a.DissavedIncome + a.SavedIncome

	return a
}

func validateDesire(d agents.Desire) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"income", d.Income},
		{"saved_income", d.SavedIncome},
		{"consumed_income", d.ConsumedIncome},
		{"repayment_income", d.RepaymentIncome},
		{"borrow_headroom", d.BorrowHeadroom},
		{"savings", d.Savings},
		{"debt", d.Debt},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < -Epsilon {
			return &StateError{AgentID: d.AgentID, Field: f.name, Value: f.value}
		}
	}

	planned := d.ConsumedIncome + d.SavedIncome + d.RepaymentIncome
	if !approxEqual(d.Income, planned) {
		return &BalanceError{Identity: "desired allocation", Left: d.Income, Right: planned}
	}
	return nil
}

// snapDesire zeroes the negative rounding residues validateDesire lets
// through, so every aggregate sum is non-negative.
func snapDesire(d agents.Desire) agents.Desire {
	for _, v := range []*float64{
		&d.Income, &d.SavedIncome, &d.ConsumedIncome, &d.RepaymentIncome,
		&d.BorrowHeadroom, &d.Savings, &d.Debt,
	} {
		if *v < 0 {
			*v = 0
		}
	}
	return d
}

func checkBalances(a *Allocation) error {
	if a.Savings < -Epsilon {
		return &StateError{AgentID: a.AgentID, Field: "savings", Value: a.Savings}
	}
	if a.Debt < -Epsilon {
		return &StateError{AgentID: a.AgentID, Field: "debt", Value: a.Debt}
	}
	snapResidue(&a.Savings)
	snapResidue(&a.Debt)
	return nil
}

func snapResidue(v *float64) {
	if *v < Epsilon && *v > -Epsilon {
		*v = 0
	}
}

// Apply writes the cleared allocations onto the population. Agents without
// an allocation are left untouched.
func (c CapitalClearing) Apply(population []*agents.Agent) {
	byID := make(map[agents.AgentID]*agents.Agent, len(population))
	for _, a := range population {
		byID[a.ID] = a
	}
	for _, alloc := range c.Allocations {
		a, ok := byID[alloc.AgentID]
		if !ok {
			continue
		}
		a.Income = alloc.Income
		a.SavedIncome = alloc.SavedIncome
		a.ConsumedIncome = alloc.ConsumedIncome
		a.BorrowedIncome = alloc.BorrowedIncome
		a.RepaymentIncome = alloc.RepaymentIncome
		a.DissavedIncome = alloc.DissavedIncome
		a.Savings = alloc.Savings
		a.Debt = alloc.Debt
	}
}

func approxEqual(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= Epsilon*scale
}
