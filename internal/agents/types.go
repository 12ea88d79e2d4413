// Package agents provides the person data model, goods inventory, and the
// behavioral policies that decide each round's desired allocation.
package agents

import "fmt"

// AgentID is a unique identifier for an agent.
type AgentID uint64

// GoodType enumerates tradeable goods in the consumption economy.
type GoodType uint8

const (
	GoodWater GoodType = iota
	GoodFood
)

// NumGoods is the total number of good types.
const NumGoods = 2

// AllGoods lists every good in clearing order.
var AllGoods = [NumGoods]GoodType{GoodWater, GoodFood}

// String returns the upper-case name used in reports and config.
func (g GoodType) String() string {
	switch g {
	case GoodWater:
		return "WATER"
	case GoodFood:
		return "FOOD"
	default:
		return "UNKNOWN"
	}
}

// GoodTypeFromString parses a good name as written by String.
func GoodTypeFromString(name string) (GoodType, bool) {
	switch name {
	case "WATER", "water":
		return GoodWater, true
	case "FOOD", "food":
		return GoodFood, true
	default:
		return 0, false
	}
}

// MarshalText writes the good by name.
func (g GoodType) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText reads a good name.
func (g *GoodType) UnmarshalText(b []byte) error {
	good, ok := GoodTypeFromString(string(b))
	if !ok {
		return fmt.Errorf("unknown good %q", b)
	}
	*g = good
	return nil
}

// GoodInventory is a fixed-size array holding quantities of each good type.
type GoodInventory [NumGoods]float64

// Has reports whether at least amount of good is on hand.
func (g GoodInventory) Has(good GoodType, amount float64) bool {
	return g[good] >= amount
}

// Remove takes amount of good out of the inventory, never going below zero.
func (g *GoodInventory) Remove(good GoodType, amount float64) {
	g[good] -= amount
	if g[good] < 0 {
		g[good] = 0
	}
}

// Total returns the sum of all quantities.
func (g GoodInventory) Total() float64 {
	total := 0.0
	for _, qty := range g {
		total += qty
	}
	return total
}

// Agent is a person in the simulation.
//
// Income-side fields (Income through NextIncome) belong to the circulation
// economy. Per-round fields are reset by the round driver before desires are
// gathered; Savings and Debt persist and must never be negative.
type Agent struct {
	ID AgentID `json:"id" yaml:"id"`

	// Circulation economy
	Income          float64 `json:"income" yaml:"income"`
	ConsumptionRate float64 `json:"consumption_rate" yaml:"consumption_rate"` // 0.0 to 1.0, constant
	Savings         float64 `json:"savings" yaml:"savings"`
	Debt            float64 `json:"debt" yaml:"debt"`
	MaxSaving       float64 `json:"max_saving" yaml:"max_saving"`
	MaxDebt         float64 `json:"max_debt" yaml:"max_debt"`
	Productivity    float64 `json:"productivity" yaml:"productivity"`
	NextIncome      float64 `json:"next_income" yaml:"next_income"`

	// Reset every round.
	SavedIncome     float64 `json:"saved_income" yaml:"saved_income"`
	ConsumedIncome  float64 `json:"consumed_income" yaml:"consumed_income"`
	BorrowedIncome  float64 `json:"borrowed_income" yaml:"borrowed_income"`
	RepaymentIncome float64 `json:"repayment_income" yaml:"repayment_income"`
	DissavedIncome  float64 `json:"dissaved_income" yaml:"dissaved_income"` // repaid savings spent this round

	// Consumption economy
	Cash           float64       `json:"cash" yaml:"cash"`
	Inventory      GoodInventory `json:"inventory" yaml:"inventory"`
	Needs          DailyNeeds    `json:"needs" yaml:"needs"`
	Health         float64       `json:"health" yaml:"health"`
	Specialty      GoodType      `json:"specialty" yaml:"specialty"`
	HoursPerDay    float64       `json:"hours_per_day" yaml:"hours_per_day"`
	TimePreference float64       `json:"time_preference" yaml:"time_preference"`
}

// SavingRate is the complement of the consumption rate.
func (a *Agent) SavingRate() float64 {
	return 1 - a.ConsumptionRate
}

// DebtHeadroom is how much more the agent may borrow before hitting its cap.
func (a *Agent) DebtHeadroom() float64 {
	if a.MaxDebt > a.Debt {
		return a.MaxDebt - a.Debt
	}
	return 0
}

// ResetRound clears the per-round intermediate fields.
func (a *Agent) ResetRound() {
	a.SavedIncome = 0
	a.ConsumedIncome = 0
	a.BorrowedIncome = 0
	a.RepaymentIncome = 0
	a.DissavedIncome = 0
}

// Clone returns a deep copy. Agents hold no reference fields, so a value
// copy is enough.
func (a *Agent) Clone() *Agent {
	c := *a
	return &c
}
