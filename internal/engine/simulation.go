// Simulation holds the population and runs one clearing round at a time.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/circulation/internal/agents"
	"github.com/talgya/circulation/internal/economy"
)

// maxEvents bounds the in-memory event log.
const maxEvents = 1000

// Simulation holds the complete economy state and wires the clearing
// systems together. It is the only mutator of agent state.
type Simulation struct {
	Agents     []*agents.Agent
	AgentIndex map[agents.AgentID]*agents.Agent

	Policy agents.AllocationPolicy

	// Goods economy. Market is nil when only the circulation economy runs.
	Market *economy.Market
	Quoter economy.Quoter

	Shocks    ShockSchedule
	Events    []Event
	LastRound uint64

	// Statistics recomputed after each round.
	Stats SimStats

	// LastReport is the read-only outcome of the most recent round.
	LastReport *RoundReport
}

// Event is a notable occurrence in the economy.
type Event struct {
	Round       uint64 `json:"round" yaml:"round" db:"round"`
	Description string `json:"description" yaml:"description" db:"description"`
	Category    string `json:"category" yaml:"category" db:"category"` // "shock", "market", "goods"
}

// SimStats tracks aggregate economy statistics.
type SimStats struct {
	Population   int     `json:"population" yaml:"population"`
	TotalIncome  float64 `json:"total_income" yaml:"total_income"`
	TotalSavings float64 `json:"total_savings" yaml:"total_savings"`
	TotalDebt    float64 `json:"total_debt" yaml:"total_debt"`
	TotalCash    float64 `json:"total_cash" yaml:"total_cash"`
	AvgHealth    float64 `json:"avg_health" yaml:"avg_health"`
	Starving     int     `json:"starving" yaml:"starving"`
}

// RoundReport is everything a reporting sink needs about one round. Agents
// are value copies taken after the round completed.
type RoundReport struct {
	Round      uint64                `json:"round" yaml:"round"`
	Capital    economy.CapitalReport `json:"capital" yaml:"capital"`
	Price      economy.PriceReport   `json:"price" yaml:"price"`
	Goods      []economy.MarketEntry `json:"goods,omitempty" yaml:"goods,omitempty"`
	Production float64               `json:"production,omitempty" yaml:"production,omitempty"`
	Stats      SimStats              `json:"stats" yaml:"stats"`
	Shocks     []string              `json:"shocks,omitempty" yaml:"shocks,omitempty"`
	Agents     []agents.Agent        `json:"agents" yaml:"agents"`
}

// Options configures a Simulation. Zero values pick the defaults.
type Options struct {
	Policy agents.AllocationPolicy
	Market *economy.Market
	Quoter economy.Quoter
	Shocks ShockSchedule
}

// NewSimulation creates a Simulation over a population.
func NewSimulation(population []*agents.Agent, opts Options) *Simulation {
	index := make(map[agents.AgentID]*agents.Agent, len(population))
	for _, a := range population {
		index[a.ID] = a
	}

	sim := &Simulation{
		Agents:     population,
		AgentIndex: index,
		Policy:     opts.Policy,
		Market:     opts.Market,
		Quoter:     opts.Quoter,
		Shocks:     opts.Shocks,
	}
	if sim.Policy == nil {
		sim.Policy = agents.FixedRatePolicy{}
	}
	if sim.Market != nil && sim.Quoter == nil {
		sim.Quoter = economy.ReferenceQuoter{Market: sim.Market}
	}
	sim.updateStats(0)
	return sim
}

// CurrentRound returns the most recently processed round number.
func (s *Simulation) CurrentRound() uint64 {
	return s.LastRound
}

// Round runs one full round. Every clearing step sees the complete
// population before any agent changes; an error leaves the round
// unreported and the run must stop.
func (s *Simulation) Round(round uint64) (*RoundReport, error) {
	s.LastRound = round
	report := &RoundReport{Round: round}

	shocks, err := s.applyDueShocks(round)
	if err != nil {
		return nil, fmt.Errorf("round %d: %w", round, err)
	}
	report.Shocks = shocks

	// Last round's spending is this round's income.
	for _, a := range s.Agents {
		a.Income = a.NextIncome
		a.ResetRound()
	}

	desires := agents.GatherDesires(s.Agents, s.Policy)
	clearing, err := economy.ClearCapital(desires)
	if err != nil {
		return nil, fmt.Errorf("round %d: clear capital: %w", round, err)
	}
	if err := economy.CheckCapital(clearing); err != nil {
		return nil, fmt.Errorf("round %d: capital ledger: %w", round, err)
	}
	clearing.Apply(s.Agents)
	report.Capital = clearing.Report
	s.logCapital(round, clearing.Report)

	starving := 0
	if s.Market != nil {
		out, err := s.runGoodsRound(round)
		if err != nil {
			return nil, fmt.Errorf("round %d: goods: %w", round, err)
		}
		report.Goods = out.Entries
		report.Production = out.Produced
		starving = out.Starving
	}

	price, err := economy.FormPrice(s.Agents)
	if err != nil {
		return nil, fmt.Errorf("round %d: form price: %w", round, err)
	}
	report.Price = price

	if err := economy.CheckCirculation(s.Agents); err != nil {
		return nil, fmt.Errorf("round %d: circulation ledger: %w", round, err)
	}
	if err := economy.CheckNonNegative(s.Agents); err != nil {
		return nil, fmt.Errorf("round %d: %w", round, err)
	}

	s.updateStats(starving)
	report.Stats = s.Stats
	report.Agents = make([]agents.Agent, len(s.Agents))
	for i, a := range s.Agents {
		report.Agents[i] = *a
	}
	s.LastReport = report
	s.trimEvents()

	slog.Info("round complete",
		"round", round,
		"price", price.Price,
		"borrowed_vs_desired", clearing.Report.BorrowedVsDesired,
		"total_savings", s.Stats.TotalSavings,
		"total_debt", s.Stats.TotalDebt,
		"starving", starving,
	)
	return report, nil
}

func (s *Simulation) logCapital(round uint64, r economy.CapitalReport) {
	slog.Debug("capital market",
		"round", round,
		"loanable_funds", r.LoanableFunds,
		"borrower_demand", r.BorrowerDemand,
		"repayment_demand", r.RepaymentDemand,
		"repayment_supply", r.RepaymentSupply,
	)
	slog.Debug("equilibrium",
		"round", round,
		"borrowed_vs_desired", r.BorrowedVsDesired,
		"savings_vs_desired", r.SavingsVsDesired,
		"repayment_vs_demand", r.RepaymentVsDemand,
	)
	if r.Degenerate != 0 {
		slog.Debug("degenerate market recovered", "round", round, "markets", r.Degenerate.Names())
	}
}

// EmitEvent appends an event to the log.
func (s *Simulation) EmitEvent(e Event) {
	s.Events = append(s.Events, e)
}

// DrainEvents returns and clears events recorded since the last drain.
func (s *Simulation) DrainEvents() []Event {
	out := s.Events
	s.Events = nil
	return out
}

func (s *Simulation) trimEvents() {
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

func (s *Simulation) updateStats(starving int) {
	st := SimStats{Population: len(s.Agents), Starving: starving}
	totalHealth := 0.0
	for _, a := range s.Agents {
		st.TotalIncome += a.Income
		st.TotalSavings += a.Savings
		st.TotalDebt += a.Debt
		st.TotalCash += a.Cash
		totalHealth += a.Health
	}
	if st.Population > 0 {
		st.AvgHealth = totalHealth / float64(st.Population)
	}
	s.Stats = st
}
