// Package report renders round reports for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/talgya/circulation/internal/engine"
)

// Format selects how rounds are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatNone Format = "none"
)

// Printer writes round reports to w.
type Printer struct {
	w      io.Writer
	format Format
	yaml   *yaml.Encoder
}

// NewPrinter creates a printer. An unknown format is an error.
func NewPrinter(w io.Writer, format string) (*Printer, error) {
	p := &Printer{w: w, format: Format(format)}
	switch p.format {
	case FormatText, FormatNone:
	case FormatYAML:
		p.yaml = yaml.NewEncoder(w)
		p.yaml.SetIndent(2)
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
	return p, nil
}

// Round renders one report together with the events it produced.
func (p *Printer) Round(r *engine.RoundReport, events []engine.Event) error {
	switch p.format {
	case FormatNone:
		return nil
	case FormatYAML:
		doc := struct {
			engine.RoundReport `yaml:",inline"`
			Events             []engine.Event `yaml:"events,omitempty"`
		}{*r, events}
		return p.yaml.Encode(doc)
	}
	_, err := io.WriteString(p.w, Text(r, events))
	return err
}

// Close flushes the YAML stream.
func (p *Printer) Close() error {
	if p.yaml != nil {
		return p.yaml.Close()
	}
	return nil
}

// Text renders a round as human-readable lines.
func Text(r *engine.RoundReport, events []engine.Event) string {
	var b strings.Builder
	c := r.Capital

	fmt.Fprintf(&b, "Round %d\n", r.Round)
	for _, s := range r.Shocks {
		fmt.Fprintf(&b, "Shock: %s\n", s)
	}
	fmt.Fprintf(&b, "Capital Market: loanable_funds %s borrower_demand %s\n",
		num(c.LoanableFunds), num(c.BorrowerDemand))
	fmt.Fprintf(&b, "Capital Market: repayment_demand %s repayment_supply %s\n",
		num(c.RepaymentDemand), num(c.RepaymentSupply))
	fmt.Fprintf(&b, "Equilibrium: borrowed_vs_desired %s, savings_vs_desired %s, repayment_vs_demand %s\n",
		ratio(c.BorrowedVsDesired), ratio(c.SavingsVsDesired), ratio(c.RepaymentVsDemand))
	if names := c.Degenerate.Names(); len(names) > 0 {
		fmt.Fprintf(&b, "Degenerate: %s\n", strings.Join(names, ", "))
	}

	for _, a := range r.Agents {
		fmt.Fprintf(&b,
			"Person %d: Total Income %s, Borrowed Income %s, Consumption %s, Saving %s, Repayment %s, Savings %s / Max Saving %s, Debt %s / Max Debt %s\n",
			a.ID, num(a.Income), num(a.BorrowedIncome), num(a.ConsumedIncome), num(a.SavedIncome),
			num(a.RepaymentIncome), num(a.Savings), num(a.MaxSaving), num(a.Debt), num(a.MaxDebt))
	}

	fmt.Fprintf(&b, "Price: %s (supply %s, demand %s)\n",
		num(r.Price.Price), num(r.Price.AggregateSupply), num(r.Price.AggregateDemand))

	for _, e := range r.Goods {
		fmt.Fprintf(&b, "Goods %s: supply %s demand %s traded %s in %s trades at %s\n",
			e.Good, num(e.Supply), num(e.Demand), num(e.Volume),
			humanize.Comma(int64(e.TradeCount)), num(e.Price))
	}
	if len(r.Goods) > 0 {
		fmt.Fprintf(&b, "Production %s, avg health %s, starving %d of %d\n",
			num(r.Production), num(r.Stats.AvgHealth), r.Stats.Starving, r.Stats.Population)
	}

	fmt.Fprintf(&b, "Totals: income %s savings %s debt %s\n",
		num(r.Stats.TotalIncome), num(r.Stats.TotalSavings), num(r.Stats.TotalDebt))
	for _, e := range events {
		fmt.Fprintf(&b, "Event [%s]: %s\n", e.Category, e.Description)
	}
	b.WriteString("\n")
	return b.String()
}

func num(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

func ratio(v float64) string {
	return humanize.FtoaWithDigits(v, 4)
}
