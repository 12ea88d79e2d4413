package report

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/talgya/circulation/internal/agents"
	"github.com/talgya/circulation/internal/engine"
)

func roundOne(t *testing.T) *engine.RoundReport {
	t.Helper()
	sim := engine.NewSimulation(agents.NewSpawner(42).SpawnCirculation(), engine.Options{})
	r, err := sim.Round(1)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestText(t *testing.T) {
	out := Text(roundOne(t), []engine.Event{{Round: 1, Description: "note", Category: "market"}})

	for _, want := range []string{
		"Round 1\n",
		"Capital Market: loanable_funds 20 borrower_demand 100",
		"borrowed_vs_desired 0.2,",
		"Person 2: Total Income 50, Borrowed Income 10, Consumption 60",
		"Price: 50",
		"Event [market]: note",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestPrinter_YAML(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Round(roundOne(t), nil); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Round   uint64 `yaml:"round"`
		Capital struct {
			LoanableFunds float64 `yaml:"loanable_funds"`
		} `yaml:"capital"`
		Agents []agents.Agent `yaml:"agents"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}
	if doc.Round != 1 || doc.Capital.LoanableFunds != 20 || len(doc.Agents) != 3 {
		t.Errorf("doc = %+v", doc)
	}
}

func TestPrinter_None(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, "none")
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Round(roundOne(t), nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("none format wrote %q", buf.String())
	}

	if _, err := NewPrinter(&buf, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
