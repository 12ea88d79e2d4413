package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/talgya/circulation/internal/agents"
)

// ShockKind names the agent field a shock overwrites.
type ShockKind string

const (
	ShockMaxDebt         ShockKind = "max_debt"
	ShockMaxSaving       ShockKind = "max_saving"
	ShockProductivity    ShockKind = "productivity"
	ShockConsumptionRate ShockKind = "consumption_rate"
	ShockCash            ShockKind = "cash"
)

// ParseShockKind validates a shock kind from config.
func ParseShockKind(s string) (ShockKind, error) {
	switch k := ShockKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ShockMaxDebt, ShockMaxSaving, ShockProductivity, ShockConsumptionRate, ShockCash:
		return k, nil
	default:
		return "", fmt.Errorf("unknown shock kind %q", s)
	}
}

// Shock overwrites one field on a set of agents at the start of a round,
// before any desires are gathered. An empty Agents list targets everyone.
type Shock struct {
	Round       uint64           `json:"round" yaml:"round" mapstructure:"round"`
	Kind        ShockKind        `json:"kind" yaml:"kind" mapstructure:"kind"`
	Value       float64          `json:"value" yaml:"value" mapstructure:"value"`
	Agents      []agents.AgentID `json:"agents,omitempty" yaml:"agents,omitempty" mapstructure:"agents"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}

// String describes the shock for events and reports.
func (sh Shock) String() string {
	if sh.Description != "" {
		return sh.Description
	}
	target := "all agents"
	if len(sh.Agents) > 0 {
		target = fmt.Sprintf("agents %v", sh.Agents)
	}
	return fmt.Sprintf("%s set to %g for %s", sh.Kind, sh.Value, target)
}

// ShockSchedule maps rounds to state mutations.
type ShockSchedule []Shock

// Due returns the shocks scheduled for a round, in schedule order.
func (s ShockSchedule) Due(round uint64) []Shock {
	var due []Shock
	for _, sh := range s {
		if sh.Round == round {
			due = append(due, sh)
		}
	}
	return due
}

// Sorted returns a copy ordered by round, keeping the relative order of
// shocks in the same round.
func (s ShockSchedule) Sorted() ShockSchedule {
	out := append(ShockSchedule(nil), s...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Round < out[j].Round })
	return out
}

// CreditCrunch returns a shock that withdraws all credit at a round.
func CreditCrunch(round uint64) Shock {
	return Shock{
		Round:       round,
		Kind:        ShockMaxDebt,
		Value:       0,
		Description: "credit crunch: every debt cap withdrawn",
	}
}

// ApplyShock mutates the targeted agents and records an event.
func (s *Simulation) ApplyShock(sh Shock) (string, error) {
	targets := s.Agents
	if len(sh.Agents) > 0 {
		targets = make([]*agents.Agent, 0, len(sh.Agents))
		for _, id := range sh.Agents {
			a, ok := s.AgentIndex[id]
			if !ok {
				return "", fmt.Errorf("shock %s: agent %d not found", sh.Kind, id)
			}
			targets = append(targets, a)
		}
	}

	if sh.Value < 0 {
		return "", fmt.Errorf("shock %s: negative value %g", sh.Kind, sh.Value)
	}
	if sh.Kind == ShockConsumptionRate && sh.Value > 1 {
		return "", fmt.Errorf("shock %s: rate %g above 1", sh.Kind, sh.Value)
	}

	for _, a := range targets {
		switch sh.Kind {
		case ShockMaxDebt:
			a.MaxDebt = sh.Value
		case ShockMaxSaving:
			a.MaxSaving = sh.Value
		case ShockProductivity:
			a.Productivity = sh.Value
		case ShockConsumptionRate:
			a.ConsumptionRate = sh.Value
		case ShockCash:
			a.Cash = sh.Value
		default:
			return "", fmt.Errorf("unknown shock kind %q", sh.Kind)
		}
	}

	desc := sh.String()
	s.EmitEvent(Event{
		Round:       s.LastRound,
		Description: desc,
		Category:    "shock",
	})
	slog.Info("shock applied", "round", s.LastRound, "kind", sh.Kind, "value", sh.Value, "agents", len(targets))
	return desc, nil
}

func (s *Simulation) applyDueShocks(round uint64) ([]string, error) {
	var applied []string
	for _, sh := range s.Shocks.Due(round) {
		desc, err := s.ApplyShock(sh)
		if err != nil {
			return applied, err
		}
		applied = append(applied, desc)
	}
	return applied, nil
}
