package economy

import (
	"errors"
	"fmt"

	"github.com/talgya/circulation/internal/agents"
)

var (
	// ErrBalanceViolation means a round's flows do not conserve value.
	ErrBalanceViolation = errors.New("balance violation")

	// ErrDegenerateMarket means a market had a zero denominator. Capital and
	// repayment markets recover with a neutral ratio; price formation cannot.
	ErrDegenerateMarket = errors.New("degenerate market")

	// ErrInvalidState means an agent ended a clearing step with a negative
	// savings or debt balance.
	ErrInvalidState = errors.New("invalid state")
)

// BalanceError reports which identity failed and by how much.
type BalanceError struct {
	Identity string
	Left     float64
	Right    float64
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("%s: %s: %g != %g (diff %g)", ErrBalanceViolation, e.Identity, e.Left, e.Right, e.Left-e.Right)
}

// Unwrap lets errors.Is match ErrBalanceViolation.
func (e *BalanceError) Unwrap() error { return ErrBalanceViolation }

// StateError reports an agent field that left its valid range.
type StateError struct {
	AgentID agents.AgentID
	Field   string
	Value   float64
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: agent %d %s = %g", ErrInvalidState, e.AgentID, e.Field, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidState.
func (e *StateError) Unwrap() error { return ErrInvalidState }
