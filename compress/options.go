package compress

import (
	"errors"
	"fmt"

	"github.com/kankeinai/Gogeta/milp"
)

// ErrPrecondition marks inputs rejected before any compression work starts.
var ErrPrecondition = errors.New("compress: precondition violation")

// Mode selects how bounds are computed.
type Mode uint8

const (
	// Fast computes one-shot interval bounds only.
	Fast Mode = iota
	// Standard seeds with interval bounds and refines every neuron with two
	// optimization solves. Requires a solver backend.
	Standard
)

func (m Mode) String() string {
	if m == Standard {
		return "standard"
	}
	return "fast"
}

// ParseMode maps the external mode flag onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "fast":
		return Fast, nil
	case "standard":
		return Standard, nil
	default:
		return Fast, fmt.Errorf("%w: unrecognized mode %q", ErrPrecondition, s)
	}
}

type config struct {
	mode    Mode
	solver  milp.Solver
	workers int

	lower, upper [][]float64
}

// Option configures a Compress call.
type Option func(*config) error

// WithMode sets the bound-computation mode from its external string form.
func WithMode(s string) Option {
	return func(c *config) error {
		m, err := ParseMode(s)
		if err != nil {
			return err
		}
		c.mode = m
		return nil
	}
}

// WithSolver supplies the optimization backend standard mode solves with.
func WithSolver(s milp.Solver) Option {
	return func(c *config) error {
		c.solver = s
		return nil
	}
}

// WithWorkers caps concurrent per-neuron solves; <= 0 means one per CPU.
func WithWorkers(n int) Option {
	return func(c *config) error {
		c.workers = n
		return nil
	}
}

// WithPrecomputedBounds supplies per-layer pre-activation bounds, one array
// per non-collapsed layer, aligned with that layer's live neurons. Bound
// computation is skipped entirely and only pruning runs; the result then
// carries no bounds of its own.
func WithPrecomputedBounds(lower, upper [][]float64) Option {
	return func(c *config) error {
		if len(lower) != len(upper) {
			return fmt.Errorf("%w: %d lower but %d upper bound arrays", ErrPrecondition, len(lower), len(upper))
		}
		c.lower, c.upper = lower, upper
		return nil
	}
}
