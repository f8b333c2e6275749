package milp

import (
	"context"
	"errors"
	"fmt"
)

// Sense is the optimization direction of a solve.
type Sense uint8

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// FailureKind classifies why a solve returned no optimal value.
type FailureKind uint8

const (
	Infeasible FailureKind = iota
	Timeout
	NumericalError
)

func (k FailureKind) String() string {
	switch k {
	case Infeasible:
		return "infeasible"
	case Timeout:
		return "timeout"
	default:
		return "numerical error"
	}
}

// Failure is the typed per-solve failure a backend reports instead of an
// optimal value. It is recoverable: the caller keeps its previous bound.
type Failure struct {
	Kind   FailureKind
	Reason string
}

func (f *Failure) Error() string {
	if f.Reason == "" {
		return fmt.Sprintf("milp: solve failed: %s", f.Kind)
	}
	return fmt.Sprintf("milp: solve failed: %s: %s", f.Kind, f.Reason)
}

// AsFailure unwraps err into a *Failure if it is one.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Solver is the opaque backend that optimizes a linear objective over a
// model. Implementations must be safe for concurrent use; each call receives
// its own model copy. A backend that hits its own time limit returns a
// *Failure with Kind Timeout rather than blocking past ctx.
type Solver interface {
	Solve(ctx context.Context, m *Model, obj LinExpr, sense Sense) (float64, error)
}
