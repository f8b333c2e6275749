// Package milptest provides stub Solver backends for tests. No real MIP
// backend ships with this module, so the standard-mode paths are exercised
// against these instead.
package milptest

import (
	"context"

	"github.com/kankeinai/Gogeta/milp"
)

// Func adapts a plain function to the milp.Solver interface.
type Func func(ctx context.Context, m *milp.Model, obj milp.LinExpr, sense milp.Sense) (float64, error)

func (f Func) Solve(ctx context.Context, m *milp.Model, obj milp.LinExpr, sense milp.Sense) (float64, error) {
	return f(ctx, m, obj, sense)
}

// BoxSolver optimizes the objective over the variable bounds alone, ignoring
// constraints. Dropping constraints only enlarges the feasible set, so its
// optima are always sound outer bounds, and they are deterministic. Shrink
// pulls the optimum toward zero, mimicking a backend that proves tighter
// bounds than plain intervals; the zero value behaves like Shrink = 1 and
// reproduces the interval bound.
type BoxSolver struct {
	Shrink float64
}

func (s BoxSolver) Solve(_ context.Context, m *milp.Model, obj milp.LinExpr, sense milp.Sense) (float64, error) {
	val := obj.Const
	for _, t := range obj.Terms {
		lo, hi := m.VarBounds(t.Var)
		a, b := t.Coeff*lo, t.Coeff*hi
		if sense == milp.Maximize {
			val += max(a, b)
		} else {
			val += min(a, b)
		}
	}
	if s.Shrink != 0 {
		val *= s.Shrink
	}
	return val, nil
}

// FailSolver reports every solve as failed with the given kind.
type FailSolver struct {
	Kind   milp.FailureKind
	Reason string
}

func (s FailSolver) Solve(context.Context, *milp.Model, milp.LinExpr, milp.Sense) (float64, error) {
	return 0, &milp.Failure{Kind: s.Kind, Reason: s.Reason}
}
