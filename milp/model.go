// Package milp models the small mixed-integer programs used to tighten
// neuron bounds, and defines the interface to the external solver backend
// that actually solves them. The model is created directly from data
// structures; no file format is involved.
package milp

// VarKind distinguishes continuous variables from binary indicators.
type VarKind uint8

const (
	Continuous VarKind = iota
	Binary
)

// Var identifies a variable within its model.
type Var int

type variable struct {
	lo, hi float64
	kind   VarKind
	name   string
}

// Term is one coefficient-variable pair of a linear expression.
type Term struct {
	Coeff float64
	Var   Var
}

// LinExpr is a linear expression sum(Coeff_i * Var_i) + Const.
type LinExpr struct {
	Terms []Term
	Const float64
}

// Add appends a term to the expression.
func (e *LinExpr) Add(coeff float64, v Var) {
	e.Terms = append(e.Terms, Term{Coeff: coeff, Var: v})
}

// Op is a constraint comparison operator.
type Op uint8

const (
	LE Op = iota
	GE
	EQ
)

// Constraint relates a linear expression to a constant.
type Constraint struct {
	Expr LinExpr
	Op   Op
	RHS  float64
}

// Model is a collection of bounded variables and linear constraints.
type Model struct {
	vars []variable
	cons []Constraint
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// AddVar declares a variable with bounds [lo, hi] and returns its handle.
func (m *Model) AddVar(lo, hi float64, kind VarKind, name string) Var {
	m.vars = append(m.vars, variable{lo: lo, hi: hi, kind: kind, name: name})
	return Var(len(m.vars) - 1)
}

// AddConstraint appends `expr op rhs` to the model.
func (m *Model) AddConstraint(expr LinExpr, op Op, rhs float64) {
	m.cons = append(m.cons, Constraint{Expr: expr, Op: op, RHS: rhs})
}

// NumVars returns the number of declared variables.
func (m *Model) NumVars() int { return len(m.vars) }

// NumBinaries returns the number of binary variables.
func (m *Model) NumBinaries() int {
	n := 0
	for _, v := range m.vars {
		if v.kind == Binary {
			n++
		}
	}
	return n
}

// NumConstraints returns the number of constraints.
func (m *Model) NumConstraints() int { return len(m.cons) }

// VarBounds returns the declared bounds of v.
func (m *Model) VarBounds(v Var) (lo, hi float64) {
	return m.vars[v].lo, m.vars[v].hi
}

// VarKind returns the kind of v.
func (m *Model) VarKind(v Var) VarKind { return m.vars[v].kind }

// VarName returns the name of v.
func (m *Model) VarName(v Var) string { return m.vars[v].name }

// Constraints exposes the constraint list for solver backends.
func (m *Model) Constraints() []Constraint { return m.cons }

// Clone returns an independent copy, so that concurrent per-neuron solves
// each work on their own snapshot.
func (m *Model) Clone() *Model {
	c := &Model{
		vars: append([]variable(nil), m.vars...),
		cons: make([]Constraint, len(m.cons)),
	}
	for i, con := range m.cons {
		con.Expr.Terms = append([]Term(nil), con.Expr.Terms...)
		c.cons[i] = con
	}
	return c
}
