package xpath

import (
	"fmt"
	"math"

	"github.com/wyre-dev/xpath-go/xmlnode"
)

// Expr is the heterogeneous expression-tree contract:
// every variant evaluates itself against a Context into exactly one
// typed Value.
type Expr interface {
	Evaluate(ctx *Context) (Value, error)
}

// step is one step of a location path: an axis, a node test, and a list
// of predicates applied in order. positional is computed once at parse
// time and gates the first-match
// optimization in the step engine.
type step struct {
	axis       axisKind
	test       NodeTest
	predicates []Expr
	positional bool
}

// location is a sequence of steps seeded from either the document root
// (absolute) or the context node (relative).
type location struct {
	absolute bool
	steps    []*step
}

func (l *location) Evaluate(ctx *Context) (Value, error) {
	if ctx.ReturnOnFirstMatch() {
		n, ok, err := l.firstMatch(ctx)
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return NodeSet(nil), nil
		}
		return NodeSet([]*xmlnode.Node{n}), nil
	}
	nodes, err := l.run(ctx)
	if err != nil {
		return Value{}, err
	}
	return NodeSet(nodes), nil
}

func (l *location) run(ctx *Context) ([]*xmlnode.Node, error) {
	var origins []*xmlnode.Node
	if l.absolute {
		origins = []*xmlnode.Node{ctx.Root()}
	} else {
		origins = []*xmlnode.Node{ctx.Node()}
	}
	for _, st := range l.steps {
		var next []*xmlnode.Node
		for _, origin := range origins {
			out, err := st.run(origin, ctx)
			if err != nil {
				return nil, err
			}
			next = append(next, out...)
		}
		origins = dedupOrdered(next)
	}
	return origins, nil
}

// firstMatch implements the returnOnFirstMatch optimization: when no step on the path is positional, recurse depth-first and
// return the first surviving node instead of materializing every match.
func (l *location) firstMatch(ctx *Context) (*xmlnode.Node, bool, error) {
	for _, st := range l.steps {
		if st.positional {
			nodes, err := l.run(ctx)
			if err != nil {
				return nil, false, err
			}
			if len(nodes) == 0 {
				return nil, false, nil
			}
			return nodes[0], true, nil
		}
	}
	var origin *xmlnode.Node
	if l.absolute {
		origin = ctx.Root()
	} else {
		origin = ctx.Node()
	}
	return stepFirstMatch(l.steps, origin, ctx)
}

func stepFirstMatch(steps []*step, origin *xmlnode.Node, ctx *Context) (*xmlnode.Node, bool, error) {
	if len(steps) == 0 {
		return origin, true, nil
	}
	st := steps[0]
	candidates, err := st.run(origin, ctx)
	if err != nil {
		return nil, false, err
	}
	for _, c := range candidates {
		n, ok, err := stepFirstMatch(steps[1:], c, ctx)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return n, true, nil
		}
	}
	return nil, false, nil
}

func (st *step) run(origin *xmlnode.Node, ctx *Context) ([]*xmlnode.Node, error) {
	candidates := st.axis.nodes(origin)
	filtered := make([]*xmlnode.Node, 0, len(candidates))
	for _, n := range candidates {
		if st.test.Matches(n, string(st.axis), ctx.CaseInsensitive()) {
			filtered = append(filtered, n)
		}
	}
	for _, pred := range st.predicates {
		var err error
		filtered, err = applyPredicate(filtered, pred, ctx)
		if err != nil {
			return nil, err
		}
	}
	return filtered, nil
}

// applyPredicate filters candidates (already in axis-direction order) by
// one predicate: numeric predicates keep the candidate
// whose 1-based axis-direction position rounds to the value; any other
// predicate keeps candidates whose boolean coercion is true.
func applyPredicate(candidates []*xmlnode.Node, pred Expr, ctx *Context) ([]*xmlnode.Node, error) {
	out := make([]*xmlnode.Node, 0, len(candidates))
	for i, node := range candidates {
		pos := i + 1
		sub := ctx.Clone(candidates, pos)
		v, err := pred.Evaluate(sub)
		if err != nil {
			return nil, err
		}
		if v.Type() == NumberType {
			if pos == int(xpathRound(v.Number())) {
				out = append(out, node)
			}
			continue
		}
		if v.Boolean() {
			out = append(out, node)
		}
	}
	return out, nil
}

func xpathRound(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.Floor(f + 0.5)
}

// path is filter / rel: evaluate filter to a node-set, then re-evaluate
// the relative location with each of its nodes as sole context, unioning
// the results.
type path struct {
	filter Expr
	rel    *location
}

func (p *path) Evaluate(ctx *Context) (Value, error) {
	fv, err := p.filter.Evaluate(ctx)
	if err != nil {
		return Value{}, err
	}
	if fv.Type() != NodeSetType {
		return Value{}, ArgumentError{Cause: "path expression requires a node-set on its left-hand side"}
	}
	var all []*xmlnode.Node
	for _, n := range fv.Nodes() {
		sub := ctx.Clone([]*xmlnode.Node{n}, 1)
		nodes, err := p.rel.run(sub)
		if err != nil {
			return Value{}, err
		}
		all = append(all, nodes...)
	}
	return NodeSet(all), nil
}

// filterExpr is primary[predicates...]: primary must evaluate to a
// node-set.
type filterExpr struct {
	primary    Expr
	predicates []Expr
}

func (f *filterExpr) Evaluate(ctx *Context) (Value, error) {
	pv, err := f.primary.Evaluate(ctx)
	if err != nil {
		return Value{}, err
	}
	if pv.Type() != NodeSetType {
		return Value{}, ArgumentError{Cause: "predicate filter requires a node-set"}
	}
	nodes := pv.Nodes()
	for _, pred := range f.predicates {
		nodes, err = applyPredicate(nodes, pred, ctx)
		if err != nil {
			return Value{}, err
		}
	}
	return NodeSet(nodes), nil
}

// unionExpr is the set-union of two node-sets.
type unionExpr struct {
	lhs, rhs Expr
}

func (u *unionExpr) Evaluate(ctx *Context) (Value, error) {
	lv, err := u.lhs.Evaluate(ctx)
	if err != nil {
		return Value{}, err
	}
	rv, err := u.rhs.Evaluate(ctx)
	if err != nil {
		return Value{}, err
	}
	if lv.Type() != NodeSetType || rv.Type() != NodeSetType {
		return Value{}, ArgumentError{Cause: "union operands must be node-sets"}
	}
	combined := append(append([]*xmlnode.Node(nil), lv.Nodes()...), rv.Nodes()...)
	return NodeSet(combined), nil
}

// binaryOp enumerates the Binary expression's operators.
type binaryOp string

const (
	opOrKw  binaryOp = "or"
	opAndKw binaryOp = "and"
	opCEq   binaryOp = "="
	opCNe   binaryOp = "!="
	opCLt   binaryOp = "<"
	opCLe   binaryOp = "<="
	opCGt   binaryOp = ">"
	opCGe   binaryOp = ">="
	opArAdd binaryOp = "+"
	opArSub binaryOp = "-"
	opArMul binaryOp = "*"
	opArDiv binaryOp = "div"
	opArMod binaryOp = "mod"
)

// isArithmetic reports whether op is one of the five arithmetic
// combinators used by the positional-predicate heuristic.
func (op binaryOp) isArithmetic() bool {
	switch op {
	case opArAdd, opArSub, opArMul, opArDiv, opArMod:
		return true
	default:
		return false
	}
}

type binaryExpr struct {
	op       binaryOp
	lhs, rhs Expr
}

func (b *binaryExpr) Evaluate(ctx *Context) (Value, error) {
	switch b.op {
	case opOrKw:
		lv, err := b.lhs.Evaluate(ctx)
		if err != nil {
			return Value{}, err
		}
		if lv.Boolean() {
			return Boolean(true), nil
		}
		rv, err := b.rhs.Evaluate(ctx)
		if err != nil {
			return Value{}, err
		}
		return Boolean(rv.Boolean()), nil
	case opAndKw:
		lv, err := b.lhs.Evaluate(ctx)
		if err != nil {
			return Value{}, err
		}
		if !lv.Boolean() {
			return Boolean(false), nil
		}
		rv, err := b.rhs.Evaluate(ctx)
		if err != nil {
			return Value{}, err
		}
		return Boolean(rv.Boolean()), nil
	}

	lv, err := b.lhs.Evaluate(ctx)
	if err != nil {
		return Value{}, err
	}
	rv, err := b.rhs.Evaluate(ctx)
	if err != nil {
		return Value{}, err
	}

	switch b.op {
	case opCEq, opCNe, opCLt, opCLe, opCGt, opCGe:
		return Boolean(compareValues(lv, rv, b.op)), nil
	case opArAdd:
		return Number(lv.Number() + rv.Number()), nil
	case opArSub:
		return Number(lv.Number() - rv.Number()), nil
	case opArMul:
		return Number(lv.Number() * rv.Number()), nil
	case opArDiv:
		return Number(lv.Number() / rv.Number()), nil
	case opArMod:
		return Number(xpathMod(lv.Number(), rv.Number())), nil
	default:
		return Value{}, fmt.Errorf("unsupported operator %q", b.op)
	}
}

// xpathMod implements IEEE remainder with the sign of the dividend,
// e.g. -5 mod 2 = -1 and 5 mod -2 = 1.
func xpathMod(a, b float64) float64 {
	return math.Mod(a, b)
}

// compareValues implements the XPath 1.0 coercion rules for =, !=, <,
// <=, >, >=: node-set/node-set and node-set/scalar
// comparisons broadcast over the node-set's string-values (or numeric
// coercions for ordering); scalar/scalar comparisons coerce per the
// usual rules, with boolean dominating when either side is boolean.
func compareValues(lv, rv Value, op binaryOp) bool {
	if lv.Type() == NodeSetType && rv.Type() == NodeSetType {
		for _, ln := range lv.Nodes() {
			for _, rn := range rv.Nodes() {
				if compareScalars(String(ln.StringValue()), String(rn.StringValue()), op) {
					return true
				}
			}
		}
		return false
	}
	if lv.Type() == NodeSetType {
		return compareNodeSetScalar(lv, rv, op, false)
	}
	if rv.Type() == NodeSetType {
		return compareNodeSetScalar(rv, lv, op, true)
	}
	if lv.Type() == BooleanType || rv.Type() == BooleanType {
		return compareScalars(Boolean(lv.Boolean()), Boolean(rv.Boolean()), op)
	}
	if lv.Type() == NumberType || rv.Type() == NumberType {
		return compareScalars(Number(lv.Number()), Number(rv.Number()), op)
	}
	return compareScalars(lv, rv, op)
}

func compareNodeSetScalar(ns, scalar Value, op binaryOp, swapped bool) bool {
	for _, n := range ns.Nodes() {
		var lv, rv Value
		if scalar.Type() == NumberType {
			lv, rv = Number(stringToNumber(n.StringValue())), scalar
		} else if scalar.Type() == BooleanType {
			lv, rv = Boolean(NodeSet([]*xmlnode.Node{n}).Boolean()), scalar
		} else {
			lv, rv = String(n.StringValue()), scalar
		}
		if swapped {
			lv, rv = rv, lv
		}
		if compareScalars(lv, rv, op) {
			return true
		}
	}
	return false
}

func compareScalars(lv, rv Value, op binaryOp) bool {
	switch op {
	case opCEq:
		return scalarEquals(lv, rv)
	case opCNe:
		return !scalarEquals(lv, rv)
	case opCLt:
		return lv.Number() < rv.Number()
	case opCLe:
		return lv.Number() <= rv.Number()
	case opCGt:
		return lv.Number() > rv.Number()
	case opCGe:
		return lv.Number() >= rv.Number()
	default:
		return false
	}
}

func scalarEquals(lv, rv Value) bool {
	if lv.Type() == BooleanType || rv.Type() == BooleanType {
		return lv.Boolean() == rv.Boolean()
	}
	if lv.Type() == NumberType || rv.Type() == NumberType {
		return lv.Number() == rv.Number()
	}
	return lv.String() == rv.String()
}

// unaryMinus negates a numeric operand.
type unaryMinus struct{ expr Expr }

func (u *unaryMinus) Evaluate(ctx *Context) (Value, error) {
	v, err := u.expr.Evaluate(ctx)
	if err != nil {
		return Value{}, err
	}
	f := -v.Number()
	if f == 0 {
		f = 0 // normalize -0 to 0
	}
	return Number(f), nil
}

type literalExpr struct{ value string }

func (l *literalExpr) Evaluate(*Context) (Value, error) { return String(l.value), nil }

type numberExpr struct{ value float64 }

func (n *numberExpr) Evaluate(*Context) (Value, error) { return Number(n.value), nil }

type variableExpr struct{ name string }

func (v *variableExpr) Evaluate(ctx *Context) (Value, error) {
	return ctx.resolveVariable(v.name)
}

type functionCall struct {
	name string
	args []Expr
}

// argContextFor returns the context under which argument i of a call to
// f.name should be evaluated. boolean() only cares whether its node-set
// argument is non-empty, so it evaluates that argument under a
// first-match context instead of materializing every match.
func (f *functionCall) argContextFor(ctx *Context, i int) *Context {
	if f.name == "boolean" && i == 0 && len(f.args) == 1 {
		return ctx.firstMatchContext()
	}
	return ctx
}

func (f *functionCall) Evaluate(ctx *Context) (Value, error) {
	fn, err := ctx.resolveFunction(f.name)
	if err != nil {
		return Value{}, err
	}
	args := make([]Value, len(f.args))
	for i, a := range f.args {
		v, err := a.Evaluate(f.argContextFor(ctx, i))
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	return fn(ctx, args)
}

// numericFunctions is the set of core functions whose result type is
// always Number; used by the conservative hasPositionalPredicate
// detector to flag predicates like
// "string-length('bar')" as positional even though they carry no literal
// integer.
var numericFunctions = map[string]bool{
	"last": true, "position": true, "count": true, "string-length": true,
	"sum": true, "floor": true, "ceiling": true, "round": true, "number": true,
}

// containsPositional implements hasPositionalPredicate
// heuristic: a bare integer literal, a position()/last() (or any other
// numeric-returning function) call, or an arithmetic combinator, each
// make the enclosing predicate positional. It does not descend into a
// nested location path's own steps -- "b[1]" inside "a[b[1]]" is
// positional for b's step, not a's.
func containsPositional(e Expr) bool {
	switch v := e.(type) {
	case *numberExpr:
		return true
	case *unaryMinus:
		return true
	case *binaryExpr:
		if v.op.isArithmetic() {
			return true
		}
		return containsPositional(v.lhs) || containsPositional(v.rhs)
	case *functionCall:
		if numericFunctions[v.name] {
			return true
		}
		for _, a := range v.args {
			if containsPositional(a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
