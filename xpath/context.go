package xpath

import "github.com/wyre-dev/xpath-go/xmlnode"

// Context is the evaluation context threaded through Expr.Evaluate:
// the current node list, the position of the node under evaluation
// within it, a variable scope, a function table, and a pair of
// evaluation-mode flags.
type Context struct {
	nodes []*xmlnode.Node
	index int // 0-based; Position() reports index+1

	vars  Environ[Value]
	funcs Environ[BuiltinFunc]

	caseInsensitive   bool
	returnOnFirstMatch bool
}

// NewContext builds the initial context for evaluating against a single
// node (the usual entry point: the document or an element within it).
func NewContext(node *xmlnode.Node) *Context {
	return &Context{
		nodes: []*xmlnode.Node{node},
		index: 0,
		vars:  Empty[Value](),
		funcs: defaultFunctions(),
	}
}

// Node is the context node: nodes[index].
func (c *Context) Node() *xmlnode.Node { return c.nodes[c.index] }

// Position is the 1-based position of the context node within Nodes().
func (c *Context) Position() int { return c.index + 1 }

// Size is the context size: len(Nodes()).
func (c *Context) Size() int { return len(c.nodes) }

func (c *Context) Nodes() []*xmlnode.Node { return c.nodes }

// Clone returns a new context over nodeList at 1-based position pos,
// sharing this context's variable scope, function table and flags.
func (c *Context) Clone(nodeList []*xmlnode.Node, pos int) *Context {
	return &Context{
		nodes:              nodeList,
		index:              pos - 1,
		vars:               c.vars,
		funcs:              c.funcs,
		caseInsensitive:    c.caseInsensitive,
		returnOnFirstMatch: c.returnOnFirstMatch,
	}
}

// SetVariable binds name to value in a fresh scope enclosing the current
// one, so sibling contexts that still reference the old scope are
// unaffected.
func (c *Context) SetVariable(name string, value Value) {
	scope := Enclosed[Value](c.vars)
	scope.Define(name, value)
	c.vars = scope
}

func (c *Context) resolveVariable(name string) (Value, error) {
	v, err := c.vars.Resolve(name)
	if err != nil {
		return Value{}, ReferenceError{Name: name, Kind: "variable"}
	}
	return v, nil
}

func (c *Context) resolveFunction(name string) (BuiltinFunc, error) {
	fn, err := c.funcs.Resolve(name)
	if err != nil {
		return nil, ReferenceError{Name: name, Kind: "function"}
	}
	return fn, nil
}

func (c *Context) SetCaseInsensitive(v bool) { c.caseInsensitive = v }
func (c *Context) CaseInsensitive() bool     { return c.caseInsensitive }

func (c *Context) SetReturnOnFirstMatch(v bool) { c.returnOnFirstMatch = v }
func (c *Context) ReturnOnFirstMatch() bool      { return c.returnOnFirstMatch }

// firstMatchContext returns a shallow copy of c with returnOnFirstMatch
// forced on, for callers that only need to know whether a node-set
// expression has any match at all rather than the whole set.
func (c *Context) firstMatchContext() *Context {
	cp := *c
	cp.returnOnFirstMatch = true
	return &cp
}

// Root returns the document node containing the context node.
func (c *Context) Root() *xmlnode.Node {
	n := c.Node()
	for n.Parent() != nil {
		n = n.Parent()
	}
	return n
}
