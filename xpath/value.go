package xpath

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/wyre-dev/xpath-go/xmlnode"
)

// Type identifies which of the four XPath 1.0 value kinds a Value holds.
type Type uint8

const (
	NodeSetType Type = iota
	BooleanType
	NumberType
	StringType
)

func (t Type) String() string {
	switch t {
	case NodeSetType:
		return "node-set"
	case BooleanType:
		return "boolean"
	case NumberType:
		return "number"
	case StringType:
		return "string"
	default:
		return "unknown"
	}
}

// Value is the tagged variant every expression evaluates to: exactly one
// of Number, String, Boolean or NodeSet is meaningful, selected by Type.
type Value struct {
	typ   Type
	num   float64
	str   string
	boo   bool
	nodes []*xmlnode.Node
}

func Number(f float64) Value  { return Value{typ: NumberType, num: f} }
func String(s string) Value   { return Value{typ: StringType, str: s} }
func Boolean(b bool) Value    { return Value{typ: BooleanType, boo: b} }
func NodeSet(n []*xmlnode.Node) Value {
	return Value{typ: NodeSetType, nodes: dedupOrdered(n)}
}

func (v Value) Type() Type { return v.typ }

// dedupOrdered removes duplicate nodes (by document order id) and returns
// the remainder sorted into document order.
func dedupOrdered(nodes []*xmlnode.Node) []*xmlnode.Node {
	if len(nodes) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(nodes))
	out := make([]*xmlnode.Node, 0, len(nodes))
	for _, n := range nodes {
		id := n.DocumentOrderID()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DocumentOrderID() < out[j].DocumentOrderID()
	})
	return out
}

// Nodes returns the node-set's nodes in document order. Calling it on a
// non-node-set value returns nil.
func (v Value) Nodes() []*xmlnode.Node {
	return v.nodes
}

// Number coerces v to a number per XPath 1.0 §4.4.
func (v Value) Number() float64 {
	switch v.typ {
	case NumberType:
		return v.num
	case BooleanType:
		if v.boo {
			return 1
		}
		return 0
	case StringType:
		return stringToNumber(v.str)
	case NodeSetType:
		return stringToNumber(v.String())
	default:
		return math.NaN()
	}
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// String coerces v to a string per XPath 1.0 §4.2.
func (v Value) String() string {
	switch v.typ {
	case StringType:
		return v.str
	case NumberType:
		return formatNumber(v.num)
	case BooleanType:
		if v.boo {
			return "true"
		}
		return "false"
	case NodeSetType:
		if len(v.nodes) == 0 {
			return ""
		}
		return v.nodes[0].StringValue()
	default:
		return ""
	}
}

// formatNumber renders a float the way XPath 1.0's canonical decimal form
// requires: integral values with no fractional part, NaN/Infinity by name.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Boolean coerces v to a boolean per XPath 1.0 §4.3.
func (v Value) Boolean() bool {
	switch v.typ {
	case BooleanType:
		return v.boo
	case NumberType:
		return !math.IsNaN(v.num) && v.num != 0
	case StringType:
		return v.str != ""
	case NodeSetType:
		return len(v.nodes) > 0
	default:
		return false
	}
}

func (v Value) GoString() string {
	return fmt.Sprintf("Value(%s, %q)", v.typ, v.String())
}
