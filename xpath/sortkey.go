package xpath

import (
	"sort"

	"github.com/wyre-dev/xpath-go/xmlnode"
)

// SortType selects how a SortKey's expression result is compared.
type SortType int

const (
	SortText SortType = iota
	SortNumber
)

// SortOrder selects ascending or descending comparison for a SortKey.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// SortKey is one entry of a sort specification: evaluate Expr with each
// candidate node as the context node, and compare the results as either
// text or number, in the given order. Used by the external XSLT
// collaborator's xsl:sort; exposed here because the evaluator already
// owns the machinery to run Expr against a per-node context.
type SortKey struct {
	Expr  Expr
	Type  SortType
	Order SortOrder
}

// SortNodes returns a new slice holding nodes ordered by keys, most
// significant key first. Sorting is stable: ties at every key fall back
// to the nodes' original relative order, implemented by appending the
// original index as a final ascending key rather than relying on the
// sort algorithm's own stability.
func SortNodes(nodes []*xmlnode.Node, keys []SortKey, ctx *Context) ([]*xmlnode.Node, error) {
	out := append([]*xmlnode.Node(nil), nodes...)
	type keyed struct {
		node  *xmlnode.Node
		index int
		text  []string
		num   []float64
	}
	rows := make([]keyed, len(out))
	for i, n := range out {
		rows[i] = keyed{node: n, index: i, text: make([]string, len(keys)), num: make([]float64, len(keys))}
		sub := ctx.Clone(out, i+1)
		for k, key := range keys {
			v, err := key.Expr.Evaluate(sub)
			if err != nil {
				return nil, err
			}
			if key.Type == SortNumber {
				rows[i].num[k] = v.Number()
			} else {
				rows[i].text[k] = v.String()
			}
		}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		for k, key := range keys {
			var less, greater bool
			if key.Type == SortNumber {
				less, greater = rows[a].num[k] < rows[b].num[k], rows[a].num[k] > rows[b].num[k]
			} else {
				less, greater = rows[a].text[k] < rows[b].text[k], rows[a].text[k] > rows[b].text[k]
			}
			if key.Order == Descending {
				less, greater = greater, less
			}
			if less {
				return true
			}
			if greater {
				return false
			}
		}
		return rows[a].index < rows[b].index
	})
	for i, r := range rows {
		out[i] = r.node
	}
	return out, nil
}
