package xpath

import "github.com/wyre-dev/xpath-go/xmlnode"

// axisKind names one of the thirteen XPath 1.0 axes.
type axisKind string

const (
	axisSelf              axisKind = "self"
	axisChild             axisKind = "child"
	axisParent            axisKind = "parent"
	axisDescendant        axisKind = "descendant"
	axisDescendantOrSelf  axisKind = "descendant-or-self"
	axisAncestor          axisKind = "ancestor"
	axisAncestorOrSelf    axisKind = "ancestor-or-self"
	axisFollowingSibling  axisKind = "following-sibling"
	axisPrecedingSibling  axisKind = "preceding-sibling"
	axisFollowing         axisKind = "following"
	axisPreceding         axisKind = "preceding"
	axisAttribute         axisKind = "attribute"
	axisNamespace         axisKind = "namespace"
)

// reverse reports whether an axis yields nodes in reverse document order:
// ancestor, ancestor-or-self, preceding, preceding-sibling.
func (a axisKind) reverse() bool {
	switch a {
	case axisAncestor, axisAncestorOrSelf, axisPreceding, axisPrecedingSibling:
		return true
	default:
		return false
	}
}

// principalNodeKind is the node kind a bare "*" node test matches on this
// axis: attribute on the attribute axis, element everywhere else.
func (a axisKind) principalNodeKind() xmlnode.Kind {
	if a == axisAttribute {
		return xmlnode.Attribute
	}
	return xmlnode.Element
}

// nodes returns origin's axis members, already in the axis's natural
// order (forward or reverse per reverse()).
func (a axisKind) nodes(origin *xmlnode.Node) []*xmlnode.Node {
	switch a {
	case axisSelf:
		return []*xmlnode.Node{origin}
	case axisChild:
		return append([]*xmlnode.Node(nil), origin.Children()...)
	case axisParent:
		if p := origin.Parent(); p != nil {
			return []*xmlnode.Node{p}
		}
		return nil
	case axisAttribute:
		if origin.Kind() != xmlnode.Element {
			return nil
		}
		return append([]*xmlnode.Node(nil), origin.Attributes()...)
	case axisNamespace:
		return nil // namespace nodes are not materialized
	case axisDescendant:
		var out []*xmlnode.Node
		collectDescendants(origin, &out)
		return out
	case axisDescendantOrSelf:
		out := []*xmlnode.Node{origin}
		collectDescendants(origin, &out)
		return out
	case axisAncestor:
		var out []*xmlnode.Node
		for p := origin.Parent(); p != nil; p = p.Parent() {
			out = append(out, p)
		}
		return out
	case axisAncestorOrSelf:
		out := []*xmlnode.Node{origin}
		for p := origin.Parent(); p != nil; p = p.Parent() {
			out = append(out, p)
		}
		return out
	case axisFollowingSibling:
		var out []*xmlnode.Node
		for n := origin.NextSibling(); n != nil; n = n.NextSibling() {
			out = append(out, n)
		}
		return out
	case axisPrecedingSibling:
		var out []*xmlnode.Node
		for n := origin.PreviousSibling(); n != nil; n = n.PreviousSibling() {
			out = append(out, n)
		}
		return out
	case axisFollowing:
		return followingOf(origin)
	case axisPreceding:
		return precedingOf(origin)
	default:
		return nil
	}
}

func collectDescendants(n *xmlnode.Node, out *[]*xmlnode.Node) {
	for _, c := range n.Children() {
		*out = append(*out, c)
		collectDescendants(c, out)
	}
}

// followingOf collects every node after origin in document order that is
// not an ancestor of origin and not origin itself (XPath 1.0 "following").
func followingOf(origin *xmlnode.Node) []*xmlnode.Node {
	ancestors := ancestorSet(origin)
	root := origin
	for root.Parent() != nil {
		root = root.Parent()
	}
	var out []*xmlnode.Node
	var walk func(*xmlnode.Node, bool) bool
	passed := false
	walk = func(n *xmlnode.Node, _ bool) bool {
		if n == origin {
			passed = true
			return true
		}
		if passed && !ancestors[n] {
			out = append(out, n)
		}
		for _, c := range n.Children() {
			walk(c, false)
		}
		return true
	}
	walk(root, true)
	return out
}

// precedingOf collects every node before origin in document order that is
// not an ancestor of origin, in reverse document order.
func precedingOf(origin *xmlnode.Node) []*xmlnode.Node {
	ancestors := ancestorSet(origin)
	root := origin
	for root.Parent() != nil {
		root = root.Parent()
	}
	var forward []*xmlnode.Node
	var walk func(*xmlnode.Node) bool
	stop := false
	walk = func(n *xmlnode.Node) bool {
		if stop {
			return false
		}
		if n == origin {
			stop = true
			return false
		}
		if !ancestors[n] {
			forward = append(forward, n)
		}
		for _, c := range n.Children() {
			if !walk(c) {
				break
			}
		}
		return !stop
	}
	walk(root)
	out := make([]*xmlnode.Node, len(forward))
	for i, n := range forward {
		out[len(forward)-1-i] = n
	}
	return out
}

func ancestorSet(n *xmlnode.Node) map[*xmlnode.Node]bool {
	set := make(map[*xmlnode.Node]bool)
	for p := n.Parent(); p != nil; p = p.Parent() {
		set[p] = true
	}
	return set
}
