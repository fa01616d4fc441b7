package xpath

import (
	"strings"

	"github.com/wyre-dev/xpath-go/xmlnode"
)

// NodeTest filters the candidates an axis produces.
type NodeTest interface {
	Matches(n *xmlnode.Node, axisKind string, caseInsensitive bool) bool
	String() string
}

// anyNodeTest is "*": any element on an element-producing axis, any
// attribute on the attribute axis.
type anyNodeTest struct{}

func (anyNodeTest) Matches(n *xmlnode.Node, axis string, _ bool) bool {
	if axis == "attribute" {
		return n.Kind() == xmlnode.Attribute
	}
	if axis == "namespace" {
		return false
	}
	return n.Kind() == xmlnode.Element
}

func (anyNodeTest) String() string { return "*" }

// nameTest matches a QName against local name and, if a prefix was
// written in the expression, against the candidate's own serialized
// prefix. Parsing an XPath expression carries no in-scope namespace
// bindings of its own, so prefix matching here is
// syntactic rather than resolved-URI based -- "xhtml:div" matches
// elements literally serialized with the "xhtml" prefix.
type nameTest struct {
	prefix string
	local  string
}

func (t nameTest) Matches(n *xmlnode.Node, axis string, caseInsensitive bool) bool {
	kind := n.Kind()
	if axis == "attribute" {
		if kind != xmlnode.Attribute {
			return false
		}
	} else if axis == "namespace" {
		return false
	} else if kind != xmlnode.Element {
		return false
	}
	local := n.LocalName()
	want := t.local
	if caseInsensitive {
		local, want = strings.ToLower(local), strings.ToLower(want)
	}
	if local != want {
		return false
	}
	if t.prefix != "" && n.Prefix() != t.prefix {
		return false
	}
	return true
}

func (t nameTest) String() string {
	if t.prefix == "" {
		return t.local
	}
	return t.prefix + ":" + t.local
}

// namespaceTest is "ncname:*": any node serialized with the ncname
// prefix (see nameTest for why this is prefix, not resolved-URI, based).
type namespaceTest struct {
	prefix string
}

func (t namespaceTest) Matches(n *xmlnode.Node, axis string, _ bool) bool {
	if axis == "attribute" {
		return n.Kind() == xmlnode.Attribute && n.Prefix() == t.prefix
	}
	if axis == "namespace" {
		return false
	}
	return n.Kind() == xmlnode.Element && n.Prefix() == t.prefix
}

func (t namespaceTest) String() string { return t.prefix + ":*" }

// kindTest matches node() / text() / comment() / processing-instruction(lit?).
type kindTest struct {
	kind    xmlnode.Kind
	only    bool // true for node(): any kind at all
	literal string
	hasArg  bool
}

func (t kindTest) Matches(n *xmlnode.Node, _ string, _ bool) bool {
	if t.only {
		return true
	}
	if n.Kind() != t.kind {
		return false
	}
	if t.kind == xmlnode.Instruction && t.hasArg {
		return n.LocalName() == t.literal
	}
	return true
}

func (t kindTest) String() string {
	switch {
	case t.only:
		return "node()"
	case t.kind == xmlnode.Text:
		return "text()"
	case t.kind == xmlnode.Comment:
		return "comment()"
	case t.kind == xmlnode.Instruction && t.hasArg:
		return "processing-instruction(" + t.literal + ")"
	case t.kind == xmlnode.Instruction:
		return "processing-instruction()"
	default:
		return "node()"
	}
}
