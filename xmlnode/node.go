// Package xmlnode implements the minimal in-memory XML/HTML tree model
// required by package xpath: documents, elements, attributes, text, CDATA,
// comments and processing instructions, linked by parent/sibling pointers
// and ordered by a monotonic document-wide identifier.
package xmlnode

import (
	"fmt"
	"strings"
)

// Kind identifies the shape of a Node. It mirrors the DOM node kinds
// required by the evaluator: document, element, attribute, text, CDATA,
// comment, processing instruction, DTD and fragment.
type Kind uint8

const (
	Document Kind = iota
	Element
	Attribute
	Text
	CDATA
	Comment
	Instruction
	DTD
	Fragment
)

func (k Kind) String() string {
	switch k {
	case Document:
		return "document"
	case Element:
		return "element"
	case Attribute:
		return "attribute"
	case Text:
		return "text"
	case CDATA:
		return "cdata"
	case Comment:
		return "comment"
	case Instruction:
		return "processing-instruction"
	case DTD:
		return "dtd"
	case Fragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// NS is a namespace binding in scope on an element: a prefix (empty for the
// default namespace) mapped to a URI.
type NS struct {
	Prefix string
	Uri    string
}

func (n NS) Default() bool {
	return n.Prefix == ""
}

// Node is the public surface consumed by the xpath evaluator. A single
// concrete type backs every Kind; fields not meaningful for a
// given kind hold their zero value (e.g. Attrs is always empty on a Text
// node, Children is always empty on an Attribute).
type Node struct {
	kind Kind

	prefix string
	local  string
	nsURI  string
	value  string

	parent   *Node
	prev     *Node
	next     *Node
	children []*Node
	attrs    []*Node

	docOrder int
	owner    *tree

	// Instruction-only: processing instruction target is stored in local,
	// and value holds the instruction's textual content.
	// DTD-only:
	doctypeName     string
	doctypePublicID string
	doctypeSystemID string
}

// tree tracks the monotonic document-order counter shared by every node
// attached under the same Document, and the document's root Node.
type tree struct {
	nextID int
	root   *Node
}

func (t *tree) allocate() int {
	id := t.nextID
	t.nextID++
	return id
}

// NewDocument creates an empty document node. Use Document's AppendChild to
// attach the (at most one) root element.
func NewDocument() *Node {
	n := &Node{kind: Document}
	n.owner = &tree{}
	n.docOrder = n.owner.allocate()
	return n
}

// NewElement creates a detached element node with the given qualified name.
func NewElement(prefix, local string) *Node {
	return &Node{kind: Element, prefix: prefix, local: local}
}

// NewAttribute creates a detached attribute node.
func NewAttribute(prefix, local, value string) *Node {
	return &Node{kind: Attribute, prefix: prefix, local: local, value: value}
}

func NewText(value string) *Node {
	return &Node{kind: Text, value: value}
}

func NewCDATA(value string) *Node {
	return &Node{kind: CDATA, value: value}
}

func NewComment(value string) *Node {
	return &Node{kind: Comment, value: value}
}

// NewInstruction creates a processing instruction node; target is its
// node name and data its textual content.
func NewInstruction(target, data string) *Node {
	return &Node{kind: Instruction, local: target, value: data}
}

// NewDocType creates a DTD node carrying the document type declaration.
func NewDocType(name, publicID, systemID string) *Node {
	return &Node{kind: DTD, doctypeName: name, doctypePublicID: publicID, doctypeSystemID: systemID}
}

func (n *Node) Kind() Kind { return n.kind }

func (n *Node) LocalName() string {
	if n.kind == DTD {
		return n.doctypeName
	}
	return n.local
}

func (n *Node) Prefix() string { return n.prefix }

func (n *Node) QualifiedName() string {
	if n.prefix == "" {
		return n.local
	}
	return n.prefix + ":" + n.local
}

// NamespaceURI is the URI resolved for this node's prefix at parse time.
func (n *Node) NamespaceURI() string { return n.nsURI }

func (n *Node) SetNamespaceURI(uri string) { n.nsURI = uri }

func (n *Node) DocType() (name, publicID, systemID string) {
	return n.doctypeName, n.doctypePublicID, n.doctypeSystemID
}

// NodeValue is the leaf text carried directly by this node: the character
// data of a text/CDATA/comment node, the instruction's data, or the
// attribute's value. Elements and documents have no direct node value.
func (n *Node) NodeValue() string {
	switch n.kind {
	case Text, CDATA, Comment, Instruction, Attribute:
		return n.value
	default:
		return ""
	}
}

func (n *Node) SetNodeValue(value string) { n.value = value }

func (n *Node) Parent() *Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) PreviousSibling() *Node { return n.prev }
func (n *Node) NextSibling() *Node     { return n.next }

func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

func (n *Node) LastChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[len(n.children)-1]
}

// Children returns the ordered child list. Attribute nodes are never part
// of it.
func (n *Node) Children() []*Node { return n.children }

// Attributes returns the ordered attribute list of an element.
func (n *Node) Attributes() []*Node { return n.attrs }

// DocumentOrderID is the monotonic, document-wide identifier used for
// equality, deduplication and document-order tie-breaking.
func (n *Node) DocumentOrderID() int { return n.docOrder }

// StringValue is the string-value of the node per XPath 1.0: for an
// attribute, text, CDATA, comment or processing instruction it is the
// node's own value; for an element, document or fragment it is the
// concatenation, in document order, of every descendant text/CDATA node;
// for a DTD it is empty.
func (n *Node) StringValue() string {
	switch n.kind {
	case Attribute, Text, CDATA, Comment, Instruction:
		return n.value
	case Element, Document, Fragment:
		var b strings.Builder
		n.collectText(&b)
		return b.String()
	default:
		return ""
	}
}

func (n *Node) collectText(b *strings.Builder) {
	for _, c := range n.children {
		switch c.kind {
		case Text, CDATA:
			b.WriteString(c.value)
		case Element, Fragment:
			c.collectText(b)
		}
	}
}

// GetElementsByTagName returns every element descendant named name, in
// pre-order (document order).
func (n *Node) GetElementsByTagName(name string) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.children {
			if c.kind == Element && (name == "*" || c.local == name) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// Find returns the first direct child element named name, or nil if none
// matches. Unlike GetElementsByTagName it does not descend past children.
func (n *Node) Find(name string) *Node {
	for _, c := range n.children {
		if c.kind == Element && c.local == name {
			return c
		}
	}
	return nil
}

// FindAll returns every direct child element named name, in document order.
func (n *Node) FindAll(name string) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.kind == Element && c.local == name {
			out = append(out, c)
		}
	}
	return out
}

// GetElementByID returns the first element descendant (pre-order) with an
// "id" attribute equal to id.
func (n *Node) GetElementByID(id string) *Node {
	var found *Node
	var walk func(*Node) bool
	walk = func(cur *Node) bool {
		for _, c := range cur.children {
			if c.kind != Element {
				continue
			}
			for _, a := range c.attrs {
				if a.local == "id" && a.value == id {
					found = c
					return true
				}
			}
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(n)
	return found
}

// Root returns the document element of a Document node, or nil for a
// fragment/document with no element child.
func (n *Node) Root() *Node {
	if n.kind != Document {
		return nil
	}
	for _, c := range n.children {
		if c.kind == Element {
			return c
		}
	}
	return nil
}

// Namespaces returns the namespace bindings declared directly on an
// element via xmlns/xmlns:* attributes.
func (n *Node) Namespaces() []NS {
	var out []NS
	for _, a := range n.attrs {
		if a.prefix == "xmlns" {
			out = append(out, NS{Prefix: a.local, Uri: a.value})
		} else if a.prefix == "" && a.local == "xmlns" {
			out = append(out, NS{Uri: a.value})
		}
	}
	return out
}

// AppendChild attaches node as the last child of n, wiring parent and
// sibling pointers and assigning its document order id (and that of any
// subtree it already carries, so a detached subtree built bottom-up still
// receives consistent monotonically increasing ids when spliced in).
func (n *Node) AppendChild(child *Node) error {
	if n.kind != Document && n.kind != Element && n.kind != Fragment {
		return fmt.Errorf("%s: cannot append children", n.kind)
	}
	owner := n.owner
	if owner == nil {
		owner = &tree{}
		n.owner = owner
	}
	if last := n.LastChild(); last != nil {
		last.next = child
		child.prev = last
	} else {
		child.prev = nil
	}
	child.next = nil
	child.parent = n
	n.children = append(n.children, child)
	assignOrder(child, owner)
	return nil
}

func assignOrder(n *Node, owner *tree) {
	n.owner = owner
	n.docOrder = owner.allocate()
	for _, a := range n.attrs {
		a.owner = owner
		a.docOrder = owner.allocate()
	}
	for _, c := range n.children {
		assignOrder(c, owner)
	}
}

// SetAttribute appends or replaces (by qualified name) an attribute on an
// element. Attribute nodes carry a parent but no siblings.
func (n *Node) SetAttribute(attr *Node) error {
	if n.kind != Element {
		return fmt.Errorf("%s: attributes apply to elements only", n.kind)
	}
	attr.parent = n
	for i, a := range n.attrs {
		if a.prefix == attr.prefix && a.local == attr.local {
			n.attrs[i] = attr
			if n.owner != nil {
				attr.owner = n.owner
				attr.docOrder = n.owner.allocate()
			}
			return nil
		}
	}
	n.attrs = append(n.attrs, attr)
	if n.owner != nil {
		attr.owner = n.owner
		attr.docOrder = n.owner.allocate()
	}
	return nil
}

func (n *Node) GetAttribute(local string) *Node {
	for _, a := range n.attrs {
		if a.local == local {
			return a
		}
	}
	return nil
}

// Identity is a human-readable handle for a node, usable as a map key for
// dedup/equality checks; it is built from the node's kind and
// DocumentOrderID.
func (n *Node) Identity() string {
	return fmt.Sprintf("%s#%d", n.kind, n.docOrder)
}

// Before reports whether left precedes right in document order.
func Before(left, right *Node) bool {
	return left.docOrder < right.docOrder
}

// After reports whether left follows right in document order.
func After(left, right *Node) bool {
	return left.docOrder > right.docOrder
}
