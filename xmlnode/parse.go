package xmlnode

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// ParseError reports a failure while building a DOM tree from XML text.
// The external collaborator is intentionally small: it only
// has to produce a tree that satisfies the node contract the evaluator
// relies on, not a conformant XML 1.0 processor.
type ParseError struct {
	Line, Column int
	Context      string
	Message      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", e.Line, e.Column, e.Context, e.Message)
}

// Parser turns an XML byte stream into a Document tree. Reading stops at
// the close of the root element; trailing content is ignored: the
// evaluator never asks the parser for more than a well-formed tree.
type Parser struct {
	r    *bufio.Reader
	char rune
	line int
	col  int

	namespaces []map[string]string
}

// Parse reads r and builds a Document node.
func Parse(r io.Reader) (*Node, error) {
	p := &Parser{r: bufio.NewReader(r), line: 1}
	p.pushScope()
	p.readRune()
	return p.parseDocument()
}

// ParseString is a convenience wrapper around Parse for an in-memory
// XML fragment, used throughout the test suite.
func ParseString(src string) (*Node, error) {
	return Parse(strings.NewReader(src))
}

func (p *Parser) pushScope() {
	p.namespaces = append(p.namespaces, map[string]string{})
}

func (p *Parser) popScope() {
	p.namespaces = p.namespaces[:len(p.namespaces)-1]
}

func (p *Parser) bindNamespace(prefix, uri string) {
	p.namespaces[len(p.namespaces)-1][prefix] = uri
}

func (p *Parser) resolveNamespace(prefix string) string {
	for i := len(p.namespaces) - 1; i >= 0; i-- {
		if uri, ok := p.namespaces[i][prefix]; ok {
			return uri
		}
	}
	return ""
}

func (p *Parser) readRune() {
	if p.char == '\n' {
		p.line++
		p.col = 0
	}
	c, _, err := p.r.ReadRune()
	if err != nil {
		p.char = 0
		return
	}
	p.char = c
	p.col++
}

func (p *Parser) peekRune() rune {
	c, _, err := p.r.ReadRune()
	if err != nil {
		return 0
	}
	p.r.UnreadRune()
	return c
}

func (p *Parser) done() bool {
	return p.char == 0
}

func (p *Parser) err(ctx, msg string) error {
	return &ParseError{Line: p.line, Column: p.col, Context: ctx, Message: msg}
}

func (p *Parser) skipSpace() {
	for !p.done() && unicode.IsSpace(p.char) {
		p.readRune()
	}
}

func (p *Parser) parseDocument() (*Node, error) {
	doc := NewDocument()
	p.skipSpace()
	for !p.done() {
		if p.char != '<' {
			p.readRune()
			continue
		}
		switch p.peekRune() {
		case '?':
			pi, err := p.parsePI()
			if err != nil {
				return nil, err
			}
			doc.AppendChild(pi)
		case '!':
			n, err := p.parseBang()
			if err != nil {
				return nil, err
			}
			if n != nil {
				doc.AppendChild(n)
			}
		default:
			el, err := p.parseElement()
			if err != nil {
				return nil, err
			}
			doc.AppendChild(el)
			if doc.Root() != nil {
				return doc, nil
			}
		}
		p.skipSpace()
	}
	if doc.Root() == nil {
		return nil, p.err("document", "missing root element")
	}
	return doc, nil
}

func (p *Parser) parseBang() (*Node, error) {
	// "<!" already seen up to '<'; consume "<!"
	p.readRune() // '<'
	p.readRune() // '!'
	if p.char == '-' && p.peekRune() == '-' {
		return p.parseComment()
	}
	if p.char == '[' && strings.HasPrefix(p.remainingUpper(6), "CDATA[") {
		return p.parseCDATA()
	}
	// DOCTYPE or other markup declaration: skip balanced '<'/'>' content.
	depth := 0
	for !p.done() {
		switch p.char {
		case '<':
			depth++
		case '>':
			if depth == 0 {
				p.readRune()
				return nil, nil
			}
			depth--
		}
		p.readRune()
	}
	return nil, p.err("doctype", "unterminated declaration")
}

func (p *Parser) remainingUpper(n int) string {
	b, _ := p.r.Peek(n)
	return strings.ToUpper(string(b))
}

func (p *Parser) parseComment() (*Node, error) {
	p.readRune() // first '-'
	p.readRune() // second '-'
	var b strings.Builder
	for {
		if p.done() {
			return nil, p.err("comment", "unterminated comment")
		}
		if p.char == '-' && p.peekRune() == '-' {
			p.readRune()
			p.readRune()
			if p.char != '>' {
				return nil, p.err("comment", "'--' not allowed inside comment")
			}
			p.readRune()
			break
		}
		b.WriteRune(p.char)
		p.readRune()
	}
	return NewComment(b.String()), nil
}

func (p *Parser) parseCDATA() (*Node, error) {
	for i := 0; i < len("[CDATA["); i++ {
		p.readRune()
	}
	var b strings.Builder
	for {
		if p.done() {
			return nil, p.err("cdata", "unterminated CDATA section")
		}
		if p.char == ']' && p.peekRune() == ']' {
			p.readRune()
			p.readRune()
			if p.char == '>' {
				p.readRune()
				break
			}
			b.WriteString("]]")
			continue
		}
		b.WriteRune(p.char)
		p.readRune()
	}
	return NewCDATA(b.String()), nil
}

func (p *Parser) parsePI() (*Node, error) {
	p.readRune() // '<'
	p.readRune() // '?'
	target := p.readName()
	p.skipSpace()
	var b strings.Builder
	for {
		if p.done() {
			return nil, p.err("processing-instruction", "unterminated instruction")
		}
		if p.char == '?' && p.peekRune() == '>' {
			p.readRune()
			p.readRune()
			break
		}
		b.WriteRune(p.char)
		p.readRune()
	}
	return NewInstruction(target, strings.TrimSpace(b.String())), nil
}

func (p *Parser) readName() string {
	var b strings.Builder
	accept := func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' || r == ':'
	}
	for !p.done() && accept(p.char) {
		b.WriteRune(p.char)
		p.readRune()
	}
	return b.String()
}

func splitName(raw string) (prefix, local string) {
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	return "", raw
}

func (p *Parser) parseElement() (*Node, error) {
	p.readRune() // '<'
	raw := p.readName()
	if raw == "" {
		return nil, p.err("element", "name is missing")
	}
	prefix, local := splitName(raw)
	el := NewElement(prefix, local)

	p.pushScope()
	defer p.popScope()

	attrs, err := p.parseAttributes()
	if err != nil {
		return nil, err
	}
	for _, a := range attrs {
		if a.prefix == "xmlns" {
			p.bindNamespace(a.local, a.value)
		} else if a.prefix == "" && a.local == "xmlns" {
			p.bindNamespace("", a.value)
		}
	}
	for _, a := range attrs {
		el.SetAttribute(a)
	}
	el.SetNamespaceURI(p.resolveNamespace(prefix))

	p.skipSpace()
	if p.char == '/' {
		p.readRune()
		if p.char != '>' {
			return nil, p.err("element", "expected '>' after '/'")
		}
		p.readRune()
		return el, nil
	}
	if p.char != '>' {
		return nil, p.err("element", "expected '>' to close start tag")
	}
	p.readRune()

	if err := p.parseContent(el, raw); err != nil {
		return nil, err
	}
	return el, nil
}

func (p *Parser) parseAttributes() ([]*Node, error) {
	var attrs []*Node
	for {
		p.skipSpace()
		if p.done() || p.char == '>' || p.char == '/' || (p.char == '?' && p.peekRune() == '>') {
			return attrs, nil
		}
		raw := p.readName()
		if raw == "" {
			return nil, p.err("attribute", "name is missing")
		}
		p.skipSpace()
		if p.char != '=' {
			return nil, p.err("attribute", "expected '=' after attribute name")
		}
		p.readRune()
		p.skipSpace()
		value, err := p.parseAttrValue()
		if err != nil {
			return nil, err
		}
		prefix, local := splitName(raw)
		attrs = append(attrs, NewAttribute(prefix, local, value))
	}
}

func (p *Parser) parseAttrValue() (string, error) {
	if p.char != '"' && p.char != '\'' {
		return "", p.err("attribute", "expected quoted value")
	}
	quote := p.char
	p.readRune()
	var b strings.Builder
	for {
		if p.done() {
			return "", p.err("attribute", "unterminated attribute value")
		}
		if p.char == quote {
			p.readRune()
			break
		}
		if p.char == '&' {
			ent, err := p.parseEntity()
			if err != nil {
				return "", err
			}
			b.WriteString(ent)
			continue
		}
		b.WriteRune(p.char)
		p.readRune()
	}
	return b.String(), nil
}

var namedEntities = map[string]string{
	"amp": "&", "lt": "<", "gt": ">", "apos": "'", "quot": "\"",
}

func (p *Parser) parseEntity() (string, error) {
	p.readRune() // '&'
	var b strings.Builder
	for !p.done() && p.char != ';' {
		b.WriteRune(p.char)
		p.readRune()
	}
	if p.char != ';' {
		return "", p.err("entity", "unterminated entity reference")
	}
	p.readRune()
	name := b.String()
	if strings.HasPrefix(name, "#x") || strings.HasPrefix(name, "#X") {
		return decodeNumericEntity(name[2:], 16)
	}
	if strings.HasPrefix(name, "#") {
		return decodeNumericEntity(name[1:], 10)
	}
	if s, ok := namedEntities[name]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown entity reference &%s;", name)
}

func decodeNumericEntity(digits string, base int) (string, error) {
	var n int64
	for _, c := range digits {
		var d int64
		switch {
		case c >= '0' && c <= '9':
			d = int64(c - '0')
		case base == 16 && c >= 'a' && c <= 'f':
			d = int64(c-'a') + 10
		case base == 16 && c >= 'A' && c <= 'F':
			d = int64(c-'A') + 10
		default:
			return "", fmt.Errorf("invalid numeric character reference")
		}
		n = n*int64(base) + d
	}
	return string(rune(n)), nil
}

func (p *Parser) parseContent(el *Node, openRaw string) error {
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			el.AppendChild(NewText(text.String()))
			text.Reset()
		}
	}
	for {
		if p.done() {
			return p.err("element", "unterminated element: "+openRaw)
		}
		if p.char == '<' {
			switch p.peekRune() {
			case '/':
				flush()
				return p.parseCloseTag(openRaw)
			case '!':
				flush()
				n, err := p.parseBang()
				if err != nil {
					return err
				}
				if n != nil {
					el.AppendChild(n)
				}
				continue
			case '?':
				flush()
				pi, err := p.parsePI()
				if err != nil {
					return err
				}
				el.AppendChild(pi)
				continue
			default:
				flush()
				child, err := p.parseElement()
				if err != nil {
					return err
				}
				el.AppendChild(child)
				continue
			}
		}
		if p.char == '&' {
			ent, err := p.parseEntity()
			if err != nil {
				return err
			}
			text.WriteString(ent)
			continue
		}
		text.WriteRune(p.char)
		p.readRune()
	}
}

func (p *Parser) parseCloseTag(openRaw string) error {
	p.readRune() // '<'
	p.readRune() // '/'
	raw := p.readName()
	p.skipSpace()
	if p.char != '>' {
		return p.err("element", "expected '>' to close element "+raw)
	}
	p.readRune()
	if raw != openRaw {
		return p.err("element", fmt.Sprintf("closing tag %q does not match opening tag %q", raw, openRaw))
	}
	return nil
}
