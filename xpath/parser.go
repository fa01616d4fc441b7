package xpath

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wyre-dev/xpath-go/xmlnode"
)

// axisByName maps the long-hand axis keyword that precedes "::" to its
// axisKind.
func axisByName(name string) (axisKind, bool) {
	switch name {
	case "self":
		return axisSelf, true
	case "child":
		return axisChild, true
	case "parent":
		return axisParent, true
	case "descendant":
		return axisDescendant, true
	case "descendant-or-self":
		return axisDescendantOrSelf, true
	case "ancestor":
		return axisAncestor, true
	case "ancestor-or-self":
		return axisAncestorOrSelf, true
	case "following-sibling":
		return axisFollowingSibling, true
	case "preceding-sibling":
		return axisPrecedingSibling, true
	case "following":
		return axisFollowing, true
	case "preceding":
		return axisPreceding, true
	case "attribute":
		return axisAttribute, true
	case "namespace":
		return axisNamespace, true
	default:
		return "", false
	}
}

// isNodeTypeName reports whether name is one of the four reserved
// NodeType test openers, which a FunctionCall can never shadow.
func isNodeTypeName(name string) bool {
	switch name {
	case "node", "text", "comment", "processing-instruction":
		return true
	default:
		return false
	}
}

// splitQName splits "prefix:local" into its parts; a name with no colon
// has an empty prefix.
func splitQName(s string) (prefix, local string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// grammar is the shared bin-indexed table of binary-operator and union
// productions driving the shift/reduce engine. Steps,
// predicates and primaries are unambiguous in shape and are instead
// walked by direct recursive descent below -- splitting the grammar this
// way is how the location-path portion of XPath 1.0 is conventionally
// described even in shift/reduce treatments, since only the operator
// chain (Or down to Union) carries genuine precedence ambiguity.
var grammar = newGrammarTable(operatorRules())

func operatorRules() []*rule {
	type opDef struct {
		tok  rune
		tag  string
		name binaryOp
	}
	defs := []opDef{
		{opOr, "kw:or", opOrKw},
		{opAnd, "kw:and", opAndKw},
		{opEq, "op:eq", opCEq},
		{opNe, "op:ne", opCNe},
		{opLt, "op:lt", opCLt},
		{opLe, "op:le", opCLe},
		{opGt, "op:gt", opCGt},
		{opGe, "op:ge", opCGe},
		{opPlus, "op:add", opArAdd},
		{opMinus, "op:sub", opArSub},
		{opStar, "op:mul", opArMul},
		{opDiv, "kw:div", opArDiv},
		{opMod, "kw:mod", opArMod},
	}
	var rules []*rule
	for _, d := range defs {
		d := d
		rules = append(rules, &rule{
			target:    "Expr",
			pattern:   []patElem{{"Expr", qOne}, {d.tag, qOne}, {"Expr", qOne}},
			prec:      tokenPrecedence(d.tok),
			leftAssoc: tokenLeftAssoc(d.tok),
			build: func(popped []frame) (Expr, error) {
				return &binaryExpr{op: d.name, lhs: popped[0].expr, rhs: popped[2].expr}, nil
			},
		})
	}
	rules = append(rules, &rule{
		target:    "Expr",
		pattern:   []patElem{{"Expr", qOne}, {"op:union", qOne}, {"Expr", qOne}},
		prec:      tokenPrecedence(opPipe),
		leftAssoc: tokenLeftAssoc(opPipe),
		build: func(popped []frame) (Expr, error) {
			return &unionExpr{lhs: popped[0].expr, rhs: popped[2].expr}, nil
		},
	})
	return rules
}

// opTag returns the grammar-table tag that a binary-operator token pushes
// onto the engine stack, and whether t is a binary operator at all.
func opTag(t rune) (string, bool) {
	switch t {
	case opOr:
		return "kw:or", true
	case opAnd:
		return "kw:and", true
	case opEq:
		return "op:eq", true
	case opNe:
		return "op:ne", true
	case opLt:
		return "op:lt", true
	case opLe:
		return "op:le", true
	case opGt:
		return "op:gt", true
	case opGe:
		return "op:ge", true
	case opPlus:
		return "op:add", true
	case opMinus:
		return "op:sub", true
	case opStar:
		return "op:mul", true
	case opDiv:
		return "kw:div", true
	case opMod:
		return "kw:mod", true
	case opPipe:
		return "op:union", true
	default:
		return "", false
	}
}

// Parser drives a single Lexer through the mixed recursive-descent /
// shift-reduce grammar and produces one Expr.
type Parser struct {
	lex    *Lexer
	curr   Token
	peek   Token
	src    string
	tracer Tracer
}

func newParser(src string) *Parser {
	p := &Parser{lex: newLexer(src), src: src, tracer: discardTracer{}}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.curr = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) fail(cause string) error {
	return ParseError{Code: CodeGenericError, Source: p.src, Cause: cause, Position: p.curr.Position}
}

func (p *Parser) expect(t rune, what string) error {
	if p.curr.Type != t {
		return p.fail("expected " + what + ", got " + p.curr.String())
	}
	p.advance()
	return nil
}

var (
	fastPathName      = regexp.MustCompile(`^(@?)([A-Za-z_][\w.-]*)$`)
	fastPathVariable  = regexp.MustCompile(`^\$([A-Za-z_][\w.-]*)$`)
	fastPathInteger   = regexp.MustCompile(`^\d+$`)
	fastPathNameChain = regexp.MustCompile(`^(/?)([A-Za-z_][\w.-]*)((?:/[A-Za-z_][\w.-]*)+)$`)
)

// Parse compiles an XPath 1.0 expression string into an Expr, consulting
// and populating the process-wide parse cache first. The cache is a plain map keyed on the raw source text and
// is not safe for concurrent use -- sharing a parser cache across
// goroutines is explicitly out of scope.
func Parse(text string) (Expr, error) {
	if cached, ok := parseCache[text]; ok {
		return cached, nil
	}
	expr, err := parseUncached(text)
	if err != nil {
		return nil, err
	}
	parseCache[text] = expr
	return expr, nil
}

func parseUncached(text string) (Expr, error) {
	return parseTraced(text, discardTracer{})
}

// ParseWithTracer behaves like Parse but always parses from scratch,
// driving tracer's Enter/Leave/Error around every reduction -- tracing
// a cache hit would report nothing happening, so this bypasses the
// cache rather than populate it with a traced-away result.
func ParseWithTracer(text string, tracer Tracer) (Expr, error) {
	return parseTraced(text, tracer)
}

func parseTraced(text string, tracer Tracer) (Expr, error) {
	trimmed := strings.TrimSpace(text)
	if e, ok := fastPath(trimmed); ok {
		return e, nil
	}

	p := newParser(text)
	p.tracer = tracer
	expr, err := p.parseExprEngine()
	if err != nil {
		return nil, err
	}
	if p.curr.Type != EOF {
		return nil, p.fail("unexpected trailing token " + p.curr.String())
	}
	return expr, nil
}

// fastPath recognizes three shapes common
// enough to special-case: a bare name/attribute/variable reference, a
// pure non-negative integer literal, and a "/"-joined chain of plain
// element names. Each builds its Expr directly, bypassing the lexer and
// the shift/reduce engine entirely.
func fastPath(trimmed string) (Expr, bool) {
	if m := fastPathVariable.FindStringSubmatch(trimmed); m != nil {
		return &variableExpr{name: m[1]}, true
	}
	if fastPathInteger.MatchString(trimmed) {
		n, err := strconv.ParseFloat(trimmed, 64)
		if err == nil {
			return &numberExpr{value: n}, true
		}
	}
	if m := fastPathName.FindStringSubmatch(trimmed); m != nil {
		axis := axisChild
		if m[1] == "@" {
			axis = axisAttribute
		}
		st := &step{axis: axis, test: nameTest{local: m[2]}}
		return &location{absolute: false, steps: []*step{st}}, true
	}
	if m := fastPathNameChain.FindStringSubmatch(trimmed); m != nil {
		names := append([]string{m[2]}, strings.Split(strings.TrimPrefix(m[3], "/"), "/")...)
		steps := make([]*step, len(names))
		for i, n := range names {
			steps[i] = &step{axis: axisChild, test: nameTest{local: n}}
		}
		return &location{absolute: m[1] == "/", steps: steps}, true
	}
	return nil, false
}

// parseExprEngine parses the operator-precedence portion of the grammar
// (OrExpr down through UnionExpr) via the shift/reduce engine in
// grammar.go: push one operand, then -- for as long as the lookahead is
// a binary operator -- try every pending reduction before shifting.
func (p *Parser) parseExprEngine() (Expr, error) {
	eng := newEngine(grammar)
	eng.tracer = p.tracer

	first, err := p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}
	eng.push(frame{tag: "Expr", expr: first})

	for {
		tag, ok := opTag(p.curr.Type)
		if !ok {
			break
		}
		for {
			reduced, err := eng.tryReduce(p.curr.Type, false)
			if err != nil {
				return nil, err
			}
			if !reduced {
				break
			}
		}
		prec := tokenPrecedence(p.curr.Type)
		p.advance()
		eng.push(frame{tag: tag, prec: prec})

		operand, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		eng.push(frame{tag: "Expr", expr: operand})
	}

	for {
		reduced, err := eng.tryReduce(EOF, true)
		if err != nil {
			return nil, err
		}
		if !reduced {
			break
		}
	}
	if len(eng.stack) != 1 {
		return nil, p.fail("could not reduce expression to a single value")
	}
	return eng.stack[0].expr, nil
}

// parseUnaryExpr handles the UnaryExpr production: any run of leading
// "-" wraps a UnionExpr/PathExpr operand.
func (p *Parser) parseUnaryExpr() (Expr, error) {
	if p.curr.Type == opMinus {
		p.advance()
		inner, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		return &unaryMinus{expr: inner}, nil
	}
	return p.parsePathExpr()
}

// parsePathExpr parses one PathExpr: an absolute location path, or a
// FilterExpr/RelativeLocationPath.
func (p *Parser) parsePathExpr() (Expr, error) {
	switch p.curr.Type {
	case opSlashSlash:
		p.advance()
		rel, err := p.parseRelativeLocationPath()
		if err != nil {
			return nil, err
		}
		steps := append([]*step{descendantOrSelfSeed()}, rel.steps...)
		return &location{absolute: true, steps: steps}, nil
	case opSlash:
		p.advance()
		if !p.startsStep() {
			return &location{absolute: true}, nil
		}
		rel, err := p.parseRelativeLocationPath()
		if err != nil {
			return nil, err
		}
		return &location{absolute: true, steps: rel.steps}, nil
	default:
		return p.parseFilterOrRelative()
	}
}

func descendantOrSelfSeed() *step {
	return &step{axis: axisDescendantOrSelf, test: kindTest{only: true}}
}

func (p *Parser) startsStep() bool {
	switch p.curr.Type {
	case Name, opStar, opAt, opDot, opDotDot:
		return true
	default:
		return false
	}
}

// parseFilterOrRelative parses either a FilterExpr (FunctionCall,
// variable reference, literal, number or parenthesized expression,
// optionally predicated and path-continued) or, when the expression
// begins with an axis/node-test shape, a bare RelativeLocationPath.
func (p *Parser) parseFilterOrRelative() (Expr, error) {
	if p.isFunctionCallStart() {
		fn, err := p.parseFunctionCall()
		if err != nil {
			return nil, err
		}
		return p.continuePrimary(fn)
	}
	switch p.curr.Type {
	case opDollar:
		p.advance()
		if p.curr.Type != Name {
			return nil, p.fail("expected a variable name after '$'")
		}
		name := p.curr.Literal
		p.advance()
		return p.continuePrimary(&variableExpr{name: name})
	case opLParen:
		p.advance()
		inner, err := p.parseExprEngine()
		if err != nil {
			return nil, err
		}
		if err := p.expect(opRParen, "')'"); err != nil {
			return nil, err
		}
		return p.continuePrimary(inner)
	case Literal:
		lit := p.curr.Literal
		p.advance()
		return p.continuePrimary(&literalExpr{value: lit})
	case Digit:
		n, err := strconv.ParseFloat(p.curr.Literal, 64)
		if err != nil {
			return nil, p.fail("invalid number " + p.curr.Literal)
		}
		p.advance()
		return p.continuePrimary(&numberExpr{value: n})
	default:
		rel, err := p.parseRelativeLocationPath()
		if err != nil {
			return nil, err
		}
		return rel, nil
	}
}

func (p *Parser) isFunctionCallStart() bool {
	return p.curr.Type == Name && p.peek.Type == opLParen && !isNodeTypeName(p.curr.Literal)
}

// continuePrimary applies any trailing predicates to primary, then -- if
// a "/" or "//" follows -- parses the rest as a RelativeLocationPath and
// builds the Path(filter, rel) composite.
func (p *Parser) continuePrimary(primary Expr) (Expr, error) {
	var preds []Expr
	for p.curr.Type == opLBracket {
		pred, err := p.parsePredicateBody()
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	if len(preds) > 0 {
		primary = &filterExpr{primary: primary, predicates: preds}
	}
	if p.curr.Type == opSlash || p.curr.Type == opSlashSlash {
		descendant := p.curr.Type == opSlashSlash
		p.advance()
		rel, err := p.parseRelativeLocationPath()
		if err != nil {
			return nil, err
		}
		if descendant {
			rel.steps = append([]*step{descendantOrSelfSeed()}, rel.steps...)
		}
		return &path{filter: primary, rel: rel}, nil
	}
	return primary, nil
}

func (p *Parser) parseRelativeLocationPath() (*location, error) {
	var steps []*step
	st, err := p.parseStep()
	if err != nil {
		return nil, err
	}
	steps = append(steps, st)
	for p.curr.Type == opSlash || p.curr.Type == opSlashSlash {
		descendant := p.curr.Type == opSlashSlash
		p.advance()
		if descendant {
			steps = append(steps, descendantOrSelfSeed())
		}
		st, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	return &location{absolute: false, steps: steps}, nil
}

func (p *Parser) parseStep() (*step, error) {
	switch p.curr.Type {
	case opDot:
		p.advance()
		return p.finishStep(&step{axis: axisSelf, test: kindTest{only: true}})
	case opDotDot:
		p.advance()
		return p.finishStep(&step{axis: axisParent, test: kindTest{only: true}})
	case opAt:
		p.advance()
		test, err := p.parseNodeTest()
		if err != nil {
			return nil, err
		}
		return p.finishStep(&step{axis: axisAttribute, test: test})
	case opStar:
		p.advance()
		return p.finishStep(&step{axis: axisChild, test: anyNodeTest{}})
	case Name:
		if p.peek.Type == opColonColon {
			axisName := p.curr.Literal
			p.advance()
			p.advance()
			kind, ok := axisByName(axisName)
			if !ok {
				return nil, p.fail("unknown axis " + axisName)
			}
			test, err := p.parseNodeTest()
			if err != nil {
				return nil, err
			}
			return p.finishStep(&step{axis: kind, test: test})
		}
		test, err := p.parseNodeTest()
		if err != nil {
			return nil, err
		}
		return p.finishStep(&step{axis: axisChild, test: test})
	default:
		return nil, p.fail("expected a location step, got " + p.curr.String())
	}
}

func (p *Parser) finishStep(st *step) (*step, error) {
	for p.curr.Type == opLBracket {
		pred, err := p.parsePredicateBody()
		if err != nil {
			return nil, err
		}
		st.predicates = append(st.predicates, pred)
	}
	for _, pred := range st.predicates {
		if containsPositional(pred) {
			st.positional = true
			break
		}
	}
	return st, nil
}

func (p *Parser) parsePredicateBody() (Expr, error) {
	p.advance() // consume '['
	e, err := p.parseExprEngine()
	if err != nil {
		return nil, err
	}
	if err := p.expect(opRBracket, "']'"); err != nil {
		return nil, err
	}
	return e, nil
}

// parseNodeTest parses a NodeTest: "*", "ncname:*", a QName, or one of
// the four NodeType openers.
func (p *Parser) parseNodeTest() (NodeTest, error) {
	switch p.curr.Type {
	case opStar:
		p.advance()
		return anyNodeTest{}, nil
	case Name:
		lit := p.curr.Literal
		if isNodeTypeName(lit) && p.peek.Type == opLParen {
			return p.parseKindTest(lit)
		}
		p.advance()
		if strings.HasSuffix(lit, ":") {
			if p.curr.Type != opStar {
				return nil, p.fail("expected '*' after namespace prefix in node test")
			}
			p.advance()
			return namespaceTest{prefix: strings.TrimSuffix(lit, ":")}, nil
		}
		prefix, local := splitQName(lit)
		return nameTest{prefix: prefix, local: local}, nil
	default:
		return nil, p.fail("expected a node test, got " + p.curr.String())
	}
}

func (p *Parser) parseKindTest(name string) (NodeTest, error) {
	p.advance() // the NodeType name
	if err := p.expect(opLParen, "'('"); err != nil {
		return nil, err
	}
	t := kindTest{}
	switch name {
	case "node":
		t.only = true
	case "text":
		t.kind = xmlnode.Text
	case "comment":
		t.kind = xmlnode.Comment
	case "processing-instruction":
		t.kind = xmlnode.Instruction
		if p.curr.Type == Literal {
			t.hasArg = true
			t.literal = p.curr.Literal
			p.advance()
		}
	}
	if err := p.expect(opRParen, "')'"); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *Parser) parseFunctionCall() (*functionCall, error) {
	_, name := splitQName(p.curr.Literal)
	p.advance() // name
	p.advance() // '('
	var args []Expr
	if p.curr.Type != opRParen {
		for {
			arg, err := p.parseExprEngine()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.curr.Type != opComma {
				break
			}
			p.advance()
		}
	}
	if err := p.expect(opRParen, "')'"); err != nil {
		return nil, err
	}
	return &functionCall{name: name, args: args}, nil
}

var parseCache = make(map[string]Expr)
