package xpath

import (
	"testing"

	"github.com/wyre-dev/xpath-go/xmlnode"
)

func mustParseDoc(t *testing.T, src string) *xmlnode.Node {
	t.Helper()
	doc, err := xmlnode.ParseString(src)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	return doc
}

func evalNodes(t *testing.T, doc *xmlnode.Node, expr string) []*xmlnode.Node {
	t.Helper()
	ctx := NewContext(doc)
	v, err := Eval(expr, ctx)
	if err != nil {
		t.Fatalf("%s: unexpected error: %s", expr, err)
	}
	if v.Type() != NodeSetType {
		t.Fatalf("%s: expected a node-set, got %s", expr, v.Type())
	}
	return v.Nodes()
}

const pageDoc = `<page><request><q>new york</q></request><location lat="100" lon="200"/></page>`

func TestEvalPageDocument(t *testing.T) {
	doc := mustParseDoc(t, pageDoc)

	if nodes := evalNodes(t, doc, "/"); len(nodes) != 1 || nodes[0].Kind() != xmlnode.Document {
		t.Errorf("/: expected a single document node, got %v", nodes)
	}
	if nodes := evalNodes(t, doc, "/page"); len(nodes) != 1 {
		t.Errorf("/page: expected a single node, got %d", len(nodes))
	}
	if nodes := evalNodes(t, doc, "/page/location/@lat"); len(nodes) != 1 || nodes[0].NodeValue() != "100" {
		t.Errorf("/page/location/@lat: expected one attribute with value 100, got %v", nodes)
	}
	ctx := NewContext(doc)
	v, err := Eval("count(/page/location/@*)", ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.Number() != 2 {
		t.Errorf("count(/page/location/@*): expected 2, got %v", v.Number())
	}
	if nodes := evalNodes(t, doc, "//q"); len(nodes) != 1 || nodes[0].StringValue() != "new york" {
		t.Errorf("//q: expected one node with string-value 'new york', got %v", nodes)
	}
}

const unionDoc = `<body><span id="u1" class="u"/><span id="u2" class="u"/><span id="u3" class="u"/></body>`

func TestEvalUnionCounts(t *testing.T) {
	doc := mustParseDoc(t, unionDoc)
	data := []struct {
		Expr string
		Want float64
	}{
		{"count(//*[@id='u1']|//*[@class='u'])", 3},
		{"count(//*[@id='u1']|//*[@id='u2'])", 2},
		{"count(//*[@id='u1'])", 1},
		{"count(//span)", 3},
	}
	for _, d := range data {
		ctx := NewContext(doc)
		v, err := Eval(d.Expr, ctx)
		if err != nil {
			t.Errorf("%s: unexpected error: %s", d.Expr, err)
			continue
		}
		if v.Number() != d.Want {
			t.Errorf("%s: expected %v, got %v", d.Expr, d.Want, v.Number())
		}
	}
}

const axisDoc = `<page><p/><list id="parent"><item/><item id="self"><d><d/></d></item><item/><item/><item/></list><f/></page>`

func TestEvalAxes(t *testing.T) {
	doc := mustParseDoc(t, axisDoc)
	data := []struct {
		Expr string
		Want float64
	}{
		{"count(//*[@id='self']/descendant-or-self::*)", 3},
		{"count(//*[@id='self']/following::*)", 4},
		{"count(//*[@id='self']/preceding::*)", 2},
		{"count(//*[@id='self']/ancestor::*)", 2},
	}
	for _, d := range data {
		ctx := NewContext(doc)
		v, err := Eval(d.Expr, ctx)
		if err != nil {
			t.Errorf("%s: unexpected error: %s", d.Expr, err)
			continue
		}
		if v.Number() != d.Want {
			t.Errorf("%s: expected %v, got %v", d.Expr, d.Want, v.Number())
		}
	}
	if nodes := evalNodes(t, doc, "//*[@id='self']/parent::*/@id"); len(nodes) != 1 || nodes[0].NodeValue() != "parent" {
		t.Errorf("expected parent::*/@id to be 'parent', got %v", nodes)
	}
}

// hasPositionalPredicate's decision, exercised end to end through the
// parser and step engine: whether a[N] short-circuits at the first
// document-order match or must materialize the whole candidate set to
// decide membership.
func TestPositionalPredicateDetection(t *testing.T) {
	doc := mustParseDoc(t, `<r><a foo="1"><b/></a><a/></r>`)
	data := []struct {
		Expr string
		Want bool
	}{
		{"//a", false},
		{"//a[1]", true},
		{"//a[last()]", true},
		{"//a[position()=1]", true},
		{"//a[@foo and position()=2]", true},
		{"//a[0+1]", true},
		{"//a[string-length('bar')]", true},
		{"//a[@foo]", false},
		{"//a[@foo='1']", false},
		{"//a[b[1]]", false},
	}
	for _, d := range data {
		expr, err := Parse(d.Expr)
		if err != nil {
			t.Errorf("%s: unexpected parse error: %s", d.Expr, err)
			continue
		}
		loc, ok := expr.(*location)
		if !ok {
			t.Errorf("%s: expected a location path, got %T", d.Expr, expr)
			continue
		}
		var positional bool
		for _, st := range loc.steps {
			if st.positional {
				positional = true
			}
		}
		if positional != d.Want {
			t.Errorf("%s: expected positional=%v, got %v", d.Expr, d.Want, positional)
		}
		if _, err := Eval(d.Expr, NewContext(doc)); err != nil {
			t.Errorf("%s: unexpected evaluation error: %s", d.Expr, err)
		}
	}
}

func TestEvalVariables(t *testing.T) {
	doc := mustParseDoc(t, pageDoc)
	ctx := NewContext(doc)
	ctx.SetVariable("threshold", Number(50))
	v, err := Eval("/page/location/@lat > $threshold", ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !v.Boolean() {
		t.Errorf("expected @lat (100) > $threshold (50) to be true")
	}
}

func TestEvalUndefinedVariable(t *testing.T) {
	doc := mustParseDoc(t, pageDoc)
	_, err := Eval("$missing", NewContext(doc))
	if err == nil {
		t.Fatal("expected a reference error for an undefined variable")
	}
}

func TestEvalUndefinedFunction(t *testing.T) {
	doc := mustParseDoc(t, pageDoc)
	_, err := Eval("not-a-real-function(1)", NewContext(doc))
	if err == nil {
		t.Fatal("expected a reference error for an undefined function")
	}
}

func TestEvalStringCoercions(t *testing.T) {
	doc := mustParseDoc(t, pageDoc)
	ctx := NewContext(doc)
	data := []struct {
		Expr string
		Want string
	}{
		{"string(1)", "1"},
		{"string(1.5)", "1.5"},
		{"string(true())", "true"},
		{"string(false())", "false"},
		{"string(1 div 0)", "Infinity"},
		{"string(-1 div 0)", "-Infinity"},
		{"string(0 div 0)", "NaN"},
	}
	for _, d := range data {
		v, err := Eval(d.Expr, ctx)
		if err != nil {
			t.Errorf("%s: unexpected error: %s", d.Expr, err)
			continue
		}
		if v.String() != d.Want {
			t.Errorf("%s: expected %q, got %q", d.Expr, d.Want, v.String())
		}
	}
}

func TestEvalCaseInsensitiveNameTest(t *testing.T) {
	doc := mustParseDoc(t, `<Root><Item/></Root>`)
	ctx := NewContext(doc)
	ctx.SetCaseInsensitive(true)
	v, err := Eval("count(/root/item)", ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.Number() != 1 {
		t.Errorf("expected a case-insensitive match to find 1 node, got %v", v.Number())
	}
}

// TestReturnOnFirstMatch exercises property #5: with returnOnFirstMatch
// set on a non-positional path, the node location.firstMatch returns
// must equal the first node of the fully materialized result, and
// boolean() of a matching path must route through the same short-circuit.
func TestReturnOnFirstMatch(t *testing.T) {
	doc := mustParseDoc(t, `<r><a k="1"/><a k="2"/><a k="3"/></r>`)

	expr, err := Parse("//a")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	loc, ok := expr.(*location)
	if !ok {
		t.Fatalf("expected a location path, got %T", expr)
	}

	full := evalNodes(t, doc, "//a")
	if len(full) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(full))
	}

	ctx := NewContext(doc)
	ctx.SetReturnOnFirstMatch(true)
	n, found, err := loc.firstMatch(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !found {
		t.Fatal("expected firstMatch to find a node")
	}
	if n != full[0] {
		t.Errorf("expected firstMatch to return the first node in document order, got %v, want %v", n, full[0])
	}

	v, err := loc.Evaluate(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := v.Nodes(); len(got) != 1 || got[0] != full[0] {
		t.Errorf("expected location.Evaluate under returnOnFirstMatch to return a single-node set equal to the first match, got %v", got)
	}

	if _, _, err := loc.firstMatch(ctx); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	noMatchCtx := NewContext(doc)
	noMatchCtx.SetReturnOnFirstMatch(true)
	missing, err := Parse("//missing")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	mv, err := missing.Evaluate(noMatchCtx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(mv.Nodes()) != 0 {
		t.Errorf("expected no matches for //missing, got %v", mv.Nodes())
	}

	boolCtx := NewContext(doc)
	bv, err := Eval("boolean(//a)", boolCtx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !bv.Boolean() {
		t.Errorf("expected boolean(//a) to be true")
	}
	bv, err = Eval("boolean(//missing)", boolCtx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if bv.Boolean() {
		t.Errorf("expected boolean(//missing) to be false")
	}
}
