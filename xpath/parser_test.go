package xpath

import "testing"

func TestParseFastPaths(t *testing.T) {
	data := []struct {
		Src  string
		Dump string
	}{
		{"page", "(path child::page)"},
		{"@lat", "(path attribute::lat)"},
		{"$x", "$x"},
		{"42", "42"},
		{"/page/location", "(path abs child::page child::location)"},
		{"page/location/lat", "(path child::page child::location child::lat)"},
	}
	for _, d := range data {
		expr, err := Parse(d.Src)
		if err != nil {
			t.Errorf("%q: unexpected error: %s", d.Src, err)
			continue
		}
		if got := Dump(expr); got != d.Dump {
			t.Errorf("%q: expected dump %s, got %s", d.Src, d.Dump, got)
		}
	}
}

// The "@lat" fast path builds an attribute step; besides the Dump check
// in the table above, the step's axis field is verified directly here.
func TestParseFastPathAttributeAxis(t *testing.T) {
	expr, err := Parse("@lat")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	loc, ok := expr.(*location)
	if !ok || len(loc.steps) != 1 {
		t.Fatalf("expected a one-step relative location, got %#v", expr)
	}
	if loc.steps[0].axis != axisAttribute {
		t.Errorf("expected the attribute axis, got %s", loc.steps[0].axis)
	}
}

func TestParseCacheReturnsSameExpr(t *testing.T) {
	const src = "//page/location[@lat>1]"
	first, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	second, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if Dump(first) != Dump(second) {
		t.Errorf("expected reparsing a cached expression to be semantically indistinguishable from a fresh parse: %s vs %s", Dump(first), Dump(second))
	}
}

func TestParseWithTracerRecordsReductions(t *testing.T) {
	var rec recordingTracer
	_, err := ParseWithTracer("1 + 2 * 3", &rec)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(rec.entered) == 0 {
		t.Errorf("expected at least one traced reduction for a binary-operator chain")
	}
	if len(rec.entered) != len(rec.left) {
		t.Errorf("expected every Enter to be matched by a Leave, got %d enters and %d leaves", len(rec.entered), len(rec.left))
	}
}

type recordingTracer struct {
	entered []string
	left    []string
	errs    []string
}

func (r *recordingTracer) Enter(rule string)          { r.entered = append(r.entered, rule) }
func (r *recordingTracer) Leave(rule string)          { r.left = append(r.left, rule) }
func (r *recordingTracer) Error(rule string, _ error) { r.errs = append(r.errs, rule) }

func TestOperatorPrecedence(t *testing.T) {
	data := []struct {
		Src  string
		Dump string
	}{
		{"1 + 2 * 3", `(+ 1 (* 2 3))`},
		{"1 * 2 + 3", `(+ (* 1 2) 3)`},
		{"1 - 2 - 3", `(- (- 1 2) 3)`},
		{"1 < 2 and 3 > 4", `(and (< 1 2) (> 3 4))`},
		{"1 and 2 or 3", `(or (and 1 2) 3)`},
		{"a | b | c", `(union (union (path child::a) (path child::b)) (path child::c))`},
		{"1 = 1 = 1", `(= (= 1 1) 1)`},
	}
	for _, d := range data {
		expr, err := ParseWithTracer(d.Src, discardTracer{})
		if err != nil {
			t.Errorf("%q: unexpected error: %s", d.Src, err)
			continue
		}
		if got := Dump(expr); got != d.Dump {
			t.Errorf("%q: expected dump %s, got %s", d.Src, d.Dump, got)
		}
	}
}

func TestParseLocationPathShapes(t *testing.T) {
	data := []struct {
		Src  string
		Dump string
	}{
		{"/", "(path abs)"},
		{"//a", "(path abs descendant-or-self::node() child::a)"},
		{"./a", "(path self::node() child::a)"},
		{"../a", "(path parent::node() child::a)"},
		{"*", "(path child::*)"},
		{"@*", "(path attribute::*)"},
		{"child::item", "(path child::item)"},
		{"node()", "(path child::node())"},
		{"text()", "(path child::text())"},
		{"comment()", "(path child::comment())"},
		{"processing-instruction()", "(path child::processing-instruction())"},
		{"processing-instruction('foo')", `(path child::processing-instruction(foo))`},
		{"a[1]", "(path child::a[1])"},
		{"a[@id='x']", `(path child::a[(= (path attribute::id) "x")])`},
		{"a[1][2]", "(path child::a[1][2])"},
	}
	for _, d := range data {
		expr, err := ParseWithTracer(d.Src, discardTracer{})
		if err != nil {
			t.Errorf("%q: unexpected error: %s", d.Src, err)
			continue
		}
		if got := Dump(expr); got != d.Dump {
			t.Errorf("%q: expected dump %s, got %s", d.Src, d.Dump, got)
		}
	}
}

func TestParseFunctionCallsAndVariables(t *testing.T) {
	data := []struct {
		Src  string
		Dump string
	}{
		{"count(a)", "(count (path child::a))"},
		{"concat('a', 'b', 'c')", `(concat "a" "b" "c")`},
		{"not($x)", "(not $x)"},
		{"substring('12345', 0, 3)", `(substring "12345" 0 3)`},
	}
	for _, d := range data {
		expr, err := ParseWithTracer(d.Src, discardTracer{})
		if err != nil {
			t.Errorf("%q: unexpected error: %s", d.Src, err)
			continue
		}
		if got := Dump(expr); got != d.Dump {
			t.Errorf("%q: expected dump %s, got %s", d.Src, d.Dump, got)
		}
	}
}

func TestParseNamespaceNodeTests(t *testing.T) {
	expr, err := ParseWithTracer("xhtml:div", discardTracer{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	loc := expr.(*location)
	nt, ok := loc.steps[0].test.(nameTest)
	if !ok {
		t.Fatalf("expected a nameTest, got %#v", loc.steps[0].test)
	}
	if nt.prefix != "xhtml" || nt.local != "div" {
		t.Errorf("expected prefix=xhtml local=div, got prefix=%s local=%s", nt.prefix, nt.local)
	}

	expr, err = ParseWithTracer("xhtml:*", discardTracer{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	loc = expr.(*location)
	if _, ok := loc.steps[0].test.(namespaceTest); !ok {
		t.Errorf("expected a namespaceTest, got %#v", loc.steps[0].test)
	}
}

func TestParseErrors(t *testing.T) {
	data := []string{
		"",
		"a[",
		"a[1",
		"(1 + 2",
		"foo(",
		"a::b::c",
		"1 + ",
		"a//",
		"'unterminated",
		"concat(1, 2",
	}
	for _, src := range data {
		if _, err := ParseWithTracer(src, discardTracer{}); err == nil {
			t.Errorf("%q: expected a parse error", src)
		}
	}
}

// A broad corpus of syntactically valid fragments, regardless of what
// they evaluate to -- the point is that every one of them reduces to a
// single expression tree without error.
func TestParseSucceedsOnFragmentCorpus(t *testing.T) {
	data := []string{
		"a", "a/b", "a/b/c", "a//b", "//a", "/a/b", "/",
		"a[1]", "a[last()]", "a[position()=1]", "a[@id]", "a[@id='x']",
		"a[@id='x'][2]", "a[not(@id)]", "a[b/c]", "a[b[1]]",
		"*", "@*", "a/@*", "a/@id", "child::a", "descendant::a",
		"descendant-or-self::a", "ancestor::a", "ancestor-or-self::a",
		"following::a", "preceding::a", "following-sibling::a",
		"preceding-sibling::a", "parent::a", "self::a", "attribute::id",
		"node()", "text()", "comment()", "processing-instruction()",
		"a | b", "a/b | c/d", "(a | b)[1]",
		"1", "1.5", "-1", "- -1", "1 + 2", "1 - 2", "1 * 2", "1 div 2", "1 mod 2",
		"1 = 2", "1 != 2", "1 < 2", "1 <= 2", "1 > 2", "1 >= 2",
		"1 and 2", "1 or 2", "not(1)",
		"'a'", `"a"`, "concat('a','b')", "string(1)", "boolean(1)", "number('1')",
		"count(a)", "sum(a)", "local-name(a)", "name(a)", "namespace-uri(a)",
		"id('x')", "lang('en')", "last()", "position()",
		"starts-with('ab','a')", "contains('ab','a')",
		"substring-before('ab','b')", "substring-after('ab','a')",
		"substring('abc',1,2)", "string-length('abc')", "normalize-space(' a ')",
		"translate('abc','a','x')", "floor(1.5)", "ceiling(1.5)", "round(1.5)",
		"ends-with('ab','b')", "matches('ab','a.')", "matches('ab','A.','i')",
		"$x", "$x + $y", "a[$x]",
		"//page/location/@lat", "//*[@id='u1']", "count(/page/location/@*)",
		"//a/following::b[1]", "ancestor::*[1]", "//node()[@id]",
		"a/b/../c", "./a", "../a", ".", "..",
		"concat(a, '-', b, '-', c)",
		"a[b][c][d]",
		"(1 + 2) * 3",
		"1 + 2 * 3 - 4 div 2 mod 2",
		"a/b/c[1]/d[@e='f']",
		"//*[@class='u' or @id='u1']",
		"a:b", "a:*", "a:b/c:d",
	}
	for _, src := range data {
		if _, err := ParseWithTracer(src, discardTracer{}); err != nil {
			t.Errorf("%q: expected to parse, got error: %s", src, err)
		}
	}
}
