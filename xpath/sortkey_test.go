package xpath

import "testing"

func TestSortNodesByTextAscending(t *testing.T) {
	doc := mustParseDoc(t, `<r><e k="b"/><e k="a"/><e k="c"/></r>`)
	ctx := NewContext(doc)
	es := doc.GetElementsByTagName("e")
	keyExpr, err := Parse("@k")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	sorted, err := SortNodes(es, []SortKey{{Expr: keyExpr, Type: SortText, Order: Ascending}}, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	want := []string{"a", "b", "c"}
	for i, n := range sorted {
		if got := n.GetAttribute("k").NodeValue(); got != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got)
		}
	}
}

func TestSortNodesByNumberDescending(t *testing.T) {
	doc := mustParseDoc(t, `<r><e k="2"/><e k="10"/><e k="1"/></r>`)
	ctx := NewContext(doc)
	es := doc.GetElementsByTagName("e")
	keyExpr, err := Parse("@k")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	sorted, err := SortNodes(es, []SortKey{{Expr: keyExpr, Type: SortNumber, Order: Descending}}, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	want := []string{"10", "2", "1"}
	for i, n := range sorted {
		if got := n.GetAttribute("k").NodeValue(); got != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got)
		}
	}
}

func TestSortNodesStableOnTies(t *testing.T) {
	doc := mustParseDoc(t, `<r><e k="x" n="1"/><e k="x" n="2"/><e k="x" n="3"/></r>`)
	ctx := NewContext(doc)
	es := doc.GetElementsByTagName("e")
	keyExpr, err := Parse("@k")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	sorted, err := SortNodes(es, []SortKey{{Expr: keyExpr, Type: SortText, Order: Ascending}}, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	want := []string{"1", "2", "3"}
	for i, n := range sorted {
		if got := n.GetAttribute("n").NodeValue(); got != want[i] {
			t.Errorf("position %d: expected stable order %q, got %q", i, want[i], got)
		}
	}
}

func TestDumpDistinguishesDifferentTrees(t *testing.T) {
	a, err := Parse("a/b[1]")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	b, err := Parse("a/b[2]")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if Dump(a) == Dump(b) {
		t.Errorf("expected different predicates to dump differently, both got %s", Dump(a))
	}
}
