package xmlnode_test

import (
	"testing"

	"github.com/wyre-dev/xpath-go/xmlnode"
)

func TestFindAndFindAll(t *testing.T) {
	doc, err := xmlnode.ParseString(`<r><a id="1"/><b/><a id="2"/></r>`)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	root := doc.Root()

	first := root.Find("a")
	if first == nil || first.GetAttribute("id").NodeValue() != "1" {
		t.Fatalf("expected Find to return the first matching child, got %v", first)
	}
	if root.Find("missing") != nil {
		t.Errorf("expected Find to return nil for a name with no match")
	}

	all := root.FindAll("a")
	if len(all) != 2 {
		t.Fatalf("expected FindAll to return 2 matches, got %d", len(all))
	}
	if all[0].GetAttribute("id").NodeValue() != "1" || all[1].GetAttribute("id").NodeValue() != "2" {
		t.Errorf("expected FindAll results in document order, got %v", all)
	}
}

func TestFindDoesNotDescend(t *testing.T) {
	doc, err := xmlnode.ParseString(`<r><a><a id="nested"/></a></r>`)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	root := doc.Root()
	outer := root.Find("a")
	if outer == nil || outer.GetAttribute("id") != nil {
		t.Fatalf("expected Find to return the direct child, got %v", outer)
	}
	if got := root.GetElementsByTagName("a"); len(got) != 2 {
		t.Errorf("expected GetElementsByTagName to descend and find both <a> elements, got %d", len(got))
	}
}

func TestGetElementByID(t *testing.T) {
	doc, err := xmlnode.ParseString(`<r><a><b id="x"/></a></r>`)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	root := doc.Root()
	found := root.GetElementByID("x")
	if found == nil || found.LocalName() != "b" {
		t.Fatalf("expected GetElementByID to find the b element, got %v", found)
	}
	if root.GetElementByID("missing") != nil {
		t.Errorf("expected GetElementByID to return nil for an unknown id")
	}
}
