package mappings

import (
	"reflect"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/mcmappings/internal/sitetest"
	"github.com/hazyhaar/mcmappings/scheme"
)

func firstTable(t *testing.T, doc *html.Node, heading string) *html.Node {
	t.Helper()
	h := findHeading(doc, heading)
	if h == nil {
		t.Fatalf("heading %q not found", heading)
	}
	tbl := nextSibling(h, func(n *html.Node) bool { return isElement(n, atom.Table) })
	if tbl == nil {
		t.Fatalf("no table after %q", heading)
	}
	return tbl
}

func TestScanMemberTable_SkipsRows(t *testing.T) {
	// WHAT: Rows with one cell or without both markers are skipped and counted.
	doc := parse(t, string(sitetest.Page(t, sitetest.Minecraft)))
	sel := Detect(doc, quietLogger())
	tbl := firstTable(t, doc, MethodSummaryHeading)

	dst := map[string]string{}
	requested, _ := sel.ClassMarker(scheme.Mojang)
	skipped := scanMemberTable(tbl, newRowScanner(scheme.Mojang, sel, requested), dst)

	if skipped != 2 {
		t.Errorf("skipped: got %d, want 2", skipped)
	}
	if !reflect.DeepEqual(dst, map[string]string{"getInstance": "H"}) {
		t.Errorf("got %v", dst)
	}
}

func TestSeargeShapeScanner(t *testing.T) {
	// WHAT: Searge member rows are read by identifier shape, not by marker.
	doc := parse(t, `<html><body><table><tbody><tr><td>x</td><td><table><tbody>
<tr><td class="o"></td><td class="F">bd</td></tr>
<tr><td class="m"></td><td class="F">somethingLong</td></tr>
<tr><td class="s"></td><td class="F">field_1234_a</td></tr>
<tr><td></td><td class="F">zz</td></tr>
</tbody></table></td></tr></tbody></table></body></html>`)
	row := findFirst(doc, func(n *html.Node) bool { return isElement(n, atom.Tr) })
	scope := childElements(row, atom.Td)[1]

	name, obf, ok := seargeShapeScanner{}.scanRow(scope)
	if !ok || name != "field_1234_a" || obf != "bd" {
		t.Errorf("got %q %q %v", name, obf, ok)
	}
}

func TestSeargeShapeScanner_NoSeargeName(t *testing.T) {
	doc := parse(t, `<html><body><table><tbody><tr><td class="o"></td><td class="F">bd</td></tr></tbody></table></body></html>`)
	row := findFirst(doc, func(n *html.Node) bool { return isElement(n, atom.Tr) })
	if _, _, ok := (seargeShapeScanner{}).scanRow(row); ok {
		t.Error("row without a searge name accepted")
	}
}

func TestFindMemberTable_TokenOrder(t *testing.T) {
	// WHAT: The method table matches the member marker whatever the token order.
	doc := parse(t, string(sitetest.Page(t, sitetest.Minecraft)))
	if findMemberTable(doc, MethodSummaryHeading, "c-7f1 mt") == nil {
		t.Error("method table not found for reordered tokens")
	}
	if findMemberTable(doc, MethodSummaryHeading, "c-7f1 other") != nil {
		t.Error("table found for a marker it does not carry")
	}
	if findMemberTable(doc, "Constructor summary", "c-7f1 mt") != nil {
		t.Error("table found under a missing heading")
	}
}

func TestNameText(t *testing.T) {
	tests := map[string]string{
		"  getBoundingBox(Lnet/minecraft/world/phys/AABB;)  ": "getBoundingBox",
		"tick ()":      "tick",
		"instance":     "instance",
		"(weird)":      "",
		"a(b)(c)":      "a",
	}
	for in, want := range tests {
		n := &html.Node{Type: html.ElementNode, DataAtom: atom.Td, Data: "td"}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: in})
		if got := nameText(n); got != want {
			t.Errorf("nameText(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestHasClass_ExactVersusTokens(t *testing.T) {
	n := &html.Node{Type: html.ElementNode, Data: "td", Attr: []html.Attribute{{Key: "class", Val: "a b"}}}
	if hasClass(n, "a") {
		t.Error("hasClass matched a single token")
	}
	if !hasClass(n, "a b") {
		t.Error("hasClass missed the exact value")
	}
	if !hasClassTokens(n, "b a") {
		t.Error("hasClassTokens missed reordered tokens")
	}
	if hasClassTokens(n, "") {
		t.Error("hasClassTokens matched an empty marker")
	}
}
