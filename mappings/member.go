package mappings

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/mcmappings/scheme"
)

// rowScanner pulls one (requested name, obfuscated name) pair out of the
// scope cell of a member summary row.
type rowScanner interface {
	scanRow(scope *html.Node) (name, obfuscated string, ok bool)
}

// newRowScanner picks the scanning rule for s once per extraction.
func newRowScanner(s scheme.Scheme, sel *Selectors, requested string) rowScanner {
	if s == scheme.Searge {
		return seargeShapeScanner{}
	}
	return markerPairScanner{requested: requested, obfuscated: sel.Obfuscated}
}

// markerPairScanner reads the name cells that follow the requested and the
// obfuscated marker cells.
type markerPairScanner struct {
	requested  string
	obfuscated string
}

func (m markerPairScanner) scanRow(scope *html.Node) (string, string, bool) {
	nameCell := markedNameCell(scope, m.requested)
	obfCell := markedNameCell(scope, m.obfuscated)
	if nameCell == nil || obfCell == nil {
		return "", "", false
	}
	return nameText(nameCell), nameText(obfCell), true
}

// seargeShapeScanner ignores markers for member names. On the site the flat
// field_/func_ tokens sit behind the same marker as the dotted class names,
// so every marked name cell is classified by shape instead.
type seargeShapeScanner struct{}

func (seargeShapeScanner) scanRow(scope *html.Node) (string, string, bool) {
	var name, obf string
	for _, cell := range findAll(scope, isNameCell) {
		if !hasMarkedPredecessor(cell) {
			continue
		}
		text := nameText(cell)
		switch {
		case scheme.IsSeargeMember(text):
			name = text
		case scheme.IsObfuscated(text):
			obf = text
		}
	}
	return name, obf, name != "" && obf != ""
}

// hasMarkedPredecessor reports whether a td with a class attribute precedes n
// among its siblings.
func hasMarkedPredecessor(n *html.Node) bool {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if isElement(s, atom.Td) && hasAttr(s, "class") {
			return true
		}
	}
	return false
}

// findMemberTable returns the first table after the heading titled title
// whose class tokens include all tokens of marker.
func findMemberTable(doc *html.Node, title, marker string) *html.Node {
	h := findHeading(doc, title)
	if h == nil {
		return nil
	}
	return nextSibling(h, func(n *html.Node) bool {
		return isElement(n, atom.Table) && hasClassTokens(n, marker)
	})
}

// scanMemberTable adds every pair found in the body rows of table to dst.
// Later rows overwrite earlier ones for the same name. Returns the number of
// rows that produced nothing.
func scanMemberTable(table *html.Node, scanner rowScanner, dst map[string]string) (skipped int) {
	for _, body := range childElements(table, atom.Tbody) {
		for _, row := range childElements(body, atom.Tr) {
			cells := childElements(row, atom.Td)
			if len(cells) < 2 {
				skipped++
				continue
			}
			name, obf, ok := scanner.scanRow(cells[1])
			if !ok {
				skipped++
				continue
			}
			dst[name] = obf
		}
	}
	return skipped
}
