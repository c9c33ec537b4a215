package mappings

import (
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/mcmappings/scheme"
)

// Section headings of the member summary tables.
const (
	FieldSummaryHeading  = "Field summary"
	MethodSummaryHeading = "Method summary"
)

// Selectors holds the marker tokens inferred from one page. Every marker is
// the full class attribute of the cell that precedes a name cell.
//
// A Selectors value is filled once by Detect and read-only afterwards. It is
// never reused for another page: the site regenerates its tokens per deploy.
type Selectors struct {
	// Obfuscated marks cells followed by an obfuscated name.
	Obfuscated string `json:"obfuscated,omitempty"`
	// Schemes maps each recognised scheme to its marker. First match wins.
	Schemes map[scheme.Scheme]string `json:"schemes,omitempty"`
	// Searge is the second dotted marker of the class-definition table.
	// Mojang and Searge class names look the same, so row order decides.
	Searge string `json:"searge,omitempty"`
	// MemberTable is the class attribute of the field/method summary tables.
	MemberTable string `json:"member_table,omitempty"`
}

// ClassMarker returns the marker used for class names of scheme s.
// Searge prefers its dedicated slot and falls back to Mojang's marker.
func (sel *Selectors) ClassMarker(s scheme.Scheme) (string, bool) {
	if s == scheme.Searge {
		if sel.Searge != "" {
			return sel.Searge, true
		}
		m, ok := sel.Schemes[scheme.Mojang]
		return m, ok && m != ""
	}
	m, ok := sel.Schemes[s]
	return m, ok && m != ""
}

// Detect infers the marker tokens of doc. It never fails: a signal that
// cannot be found leaves its field empty and is logged as a warning.
func Detect(doc *html.Node, logger *slog.Logger) *Selectors {
	if logger == nil {
		logger = slog.Default()
	}
	sel := &Selectors{Schemes: make(map[scheme.Scheme]string)}

	table := findDefinitionTable(doc)
	if table == nil {
		logger.Warn("mappings: no class-definition table found")
		return sel
	}
	sel.detectClassMarkers(table, logger)
	sel.detectMemberTable(doc, logger)

	logger.Debug("mappings: selectors detected",
		"obfuscated", sel.Obfuscated,
		"schemes", len(sel.Schemes),
		"searge", sel.Searge,
		"member_table", sel.MemberTable)
	return sel
}

// findDefinitionTable returns the first table holding a classed td followed
// by a name cell.
func findDefinitionTable(doc *html.Node) *html.Node {
	return findFirst(doc, func(n *html.Node) bool {
		if !isElement(n, atom.Table) {
			return false
		}
		return findFirst(n, func(td *html.Node) bool {
			return isElement(td, atom.Td) && hasAttr(td, "class") && nextSibling(td, isNameCell) != nil
		}) != nil
	})
}

func (sel *Selectors) detectClassMarkers(table *html.Node, logger *slog.Logger) {
	rows := findAll(table, func(n *html.Node) bool { return isElement(n, atom.Tr) })
	for _, row := range rows {
		cells := childElements(row, atom.Td)
		if len(cells) != 2 {
			continue
		}
		marker := getAttr(cells[0], "class")
		if marker == "" || !hasClass(cells[1], nameCellClass) {
			continue
		}
		name := strings.TrimSpace(textContent(cells[1]))

		switch scheme.ClassifyClassName(name) {
		case scheme.ClassObfuscated:
			if sel.Obfuscated == "" {
				sel.Obfuscated = marker
				logger.Debug("mappings: obfuscated marker", "marker", marker, "name", name)
			}
		case scheme.ClassYarn:
			sel.recordScheme(scheme.Yarn, marker, name, logger)
		case scheme.ClassIntermediary:
			sel.recordScheme(scheme.Intermediary, marker, name, logger)
		case scheme.ClassDotted:
			sel.recordDotted(marker, name, logger)
		}
	}
}

// recordScheme stores marker for s unless one is already known.
func (sel *Selectors) recordScheme(s scheme.Scheme, marker, name string, logger *slog.Logger) {
	if _, ok := sel.Schemes[s]; ok {
		return
	}
	sel.Schemes[s] = marker
	logger.Debug("mappings: class marker", "scheme", s, "marker", marker, "name", name)
}

// recordDotted handles names that Mojang and Searge render identically.
// The first one is taken as Mojang, the next as Searge. A page listing them
// in the opposite order is mislabelled; nothing on the page tells them apart.
func (sel *Selectors) recordDotted(marker, name string, logger *slog.Logger) {
	if _, ok := sel.Schemes[scheme.Mojang]; !ok {
		sel.recordScheme(scheme.Mojang, marker, name, logger)
		return
	}
	if sel.Searge != "" {
		return
	}
	sel.Searge = marker
	sel.Schemes[scheme.Searge] = marker
	logger.Debug("mappings: class marker assumed by row order",
		"scheme", scheme.Searge, "marker", marker, "name", name)
}

func (sel *Selectors) detectMemberTable(doc *html.Node, logger *slog.Logger) {
	for _, heading := range []string{FieldSummaryHeading, MethodSummaryHeading} {
		h := findHeading(doc, heading)
		if h == nil {
			continue
		}
		table := nextSibling(h, func(n *html.Node) bool { return isElement(n, atom.Table) })
		if table == nil {
			continue
		}
		if class := getAttr(table, "class"); class != "" {
			sel.MemberTable = class
			logger.Debug("mappings: member table marker", "marker", class, "heading", heading)
			return
		}
	}
	logger.Warn("mappings: member table marker not detected")
}
