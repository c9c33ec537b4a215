package mappings

import (
	"context"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/mcmappings/scheme"
)

// Inspection is a diagnostic view of one page: what Detect inferred and the
// tables it looked at. Used to debug markup drift on the site.
type Inspection struct {
	URL       string           `json:"url"`
	Selectors *Selectors       `json:"selectors"`
	Rows      []DefinitionRow  `json:"rows"`
	Tables    []InspectedTable `json:"tables"`
}

// DefinitionRow is one marker/name row of the class-definition table.
type DefinitionRow struct {
	Marker         string `json:"marker"`
	Name           string `json:"name"`
	Classification string `json:"classification"`
}

// InspectedTable is a Markdown rendering of a table found on the page.
type InspectedTable struct {
	Title    string `json:"title"`
	Class    string `json:"class,omitempty"`
	Markdown string `json:"markdown"`
}

// Inspect fetches the page of classPath and reports the detected markers
// along with Markdown renderings of the class-definition and member summary
// tables. It extracts nothing and never fails on missing markers.
func (e *Extractor) Inspect(ctx context.Context, classPath string) (*Inspection, error) {
	doc, url, err := e.load(ctx, classPath)
	if err != nil {
		return nil, err
	}
	sel := Detect(doc, e.logger)
	e.selectors = sel

	ins := &Inspection{URL: url, Selectors: sel}
	r := newTableRenderer()

	if def := findDefinitionTable(doc); def != nil {
		ins.Rows = definitionRows(def)
		ins.Tables = append(ins.Tables, r.render("Class definition", def))
	}
	for _, heading := range []string{FieldSummaryHeading, MethodSummaryHeading} {
		h := findHeading(doc, heading)
		if h == nil {
			continue
		}
		if t := nextSibling(h, func(n *html.Node) bool { return isElement(n, atom.Table) }); t != nil {
			ins.Tables = append(ins.Tables, r.render(heading, t))
		}
	}
	return ins, nil
}

func definitionRows(table *html.Node) []DefinitionRow {
	var rows []DefinitionRow
	for _, tr := range findAll(table, func(n *html.Node) bool { return isElement(n, atom.Tr) }) {
		cells := childElements(tr, atom.Td)
		if len(cells) != 2 {
			continue
		}
		name := strings.TrimSpace(textContent(cells[1]))
		rows = append(rows, DefinitionRow{
			Marker:         getAttr(cells[0], "class"),
			Name:           name,
			Classification: scheme.ClassifyClassName(name).String(),
		})
	}
	return rows
}

type tableRenderer struct {
	policy *bluemonday.Policy
	conv   *converter.Converter
}

func newTableRenderer() *tableRenderer {
	// Tables only: scripts, styles and handlers never reach the report.
	policy := bluemonday.NewPolicy()
	policy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "td", "th", "code", "span", "a", "b", "i")
	policy.AllowAttrs("href").OnElements("a")
	return &tableRenderer{
		policy: policy,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (r *tableRenderer) render(title string, n *html.Node) InspectedTable {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return InspectedTable{Title: title, Class: getAttr(n, "class")}
	}
	clean := r.policy.Sanitize(sb.String())
	md, err := r.conv.ConvertString(clean)
	if err != nil || strings.TrimSpace(md) == "" {
		md = strings.TrimSpace(textContent(n))
	}
	return InspectedTable{
		Title:    title,
		Class:    getAttr(n, "class"),
		Markdown: strings.TrimSpace(md),
	}
}
