package mappings

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// nameCellClass is the class token the site puts on every cell holding a
// name. It is the one token that has stayed stable across deployments.
const nameCellClass = "F"

// getAttr returns the value of an attribute on a node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// hasAttr checks if a node has a specific attribute.
func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

func isElement(n *html.Node, tag atom.Atom) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == tag
}

// hasClass reports whether n's class attribute is exactly class.
// Marker tokens are compared as whole attribute values, never as tokens.
func hasClass(n *html.Node, class string) bool {
	return n.Type == html.ElementNode && hasAttr(n, "class") && getAttr(n, "class") == class
}

// hasClassTokens reports whether every whitespace-separated token of want
// appears among n's class tokens. Order and extra tokens do not matter.
func hasClassTokens(n *html.Node, want string) bool {
	tokens := strings.Fields(want)
	if len(tokens) == 0 {
		return false
	}
	have := make(map[string]struct{})
	for _, c := range strings.Fields(getAttr(n, "class")) {
		have[c] = struct{}{}
	}
	for _, tok := range tokens {
		if _, ok := have[tok]; !ok {
			return false
		}
	}
	return true
}

// findAll returns every descendant of root (root excluded) accepted by match,
// in document order.
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if match(c) {
				results = append(results, c)
			}
			walk(c)
		}
	}
	walk(root)
	return results
}

// findFirst returns the first descendant of root accepted by match.
func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			return c
		}
		if n := findFirst(c, match); n != nil {
			return n
		}
	}
	return nil
}

// childElements returns the element children of n with the given tag.
func childElements(n *html.Node, tag atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, tag) {
			out = append(out, c)
		}
	}
	return out
}

// nextSibling returns the first following sibling of n accepted by match.
func nextSibling(n *html.Node, match func(*html.Node) bool) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if match(s) {
			return s
		}
	}
	return nil
}

// closestAncestor returns the nearest ancestor of n with the given tag.
func closestAncestor(n *html.Node, tag atom.Atom) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if isElement(p, tag) {
			return p
		}
	}
	return nil
}

// textContent concatenates every text node under n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// ownTextEquals reports whether one of n's direct text children, trimmed,
// equals want.
func ownTextEquals(n *html.Node, want string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == want {
			return true
		}
	}
	return false
}

func isNameCell(n *html.Node) bool {
	return isElement(n, atom.Td) && hasClass(n, nameCellClass)
}

// markedNameCell returns the name cell that follows a td carrying marker,
// searching the first such marker cell under root that has one.
func markedNameCell(root *html.Node, marker string) *html.Node {
	var found *html.Node
	findFirst(root, func(n *html.Node) bool {
		if !isElement(n, atom.Td) || !hasClass(n, marker) {
			return false
		}
		found = nextSibling(n, isNameCell)
		return found != nil
	})
	return found
}

// nameText returns the trimmed text of a name cell with any parenthesised
// signature suffix removed.
func nameText(n *html.Node) string {
	text := strings.TrimSpace(textContent(n))
	if i := strings.IndexByte(text, '('); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	return text
}

var headingTags = []atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

// findHeading returns the first heading element whose own text is title.
func findHeading(doc *html.Node, title string) *html.Node {
	return findFirst(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, tag := range headingTags {
			if n.DataAtom == tag {
				return ownTextEquals(n, title)
			}
		}
		return false
	})
}
