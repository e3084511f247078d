package extract

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Pairs is a label → value map harvested from the host's detail tables.
type Pairs map[string]string

// Labels the host's structured table uses for the authoritative name fields.
const (
	labelName     = "Name"
	labelNickname = "Name Preference"
)

// Clean filters a raw harvested map: a pair survives only when both label
// and value are non-empty after trimming and the value is not the literal
// "-" the host renders for blank fields.
func Clean(raw map[string]string) Pairs {
	p := make(Pairs, len(raw))
	for label, value := range raw {
		label = strings.TrimSpace(label)
		value = strings.TrimSpace(value)
		if label == "" || value == "" || value == "-" {
			continue
		}
		p[label] = value
	}
	return p
}

// ApplyAuthoritative overrides a free-text name parse with the structured
// table's "Name" / "Name Preference" entries when present. The host renders
// the same information in two places with different markup stability; the
// table is the more reliable source when both exist.
func ApplyAuthoritative(n Name, p Pairs) Name {
	if v, ok := p[labelName]; ok {
		n.First, n.Last = SplitName(v)
	}
	if v, ok := p[labelNickname]; ok {
		n.Nick = v
	}
	return n
}

// HarvestPairs walks an HTML fragment and collects label/value pairs from
// every element carrying containerClass: the label is the text of the first
// descendant with labelClass, the value the first with valueClass. Values
// pass through Plain so nested markup never leaks into a harvested field.
// The same emptiness and "-" filtering as Clean applies. Later containers
// overwrite earlier ones sharing a label (last-write-wins in document order).
func HarvestPairs(fragment []byte, containerClass, labelClass, valueClass string) (Pairs, error) {
	root, err := html.Parse(strings.NewReader(string(fragment)))
	if err != nil {
		return nil, fmt.Errorf("extract: parse fragment: %w", err)
	}

	raw := make(map[string]string)
	for _, container := range findByClass(root, containerClass) {
		label := nodeText(firstByClass(container, labelClass))
		value := Plain(innerMarkup(firstByClass(container, valueClass)))
		if label == "" || value == "" || value == "-" {
			continue
		}
		raw[label] = value
	}
	return Clean(raw), nil
}

// innerMarkup serializes a node's children back to HTML so the value can
// be sanitized as markup rather than flattened as text.
func innerMarkup(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return nodeText(n)
		}
	}
	return b.String()
}

var stripPolicy = bluemonday.StrictPolicy()

// Plain strips any markup the host nests inside a harvested value and
// collapses the surrounding whitespace.
func Plain(fragment string) string {
	return strings.Join(strings.Fields(stdhtml.UnescapeString(stripPolicy.Sanitize(fragment))), " ")
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func findByClass(n *html.Node, class string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if hasClass(node, class) {
			out = append(out, node)
			return // containers do not nest in the observed markup
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func firstByClass(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasClass(c, class) {
			return c
		}
		if found := firstByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
