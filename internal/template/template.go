// Package template holds the document templates letrado fills with
// model output: a small {{identifier}} language compiled at load time
// into literal/placeholder node lists, a registry of built-in
// templates per document type, and the citation list renderer behind
// the reserved {{citas}} placeholder.
package template

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"letrado/internal/types"
)

// CitationsField is the reserved placeholder name. It is filled from
// the retrieval citations, never from model-generated fields.
const CitationsField = "citas"

var placeholderRe = regexp.MustCompile(`\{\{([a-z_]+)\}\}`)

type nodeKind int

const (
	nodeLiteral nodeKind = iota
	nodePlaceholder
)

type node struct {
	kind nodeKind
	text string // literal text, or the placeholder identifier
}

// Template is a compiled document template. Compilation happens once
// at load; filling walks the node list, so a field value that itself
// contains "{{" is emitted verbatim and never re-scanned.
type Template struct {
	Name  string
	nodes []node
	// field set minus the reserved citations placeholder
	fields []string
}

// Compile parses raw template text. Identifiers are [a-z_]+; anything
// else between braces is treated as literal text.
func Compile(name, raw string) (*Template, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("template %q is empty", name)
	}

	t := &Template{Name: name}
	seen := make(map[string]bool)

	pos := 0
	for _, m := range placeholderRe.FindAllStringSubmatchIndex(raw, -1) {
		if m[0] > pos {
			t.nodes = append(t.nodes, node{kind: nodeLiteral, text: raw[pos:m[0]]})
		}
		ident := raw[m[2]:m[3]]
		t.nodes = append(t.nodes, node{kind: nodePlaceholder, text: ident})
		if ident != CitationsField && !seen[ident] {
			seen[ident] = true
			t.fields = append(t.fields, ident)
		}
		pos = m[1]
	}
	if pos < len(raw) {
		t.nodes = append(t.nodes, node{kind: nodeLiteral, text: raw[pos:]})
	}

	sort.Strings(t.fields)
	return t, nil
}

// Fields returns the placeholder names the model must produce, sorted,
// excluding the reserved citations placeholder. Repeated placeholders
// appear once.
func (t *Template) Fields() []string {
	out := make([]string, len(t.fields))
	copy(out, t.fields)
	return out
}

// Fill substitutes every placeholder occurrence. Missing fields become
// the empty string. The citations placeholder is rendered from the
// citation list. The result contains no residual placeholder tokens
// for any known identifier, and re-filling the output is a no-op
// because substitution never rescans substituted values.
func (t *Template) Fill(fields types.GeneratedFields, citations []types.Citation) string {
	var b strings.Builder
	for _, n := range t.nodes {
		switch n.kind {
		case nodeLiteral:
			b.WriteString(n.text)
		case nodePlaceholder:
			if n.text == CitationsField {
				b.WriteString(RenderCitations(citations))
				continue
			}
			b.WriteString(fields[n.text])
		}
	}
	return b.String()
}

// RenderCitations renders citations as a markdown bullet list, one
// line per citation in ranking order. Empty components are omitted;
// an empty list renders a single placeholder line so the section is
// never blank.
func RenderCitations(citations []types.Citation) string {
	if len(citations) == 0 {
		return "_(sin fuentes recuperadas)_"
	}

	lines := make([]string, 0, len(citations))
	for _, c := range citations {
		parts := make([]string, 0, 3)
		if s := strings.TrimSpace(c.Title); s != "" {
			parts = append(parts, s)
		}
		if c.Source != "" {
			parts = append(parts, fmt.Sprintf("(%s)", c.Source))
		}
		if s := strings.TrimSpace(c.URL); s != "" {
			parts = append(parts, s)
		}
		lines = append(lines, "- "+strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}
