package retrieval

import (
	"fmt"
	"strings"

	"letrado/internal/types"
)

// BuildContext formats retrieved passages into a single prompt-context
// block and extracts the parallel citation list. Pure and
// deterministic: the citation list has identical length and order to
// the input ranking. An empty passage list yields an empty context and
// an empty citation list; the caller proceeds and instructs the model
// to mark missing evidence instead of failing.
func BuildContext(passages []types.Passage) (string, []types.Citation) {
	citations := make([]types.Citation, 0, len(passages))
	if len(passages) == 0 {
		return "", citations
	}

	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}

		title := strings.TrimSpace(p.Title)
		if title == "" {
			title = fmt.Sprintf("Fuente %d", i+1)
		}
		fmt.Fprintf(&b, "### %s\n", title)
		b.WriteString(strings.TrimSpace(p.Text))
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s", formatSourceRef(p))

		citations = append(citations, types.CitationOf(p))
	}

	return b.String(), citations
}

// formatSourceRef renders the markdown-style provenance line appended
// to each passage.
func formatSourceRef(p types.Passage) string {
	if p.URL != "" {
		return fmt.Sprintf("*[%s](%s)*", p.Source, p.URL)
	}
	return fmt.Sprintf("*(%s)*", p.Source)
}
