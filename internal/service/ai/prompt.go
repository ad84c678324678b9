package ai

import (
	"fmt"
	"strings"

	"github.com/docchat-dev/docchat/internal/model/document"
)

const (
	documentStartMarker = "--- DOCUMENT START ---"
	documentEndMarker   = "--- DOCUMENT END ---"
)

// BuildSystemPrompt produces the grounding instruction: the entire
// extracted document verbatim between sentinel markers, plus the fixed
// behavioral guidelines. The result never embeds conversation history;
// history is passed as separate ordered messages after it.
func BuildSystemPrompt(doc document.Document) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful assistant. Answer questions based ONLY on the document below.\n\n")
	fmt.Fprintf(&sb, "Document name: %s\n", doc.Name)
	fmt.Fprintf(&sb, "Document kind: %s\n\n", doc.Kind)
	sb.WriteString(documentStartMarker)
	sb.WriteByte('\n')
	sb.WriteString(doc.Content)
	sb.WriteByte('\n')
	sb.WriteString(documentEndMarker)
	sb.WriteString("\n\nGuidelines:\n")
	sb.WriteString("- Answer only from the document content.\n")
	sb.WriteString("- If the answer is not in the document, say so explicitly.\n")
	sb.WriteString("- Decline requests unrelated to the document.\n")
	sb.WriteString("- Be concise.")

	return sb.String()
}
