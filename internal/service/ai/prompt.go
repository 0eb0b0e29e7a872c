package ai

import (
	"strings"

	"github.com/mungunsi/medichat/internal/model/document"
)

const systemPrompt = "You are a medical assistant for question-answering tasks. " +
	"Use the following pieces of retrieved context to answer the question. " +
	"If you don't know the answer, say that you don't know. " +
	"Use three sentences maximum and keep the answer concise."

// BuildSystemPrompt stuffs the retrieved chunks under the fixed instruction,
// one block per chunk.
func BuildSystemPrompt(results []document.SearchResult) string {
	var builder strings.Builder
	builder.WriteString(systemPrompt)

	if len(results) == 0 {
		builder.WriteString("\n\nNo context was retrieved for this question.")
		return builder.String()
	}

	builder.WriteString("\n\nContext:")
	for _, result := range results {
		builder.WriteString("\n\n")
		builder.WriteString(result.Chunk.Text)
	}
	return builder.String()
}
