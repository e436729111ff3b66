package ai

import "strings"

// UserPrompt renders retrieved context and a question into the user message
// sent to a Generator.
func UserPrompt(contextText, question string) string {
	var sb strings.Builder
	sb.Grow(len(contextText) + len(question) + 24)
	sb.WriteString("Context:\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\nQuestion:\n")
	sb.WriteString(question)
	return sb.String()
}
