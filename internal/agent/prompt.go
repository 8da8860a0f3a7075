package agent

import (
	"fmt"
	"strings"
)

const (
	answerTemplate = "Based on the following context, answer the question.\n\nContext:\n%s\n\nQuestion: %s\n\nAnswer:"

	webAnswerTemplate = "Answer the question using both the context and web results.\n\nContext:\n%s\n\nWeb Results:\n%s\n\nQuestion: %s\n\nAnswer:"
)

// BuildPrompt embeds the retrieved contexts and the question in the local-only template.
func BuildPrompt(question string, contexts []string) string {
	return fmt.Sprintf(answerTemplate, strings.Join(contexts, "\n\n"), question)
}

// BuildWebPrompt adds web snippets to the prompt.
func BuildWebPrompt(question string, contexts, webResults []string) string {
	return fmt.Sprintf(webAnswerTemplate, strings.Join(contexts, "\n\n"), strings.Join(webResults, "\n\n"), question)
}
