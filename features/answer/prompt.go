package answer

import "fmt"

const promptTemplate = `You are an intelligent query-retrieval system.
Answer the question using only the document excerpt below.
If the excerpt does not contain enough information to answer the question, say so explicitly.

Document Excerpt:
%s

Question:
%s

Provide a concise answer.`

// BuildPrompt grounds question on excerpt. Both are inserted verbatim.
func BuildPrompt(excerpt, question string) string {
	return fmt.Sprintf(promptTemplate, excerpt, question)
}
