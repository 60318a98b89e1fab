// Package prompt assembles the system prompt that grounds the chat model
// in retrieved document context.
package prompt

import (
	"fmt"
	"strings"

	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
)

// FallbackAnswer is the sentence the model must use when the context does
// not contain the answer.
const FallbackAnswer = "I don't have that information in the provided documents"

const separator = "\n\n---\n\n"

const template = `You are a document-based Q&A assistant. You must answer STRICTLY based on the provided context from the uploaded documents.

CRITICAL RULES:
- Use ONLY the exact information provided in the context below
- If the context doesn't contain the answer, say "%s"
- Quote or reference specific details from the context when possible, including the page number
- Write in plain text without markdown, asterisks, or special formatting
- If the answer is naturally a list of items or steps, answer in points

DOCUMENT CONTEXT:
%s

IMPORTANT: Base your answer exclusively on the above context. Do not supplement with outside knowledge.`

// BuildContext renders context items in retrieval order, numbered from 1.
func BuildContext(items []domain.ContextItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("Document %d (Source: %s, Page: %s):\n%s", i+1, it.Source, it.Page, it.Content)
	}
	return strings.Join(parts, separator)
}

// Build wraps the rendered context in the answering instructions.
func Build(items []domain.ContextItem) string {
	return fmt.Sprintf(template, FallbackAnswer, BuildContext(items))
}
