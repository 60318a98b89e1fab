package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
)

func TestBuildContext(t *testing.T) {
	items := []domain.ContextItem{
		{Content: "Revenue grew 12%.", Source: "/data/q3.pdf", Page: "4"},
		{Content: "name: Alice", Source: "/data/people.csv", Page: domain.UnknownPage},
	}

	want := "Document 1 (Source: /data/q3.pdf, Page: 4):\nRevenue grew 12%." +
		"\n\n---\n\n" +
		"Document 2 (Source: /data/people.csv, Page: Unknown page):\nname: Alice"
	assert.Equal(t, want, BuildContext(items))
}

func TestBuildContext_Empty(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil))
}

func TestBuild(t *testing.T) {
	items := []domain.ContextItem{{Content: "The office opens at 9am.", Source: "https://example.com/hours", Page: domain.UnknownPage}}
	p := Build(items)

	assert.Contains(t, p, `say "I don't have that information in the provided documents"`)
	assert.Contains(t, p, "without markdown")
	assert.Contains(t, p, "answer in points")
	assert.Contains(t, p, "DOCUMENT CONTEXT:\nDocument 1 (Source: https://example.com/hours, Page: Unknown page):\nThe office opens at 9am.\n\nIMPORTANT:")
	assert.True(t, strings.HasSuffix(p, "Do not supplement with outside knowledge."))
}
