// Package answer calls the chat model and strips markdown from its reply.
package answer

import (
	"context"
	"regexp"
	"strings"

	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
)

// Generator produces plain-text answers from a chat model.
type Generator struct {
	model domain.ChatModel
}

// NewGenerator returns a Generator backed by model.
func NewGenerator(model domain.ChatModel) *Generator {
	return &Generator{model: model}
}

// Generate asks the model to answer query under the given system prompt and
// returns the cleaned reply. Failures are not retried.
func (g *Generator) Generate(ctx context.Context, system, query string) (string, error) {
	raw, err := g.model.Complete(ctx, system, query)
	if err != nil {
		return "", domain.NewError(domain.ErrGeneration, "generate", err)
	}
	return Clean(raw), nil
}

// Applied in order.
var cleanups = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "$1"},
	{regexp.MustCompile(`\*(.*?)\*`), "$1"},
	{regexp.MustCompile("`(.*?)`"), "$1"},
	{regexp.MustCompile(`#{1,6}\s`), ""},
	{regexp.MustCompile(`(?m)^\s*[*\-+]\s`), ""},
	{regexp.MustCompile(`(?m)^\s*\d+\.\s`), ""},
}

// Clean removes bold, italic, inline code, heading and list markers.
func Clean(s string) string {
	for _, c := range cleanups {
		s = c.re.ReplaceAllString(s, c.repl)
	}
	return strings.TrimSpace(s)
}
