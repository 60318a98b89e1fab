package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
)

// loadPDF emits one fragment per page that has extractable text.
// Page numbers start at 1.
func loadPDF(ctx context.Context, path string) ([]domain.Fragment, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, r, err := pdf.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var frags []domain.Fragment
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		frags = append(frags, domain.Fragment{
			Content:        text,
			SourceType:     domain.SourcePDF,
			SourceLocation: abs,
			PageNumber:     i,
		})
	}
	return frags, nil
}
