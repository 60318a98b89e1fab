package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
)

// loadCSV emits one fragment per data row. The first row is the header;
// each fragment holds "header: value" lines in column order.
func loadCSV(ctx context.Context, path string) ([]domain.Fragment, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(ctx, f, abs)
}

func readCSV(ctx context.Context, r io.Reader, source string) ([]domain.Fragment, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var frags []domain.Fragment
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(frags)+1, err)
		}
		lines := make([]string, 0, len(rec))
		for i, v := range rec {
			name := fmt.Sprintf("column%d", i+1)
			if i < len(header) && header[i] != "" {
				name = header[i]
			}
			lines = append(lines, name+": "+strings.TrimSpace(v))
		}
		frags = append(frags, domain.Fragment{
			Content:        strings.Join(lines, "\n"),
			SourceType:     domain.SourceCSV,
			SourceLocation: source,
		})
	}
	return frags, nil
}
