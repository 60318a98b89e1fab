package domain

import (
	"fmt"
	"strconv"
)

// SourceType tags the kind of input a fragment was loaded from.
type SourceType string

const (
	SourcePDF SourceType = "pdf"
	SourceCSV SourceType = "csv"
	SourceURL SourceType = "url"
)

// ParseSourceType validates a type tag supplied by a caller. Tags are
// matched exactly: "PDF" or " csv " are rejected.
func ParseSourceType(s string) (SourceType, error) {
	switch t := SourceType(s); t {
	case SourcePDF, SourceCSV, SourceURL:
		return t, nil
	default:
		return "", NewError(ErrUnsupportedType, "parse type", fmt.Errorf("got %q, use pdf, csv, or url", s))
	}
}

// Fragment is one unit of loaded content: a PDF page, a CSV row or the
// text of one crawled web page.
type Fragment struct {
	Content        string
	SourceType     SourceType
	SourceLocation string
	// PageNumber is 1-based; zero means the source is not paginated.
	PageNumber int
}

// HasPage reports whether the fragment carries a page number.
func (f Fragment) HasPage() bool { return f.PageNumber > 0 }

// SearchResult represents a matching fragment with a relevance score.
type SearchResult struct {
	Fragment Fragment
	Score    float64
}

const (
	UnknownSource = "Unknown source"
	UnknownPage   = "Unknown page"
)

// ContextItem is a retrieved fragment prepared for prompt assembly.
type ContextItem struct {
	Content string
	Source  string
	Page    string
	Score   float64
}

// ContextItemFrom maps a search hit, filling in labels for missing metadata.
func ContextItemFrom(r SearchResult) ContextItem {
	item := ContextItem{
		Content: r.Fragment.Content,
		Source:  r.Fragment.SourceLocation,
		Page:    UnknownPage,
		Score:   r.Score,
	}
	if item.Source == "" {
		item.Source = UnknownSource
	}
	if r.Fragment.HasPage() {
		item.Page = strconv.Itoa(r.Fragment.PageNumber)
	}
	return item
}

// IndexResult summarises one indexing run.
type IndexResult struct {
	Success           bool       `json:"success"`
	Type              SourceType `json:"type"`
	Input             string     `json:"input"`
	DocumentsCount    int        `json:"documentsCount"`
	OriginalDocsCount int        `json:"originalDocsCount"`
}
