// Package sanitizer normalizes loaded fragments before they are embedded.
package sanitizer

import (
	"strings"
	"unicode/utf8"

	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
)

const (
	// MinLength is the shortest content, in runes, that is kept.
	MinLength = 10
	// MaxLength is the longest content, in runes, that is kept. Longer
	// content is cut so that content plus TruncationMarker is MaxLength.
	MaxLength = 8000
	// TruncationMarker ends every truncated fragment.
	TruncationMarker = "..."
)

// Sanitize cleans f.Content and reports whether the fragment should be kept.
// Metadata is passed through unchanged.
func Sanitize(f domain.Fragment) (domain.Fragment, bool) {
	text := clean(f.Content)

	n := utf8.RuneCountInString(text)
	if n < MinLength {
		return domain.Fragment{}, false
	}
	if n > MaxLength {
		text = truncate(text, MaxLength-utf8.RuneCountInString(TruncationMarker)) + TruncationMarker
	}

	f.Content = text
	return f, true
}

// SanitizeAll sanitizes every fragment, preserving order and dropping rejects.
func SanitizeAll(fragments []domain.Fragment) []domain.Fragment {
	out := make([]domain.Fragment, 0, len(fragments))
	for _, f := range fragments {
		if s, ok := Sanitize(f); ok {
			out = append(out, s)
		}
	}
	return out
}

func clean(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n', r == '\r', r == '\t':
			return r
		case r < 0x20, r == 0x7f:
			return -1
		}
		return r
	}, s)
	// Fields splits on any Unicode whitespace run and drops the ends.
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, runes int) string {
	i := 0
	for pos := range s {
		if i == runes {
			return s[:pos]
		}
		i++
	}
	return s
}
