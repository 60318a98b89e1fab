package loader

import (
	"io"
	"strings"
	"unicode"

	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// page is the result of parsing one HTML document.
type page struct {
	Text  string
	Links []string
}

var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Img:      true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Template: true,
}

var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Tr: true, atom.Table: true, atom.Section: true, atom.Article: true, atom.Header: true,
	atom.Footer: true, atom.Nav: true, atom.Main: true, atom.Aside: true, atom.Pre: true,
	atom.Blockquote: true, atom.Hr: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
}

// parsePage extracts readable text and raw href values. Anchor targets are
// kept as links only; they never appear in the text.
func parsePage(r io.Reader, width int) (page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return page{}, err
	}

	var (
		b     strings.Builder
		links []string
		space bool
	)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if n.Data == "" {
				return
			}
			if startsWithSpace(n.Data) {
				space = true
			}
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				if space && b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteByte(' ')
				}
				b.WriteString(t)
				space = endsWithSpace(n.Data)
			}
			return
		case html.ElementNode:
			if skipped[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.A {
				for _, a := range n.Attr {
					if a.Key == "href" && a.Val != "" {
						links = append(links, a.Val)
					}
				}
			}
			if n.DataAtom == atom.Td || n.DataAtom == atom.Th {
				b.WriteByte('\t')
			}
		}
		block := n.Type == html.ElementNode && blocks[n.DataAtom]
		if block {
			b.WriteByte('\n')
			space = false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
			space = false
		}
	}
	walk(doc)

	return page{Text: wordwrap.String(tidyLines(b.String()), width), Links: links}, nil
}

func startsWithSpace(s string) bool {
	return strings.TrimLeftFunc(s, unicode.IsSpace) != s
}

func endsWithSpace(s string) bool {
	return strings.TrimRightFunc(s, unicode.IsSpace) != s
}

// tidyLines trims every line and keeps at most one blank line between
// paragraphs.
func tidyLines(s string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
