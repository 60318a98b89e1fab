package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
)

// crawl fetches root and follows same-host links breadth-first up to
// MaxDepth hops. Each URL is fetched at most once. Only a root failure is
// fatal.
func (l *Loader) crawl(ctx context.Context, root string) ([]domain.Fragment, error) {
	base, err := url.Parse(root)
	if err != nil {
		return nil, domain.NewError(domain.ErrInvalidURL, "load", err)
	}
	if base.Host == "" {
		return nil, domain.NewError(domain.ErrInvalidURL, "load", fmt.Errorf("%q has no host", root))
	}
	base.Fragment = ""

	limiter := rate.NewLimiter(rate.Limit(l.opts.RequestsPerSecond), 1)
	rootPage, err := l.fetch(ctx, limiter, base.String())
	if err != nil {
		return nil, err
	}

	var frags []domain.Fragment
	add := func(loc string, p page) {
		if strings.TrimSpace(p.Text) == "" {
			return
		}
		frags = append(frags, domain.Fragment{
			Content:        p.Text,
			SourceType:     domain.SourceURL,
			SourceLocation: loc,
		})
	}
	add(base.String(), rootPage)

	seen := map[string]bool{base.String(): true}
	frontier := l.childLinks(base, rootPage.Links, seen)
	for depth := 1; depth <= l.opts.MaxDepth && len(frontier) > 0; depth++ {
		var next []*url.URL
		for _, u := range frontier {
			p, err := l.fetch(ctx, limiter, u.String())
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				l.log.WithFields(logrus.Fields{"url": u.String(), "error": err}).Warn("skipping link")
				continue
			}
			add(u.String(), p)
			if depth < l.opts.MaxDepth {
				next = append(next, l.childLinks(u, p.Links, seen)...)
			}
		}
		frontier = next
	}
	return frags, nil
}

// childLinks resolves hrefs against from and returns unseen same-host
// http(s) URLs that are not excluded. It marks the returned URLs as seen.
func (l *Loader) childLinks(from *url.URL, hrefs []string, seen map[string]bool) []*url.URL {
	var out []*url.URL
	for _, h := range hrefs {
		ref, err := url.Parse(strings.TrimSpace(h))
		if err != nil {
			continue
		}
		u := from.ResolveReference(ref)
		u.Fragment = ""
		if u.Scheme != "http" && u.Scheme != "https" {
			continue
		}
		if !strings.EqualFold(u.Host, from.Host) || l.excluded(u.Path) {
			continue
		}
		key := u.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, u)
	}
	return out
}

func (l *Loader) excluded(path string) bool {
	for _, dir := range l.opts.ExcludeDirs {
		if dir != "" && strings.Contains(path, dir) {
			return true
		}
	}
	return false
}

// fetch GETs one page, waiting on the crawl's limiter first.
func (l *Loader) fetch(ctx context.Context, limiter *rate.Limiter, target string) (page, error) {
	if err := limiter.Wait(ctx); err != nil {
		return page{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return page{}, err
	}
	req.Header.Set("Accept", "text/html,text/plain;q=0.9")
	resp, err := l.opts.Client.Do(req)
	if err != nil {
		return page{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return page{}, fmt.Errorf("GET %s failed: %s", target, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.opts.MaxPageBytes))
	if err != nil {
		return page{}, err
	}

	mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case mt == "text/html" || mt == "application/xhtml+xml" || (mt == "" && looksLikeHTML(body)):
		return parsePage(bytes.NewReader(body), l.opts.WrapWidth)
	case mt == "text/plain":
		return page{Text: tidyLines(string(body))}, nil
	default:
		return page{}, fmt.Errorf("unsupported content type %q", mt)
	}
}

func looksLikeHTML(b []byte) bool {
	return strings.Contains(http.DetectContentType(b), "text/html")
}
