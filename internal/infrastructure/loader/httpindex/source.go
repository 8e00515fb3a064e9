package httpindex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/loader"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/resilience"
)

// Source reads documents from a static web server that serves a directory
// index page with links to the *.json files.
type Source struct {
	base       *url.URL
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, timeout time.Duration, executor *resilience.Executor) (*Source, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid index url %q", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Source{
		base:       base,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}, nil
}

func (s *Source) Kind() string { return "httpindex" }

func (s *Source) List(ctx context.Context, credential string) ([]loader.Ref, error) {
	raw, err := s.get(ctx, "index.list", s.base.String(), credential)
	if err != nil {
		return nil, err
	}
	hrefs, err := ParseIndex(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse directory index: %w", err)
	}

	seen := make(map[string]struct{}, len(hrefs))
	refs := make([]loader.Ref, 0, len(hrefs))
	for _, href := range hrefs {
		target, err := s.base.Parse(href)
		if err != nil {
			continue
		}
		name, ok := loader.ModelName(path.Base(target.Path))
		if !ok {
			continue
		}
		if _, dup := seen[target.String()]; dup {
			continue
		}
		seen[target.String()] = struct{}{}
		refs = append(refs, loader.Ref{Name: name, Location: target.String()})
	}
	return refs, nil
}

func (s *Source) Fetch(ctx context.Context, credential string, ref loader.Ref) ([]byte, error) {
	return s.get(ctx, "index.fetch", ref.Location, credential)
}

func (s *Source) get(ctx context.Context, operation, target, credential string) ([]byte, error) {
	call := func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("create %s request: %w", operation, err)
		}
		if credential != "" {
			req.Header.Set("Authorization", "Bearer "+credential)
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, loader.TransportError(operation, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return nil, loader.StatusError(operation, resp)
		}
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, loader.TransportError(operation, err)
		}
		return raw, nil
	}
	if s.executor == nil {
		return call(ctx)
	}
	return resilience.Call(ctx, s.executor, operation, resilience.DomainClassifier, call)
}

// ParseIndex returns the href of every anchor ending in .json, in page order.
func ParseIndex(r io.Reader) ([]string, error) {
	tokenizer := html.NewTokenizer(r)
	var hrefs []string
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return nil, err
			}
			return hrefs, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, value, more := tokenizer.TagAttr()
				if string(key) == "href" {
					href := string(value)
					if strings.HasSuffix(strings.SplitN(href, "?", 2)[0], ".json") {
						hrefs = append(hrefs, href)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}
