package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/loader"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/resilience"
)

const defaultAPIBase = "https://api.github.com"

type Config struct {
	APIBase string
	Owner   string
	Repo    string
	Path    string
	Ref     string

	RequestsPerSecond float64
	Burst             int
	CacheSize         int
	CacheTTL          time.Duration
	Timeout           time.Duration
}

// Source reads documents from a directory of a GitHub repository through the
// contents API. Responses are cached for CacheTTL and every request waits for
// the shared limiter.
type Source struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *expirable.LRU[string, []byte]
	executor   *resilience.Executor
}

type contentItem struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

func New(cfg Config, executor *resilience.Executor) (*Source, error) {
	if strings.TrimSpace(cfg.Owner) == "" || strings.TrimSpace(cfg.Repo) == "" {
		return nil, fmt.Errorf("github owner and repo are required")
	}
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	cfg.Path = strings.Trim(cfg.Path, "/")
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Source{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cache:      expirable.NewLRU[string, []byte](cfg.CacheSize, nil, cfg.CacheTTL),
		executor:   executor,
	}, nil
}

func (s *Source) Kind() string { return "github" }

func (s *Source) List(ctx context.Context, credential string) ([]loader.Ref, error) {
	raw, err := s.get(ctx, "github.list", s.contentsURL(), credential)
	if err != nil {
		return nil, err
	}
	var items []contentItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode github listing: %w", err)
	}
	refs := make([]loader.Ref, 0, len(items))
	for _, item := range items {
		if item.Type != "file" || item.DownloadURL == "" {
			continue
		}
		name, ok := loader.ModelName(item.Name)
		if !ok {
			continue
		}
		refs = append(refs, loader.Ref{Name: name, Location: item.DownloadURL})
	}
	return refs, nil
}

func (s *Source) Fetch(ctx context.Context, credential string, ref loader.Ref) ([]byte, error) {
	return s.get(ctx, "github.fetch", ref.Location, credential)
}

func (s *Source) contentsURL() string {
	target := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		s.cfg.APIBase, url.PathEscape(s.cfg.Owner), url.PathEscape(s.cfg.Repo), s.cfg.Path)
	if s.cfg.Ref != "" {
		target += "?ref=" + url.QueryEscape(s.cfg.Ref)
	}
	return target
}

func (s *Source) get(ctx context.Context, operation, target, credential string) ([]byte, error) {
	key := cacheKey(target, credential)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	call := func(ctx context.Context) ([]byte, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		if credential != "" {
			req.Header.Set("Authorization", "token "+credential)
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

	var (
		raw []byte
		err error
	)
	if s.executor == nil {
		raw, err = call(ctx)
	} else {
		raw, err = resilience.Call(ctx, s.executor, operation, resilience.DomainClassifier, call)
	}
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, raw)
	return raw, nil
}

// cacheKey separates anonymous and authenticated views of private content.
func cacheKey(target, credential string) string {
	if credential == "" {
		return "anon " + target
	}
	return "auth " + target
}
