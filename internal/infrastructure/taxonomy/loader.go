package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/loader"
)

const maxTaxonomyBytes = 8 << 20

// Loader reads the category tree from a local file or an http(s) URL.
// Files ending in .yaml or .yml are decoded as YAML, anything else as JSON.
type Loader struct {
	location string
	client   *http.Client
}

func New(location string, timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Loader{
		location: strings.TrimSpace(location),
		client:   &http.Client{Timeout: timeout},
	}
}

func (l *Loader) Load(ctx context.Context) (*domain.CategoryNode, error) {
	if l.location == "" {
		return nil, errors.New("taxonomy location is not configured")
	}
	raw, name, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	root, err := Decode(raw, name)
	if err != nil {
		return nil, fmt.Errorf("decode taxonomy %s: %w", l.location, err)
	}
	return root, nil
}

func (l *Loader) read(ctx context.Context) ([]byte, string, error) {
	if !isRemote(l.location) {
		raw, err := os.ReadFile(l.location)
		if err != nil {
			return nil, "", fmt.Errorf("read taxonomy file: %w", err)
		}
		return raw, l.location, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.location, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build taxonomy request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", loader.TransportError("fetch taxonomy", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", loader.StatusError("fetch taxonomy", resp)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTaxonomyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read taxonomy response: %w", err)
	}
	name := req.URL.Path
	if strings.Contains(resp.Header.Get("Content-Type"), "yaml") {
		name = "taxonomy.yaml"
	}
	return raw, name, nil
}

// Decode parses a taxonomy document. The format follows the extension of name.
func Decode(raw []byte, name string) (*domain.CategoryNode, error) {
	var root domain.CategoryNode
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &root); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(raw, &root); err != nil {
			return nil, err
		}
	}
	if root.Key == "" && root.Name == "" && len(root.Children) == 0 {
		return nil, errors.New("taxonomy is empty")
	}
	return &root, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
