package httpindex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/loader"
)

const indexPage = `<html><body><h1>Index of /processed_data/</h1>
<a href="../">../</a>
<a href="gpt%204.json">gpt 4.json</a>
<a href="llama.json">llama.json</a>
<a href="/processed_data/llama.json">dup</a>
<a href="notes.txt">notes.txt</a>
<a href="broken.json">broken.json</a>
</body></html>`

func TestParseIndex(t *testing.T) {
	hrefs, err := ParseIndex(strings.NewReader(indexPage))
	if err != nil {
		t.Fatalf("ParseIndex() error = %v", err)
	}
	want := []string{"gpt%204.json", "llama.json", "/processed_data/llama.json", "broken.json"}
	if !reflect.DeepEqual(hrefs, want) {
		t.Fatalf("ParseIndex() = %v, want %v", hrefs, want)
	}
}

func TestSourceLoadsIndexedDocuments(t *testing.T) {
	var authHeaders []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/processed_data/":
			_, _ = w.Write([]byte(indexPage))
		case "/processed_data/gpt 4.json":
			_, _ = w.Write([]byte(`{"score":0.9}`))
		case "/processed_data/llama.json":
			_, _ = w.Write([]byte(`{"score":0.5}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	source, err := New(server.URL+"/processed_data", 0, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	entries, err := loader.New(source, loader.Options{Concurrency: 1}).Load(context.Background(), "secret")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "gpt 4" || entries[1].Name != "llama" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	for _, header := range authHeaders {
		if header != "Bearer secret" {
			t.Fatalf("expected bearer credential on every request, got %q", header)
		}
	}
}

func TestSourceListingFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	source, _ := New(server.URL, 0, nil)
	_, err := loader.New(source, loader.Options{}).Load(context.Background(), "")
	if !domain.IsKind(err, domain.ErrLoadFailed) || !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary load failure, got %v", err)
	}
}
