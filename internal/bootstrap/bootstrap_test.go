package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirillkom/eval-tree-viewer/internal/config"
	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
	"github.com/kirillkom/eval-tree-viewer/internal/observability/metrics"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "models")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, body := range map[string]string{
		"alpha.json": `{"score":0.4,"math":{"score":0.3,"ranking":2}}`,
		"beta.json":  `{"score":0.9,"math":{"score":0.8,"ranking":1}}`,
	} {
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	taxonomyFile := filepath.Join(root, "cata_tree.json")
	if err := os.WriteFile(taxonomyFile, []byte(`{"name":"All","key":"root","children":[{"name":"Math","key":"math"}]}`), 0o644); err != nil {
		t.Fatalf("write taxonomy: %v", err)
	}

	return config.Config{
		DocumentSource:       SourceFS,
		DataDir:              dataDir,
		StoragePath:          filepath.Join(root, "storage"),
		TaxonomyLocation:     taxonomyFile,
		LoadConcurrency:      2,
		LoadTimeout:          time.Minute,
		DefaultSelectionSize: 4,
		ScrollGuardDelay:     time.Millisecond,
		SessionTTL:           time.Minute,
	}
}

func TestNewWiresFilesystemViewer(t *testing.T) {
	cfg := testConfig(t)
	app, err := New(context.Background(), cfg, nil, metrics.NewHTTPServerMetrics(APIService))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	snapshot, err := app.Sessions.Create(context.Background())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(snapshot.Selected) != 0 {
		t.Fatalf("expected empty selection before load, got %v", snapshot.Selected)
	}

	if err := app.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if app.Loads.Status().Status != domain.LoadReady || app.Store.Len() != 2 {
		t.Fatalf("unexpected load state %+v", app.Loads.Status())
	}

	snapshot, err = app.Sessions.Snapshot(context.Background(), snapshot.ID, "")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snapshot.Selected) != 2 || snapshot.Selected[0] != "beta" {
		t.Fatalf("expected session seeded by score after load, got %v", snapshot.Selected)
	}

	columns := app.Rankings.Rankings(context.Background(), []string{"math"})
	if len(columns) != 1 || columns[0].Label != "Math" || columns[0].Entries[0].Model != "beta" {
		t.Fatalf("unexpected ranking columns %+v", columns)
	}
}

func TestNewSourceRejectsUnknownKind(t *testing.T) {
	cfg := testConfig(t)
	cfg.DocumentSource = "ftp"
	if _, closeFn, err := NewSource(context.Background(), cfg, nil); err == nil || closeFn == nil {
		t.Fatalf("expected error and non-nil close function, got err=%v", err)
	}
}

func TestSourceResilienceMapsSettings(t *testing.T) {
	cfg := config.Config{
		SourceRetryMaxAttempts:    5,
		SourceRetryInitialBackoff: time.Second,
		SourceBreakerEnabled:      false,
		SourceBreakerMinRequests:  9,
	}
	got := SourceResilience(cfg)
	if got.MaxAttempts != 5 || got.InitialBackoff != time.Second || got.BreakerEnabled || got.BreakerMinRequests != 9 {
		t.Fatalf("unexpected resilience config %+v", got)
	}
}

func TestWorkerRunOnceWritesDocuments(t *testing.T) {
	root := t.TempDir()
	cfg := config.Config{
		WorkerInputDir:    filepath.Join(root, "raw"),
		WorkerOutputDir:   filepath.Join(root, "models"),
		WorkerTemplateKey: "template.json",
		WorkerConcurrency: 2,
	}
	w, err := NewWorker(context.Background(), cfg, nil, metrics.NewWorkerMetrics(WorkerService))
	if err != nil {
		t.Fatalf("NewWorker() error = %v", err)
	}
	defer w.Close()

	files := map[string]string{
		"template.json": `{"math":{"algebra":{}}}`,
		"alpha.jsonl":   `{"id":"q1","score":80,"meta_data":{"domain":"math","type_tags":{"t":["algebra"]}}}` + "\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(cfg.WorkerInputDir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	result, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(result.Models) != 1 || result.Models[0] != "alpha" {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := os.Stat(filepath.Join(cfg.WorkerOutputDir, "alpha.json")); err != nil {
		t.Fatalf("expected processed document: %v", err)
	}
}
