package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

func mustDoc(raw string) *domain.Node {
	node, err := domain.ParseDocument([]byte(raw))
	if err != nil {
		panic(err)
	}
	return node
}

type loaderFake struct {
	entries     []domain.ModelEntry
	err         error
	calls       int
	credentials []string
}

func (f *loaderFake) Load(_ context.Context, credential string) ([]domain.ModelEntry, error) {
	f.calls++
	f.credentials = append(f.credentials, credential)
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

type credentialFake struct {
	value  string
	getErr error
	setErr error
}

func (f *credentialFake) Get(context.Context) (string, error) { return f.value, f.getErr }

func (f *credentialFake) Set(_ context.Context, credential string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.value = credential
	return nil
}

func (f *credentialFake) Clear(context.Context) error {
	f.value = ""
	return nil
}

type eventsFake struct {
	events []domain.Event
}

func (f *eventsFake) Publish(_ context.Context, event domain.Event) error {
	f.events = append(f.events, event)
	return nil
}

type taxonomyFake struct {
	root  *domain.CategoryNode
	err   error
	calls int
}

func (f *taxonomyFake) Load(context.Context) (*domain.CategoryNode, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.root, nil
}

func sampleTaxonomy() *domain.CategoryNode {
	return &domain.CategoryNode{
		Name: "All",
		Key:  "all",
		Children: []*domain.CategoryNode{
			{Name: "Mathematics", Key: "math", Children: []*domain.CategoryNode{{Name: "Algebra", Key: "algebra"}}},
			{Name: "Coding", Key: "code"},
		},
	}
}

type sessionStoreFake[S any] struct {
	mu    sync.Mutex
	items map[string]S
	saves int
}

func newSessionStoreFake[S any]() *sessionStoreFake[S] {
	return &sessionStoreFake[S]{items: make(map[string]S)}
}

func (f *sessionStoreFake[S]) Get(id string) (S, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	return item, ok
}

func (f *sessionStoreFake[S]) Save(id string, session S) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[id] = session
	f.saves++
}

func (f *sessionStoreFake[S]) Delete(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
}

func (f *sessionStoreFake[S]) Each(fn func(string, S)) {
	f.mu.Lock()
	items := make(map[string]S, len(f.items))
	for id, item := range f.items {
		items[id] = item
	}
	f.mu.Unlock()
	for id, item := range items {
		fn(id, item)
	}
}

type storageFake struct {
	mu      sync.Mutex
	objects map[string]string
	openErr map[string]error
}

func newStorageFake(objects map[string]string) *storageFake {
	if objects == nil {
		objects = make(map[string]string)
	}
	return &storageFake{objects: objects, openErr: make(map[string]error)}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = string(raw)
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.openErr[key]; err != nil {
		return nil, err
	}
	raw, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader([]byte(raw))), nil
}

func (f *storageFake) List(_ context.Context, suffix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for key := range f.objects {
		if strings.HasSuffix(key, suffix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

type notifierFake struct {
	published []int
	err       error
}

func (f *notifierFake) PublishDocumentsUpdated(_ context.Context, models int) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, models)
	return nil
}

func (f *notifierFake) SubscribeDocumentsUpdated(context.Context, func(context.Context) error) error {
	return nil
}
