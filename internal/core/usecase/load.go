package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
	"github.com/kirillkom/eval-tree-viewer/internal/core/ports"
	"github.com/kirillkom/eval-tree-viewer/internal/core/viewer"
)

// LoadListener is told about every finished load attempt.
type LoadListener func(ctx context.Context, state domain.LoadState, err error)

type LoadUseCase struct {
	loader      ports.DocumentLoader
	credentials ports.CredentialStore
	store       *viewer.Store
	events      ports.EventPublisher
	now         func() time.Time

	mu        sync.Mutex
	state     domain.LoadState
	listeners []LoadListener
}

func NewLoadUseCase(
	loader ports.DocumentLoader,
	credentials ports.CredentialStore,
	store *viewer.Store,
	events ports.EventPublisher,
) *LoadUseCase {
	return &LoadUseCase{
		loader:      loader,
		credentials: credentials,
		store:       store,
		events:      events,
		now:         func() time.Time { return time.Now().UTC() },
		state:       domain.LoadState{Status: domain.LoadIdle},
	}
}

func (uc *LoadUseCase) OnLoad(listener LoadListener) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.listeners = append(uc.listeners, listener)
}

// Reload runs one load cycle. An empty credential falls back to the stored
// one. Overlapping reloads are not serialized; each merges its own batch.
func (uc *LoadUseCase) Reload(ctx context.Context, credential string) (domain.LoadState, error) {
	if credential == "" && uc.credentials != nil {
		stored, err := uc.credentials.Get(ctx)
		if err != nil {
			return uc.Status(), fmt.Errorf("read stored credential: %w", err)
		}
		credential = stored
	}

	uc.transition(func(state *domain.LoadState) {
		state.Status = domain.LoadLoading
		state.Error = ""
		state.StartedAt = uc.now()
	})

	entries, err := uc.loader.Load(ctx, credential)
	if err != nil {
		if !domain.IsKind(err, domain.ErrLoadFailed) {
			err = domain.WrapError(domain.ErrLoadFailed, "reload documents", err)
		}
		state := uc.transition(func(state *domain.LoadState) {
			state.Status = domain.LoadFailed
			state.Error = err.Error()
			state.Loaded = 0
			state.UpdatedAt = uc.now()
		})
		uc.publish(ctx, domain.Event{Kind: domain.EventLoadFailed, Message: state.Error, OccurredAt: state.UpdatedAt})
		uc.notify(ctx, state, err)
		return state, err
	}

	loaded := uc.store.Merge(entries)
	state := uc.transition(func(state *domain.LoadState) {
		state.Status = domain.LoadReady
		state.Models = uc.store.Len()
		state.Loaded = loaded
		state.UpdatedAt = uc.now()
	})
	uc.publish(ctx, domain.Event{Kind: domain.EventDocumentsLoaded, Models: state.Models, OccurredAt: state.UpdatedAt})
	uc.notify(ctx, state, nil)
	return state, nil
}

func (uc *LoadUseCase) Status() domain.LoadState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.state
}

func (uc *LoadUseCase) transition(apply func(state *domain.LoadState)) domain.LoadState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	apply(&uc.state)
	return uc.state
}

func (uc *LoadUseCase) publish(ctx context.Context, event domain.Event) {
	if uc.events == nil {
		return
	}
	// best effort
	_ = uc.events.Publish(ctx, event)
}

func (uc *LoadUseCase) notify(ctx context.Context, state domain.LoadState, err error) {
	uc.mu.Lock()
	listeners := append([]LoadListener(nil), uc.listeners...)
	uc.mu.Unlock()
	for _, listener := range listeners {
		listener(ctx, state, err)
	}
}
