package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
	"github.com/kirillkom/eval-tree-viewer/internal/core/ports"
	"github.com/kirillkom/eval-tree-viewer/internal/core/viewer"
)

// ViewerSession is the state of one viewer. All access goes through the
// session mutex, so the handlers of one session run one at a time.
type ViewerSession struct {
	mu         sync.Mutex
	id         string
	seeded     bool
	selection  *viewer.Selection
	expand     *viewer.ExpandState
	categories *viewer.CategorySelection
	scroll     *viewer.ScrollSync
}

func newViewerSession(id string, scrollDelay time.Duration) *ViewerSession {
	return &ViewerSession{
		id:         id,
		selection:  viewer.NewSelection(),
		expand:     viewer.NewExpandState(),
		categories: viewer.NewCategorySelection(),
		scroll:     viewer.NewScrollSync(scrollDelay),
	}
}

func (s *ViewerSession) ID() string {
	return s.id
}

type SessionUseCase struct {
	store       *viewer.Store
	sessions    ports.SessionStore[*ViewerSession]
	rankings    *RankingUseCase
	loads       ports.DocumentReloader
	defaultSize int
	scrollDelay time.Duration
	newID       func() string
}

func NewSessionUseCase(
	store *viewer.Store,
	sessions ports.SessionStore[*ViewerSession],
	rankings *RankingUseCase,
	loads ports.DocumentReloader,
	defaultSize int,
	scrollDelay time.Duration,
) *SessionUseCase {
	if defaultSize <= 0 {
		defaultSize = viewer.DefaultSelectionSize
	}
	return &SessionUseCase{
		store:       store,
		sessions:    sessions,
		rankings:    rankings,
		loads:       loads,
		defaultSize: defaultSize,
		scrollDelay: scrollDelay,
		newID:       uuid.NewString,
	}
}

func (uc *SessionUseCase) Create(ctx context.Context) (domain.SessionSnapshot, error) {
	session := newViewerSession(uc.newID(), uc.scrollDelay)
	session.mu.Lock()
	uc.seed(session)
	session.mu.Unlock()
	uc.sessions.Save(session.id, session)
	return uc.Snapshot(ctx, session.id, "")
}

// SeedAll gives every session that has not been seeded yet the default
// selection. Sessions created before the first load pick it up here.
func (uc *SessionUseCase) SeedAll() int {
	seeded := 0
	uc.sessions.Each(func(_ string, session *ViewerSession) {
		session.mu.Lock()
		defer session.mu.Unlock()
		if uc.seed(session) {
			seeded++
		}
	})
	return seeded
}

func (uc *SessionUseCase) seed(session *ViewerSession) bool {
	if session.seeded || uc.store.Len() == 0 {
		return false
	}
	for _, name := range viewer.DefaultSelection(uc.store, uc.defaultSize) {
		session.selection.Add(name)
	}
	session.seeded = true
	return true
}

func (uc *SessionUseCase) Snapshot(ctx context.Context, id, filter string) (domain.SessionSnapshot, error) {
	labels, taxonomyErr := uc.rankings.Labels(ctx)

	var snapshot domain.SessionSnapshot
	err := uc.with(id, func(session *ViewerSession) error {
		trees := viewer.RenderTrees(session.selection, uc.store, session.expand)
		session.scroll.SetPanels(session.selection.Names())
		paths := session.categories.Paths()

		snapshot = domain.SessionSnapshot{
			ID:            session.id,
			Filter:        filter,
			Picker:        viewer.PickerItems(uc.store, session.selection, filter),
			Selected:      session.selection.Names(),
			Trees:         trees,
			Offsets:       session.scroll.Offsets(),
			CategoryPaths: paths,
			Rankings:      uc.rankings.LabelledRankings(paths, labels),
		}
		return nil
	})
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	if uc.loads != nil {
		snapshot.Load = uc.loads.Status()
	}
	if taxonomyErr != nil {
		snapshot.TaxonomyError = taxonomyErr.Error()
	}
	return snapshot, nil
}

func (uc *SessionUseCase) ToggleModel(_ context.Context, id, model string) error {
	if _, ok := uc.store.Get(model); !ok {
		return domain.WrapError(domain.ErrModelNotFound, "toggle model", fmt.Errorf("model %q", model))
	}
	return uc.with(id, func(session *ViewerSession) error {
		session.selection.Toggle(model)
		return nil
	})
}

func (uc *SessionUseCase) RemoveModel(_ context.Context, id, model string) error {
	return uc.with(id, func(session *ViewerSession) error {
		session.selection.Remove(model)
		return nil
	})
}

// ToggleNode flips every rendered node called name. current is the state of
// the instance the user clicked; when it is nil the first rendered instance
// in panel order decides.
func (uc *SessionUseCase) ToggleNode(_ context.Context, id, name string, current *bool) error {
	return uc.with(id, func(session *ViewerSession) error {
		trees := viewer.RenderTrees(session.selection, uc.store, session.expand)
		node, ok := viewer.FindExpandable(trees, name)
		if !ok {
			return domain.WrapError(domain.ErrInvalidInput, "toggle node", fmt.Errorf("no expandable node %q is rendered", name))
		}
		expanded := node.Expanded
		if current != nil {
			expanded = *current
		}
		session.expand.Toggle(name, expanded)
		return nil
	})
}

func (uc *SessionUseCase) ToggleCategory(ctx context.Context, id, path string) error {
	if err := uc.rankings.ValidatePath(ctx, path); err != nil {
		return err
	}
	return uc.with(id, func(session *ViewerSession) error {
		session.categories.Toggle(path)
		return nil
	})
}

func (uc *SessionUseCase) Scroll(_ context.Context, id, panel string, offset float64) ([]domain.PanelOffset, bool, error) {
	var (
		offsets []domain.PanelOffset
		applied bool
	)
	err := uc.with(id, func(session *ViewerSession) error {
		if !session.selection.Has(panel) {
			return domain.WrapError(domain.ErrInvalidInput, "scroll", fmt.Errorf("panel %q is not rendered", panel))
		}
		session.scroll.SetPanels(session.selection.Names())
		applied = session.scroll.Scroll(panel, offset)
		offsets = session.scroll.Offsets()
		return nil
	})
	return offsets, applied, err
}

func (uc *SessionUseCase) Delete(id string) {
	uc.sessions.Delete(id)
}

func (uc *SessionUseCase) with(id string, fn func(session *ViewerSession) error) error {
	if id == "" {
		return domain.WrapError(domain.ErrInvalidInput, "load session", errors.New("session id is empty"))
	}
	session, ok := uc.sessions.Get(id)
	if !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "load session", fmt.Errorf("session %q", id))
	}
	session.mu.Lock()
	err := fn(session)
	session.mu.Unlock()
	// refresh the expiry window
	uc.sessions.Save(id, session)
	return err
}
