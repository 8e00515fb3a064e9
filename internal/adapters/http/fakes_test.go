package httpadapter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/kirillkom/eval-tree-viewer/internal/config"
	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

type loadsFake struct {
	state       domain.LoadState
	err         error
	credential  string
	calls       int
	hasDeadline bool
}

func (f *loadsFake) Reload(ctx context.Context, credential string) (domain.LoadState, error) {
	f.calls++
	f.credential = credential
	_, f.hasDeadline = ctx.Deadline()
	return f.state, f.err
}

func (f *loadsFake) Status() domain.LoadState { return f.state }

type credentialsFake struct {
	stored string
	err    error
}

func (f *credentialsFake) Set(_ context.Context, credential string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.stored = credential
	return true, nil
}

func (f *credentialsFake) Clear(context.Context) error {
	f.stored = ""
	return f.err
}

type catalogFake struct {
	docs map[string]*domain.Node
}

func (f catalogFake) Models(string) []domain.PickerItem {
	out := make([]domain.PickerItem, 0, len(f.docs))
	for name, doc := range f.docs {
		out = append(out, domain.PickerItem{Name: name, Score: doc.Score()})
	}
	return out
}

func (f catalogFake) Document(name string) (*domain.Node, error) {
	doc, ok := f.docs[name]
	if !ok {
		return nil, domain.WrapError(domain.ErrModelNotFound, "document", errors.New(name))
	}
	return doc, nil
}

func (f catalogFake) Tree(name string) (domain.ModelTree, error) {
	if _, ok := f.docs[name]; !ok {
		return domain.ModelTree{}, domain.WrapError(domain.ErrModelNotFound, "tree", errors.New(name))
	}
	return domain.ModelTree{Model: name, Root: domain.VisualNode{Name: name, IsRoot: true}}, nil
}

type rankingsFake struct {
	taxonomyErr error
	columns     []domain.RankingColumn
	board       domain.Leaderboard
	lastPaths   []string
}

func (f *rankingsFake) Taxonomy(context.Context) (*domain.CategoryNode, error) {
	if f.taxonomyErr != nil {
		return nil, f.taxonomyErr
	}
	return &domain.CategoryNode{Name: "All", Key: "all", Children: []*domain.CategoryNode{{Name: "Math", Key: "math"}}}, nil
}

func (f *rankingsFake) Categories(ctx context.Context) ([]domain.CategoryPathEntry, error) {
	root, err := f.Taxonomy(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FlattenTaxonomy(root), nil
}

func (f *rankingsFake) Rankings(_ context.Context, paths []string) []domain.RankingColumn {
	f.lastPaths = paths
	return f.columns
}

func (f *rankingsFake) Leaderboard() domain.Leaderboard { return f.board }

func (f *rankingsFake) Weaknesses(model string, threshold float64) (domain.WeaknessReport, error) {
	if model != "alpha" {
		return domain.WeaknessReport{}, domain.WrapError(domain.ErrModelNotFound, "weaknesses", errors.New(model))
	}
	return domain.WeaknessReport{Model: model, Threshold: threshold}, nil
}

// sessionsFake keeps selection lists only; it is enough to check the wiring.
type sessionsFake struct {
	mu       sync.Mutex
	sessions map[string]*domain.SessionSnapshot
	nextID   int
	scrolls  []domain.PanelOffset
	toggled  []*bool
}

func newSessionsFake() *sessionsFake {
	return &sessionsFake{sessions: map[string]*domain.SessionSnapshot{}}
}

func (f *sessionsFake) Create(context.Context) (domain.SessionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := "s" + strconv.Itoa(f.nextID)
	f.sessions[id] = &domain.SessionSnapshot{ID: id, Selected: []string{}}
	return *f.sessions[id], nil
}

func (f *sessionsFake) get(id string) (*domain.SessionSnapshot, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "session", errors.New(id))
	}
	return session, nil
}

func (f *sessionsFake) Snapshot(_ context.Context, id, filter string) (domain.SessionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, err := f.get(id)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	out := *session
	out.Filter = filter
	return out, nil
}

func (f *sessionsFake) ToggleModel(_ context.Context, id, model string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, err := f.get(id)
	if err != nil {
		return err
	}
	for i, name := range session.Selected {
		if name == model {
			session.Selected = append(session.Selected[:i], session.Selected[i+1:]...)
			return nil
		}
	}
	session.Selected = append(session.Selected, model)
	return nil
}

func (f *sessionsFake) RemoveModel(ctx context.Context, id, model string) error {
	f.mu.Lock()
	session, err := f.get(id)
	f.mu.Unlock()
	if err != nil {
		return err
	}
	for _, name := range session.Selected {
		if name == model {
			return f.ToggleModel(ctx, id, model)
		}
	}
	return nil
}

func (f *sessionsFake) ToggleNode(_ context.Context, id, _ string, current *bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.get(id); err != nil {
		return err
	}
	f.toggled = append(f.toggled, current)
	return nil
}

func (f *sessionsFake) ToggleCategory(_ context.Context, id, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, err := f.get(id)
	if err != nil {
		return err
	}
	session.CategoryPaths = append(session.CategoryPaths, path)
	return nil
}

func (f *sessionsFake) Scroll(_ context.Context, id, panel string, offset float64) ([]domain.PanelOffset, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.get(id); err != nil {
		return nil, false, err
	}
	f.scrolls = append(f.scrolls, domain.PanelOffset{Panel: panel, Offset: offset})
	return []domain.PanelOffset{{Panel: "beta", Offset: offset}}, true, nil
}

type exporterFake struct{}

func (exporterFake) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (exporterFake) Export(w io.Writer, board domain.Leaderboard) error {
	_, err := io.WriteString(w, "xlsx:"+strconv.Itoa(len(board.Rows)))
	return err
}

type eventsFake struct {
	ch chan domain.Event
}

func (f eventsFake) Subscribe() (<-chan domain.Event, func()) {
	return f.ch, func() {}
}

type testDeps struct {
	loads       *loadsFake
	credentials *credentialsFake
	rankings    *rankingsFake
	sessions    *sessionsFake
	events      eventsFake
}

func newTestDeps() *testDeps {
	return &testDeps{
		loads:       &loadsFake{state: domain.LoadState{Status: domain.LoadReady, Models: 1}},
		credentials: &credentialsFake{},
		rankings: &rankingsFake{
			columns: []domain.RankingColumn{{Path: "", Title: "All"}},
			board:   domain.Leaderboard{Columns: []string{"math"}, Rows: []domain.LeaderboardRow{{Model: "alpha"}}},
		},
		sessions: newSessionsFake(),
		events:   eventsFake{ch: make(chan domain.Event, 1)},
	}
}

func (d *testDeps) handler(cfg config.Config) http.Handler {
	alpha := domain.NewNode()
	alpha.Set(domain.FieldScore, 0.8)
	return NewRouter(cfg, Deps{
		Loads:       d.loads,
		Credentials: d.credentials,
		Catalog:     catalogFake{docs: map[string]*domain.Node{"alpha": alpha}},
		Rankings:    d.rankings,
		Sessions:    d.sessions,
		Exporter:    exporterFake{},
		Events:      d.events,
	}).Handler()
}

func newTestHandler(cfg config.Config) http.Handler {
	return newTestDeps().handler(cfg)
}
