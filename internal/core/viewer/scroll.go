package viewer

import (
	"sync"
	"time"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

const DefaultScrollGuardDelay = 10 * time.Millisecond

// ScrollSync mirrors the scroll offset of one panel onto every other panel.
// While a propagation settles, a single shared guard suppresses every further
// scroll event, including the echoes the propagation itself causes.
type ScrollSync struct {
	mu        sync.Mutex
	panels    []string
	offsets   map[string]float64
	guarded   bool
	delay     time.Duration
	afterFunc func(time.Duration, func())
}

func NewScrollSync(delay time.Duration) *ScrollSync {
	if delay <= 0 {
		delay = DefaultScrollGuardDelay
	}
	return &ScrollSync{
		offsets: make(map[string]float64),
		delay:   delay,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// WithTimer replaces the guard release scheduler.
func (s *ScrollSync) WithTimer(afterFunc func(time.Duration, func())) *ScrollSync {
	s.afterFunc = afterFunc
	return s
}

// SetPanels follows the currently rendered panels. Known panels keep their offset.
func (s *ScrollSync) SetPanels(panels []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]float64, len(panels))
	for _, panel := range panels {
		next[panel] = s.offsets[panel]
	}
	s.panels = append([]string(nil), panels...)
	s.offsets = next
}

// Scroll handles a scroll event of panel. It reports false when the event was
// swallowed by the guard or came from an unknown panel.
func (s *ScrollSync) Scroll(panel string, offset float64) bool {
	s.mu.Lock()
	if s.guarded {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.offsets[panel]; !ok {
		s.mu.Unlock()
		return false
	}
	s.guarded = true
	for _, other := range s.panels {
		s.offsets[other] = offset
	}
	s.mu.Unlock()

	s.afterFunc(s.delay, s.release)
	return true
}

func (s *ScrollSync) release() {
	s.mu.Lock()
	s.guarded = false
	s.mu.Unlock()
}

func (s *ScrollSync) Guarded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guarded
}

func (s *ScrollSync) Offsets() []domain.PanelOffset {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.PanelOffset, 0, len(s.panels))
	for _, panel := range s.panels {
		out = append(out, domain.PanelOffset{Panel: panel, Offset: s.offsets[panel]})
	}
	return out
}
