package viewer

// ExpandMode is the explicit state recorded for a node name.
type ExpandMode uint8

const (
	ExpandDefault ExpandMode = iota
	ExpandOpen
	ExpandClosed
)

// ExpandState maps node names to an explicit expand mode. Every rendered node
// with the same name reads the same entry, so toggling one instance toggles
// all of them on the next render.
type ExpandState struct {
	modes map[string]ExpandMode
}

func NewExpandState() *ExpandState {
	return &ExpandState{modes: make(map[string]ExpandMode)}
}

// Expanded resolves the state of name, falling back to fallback when the name
// was never toggled.
func (e *ExpandState) Expanded(name string, fallback bool) bool {
	if e == nil {
		return fallback
	}
	switch e.modes[name] {
	case ExpandOpen:
		return true
	case ExpandClosed:
		return false
	default:
		return fallback
	}
}

// Toggle flips the state of name. current is the state the user saw on the
// instance they clicked.
func (e *ExpandState) Toggle(name string, current bool) bool {
	next := !current
	if next {
		e.modes[name] = ExpandOpen
	} else {
		e.modes[name] = ExpandClosed
	}
	return next
}

func (e *ExpandState) Set(name string, expanded bool) {
	e.Toggle(name, !expanded)
}

func (e *ExpandState) Reset(name string) {
	delete(e.modes, name)
}

func (e *ExpandState) Len() int {
	if e == nil {
		return 0
	}
	return len(e.modes)
}
