package indicator

type LayoutSource interface {
	CurrentGroup() (int, error)
	GroupName(group int) (string, error)
}

// Surface is the overlay the label is painted on. Draw clears the window,
// paints the label at the precomputed position, raises the window and
// flushes the connection.
type Surface interface {
	Draw(label string) error
}

type EventSource interface {
	Events() <-chan Event
}

type EventKind int

const (
	EventOther EventKind = iota
	EventExpose
	EventVisibility
	EventLayout
)

func (k EventKind) String() string {
	switch k {
	case EventExpose:
		return "expose"
	case EventVisibility:
		return "visibility"
	case EventLayout:
		return "layout"
	}
	return "other"
}

// Event is a single notification from the windowing system. An event with
// a non-nil Err terminates the loop.
type Event struct {
	Kind EventKind
	Err  error
}

// forcesRedraw reports whether the window content must be repainted
// regardless of the layout state.
func (e Event) forcesRedraw() bool {
	return e.Kind == EventExpose || e.Kind == EventVisibility
}
