package watcher

// EventKind classifies a filesystem notification.
type EventKind int

const (
	EventOther EventKind = iota
	EventCreated
	EventModified
	EventRemoved
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventRemoved:
		return "removed"
	default:
		return "other"
	}
}

// Qualifies reports whether the kind can trigger a rebuild. Metadata-only
// changes cannot.
func (k EventKind) Qualifies() bool {
	return k == EventCreated || k == EventModified || k == EventRemoved
}

// WatchedEvent is one change below a watched directory.
type WatchedEvent struct {
	Path string
	Kind EventKind
}
