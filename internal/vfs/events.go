package vfs

// EventType is the closed set of mutation events the VFS emits.
type EventType string

const (
	EventCreate EventType = "create"
	EventModify EventType = "modify"
	EventDelete EventType = "delete"
	EventRename EventType = "rename"
)

// Event describes exactly one VFS mutation. Every mutating call emits
// exactly one of these before returning; rename emits a single "rename"
// event, never a create/delete pair.
type Event struct {
	Type     EventType
	Path     string
	OldPath  string // only set for EventRename
	FileType string // "file" | "directory"
}

func eventPath(e Event) string { return e.Path }
