package event

// RawEvent is a DOM event as seen by the Normalizer.
type RawEvent interface {
	Object

	// Type returns the event type, e.g. "click".
	Type() string

	// DataTransfer returns the drag data store, or nil when the event has none.
	DataTransfer() DataTransfer

	// PreventDefault cancels the browser's default handling.
	PreventDefault()
}

// DataTransfer is the drag data store of a drag event.
type DataTransfer interface {
	Object

	// GetData returns the data stored for format, or "".
	GetData(format string) string

	// SetData stores data for format.
	SetData(format, data string)

	// Files returns the files being dragged.
	Files() []File
}

// File describes a dragged file.
type File struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	Type         string `json:"type,omitempty"`
	LastModified int64  `json:"lastModified,omitempty"`
}

// Source is the element an event handler is attached to.
// dom.Element satisfies it.
type Source interface {
	Value() string
	Dataset(key string) string
	IsContentEditable() bool
	InnerText() string
}
