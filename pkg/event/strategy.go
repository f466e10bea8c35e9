package event

// Strategy is a way of shaping an event into a payload value.
type Strategy uint8

const (
	StrategyGeneric Strategy = iota
	StrategyValue
	StrategyDragStart
	StrategyDrop
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyGeneric:
		return "generic"
	case StrategyValue:
		return "value"
	case StrategyDragStart:
		return "dragstart"
	case StrategyDrop:
		return "drop"
	default:
		return "unknown"
	}
}

var strategies = map[string]Strategy{
	"change":    StrategyValue,
	"drag":      StrategyDragStart,
	"dragstart": StrategyDragStart,
	"dragend":   StrategyDragStart,
	"dragexit":  StrategyDragStart,
	"dragenter": StrategyDrop,
	"dragleave": StrategyDrop,
	"dragover":  StrategyDrop,
	"drop":      StrategyDrop,
}

// StrategyFor returns the strategy used for events of type eventType.
func StrategyFor(eventType string) Strategy {
	return strategies[eventType]
}

// Shaped is the outcome of a strategy: the value serialized into
// json-value, and for drop events the override field and side channel.
type Shaped struct {
	Value    any
	Override string
	Sidecar  map[string]any
}

// ShapeFunc shapes an event.
type ShapeFunc func(src Source, ev RawEvent) Shaped

var shapers = [...]ShapeFunc{
	StrategyGeneric:   ShapeGeneric,
	StrategyValue:     ShapeValue,
	StrategyDragStart: ShapeDragStart,
	StrategyDrop:      ShapeDrop,
}

// Shape returns the ShapeFunc of s.
func (s Strategy) Shape() ShapeFunc {
	if int(s) < len(shapers) {
		return shapers[s]
	}
	return ShapeGeneric
}

// Names of the fields injected by the drag strategies.
const (
	FieldData         = "Data"
	FieldInnerText    = "InnerText"
	FieldFiles        = "Files"
	FieldFileOverride = "file-override"

	// transferSlot is the transfer format drag data is exchanged through.
	transferSlot = "text"

	// fileOverridePlaceholder stands in for the file list in json-value.
	fileOverridePlaceholder = "xxx"
)

// ShapeValue returns the source's value.
func ShapeValue(src Source, _ RawEvent) Shaped {
	if src == nil {
		return Shaped{Value: ""}
	}
	return Shaped{Value: src.Value()}
}

// ShapeDragStart returns the transfer's fields with Data set to the source's
// data-drag value, and writes that value to the transfer's text slot.
func ShapeDragStart(src Source, ev RawEvent) Shaped {
	dt := ev.DataTransfer()
	fields := extractTransfer(dt)

	var data string
	if src != nil {
		data = src.Dataset("drag")
	}
	fields[FieldData] = data
	if dt != nil {
		dt.SetData(transferSlot, data)
	}
	return Shaped{Value: fields}
}

// ShapeDrop cancels the default handling and returns the transfer's fields
// with Data read from the text slot. The file list goes to the side channel
// and replaces the Files field on the host.
func ShapeDrop(_ Source, ev RawEvent) Shaped {
	ev.PreventDefault()

	dt := ev.DataTransfer()
	fields := extractTransfer(dt)

	var files []File
	if dt != nil {
		fields[FieldData] = dt.GetData(transferSlot)
		files = dt.Files()
	} else {
		fields[FieldData] = ""
	}
	if files == nil {
		files = []File{}
	}
	fields[FieldFileOverride] = fileOverridePlaceholder

	return Shaped{
		Value:    fields,
		Override: FieldFiles,
		Sidecar:  map[string]any{FieldFiles: files},
	}
}

// ShapeGeneric returns the event's scalar fields, plus InnerText when the
// source is content-editable.
func ShapeGeneric(src Source, ev RawEvent) Shaped {
	fields := Extract(ev)
	if src != nil && src.IsContentEditable() {
		fields[FieldInnerText] = src.InnerText()
	}
	return Shaped{Value: fields}
}

func extractTransfer(dt DataTransfer) map[string]any {
	if dt == nil {
		return make(map[string]any)
	}
	return Extract(dt)
}
