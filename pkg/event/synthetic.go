package event

// Prop is a single object field.
type Prop struct {
	Key   string
	Value any
}

// Props is an ordered field list. It implements Object.
type Props []Prop

// Keys implements Object.
func (p Props) Keys() []string {
	keys := make([]string, len(p))
	for i, prop := range p {
		keys[i] = prop.Key
	}
	return keys
}

// Get implements Object.
func (p Props) Get(key string) any {
	for _, prop := range p {
		if prop.Key == key {
			return prop.Value
		}
	}
	return nil
}

// Synthetic is a RawEvent built in Go.
type Synthetic struct {
	EventType string
	Props     Props
	Transfer  *Transfer

	prevented int
}

// Type implements RawEvent.
func (s *Synthetic) Type() string { return s.EventType }

// Keys implements Object.
func (s *Synthetic) Keys() []string { return s.Props.Keys() }

// Get implements Object.
func (s *Synthetic) Get(key string) any { return s.Props.Get(key) }

// DataTransfer implements RawEvent.
func (s *Synthetic) DataTransfer() DataTransfer {
	if s.Transfer == nil {
		return nil
	}
	return s.Transfer
}

// PreventDefault implements RawEvent.
func (s *Synthetic) PreventDefault() { s.prevented++ }

// DefaultPrevented returns how many times PreventDefault was called.
func (s *Synthetic) DefaultPrevented() int { return s.prevented }

// Transfer is a DataTransfer built in Go.
type Transfer struct {
	Props    Props
	Slots    map[string]string
	FileList []File
}

// Keys implements Object.
func (t *Transfer) Keys() []string { return t.Props.Keys() }

// Get implements Object.
func (t *Transfer) Get(key string) any { return t.Props.Get(key) }

// GetData implements DataTransfer.
func (t *Transfer) GetData(format string) string { return t.Slots[format] }

// SetData implements DataTransfer.
func (t *Transfer) SetData(format, data string) {
	if t.Slots == nil {
		t.Slots = make(map[string]string)
	}
	t.Slots[format] = data
}

// Files implements DataTransfer.
func (t *Transfer) Files() []File { return t.FileList }
