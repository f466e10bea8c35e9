//go:build js && wasm

package event

import "syscall/js"

// keysOf enumerates the fields of an object the way for-in does, including
// inherited ones such as the properties of an Event.
var keysOf = js.Global().Get("Function").New("o", "var k = []; for (var p in o) { k.push(p); } return k;")

// jsObject is an Object over a js value.
type jsObject struct {
	v js.Value
}

// Keys implements Object.
func (o jsObject) Keys() []string {
	arr := keysOf.Invoke(o.v)
	keys := make([]string, arr.Length())
	for i := range keys {
		keys[i] = arr.Index(i).String()
	}
	return keys
}

// Get implements Object.
func (o jsObject) Get(key string) any {
	v := o.v.Get(key)
	switch v.Type() {
	case js.TypeString:
		return v.String()
	case js.TypeBoolean:
		return v.Bool()
	case js.TypeNumber:
		return v.Float()
	case js.TypeNull, js.TypeUndefined:
		return nil
	default:
		return v
	}
}

// jsEvent is a RawEvent over a DOM event.
type jsEvent struct {
	jsObject
}

// FromJS wraps a DOM event.
func FromJS(ev js.Value) RawEvent {
	return jsEvent{jsObject{ev}}
}

// Type implements RawEvent.
func (e jsEvent) Type() string {
	return e.v.Get("type").String()
}

// DataTransfer implements RawEvent.
func (e jsEvent) DataTransfer() DataTransfer {
	dt := e.v.Get("dataTransfer")
	if dt.IsNull() || dt.IsUndefined() {
		return nil
	}
	return jsTransfer{jsObject{dt}}
}

// PreventDefault implements RawEvent.
func (e jsEvent) PreventDefault() {
	e.v.Call("preventDefault")
}

type jsTransfer struct {
	jsObject
}

// GetData implements DataTransfer.
func (t jsTransfer) GetData(format string) string {
	return t.v.Call("getData", format).String()
}

// SetData implements DataTransfer.
func (t jsTransfer) SetData(format, data string) {
	t.v.Call("setData", format, data)
}

// Files implements DataTransfer.
func (t jsTransfer) Files() []File {
	list := t.v.Get("files")
	if list.IsNull() || list.IsUndefined() {
		return nil
	}
	files := make([]File, list.Length())
	for i := range files {
		f := list.Index(i)
		files[i] = File{
			Name:         f.Get("name").String(),
			Size:         int64(f.Get("size").Float()),
			Type:         f.Get("type").String(),
			LastModified: int64(f.Get("lastModified").Float()),
		}
	}
	return files
}
