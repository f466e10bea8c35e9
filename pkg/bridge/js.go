//go:build js && wasm

package bridge

import (
	"context"
	stderrors "errors"
	"syscall/js"

	"github.com/vango-dev/pagebridge/internal/errors"
	"github.com/vango-dev/pagebridge/pkg/change"
	"github.com/vango-dev/pagebridge/pkg/dom"
	"github.com/vango-dev/pagebridge/pkg/event"
)

// DefaultRequestFunc is the page global JS sends payloads to.
const DefaultRequestFunc = "golangRequest"

// JS is a Bridge that calls a page-level function with the JSON envelope
// and, when present, the JSON of the side channel.
type JS struct {
	name string
}

// NewJS creates a JS bridge calling the global function name.
func NewJS(name string) *JS {
	if name == "" {
		name = DefaultRequestFunc
	}
	return &JS{name: name}
}

// Send implements Bridge.
func (b *JS) Send(_ context.Context, p event.Payload) error {
	fn := js.Global().Get(b.name)
	if fn.Type() != js.TypeFunction {
		return errors.New("E082").WithDetailf("page global %s is not a function", b.name)
	}

	envelope, err := p.Envelope()
	if err != nil {
		return err
	}
	sidecar, err := p.SidecarJSON()
	if err != nil {
		return err
	}
	if sidecar == nil {
		fn.Invoke(string(envelope))
	} else {
		fn.Invoke(string(envelope), string(sidecar))
	}
	return nil
}

// Expose installs the render and callCompoHandler globals that page
// scripts and the host call into. The returned function removes them.
//
// render(changes) accepts a JSON string or an array of records. A protocol
// violation halts rt and panics with a JS Error carrying the formatted
// violation, which ends the Go program like any fatal session error.
// callCompoHandler(compoID, target, src, event) dispatches a DOM event.
func Expose(rt *Runtime) (release func()) {
	global := js.Global()

	render := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		data := args[0]
		if data.Type() != js.TypeString {
			data = global.Get("JSON").Call("stringify", data)
		}
		changes, err := change.Decode([]byte(data.String()))
		if err != nil {
			be := errors.New("E066").Wrap(err)
			rt.Fail(be)
			throw(be)
		}
		if err := rt.Apply(changes); err != nil {
			throw(err)
		}
		return nil
	})

	handler := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) < 4 {
			return nil
		}
		var src event.Source
		if el, ok := dom.Wrap(args[2]).(dom.Element); ok {
			src = el
		}
		// Normalization runs before returning so that preventDefault still
		// takes effect on the event being dispatched.
		ev := event.FromJS(args[3])
		if err := rt.Dispatch(context.Background(), args[0].String(), args[1].String(), src, ev); err != nil {
			return err.Error()
		}
		return nil
	})

	global.Set("render", render)
	global.Set("callCompoHandler", handler)

	return func() {
		global.Delete("render")
		global.Delete("callCompoHandler")
		render.Release()
		handler.Release()
	}
}

func throw(err error) {
	msg := err.Error()
	var be *errors.BridgeError
	if stderrors.As(err, &be) {
		msg = be.FormatCompact()
	}
	panic(js.Error{Value: js.Global().Get("Error").New(msg)})
}
