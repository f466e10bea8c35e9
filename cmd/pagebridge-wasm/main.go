//go:build js && wasm

// Command pagebridge-wasm is the page runtime compiled to WebAssembly.
//
// When the page defines pagebridgeHost, the runtime dials that WebSocket
// URL with the browser's own WebSocket and applies the change batches it
// receives. Otherwise it installs the
// render and callCompoHandler globals and forwards events to golangRequest.
package main

import (
	"context"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/vango-dev/pagebridge/internal/errors"
	"github.com/vango-dev/pagebridge/pkg/bridge"
	"github.com/vango-dev/pagebridge/pkg/dom"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()
	doc := dom.NewBrowser()

	if url := js.Global().Get("pagebridgeHost"); url.Type() == js.TypeString {
		ws, err := bridge.Dial(ctx, url.String(), bridge.WithWSLogger(logger))
		if err != nil {
			logger.Error("dial failed", "url", url.String(), "error", err)
			return
		}
		defer ws.Close()

		rt, err := bridge.NewRuntime(doc, ws, bridge.WithLogger(logger))
		if err != nil {
			fail(logger, err)
		}
		if err := rt.Run(ctx, ws.Batches()); err != nil {
			fail(logger, err)
		}
		return
	}

	rt, err := bridge.NewRuntime(doc, bridge.NewJS(bridge.DefaultRequestFunc), bridge.WithLogger(logger))
	if err != nil {
		fail(logger, err)
	}
	release := bridge.Expose(rt)
	defer release()
	select {}
}

// fail logs err and stops the program. A protocol violation leaves the
// document in an unknown state.
func fail(logger *slog.Logger, err error) {
	if be, ok := err.(*errors.BridgeError); ok {
		logger.Error("runtime stopped", "error", be.FormatCompact())
	} else {
		logger.Error("runtime stopped", "error", err)
	}
	panic(err)
}
