//go:build js && wasm

package bridge

import (
	"context"
	"fmt"
	"io"
	"sync"
	"syscall/js"
	"time"
)

// Normal and going-away close codes end a session without error.
const (
	closeNormal    = 1000
	closeGoingAway = 1001
)

// Dial connects to a host endpoint through the browser WebSocket API.
func Dial(ctx context.Context, url string, opts ...WSOption) (*WebSocket, error) {
	ws, err := newBrowserSocket(url)
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %s: %w", url, err)
	}
	c := &browserConn{ws: ws, notify: make(chan struct{}, 1)}
	ws.Set("binaryType", "arraybuffer")

	opened := make(chan error, 1)
	settle := func(err error) {
		select {
		case opened <- err:
		default:
		}
	}
	c.on("open", func(js.Value) { settle(nil) })
	c.on("error", func(js.Value) { settle(fmt.Errorf("bridge: dial %s failed", url)) })
	c.on("message", func(ev js.Value) {
		data := ev.Get("data")
		if data.Type() == js.TypeString {
			return
		}
		buf := make([]byte, data.Get("byteLength").Int())
		js.CopyBytesToGo(buf, js.Global().Get("Uint8Array").New(data))
		c.push(buf)
	})
	c.on("close", func(ev js.Value) {
		var err error
		if code := ev.Get("code").Int(); code != closeNormal && code != closeGoingAway {
			err = fmt.Errorf("bridge: connection closed with code %d: %s", code, ev.Get("reason").String())
		}
		c.finish(err)
		settle(fmt.Errorf("bridge: dial %s: connection closed", url))
	})

	select {
	case err := <-opened:
		if err != nil {
			c.close()
			return nil, err
		}
	case <-ctx.Done():
		c.close()
		return nil, ctx.Err()
	}
	return newWebSocket(c, opts...), nil
}

func newBrowserSocket(url string) (ws js.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			jerr, ok := r.(js.Error)
			if !ok {
				panic(r)
			}
			err = jerr
		}
	}()
	return js.Global().Get("WebSocket").New(url), nil
}

// browserConn is a frameConn over a browser WebSocket. Event handlers run
// on the JS event loop and must not block, so inbound messages are queued
// and the read loop is woken through notify.
type browserConn struct {
	ws    js.Value
	funcs []js.Func

	mu     sync.Mutex
	queue  [][]byte
	closed bool
	err    error
	notify chan struct{}
}

func (c *browserConn) on(name string, fn func(ev js.Value)) {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		var ev js.Value
		if len(args) > 0 {
			ev = args[0]
		}
		fn(ev)
		return nil
	})
	c.funcs = append(c.funcs, f)
	c.ws.Set("on"+name, f)
}

func (c *browserConn) wake() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *browserConn) push(msg []byte) {
	c.mu.Lock()
	c.queue = append(c.queue, msg)
	c.mu.Unlock()
	c.wake()
}

func (c *browserConn) finish(err error) {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.err = err
	}
	c.mu.Unlock()
	c.wake()
}

func (c *browserConn) readMessage() ([]byte, error) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			msg := c.queue[0]
			c.queue[0] = nil
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return msg, nil
		}
		if c.closed {
			err := c.err
			c.mu.Unlock()
			if err == nil {
				err = io.EOF
			}
			return nil, err
		}
		c.mu.Unlock()
		<-c.notify
	}
}

// writeMessage hands data to the browser send buffer. The deadline does
// not apply: send never blocks.
func (c *browserConn) writeMessage(_ time.Time, data []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed || c.ws.Get("readyState").Int() != js.Global().Get("WebSocket").Get("OPEN").Int() {
		return io.ErrClosedPipe
	}
	arr := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(arr, data)
	c.ws.Call("send", arr)
	return nil
}

// shutdown is a no-op: close sends the close frame itself.
func (c *browserConn) shutdown(time.Time) {}

func (c *browserConn) close() error {
	c.ws.Call("close", closeNormal)
	for _, name := range []string{"open", "error", "message", "close"} {
		c.ws.Set("on"+name, js.Null())
	}
	for _, f := range c.funcs {
		f.Release()
	}
	c.funcs = nil
	c.finish(nil)
	return nil
}
