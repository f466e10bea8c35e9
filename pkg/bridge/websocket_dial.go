//go:build !(js && wasm)

package bridge

import (
	"context"

	"github.com/gorilla/websocket"
)

// Dial connects to a host endpoint.
func Dial(ctx context.Context, url string, opts ...WSOption) (*WebSocket, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewWebSocket(conn, opts...), nil
}
