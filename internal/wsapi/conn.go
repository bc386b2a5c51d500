// Package wsapi wires the gateway's HTTP/WebSocket surface: the upgrade
// handshake, the inbound byte-chunk stream fed by WebSocket frames, and the
// single-writer outbound frame sender the rest of the gateway relays
// through.
package wsapi

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn wraps a gorilla/websocket connection with the two properties the
// tunnel controller depends on: writes are serialized (exactly one writer
// to the send side at a time) and Close is idempotent.
type Conn struct {
	ws *websocket.Conn

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an already-upgraded WebSocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// WriteBinary sends b as a single binary WebSocket frame. Concurrent callers
// are serialized so prelude injection and payload emission are always
// atomic per frame.
func (c *Conn) WriteBinary(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.BinaryMessage, b)
}

// SafeClose closes the underlying connection at most once. Calling it
// repeatedly, from multiple goroutines or multiple teardown paths, is never
// an error after the first call.
func (c *Conn) SafeClose() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
