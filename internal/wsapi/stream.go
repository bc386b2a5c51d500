package wsapi

import (
	"sync"

	"github.com/gorilla/websocket"
)

// inboundBuffer is the depth of the inbound chunk channel. It is the
// backpressure bound: once it is full, the read goroutine blocks delivering
// into the channel and stops calling ws.ReadMessage, which in turn applies
// TCP-level backpressure to the client, rather than buffering frames
// without limit.
const inboundBuffer = 32

// InboundStream presents a WebSocket connection's incoming frames, plus any
// early data from the handshake, as an ordered stream of byte chunks.
type InboundStream struct {
	conn   *Conn
	chunks chan []byte

	mu  sync.Mutex
	err error
}

// NewInboundStream starts reading ws in the background. If earlyData is
// non-empty it is enqueued as the first chunk, ahead of anything read off
// the wire.
func NewInboundStream(conn *Conn, earlyData []byte) *InboundStream {
	s := &InboundStream{
		conn:   conn,
		chunks: make(chan []byte, inboundBuffer),
	}
	if len(earlyData) > 0 {
		s.chunks <- earlyData
	}
	go s.readLoop()
	return s
}

func (s *InboundStream) readLoop() {
	defer close(s.chunks)
	for {
		_, data, err := s.conn.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
			return
		}
		s.chunks <- data
	}
}

// Chunks returns the channel of inbound byte chunks. It is closed when the
// WebSocket connection is closed or errors; callers should then check Err.
func (s *InboundStream) Chunks() <-chan []byte {
	return s.chunks
}

// Next blocks for the next chunk. ok is false once the stream has ended.
func (s *InboundStream) Next() ([]byte, bool) {
	chunk, ok := <-s.chunks
	return chunk, ok
}

// Err returns the error that ended the stream, if any. It is only
// meaningful after Chunks() has been observed closed.
func (s *InboundStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
