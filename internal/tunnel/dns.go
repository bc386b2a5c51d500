package tunnel

import (
	"io"
	"net"
	"time"

	"github.com/jaka1m/rokok/internal/route"
	"github.com/jaka1m/rokok/internal/wsapi"
)

// dnsBridge forwards DNS-over-TCP queries to a configured resolver, one
// independent connection per client chunk, streaming each connection's
// replies back to the WebSocket. The response prelude (if any) is injected
// only into the very first reply frame across the whole tunnel.
type dnsBridge struct {
	conn        *wsapi.Conn
	serverAddr  string
	dialTimeout time.Duration
	prelude     []byte
	preludeSent bool
}

func (b *dnsBridge) forward(chunk []byte) error {
	remote, err := net.DialTimeout("tcp", b.serverAddr, b.dialTimeout)
	if err != nil {
		return err
	}
	defer remote.Close()

	if _, err := remote.Write(chunk); err != nil {
		return err
	}

	buf := make([]byte, 16*1024)
	for {
		n, rerr := remote.Read(buf)
		if n > 0 {
			if werr := b.send(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return nil
			}
			return rerr
		}
	}
}

func (b *dnsBridge) send(payload []byte) error {
	if !b.preludeSent && b.prelude != nil {
		b.preludeSent = true
		framed := make([]byte, 0, len(b.prelude)+len(payload))
		framed = append(framed, b.prelude...)
		framed = append(framed, payload...)
		return b.conn.WriteBinary(framed)
	}
	return b.conn.WriteBinary(payload)
}

// runDNS drives the DNS state: forward the residual of the first frame (if
// any), then keep forwarding every subsequent client chunk independently
// until the WebSocket stream ends.
func (c *Controller) runDNS(conn *wsapi.Conn, stream *wsapi.InboundStream, info *route.Info) error {
	defer conn.SafeClose()

	bridge := &dnsBridge{
		conn:        conn,
		serverAddr:  dnsServerAddr(c.cfg),
		dialTimeout: c.cfg.dialTimeout(),
		prelude:     info.ResponsePrelude,
	}

	if len(info.Residual) > 0 {
		if err := bridge.forward(info.Residual); err != nil {
			return err
		}
	}

	for {
		chunk, ok := stream.Next()
		if !ok {
			return stream.Err()
		}
		if len(chunk) == 0 {
			continue
		}
		if err := bridge.forward(chunk); err != nil {
			return err
		}
	}
}
