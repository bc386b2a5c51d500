package tunnel

import (
	"io"
	"log/slog"
	"net"

	"github.com/jaka1m/rokok/internal/route"
	"github.com/jaka1m/rokok/internal/wsapi"
)

// tcpBridge relays remote->WS bytes, injecting the response prelude (if
// any) into exactly the first outbound frame, and reports whether any
// remote bytes were ever seen (the retry decision).
type tcpBridge struct {
	conn        *wsapi.Conn
	prelude     []byte
	preludeSent bool
}

type bridgeResult struct {
	sawBytes bool
	err      error
}

// run reads remote until it closes or errors, forwarding every chunk to the
// WebSocket. err is nil on a clean remote close (EOF).
func (b *tcpBridge) run(remote net.Conn) bridgeResult {
	buf := make([]byte, 32*1024)
	var sawBytes bool

	for {
		n, rerr := remote.Read(buf)
		if n > 0 {
			sawBytes = true
			if werr := b.send(buf[:n]); werr != nil {
				return bridgeResult{sawBytes: sawBytes, err: werr}
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return bridgeResult{sawBytes: sawBytes, err: nil}
			}
			return bridgeResult{sawBytes: sawBytes, err: rerr}
		}
	}
}

func (b *tcpBridge) send(payload []byte) error {
	if !b.preludeSent && b.prelude != nil {
		b.preludeSent = true
		framed := make([]byte, 0, len(b.prelude)+len(payload))
		framed = append(framed, b.prelude...)
		framed = append(framed, payload...)
		return b.conn.WriteBinary(framed)
	}
	return b.conn.WriteBinary(payload)
}

func startBridge(b *tcpBridge, remote net.Conn) <-chan bridgeResult {
	ch := make(chan bridgeResult, 1)
	go func() {
		ch <- b.run(remote)
	}()
	return ch
}

// runTCP drives the AwaitFirst->Routed path: dial the remote, write the
// residual payload, then alternate between forwarding client chunks to the
// remote (this goroutine, the tunnel's single writer to remote) and
// noticing when the remote side finishes (the tcpBridge goroutine, the
// tunnel's single writer to the WebSocket).
func (c *Controller) runTCP(conn *wsapi.Conn, stream *wsapi.InboundStream, info *route.Info, upstreamHint string) error {
	defer conn.SafeClose()

	target := dialInfo(info)
	remote, err := net.DialTimeout("tcp", target, c.cfg.dialTimeout())
	if err != nil {
		slog.Warn("tunnel: remote dial failed", "target", target, "error", err)
		return err
	}

	if err := writeResidual(remote, info.Residual); err != nil {
		remote.Close()
		return err
	}

	bridge := &tcpBridge{conn: conn, prelude: info.ResponsePrelude}
	bridgeDone := startBridge(bridge, remote)
	retried := false

	for {
		select {
		case chunk, ok := <-stream.Chunks():
			if !ok {
				remote.Close()
				<-bridgeDone
				return stream.Err()
			}
			if len(chunk) == 0 {
				continue
			}
			if _, err := remote.Write(chunk); err != nil {
				remote.Close()
				<-bridgeDone
				return err
			}

		case res := <-bridgeDone:
			if !res.sawBytes && !retried && upstreamHint != "" {
				retried = true
				next, target, derr := c.retryDial(upstreamHint, info)
				if derr != nil {
					remote.Close()
					return derr
				}
				slog.Info("tunnel: retrying via upstream hint", "target", target)
				remote.Close()
				remote = next
				if werr := writeResidual(remote, info.Residual); werr != nil {
					remote.Close()
					return werr
				}
				bridgeDone = startBridge(bridge, remote)
				continue
			}
			remote.Close()
			return res.err
		}
	}
}

func (c *Controller) retryDial(hint string, info *route.Info) (net.Conn, string, error) {
	target, err := retryTarget(hint, info)
	if err != nil {
		return nil, "", err
	}
	conn, err := net.DialTimeout("tcp", target, c.cfg.dialTimeout())
	if err != nil {
		return nil, target, err
	}
	return conn, target, nil
}

func writeResidual(w io.Writer, residual []byte) error {
	if len(residual) == 0 {
		return nil
	}
	_, err := w.Write(residual)
	return err
}
