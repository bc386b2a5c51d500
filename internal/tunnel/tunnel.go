// Package tunnel implements the per-connection state machine that drives a
// gateway tunnel from its first client frame to teardown: sniffing and
// decoding the header, dialing the remote endpoint, relaying bytes in both
// directions, and retrying once via an upstream hint on a dead-end dial.
package tunnel

import (
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jaka1m/rokok/internal/route"
	"github.com/jaka1m/rokok/internal/sniff"
	"github.com/jaka1m/rokok/internal/wsapi"
)

// Config carries the knobs the controller needs beyond what is encoded in
// the wire header itself.
type Config struct {
	DNSServerAddress string
	DNSServerPort    int
	DialTimeout      time.Duration
}

// Controller runs tunnels. It holds no per-connection state itself — all of
// that lives in each call to Run — so one Controller is shared across every
// accepted connection.
type Controller struct {
	cfg Config
}

func New(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

func (c Config) dialTimeout() time.Duration {
	if c.DialTimeout <= 0 {
		return 10 * time.Second
	}
	return c.DialTimeout
}

// Run drives one tunnel to completion. It blocks until the tunnel is torn
// down, then returns the reason (nil on a clean close).
func (c *Controller) Run(conn *wsapi.Conn, stream *wsapi.InboundStream, upstreamHint string) error {
	first, ok := firstNonEmptyChunk(stream)
	if !ok {
		conn.SafeClose()
		return stream.Err()
	}

	kind := sniff.Classify(first)
	info, err := route.Decode(kind, first)
	if err != nil {
		slog.Warn("tunnel rejected: header decode failed", "protocol", kind, "error", err)
		conn.SafeClose()
		return err
	}

	slog.Info("tunnel routed",
		"protocol", info.Protocol,
		"addr", info.Addr.Text,
		"port", info.Port,
		"udp", info.IsUDP,
	)

	if info.IsUDP {
		return c.runDNS(conn, stream, info)
	}
	return c.runTCP(conn, stream, info, upstreamHint)
}

func firstNonEmptyChunk(stream *wsapi.InboundStream) ([]byte, bool) {
	for {
		chunk, ok := stream.Next()
		if !ok {
			return nil, false
		}
		if len(chunk) > 0 {
			return chunk, true
		}
	}
}

// dialTarget renders addr/port as a net.Dial address, bracketing IPv6
// literals that don't already carry brackets — Shadowsocks addresses are
// decoded unbracketed (spec-mandated textual form) but still need brackets
// to dial correctly.
func dialTarget(host string, port string) string {
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return host + ":" + port
}

func dialInfo(info *route.Info) string {
	return dialTarget(info.Addr.Text, strconv.Itoa(int(info.Port)))
}

// hintPattern splits an UpstreamHint of the form "host?[:=-]port?" into its
// two optional halves.
var hintPattern = regexp.MustCompile(`^(.*)[:=\-](\d*)$`)

func parseHint(hint string) (host, port string) {
	m := hintPattern.FindStringSubmatch(hint)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

// retryTarget resolves the one-shot retry destination: the hint's host/port
// take priority, falling back to the originally parsed address/port for
// whichever half the hint left empty. Preserved exactly as specified, even
// though this can cross-wire an alternate port onto the original host.
func retryTarget(hint string, info *route.Info) (string, error) {
	if hint == "" {
		return "", fmt.Errorf("tunnel: no upstream hint for retry")
	}
	hintHost, hintPort := parseHint(hint)

	host := info.Addr.Text
	if hintHost != "" {
		host = hintHost
	}
	port := strconv.Itoa(int(info.Port))
	if hintPort != "" {
		port = hintPort
	}
	return dialTarget(host, port), nil
}

func dnsServerAddr(cfg Config) string {
	addr := cfg.DNSServerAddress
	if addr == "" {
		addr = "8.8.8.8"
	}
	port := cfg.DNSServerPort
	if port == 0 {
		port = 53
	}
	return net.JoinHostPort(addr, strconv.Itoa(port))
}
