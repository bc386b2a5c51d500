package wsapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// wsPair upgrades one end of an httptest server connection and dials the
// other, returning both sides wrapped the way the gateway wraps them.
func wsPair(t *testing.T) (server *Conn, client *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}

	serverCh := make(chan *Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverCh <- NewConn(ws)
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	server = <-serverCh
	return server, c
}

func TestConn_SafeCloseIdempotent(t *testing.T) {
	server, _ := wsPair(t)

	require.NoError(t, server.SafeClose())
	require.NoError(t, server.SafeClose())
	require.NoError(t, server.SafeClose())
}

func TestConn_WriteBinaryReachesClient(t *testing.T) {
	server, client := wsPair(t)
	t.Cleanup(func() { server.SafeClose() })

	require.NoError(t, server.WriteBinary([]byte("payload")))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}

func TestInboundStream_EarlyDataComesFirst(t *testing.T) {
	server, client := wsPair(t)
	t.Cleanup(func() { server.SafeClose() })

	stream := NewInboundStream(server, []byte("early"))

	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, []byte("later")))

	first, ok := stream.Next()
	require.True(t, ok)
	require.Equal(t, "early", string(first))

	second, ok := stream.Next()
	require.True(t, ok)
	require.Equal(t, "later", string(second))
}

func TestInboundStream_NoEarlyDataSkipsPriming(t *testing.T) {
	server, client := wsPair(t)
	t.Cleanup(func() { server.SafeClose() })

	stream := NewInboundStream(server, nil)

	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, []byte("only")))

	chunk, ok := stream.Next()
	require.True(t, ok)
	require.Equal(t, "only", string(chunk))
}

func TestInboundStream_ClosesOnClientDisconnect(t *testing.T) {
	server, client := wsPair(t)
	t.Cleanup(func() { server.SafeClose() })

	stream := NewInboundStream(server, nil)
	require.NoError(t, client.Close())

	_, ok := stream.Next()
	require.False(t, ok)
}

func TestNewRouter_HealthEndpoint(t *testing.T) {
	r := NewRouter("", func(conn *Conn, stream *InboundStream, hint string) {}, func() any {
		return map[string]string{"status": "ok"}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewRouter_BadEarlyDataRejected(t *testing.T) {
	r := NewRouter("", func(conn *Conn, stream *InboundStream, hint string) {}, func() any { return nil })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/Free-VPN-Geo-Project/host-443", nil)
	require.NoError(t, err)
	req.Header.Set("Sec-WebSocket-Protocol", "!!!not-base64!!!")
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNewRouter_TunnelHandlerInvoked(t *testing.T) {
	invoked := make(chan string, 1)
	r := NewRouter("", func(conn *Conn, stream *InboundStream, hint string) {
		invoked <- hint
		conn.SafeClose()
	}, func() any { return nil })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/Free-VPN-Geo-Project/example.org-8443"
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	select {
	case hint := <-invoked:
		require.Equal(t, "example.org-8443", hint)
	case <-time.After(2 * time.Second):
		t.Fatal("tunnel handler was not invoked")
	}
}
