package wsapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/jaka1m/rokok/internal/earlydata"
)

// Handler is invoked once per accepted tunnel connection, after the
// WebSocket upgrade has completed and the upstream hint and early-data
// buffer have been extracted from the request. It owns the connection for
// its lifetime.
type Handler func(conn *Conn, stream *InboundStream, upstreamHint string)

// HealthFunc returns the current health snapshot to serve on /healthz.
type HealthFunc func() any

// hintCapture matches the handshake path's trailing upstream-hint segment:
// a WireGuard-free "host±port" token using the delimiter set {':','=','-'}.
const hintCapture = `.+[:=\-]\d+`

// NewRouter builds the gateway's HTTP surface: the tunnel WebSocket upgrade
// route at handshakePath and a /healthz liveness endpoint. Grounded on the
// teacher's NewAPIRouter: same middleware-then-routes shape. /healthz writes
// the health snapshot with a plain JSON encoder; there is no response
// envelope.
func NewRouter(handshakePath string, handle Handler, health HealthFunc) http.Handler {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	r.HandleFunc("/healthz", handleHealth(health)).Methods(http.MethodGet)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  16384,
		WriteBufferSize: 16384,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	pathPattern := handshakePath
	if pathPattern == "" {
		pathPattern = `/Free-VPN-Geo-Project/{hint:` + hintCapture + `}`
	}

	r.HandleFunc(pathPattern, handleTunnel(upgrader, handle)).Methods(http.MethodGet)

	return r
}

func handleTunnel(upgrader websocket.Upgrader, handle Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hint := mux.Vars(r)["hint"]

		early, err := earlydata.Decode(r.Header.Get("Sec-WebSocket-Protocol"))
		if err != nil {
			slog.Warn("rejecting tunnel handshake: bad early-data header", "error", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}

		conn := NewConn(ws)
		stream := NewInboundStream(conn, early)

		handle(conn, stream, hint)
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Info("http request", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

func handleHealth(health HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(health()); err != nil {
			slog.Error("failed to encode health response", "error", err)
		}
	}
}
