package ws

import (
	"log/slog"
	"net/http"
	"net/url"

	"chat-relay/contract"

	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests into relay connections.
type Handler struct {
	lifecycle  contract.ILifecycle
	log        *slog.Logger
	upgrader   websocket.Upgrader
	sendBuffer int
}

func NewHandler(lifecycle contract.ILifecycle, log *slog.Logger, allowedOrigins []string, sendBuffer int) *Handler {
	return &Handler{
		lifecycle: lifecycle,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		sendBuffer: sendBuffer,
	}
}

// ServeHTTP upgrades the connection and services it until disconnect.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}
	client := NewClient(conn, h.lifecycle, h.log, h.sendBuffer)
	client.Run(r.Context())
}

// originChecker allows same-host requests plus the configured origins;
// a lone "*" disables the check.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if u.Host == r.Host {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}
