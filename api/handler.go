// Package api exposes the read-only HTTP surface: paginated message
// history and the online roster. It carries no core logic beyond
// pagination and chronological ordering.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"chat-relay/contract"
	"chat-relay/domain"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

const (
	defaultPage  = 1
	defaultLimit = 50
)

type Handler struct {
	gateway  contract.Gateway
	registry contract.IRegistry
	log      *slog.Logger
}

func NewHandler(gateway contract.Gateway, registry contract.IRegistry, log *slog.Logger) *Handler {
	return &Handler{gateway: gateway, registry: registry, log: log}
}

// Routes mounts the read surface and, when given, the websocket endpoint.
func (h *Handler) Routes(wsHandler http.Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/messages", h.GetMessages).Methods(http.MethodGet)
	r.HandleFunc("/api/messages/private/{userId}", h.GetPrivateMessages).Methods(http.MethodGet)
	r.HandleFunc("/api/users", h.GetUsers).Methods(http.MethodGet)
	r.HandleFunc("/", h.Root).Methods(http.MethodGet)

	if wsHandler != nil {
		r.Handle("/ws", wsHandler).Methods(http.MethodGet)
	}
	return r
}

// GetMessages serves one page of history for a scope, oldest first.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	scope := domain.Scope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = domain.ScopePublic
	}

	messages, err := h.gateway.ListMessages(r.Context(), scope, page, limit)
	if err != nil {
		h.log.Error("Failed to list messages", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(messages))
}

// GetPrivateMessages serves the private history involving one participant.
func (h *Handler) GetPrivateMessages(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	userID := mux.Vars(r)["userId"]

	messages, err := h.gateway.ListPrivateMessages(r.Context(), userID, page, limit)
	if err != nil {
		h.log.Error("Failed to list private messages", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch private messages")
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(messages))
}

// GetUsers serves the durable online roster, falling back to the live
// registry snapshot when the gateway has nothing (memory-only mode).
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	records, err := h.gateway.ListOnlineIdentities(r.Context())
	if err != nil {
		h.log.Warn("Gateway roster unavailable, serving registry snapshot", "error", err)
	}
	if len(records) == 0 {
		records = lo.Map(h.registry.Snapshot(), func(id domain.Identity, _ int) domain.IdentityRecord {
			return domain.IdentityRecord{
				DisplayName:  id.DisplayName,
				ConnectionID: id.ConnectionID,
				Online:       true,
				LastSeen:     id.JoinedAt,
			}
		})
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Chat relay server is running"))
}

func pagination(r *http.Request) (page, limit int) {
	page = queryInt(r, "page", defaultPage)
	limit = queryInt(r, "limit", defaultLimit)
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// orEmpty keeps the JSON body an array, never null.
func orEmpty(messages []domain.ChatMessage) []domain.ChatMessage {
	if messages == nil {
		return []domain.ChatMessage{}
	}
	return messages
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
