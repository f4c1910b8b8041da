package runtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/observability"

	"github.com/go-playground/validator/v10"
)

type connState int

const (
	stateConnecting connState = iota
	stateJoined
	stateDisconnected
)

var validate = validator.New()

// Lifecycle drives each connection through Connecting -> Joined ->
// Disconnected and keeps the registry, the typing tracker and the gateway
// consistent along the way. One mutex serializes each mutation together
// with the broadcast announcing it, so no client ever receives a roster
// older than the change it was just notified about.
type Lifecycle struct {
	mu             sync.Mutex
	states         map[string]connState
	registry       contract.IRegistry
	typing         contract.ITypingTracker
	router         contract.IRouter
	gateway        contract.Gateway
	log            *slog.Logger
	monitoring     *observability.Monitoring
	gatewayTimeout time.Duration
}

func NewLifecycle(registry contract.IRegistry, typing contract.ITypingTracker,
	router contract.IRouter, gateway contract.Gateway, log *slog.Logger,
	monitoring *observability.Monitoring, gatewayTimeout time.Duration) *Lifecycle {
	return &Lifecycle{
		states:         make(map[string]connState),
		registry:       registry,
		typing:         typing,
		router:         router,
		gateway:        gateway,
		log:            log,
		monitoring:     monitoring,
		gatewayTimeout: gatewayTimeout,
	}
}

// Connect marks a fresh transport connection. It stays Connecting until a
// join handshake succeeds.
func (l *Lifecycle) Connect(connID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.states[connID]; !ok {
		l.states[connID] = stateConnecting
		l.monitoring.ConnOpened()
		l.log.Debug("Connection opened", "conn", connID)
	}
}

// HandleJoin runs the join handshake. A rejection leaves the connection in
// Connecting (the client may retry with another name) and is announced to
// the requester only; the holder of the name is never disturbed.
func (l *Lifecycle) HandleJoin(ctx context.Context, cmd domain.JoinCommand, sink contract.EventSink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.states[cmd.ConnectionID] == stateDisconnected {
		return
	}

	cmd.DisplayName = strings.TrimSpace(cmd.DisplayName)
	if err := validate.Struct(cmd); err != nil {
		l.router.Deliver(ctx, event.JoinRejected{Reason: "Display name must be 2-30 characters"},
			[]contract.EventSink{sink})
		return
	}

	identity, roster, err := l.registry.Join(cmd.ConnectionID, cmd.DisplayName, sink)
	if err != nil {
		l.router.Deliver(ctx, event.JoinRejected{Reason: "Username is already taken"},
			[]contract.EventSink{sink})
		return
	}
	l.states[cmd.ConnectionID] = stateJoined
	l.upsert(ctx, identity.DisplayName, identity.ConnectionID, true)

	_, sinks := l.registry.Fanout()
	l.router.Deliver(ctx, event.RosterUpdated{Roster: roster}, sinks)
	l.router.Deliver(ctx, event.ParticipantJoined{
		ConnectionID: identity.ConnectionID,
		DisplayName:  identity.DisplayName,
	}, sinks)
	l.log.Info("Participant joined", "name", identity.DisplayName, "conn", identity.ConnectionID)
}

// HandleSendPublic routes a public message. Rejections go back to the
// sender only; they never reach or block other connections.
func (l *Lifecycle) HandleSendPublic(ctx context.Context, cmd domain.PublicMessageCommand) {
	if !l.isJoined(cmd.ConnectionID) {
		return
	}
	msg, sinks, err := l.router.PublishPublic(ctx, cmd.ConnectionID, cmd.Body)
	if err != nil {
		l.rejectToSender(ctx, cmd.ConnectionID, err)
		return
	}
	l.router.Deliver(ctx, event.MessageReceived{Message: msg}, sinks)
}

func (l *Lifecycle) HandleSendPrivate(ctx context.Context, cmd domain.PrivateMessageCommand) {
	if !l.isJoined(cmd.ConnectionID) {
		return
	}
	msg, sinks, err := l.router.PublishPrivate(ctx, cmd.ConnectionID, cmd.TargetConnectionID, cmd.Body)
	if err != nil {
		l.rejectToSender(ctx, cmd.ConnectionID, err)
		return
	}
	l.router.Deliver(ctx, event.MessageReceived{Message: msg}, sinks)
}

// HandleTyping mutates the typing set and broadcasts it. Signals from
// connections that never joined are dropped.
func (l *Lifecycle) HandleTyping(ctx context.Context, cmd domain.TypingCommand) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.states[cmd.ConnectionID] != stateJoined {
		return
	}
	identity, err := l.registry.Find(cmd.ConnectionID)
	if err != nil {
		return
	}
	names := l.typing.SetTyping(cmd.ConnectionID, identity.DisplayName, cmd.Typing)
	_, sinks := l.registry.Fanout()
	l.router.Deliver(ctx, event.TypingUpdated{Names: names}, sinks)
}

// HandleDisconnect runs the leave protocol exactly once per connection
// even if the transport fires it repeatedly: the Disconnected state is
// terminal and the registry's not-found result short-circuits any race.
func (l *Lifecycle) HandleDisconnect(ctx context.Context, connID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.states[connID] == stateDisconnected {
		return
	}
	l.states[connID] = stateDisconnected
	l.monitoring.ConnClosed()

	typingNames := l.typing.Clear(connID)
	identity, roster, err := l.registry.Leave(connID)
	if err != nil {
		// Never joined: nothing to announce.
		return
	}
	l.upsert(ctx, identity.DisplayName, connID, false)

	_, sinks := l.registry.Fanout()
	l.router.Deliver(ctx, event.ParticipantLeft{
		ConnectionID: connID,
		DisplayName:  identity.DisplayName,
	}, sinks)
	l.router.Deliver(ctx, event.RosterUpdated{Roster: roster}, sinks)
	l.router.Deliver(ctx, event.TypingUpdated{Names: typingNames}, sinks)
	l.log.Info("Participant left", "name", identity.DisplayName, "conn", connID)
}

func (l *Lifecycle) isJoined(connID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[connID] == stateJoined
}

func (l *Lifecycle) rejectToSender(ctx context.Context, connID string, err error) {
	sinks := l.registry.Sinks(connID)
	if len(sinks) == 0 {
		return
	}
	l.router.Deliver(ctx, event.ErrorNotice{Reason: err.Error()}, sinks)
}

// upsert is best-effort: failures are logged and never surfaced to clients.
func (l *Lifecycle) upsert(ctx context.Context, name, connID string, online bool) {
	upsertCtx, cancel := context.WithTimeout(ctx, l.gatewayTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- l.gateway.UpsertIdentity(upsertCtx, name, connID, online)
	}()

	select {
	case err := <-done:
		if err != nil {
			l.monitoring.IncrGatewayFailure()
			l.log.Warn("Identity upsert failed", "name", name, "error", err)
		}
	case <-upsertCtx.Done():
		l.monitoring.IncrGatewayFailure()
		l.log.Warn("Identity upsert timed out", "name", name, "timeout", l.gatewayTimeout)
	}
}
