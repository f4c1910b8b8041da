package runtime

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/observability"

	"github.com/google/uuid"
)

// Router resolves the recipient set for each inbound message and owns the
// best-effort durable append. Persistence never blocks real-time delivery
// past the configured gateway timeout.
type Router struct {
	registry       contract.IRegistry
	gateway        contract.Gateway
	log            *slog.Logger
	monitoring     *observability.Monitoring
	gatewayTimeout time.Duration
	sinkTimeout    time.Duration
	clock          func() time.Time
}

func NewRouter(registry contract.IRegistry, gateway contract.Gateway, log *slog.Logger,
	monitoring *observability.Monitoring, gatewayTimeout, sinkTimeout time.Duration) *Router {
	return &Router{
		registry:       registry,
		gateway:        gateway,
		log:            log,
		monitoring:     monitoring,
		gatewayTimeout: gatewayTimeout,
		sinkTimeout:    sinkTimeout,
		clock:          time.Now,
	}
}

// PublishPublic creates a public message addressed to every connected
// connection, sender included. The recipient set comes from one locked
// registry read.
func (r *Router) PublishPublic(ctx context.Context, senderConnID, body string) (domain.ChatMessage, []contract.EventSink, error) {
	msg, err := r.newMessage(senderConnID, body, domain.ScopePublic, "")
	if err != nil {
		return domain.ChatMessage{}, nil, err
	}
	msg = r.append(ctx, msg)

	_, sinks := r.registry.Fanout()
	return msg, sinks, nil
}

// PublishPrivate delivers to the target and echoes to the sender. An
// offline target is not an error: the message is still appended and the
// sender keeps its self-echo.
func (r *Router) PublishPrivate(ctx context.Context, senderConnID, targetConnID, body string) (domain.ChatMessage, []contract.EventSink, error) {
	msg, err := r.newMessage(senderConnID, body, domain.ScopePrivate, targetConnID)
	if err != nil {
		return domain.ChatMessage{}, nil, err
	}
	msg = r.append(ctx, msg)

	if targetConnID == senderConnID {
		// Self-addressed messages get a single delivery.
		return msg, r.registry.Sinks(senderConnID), nil
	}
	return msg, r.registry.Sinks(senderConnID, targetConnID), nil
}

// Deliver fans an event out to each recipient independently. A sink that
// is slow or already torn down only loses its own copy; it never curtails
// the others and never rolls back a durable write.
func (r *Router) Deliver(ctx context.Context, e event.DomainEvent, sinks []contract.EventSink) {
	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, r.sinkTimeout)
		if err := sink.Consume(sinkCtx, e); err != nil {
			r.monitoring.IncrDroppedEvent()
			r.log.Debug("Event dropped for one recipient", "event", e.Name(), "error", err)
		} else {
			r.monitoring.IncrDeliveredEvent()
		}
		cancel()
	}
}

// newMessage validates the send request and stamps a provisional id.
// The id is a random unique token, not a timestamp, so two messages in the
// same instant cannot collide.
func (r *Router) newMessage(senderConnID, body string, scope domain.Scope, targetConnID string) (domain.ChatMessage, error) {
	sender, err := r.registry.Find(senderConnID)
	if err != nil {
		return domain.ChatMessage{}, errors.ErrUnknownSender
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.ChatMessage{}, errors.ErrEmptyBody
	}
	return domain.ChatMessage{
		ID:                    uuid.NewString(),
		SenderName:            sender.DisplayName,
		SenderConnectionID:    senderConnID,
		Body:                  body,
		Scope:                 scope,
		RecipientConnectionID: targetConnID,
		CreatedAt:             r.clock().UTC(),
	}, nil
}

type appendResult struct {
	id  string
	err error
}

// append writes the message to the gateway, bounded by the gateway timeout.
// On success the store's assigned id replaces the provisional one before
// any broadcast; on failure or timeout the provisional id stands and the
// failure is logged, never surfaced to clients.
func (r *Router) append(ctx context.Context, msg domain.ChatMessage) domain.ChatMessage {
	appendCtx, cancel := context.WithTimeout(ctx, r.gatewayTimeout)
	defer cancel()

	results := make(chan appendResult, 1)
	go func() {
		id, err := r.gateway.AppendMessage(appendCtx, msg)
		results <- appendResult{id: id, err: err}
	}()

	select {
	case res := <-results:
		if res.err != nil {
			r.monitoring.IncrGatewayFailure()
			r.log.Warn("Message append failed, keeping provisional id", "error", res.err)
			return msg
		}
		if res.id != "" {
			msg.ID = res.id
		}
		return msg
	case <-appendCtx.Done():
		r.monitoring.IncrGatewayFailure()
		r.log.Warn("Message append timed out, keeping provisional id", "timeout", r.gatewayTimeout)
		return msg
	}
}
