package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

// Notifier routes domain events to their recipient's realtime connections,
// through the event bus when one is configured and directly otherwise.
type Notifier struct {
	bus      EventPublisher
	presence *PresenceRegistry
	logger   *zap.Logger
}

func NewNotifier(bus EventPublisher, presence *PresenceRegistry, logger *zap.Logger) *Notifier {
	return &Notifier{bus: bus, presence: presence, logger: logger}
}

// Notify never fails the caller; a lost notification is only logged.
func (n *Notifier) Notify(ctx context.Context, event Event) {
	if n == nil || event.Recipient == "" || event.Recipient == event.ActorID {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	if n.bus != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err := n.bus.Publish(pubCtx, event)
		cancel()
		if err == nil {
			return
		}
		n.logger.Warn("event publish failed, delivering directly",
			zap.String("type", event.Type), zap.String("recipient", event.Recipient), zap.Error(err))
	}
	n.Deliver(event)
}

// Deliver pushes event to the recipient if they are online.
func (n *Notifier) Deliver(event Event) {
	if n.presence == nil {
		return
	}
	msg, err := json.Marshal(PushMessage{Event: event.Type, Data: event})
	if err != nil {
		n.logger.Error("failed to marshal event", zap.Error(err))
		return
	}
	n.presence.Send(event.Recipient, msg)
}
