// Package events provides real-time fan-out of builder session changes.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autobridge/autobridge/internal/models"
)

// Event describes one applied workflow transition.
type Event struct {
	SessionID string              `json:"session_id"`
	Action    string              `json:"action"`
	Version   int                 `json:"version"`
	State     models.BuilderState `json:"state"`
	Timestamp time.Time           `json:"timestamp"`
}

// Subscriber represents an event stream subscriber.
type Subscriber struct {
	ID        string
	SessionID string // "" receives every session
	Ch        chan *Event
	CreatedAt time.Time
}

// Broker manages subscriptions and publishing.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber // subscriber ID -> subscriber
	bufferSize  int
	logger      *slog.Logger
}

// NewBroker creates a new event broker.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		subscribers: make(map[string]*Subscriber),
		bufferSize:  32,
		logger:      logger,
	}
}

// Subscribe creates a new subscription for the events of one session.
// The subscription is removed when ctx is done.
func (b *Broker) Subscribe(ctx context.Context, sessionID string) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscriber{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Ch:        make(chan *Event, b.bufferSize),
		CreatedAt: time.Now(),
	}

	b.subscribers[sub.ID] = sub
	b.logger.Debug("subscriber added",
		"subscriber_id", sub.ID,
		"session_id", sessionID,
	)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(sub)
	}()

	return sub
}

// Unsubscribe removes a subscription and closes its channel. Safe to call twice.
func (b *Broker) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[sub.ID]; exists {
		close(sub.Ch)
		delete(b.subscribers, sub.ID)
		b.logger.Debug("subscriber removed", "subscriber_id", sub.ID)
	}
}

// Publish sends an event to all matching subscribers without blocking.
func (b *Broker) Publish(event *Event) {
	if event == nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if sub.SessionID != "" && sub.SessionID != event.SessionID {
			continue
		}
		select {
		case sub.Ch <- event:
		default:
			// Channel full, skip this event for this subscriber
			b.logger.Warn("subscriber channel full, dropping event",
				"subscriber_id", sub.ID,
				"session_id", event.SessionID,
			)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
