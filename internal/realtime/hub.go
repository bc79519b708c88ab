package realtime

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrHubClosed is returned by Subscribe once the hub has stopped.
var ErrHubClosed = errors.New("realtime hub closed")

const subscriberBuffer = 32

// Subscription receives the change events of one owner.
type Subscription struct {
	userID uuid.UUID
	tables map[string]bool
	events chan Event
}

// Events is closed when the subscriber is dropped or the hub stops.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) matches(ev Event) bool {
	if ev.UserID != s.userID {
		return false
	}
	return len(s.tables) == 0 || s.tables[ev.Table]
}

// Hub fans change events out to subscriptions filtered by owner.
type Hub struct {
	register   chan *Subscription
	unregister chan *Subscription
	broadcast  chan Event
	done       chan struct{}
	subs       map[*Subscription]struct{}
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		broadcast:  make(chan Event),
		done:       make(chan struct{}),
		subs:       make(map[*Subscription]struct{}),
		log:        log.Named("hub"),
	}
}

// Run owns the subscription set until ctx is cancelled. A subscriber whose
// buffer is full is dropped rather than allowed to stall the others.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for sub := range h.subs {
			delete(h.subs, sub)
			close(sub.events)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case sub := <-h.register:
			h.subs[sub] = struct{}{}
		case sub := <-h.unregister:
			if _, ok := h.subs[sub]; ok {
				delete(h.subs, sub)
				close(sub.events)
			}
		case ev := <-h.broadcast:
			for sub := range h.subs {
				if !sub.matches(ev) {
					continue
				}
				select {
				case sub.events <- ev:
				default:
					h.log.Warn("dropping slow subscriber", zap.String("user_id", sub.userID.String()))
					delete(h.subs, sub)
					close(sub.events)
				}
			}
		}
	}
}

// Subscribe registers interest in userID's rows of the given tables; no
// tables means all of them.
func (h *Hub) Subscribe(ctx context.Context, userID uuid.UUID, tables []string) (*Subscription, error) {
	sub := &Subscription{
		userID: userID,
		tables: make(map[string]bool, len(tables)),
		events: make(chan Event, subscriberBuffer),
	}
	for _, t := range tables {
		sub.tables[t] = true
	}

	select {
	case h.register <- sub:
		return sub, nil
	case <-h.done:
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Publish queues ev for delivery. It gives up when ctx ends or the hub has
// stopped.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	select {
	case h.broadcast <- ev:
	case <-h.done:
	case <-ctx.Done():
	}
}
