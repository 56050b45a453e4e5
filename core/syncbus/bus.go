// Package syncbus is the engine's coordination channel: collaborators publish
// "something changed, recompute" signals on typed topics and the engine
// publishes the resulting counts. Events never carry payload deltas; state is
// always re-derived from the store.
package syncbus

import (
	"sync"

	"github.com/google/uuid"
)

type Topic string

const (
	// consumed: cross-context invalidation
	TopicStorageMutated          Topic = "storage:mutated" // Key carries the changed collection key
	TopicTasksChanged            Topic = "tasks:changed"
	TopicCommentsChanged         Topic = "comments:changed"
	TopicNotificationsChanged    Topic = "notifications:changed"
	TopicAttendanceChanged       Topic = "attendance:changed"
	TopicCommunicationsChanged   Topic = "communications:changed"
	TopicUsersChanged            Topic = "users:changed"
	TopicAssignmentsChanged      Topic = "assignments:changed"
	TopicPasswordRequestsChanged Topic = "password-requests:changed"
	TopicSubmissionGraded        Topic = "submissions:graded"
	TopicDialogClosed            Topic = "dialog:closed" // a dialog that may have marked something read was closed
	TopicRecountRequested        Topic = "counts:recount"

	// produced
	TopicCountsChanged Topic = "counts:changed"
)

// Event is what travels on the bus. Only counts-changed events populate
// Viewer/Category/Total; storage-mutated events populate Key.
type Event struct {
	Topic    Topic
	Key      string
	Viewer   string
	Category string
	Total    int
}

type Handler func(Event)

// Bus fans events out synchronously to subscribed handlers. Handlers must be
// idempotent recomputation triggers; dispatch order between subscribers is
// unspecified.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic]map[string]Handler
}

func New() *Bus {
	return &Bus{subs: make(map[Topic]map[string]Handler)}
}

// Subscribe registers a handler for a topic and returns an unsubscribe func.
func (b *Bus) Subscribe(topic Topic, h Handler) (unsubscribe func()) {
	token := uuid.New().String()

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[string]Handler)
	}
	b.subs[topic][token] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs[topic], token)
		b.mu.Unlock()
	}
}

// Publish delivers the event to all handlers subscribed to its topic.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[evt.Topic]))
	for _, h := range b.subs[evt.Topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}
