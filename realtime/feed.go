package realtime

import (
	"sync"
	"time"
)

// Table names published on the feed
const (
	TableCarriers         = "carriers"
	TableAppointments     = "appointments"
	TableOperations       = "operations"
	TableDocuments        = "documents"
	TableDocumentArchives = "document_archives"

	// AllTables subscribes to every table
	AllTables = "*"
)

// Change actions
const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
)

// Event describes a committed change to one row
type Event struct {
	Table    string    `json:"table"`
	Action   string    `json:"action"`
	RecordID string    `json:"record_id"`
	At       time.Time `json:"at"`
}

// Handler receives published events. It runs on the publisher's goroutine
// and must not block.
type Handler func(Event)

type subscription struct {
	id      uint64
	table   string
	handler Handler
}

// Feed is an in-process publish/subscribe channel keyed by table name
type Feed struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]subscription
}

// NewFeed creates an empty feed
func NewFeed() *Feed {
	return &Feed{subs: make(map[uint64]subscription)}
}

// Subscribe registers handler for events on table (or AllTables).
// The returned function removes the subscription.
func (f *Feed) Subscribe(table string, handler Handler) func() {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.subs[id] = subscription{id: id, table: table, handler: handler}
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish delivers event to every matching subscriber. A nil feed drops it.
func (f *Feed) Publish(event Event) {
	if f == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	f.mu.RLock()
	handlers := make([]Handler, 0, len(f.subs))
	for _, sub := range f.subs {
		if sub.table == AllTables || sub.table == event.Table {
			handlers = append(handlers, sub.handler)
		}
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// SubscriberCount returns the number of live subscriptions
func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

var feedInstance *Feed

// GetFeed returns the application-wide change feed
func GetFeed() *Feed {
	return feedInstance
}

// SetFeed sets the application-wide change feed
func SetFeed(f *Feed) {
	feedInstance = f
}
