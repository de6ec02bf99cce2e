package events

import (
	"log"
	"sync"
)

// Event names emitted by the progression engine
const (
	TopicCompleted    = "topic.completed"
	LessonCompleted   = "lesson.completed"
	ModuleCompleted   = "module.completed"
	WeekUnlocked      = "week.unlocked"
	WeekCompleted     = "week.completed"
	CoinsAwarded      = "coins.awarded"
	CoinsSpent        = "coins.spent"
	CertificateIssued = "certificate.issued"
	CohortStarted     = "cohort.started"
)

// Event is a fire-and-forget notification. Listeners are side effects
// only; nothing the engine's correctness depends on runs on the bus.
type Event struct {
	Name    string
	Payload map[string]interface{}
}

// Listener consumes events. A listener must not assume it runs on the
// emitter's goroutine.
type Listener func(Event)

// Bus is an in-process publish/subscribe fan-out
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
}

// Default is the process-wide bus the engine services emit on
var Default = NewBus()

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener for all events
func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Emit delivers the event to every listener on its own goroutine.
// Listener panics are logged and dropped; emitters never block or fail
// because of a consumer.
func (b *Bus) Emit(name string, payload map[string]interface{}) {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	event := Event{Name: name, Payload: payload}
	for _, l := range listeners {
		go func(l Listener) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[EVENT-BUS] Listener panic on %s: %v", event.Name, r)
				}
			}()
			l(event)
		}(l)
	}
}
