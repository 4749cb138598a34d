package events

import (
	"sync"
	"time"
)

// Event types published by the chat services
const (
	EventPresenceUpdated = "presence.updated"
	EventPresenceLeft    = "presence.left"
	EventGlobalOnline    = "presence.global.online"
	EventGlobalOffline   = "presence.global.offline"
	EventPrivateMessage  = "message.private.sent"
	EventRoomMessage     = "message.room.sent"
	EventMessagesRead    = "message.private.read"
	EventUserBlocked     = "block.created"
	EventUserUnblocked   = "block.removed"
	EventRoomJoined      = "room.joined"
	EventUserReported    = "report.created"
	EventProfileUpdated  = "profile.updated"
)

// Event is a change notification; RoomID is zero for events outside a room
type Event struct {
	Type          string      `json:"type"`
	RoomID        uint        `json:"room_id,omitempty"`
	UserID        uint        `json:"user_id,omitempty"`
	CounterpartID uint        `json:"counterpart_id,omitempty"`
	Data          interface{} `json:"data,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}

// Listener receives published events
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(event Event)

// OnEvent calls f(event)
func (f ListenerFunc) OnEvent(event Event) { f(event) }

// Publisher publishes events
type Publisher interface {
	Publish(event Event)
}

// EventBus defines the interface for publishing and subscribing to chat events
type EventBus interface {
	Publisher

	// Subscribe adds a listener and returns a function that removes it
	Subscribe(listener Listener) (unsubscribe func())

	// Close closes the event bus and cleans up resources
	Close()
}

// SimpleEventBus is an in-memory EventBus that delivers on a background goroutine
type SimpleEventBus struct {
	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
	done      chan struct{}
	eventChan chan Event
	wg        sync.WaitGroup
	dropped   int64
	closeOnce sync.Once
}

// NewSimpleEventBus creates a new in-memory event bus
func NewSimpleEventBus(bufferSize int) *SimpleEventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	bus := &SimpleEventBus{
		listeners: make(map[int]Listener),
		done:      make(chan struct{}),
		eventChan: make(chan Event, bufferSize),
	}

	bus.wg.Add(1)
	go bus.processEvents()

	return bus
}

// Publish queues an event; it never blocks the caller
func (b *SimpleEventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case <-b.done:
		return
	default:
	}

	select {
	case b.eventChan <- event:
	default:
		// Buffer full, skip event
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
	}
}

// Subscribe adds a listener
func (b *SimpleEventBus) Subscribe(listener Listener) func() {
	if listener == nil {
		return func() {}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = listener
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Dropped returns how many events were discarded because the buffer was full
func (b *SimpleEventBus) Dropped() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

func (b *SimpleEventBus) processEvents() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			// Drain what was already queued
			for {
				select {
				case event := <-b.eventChan:
					b.dispatch(event)
				default:
					return
				}
			}
		case event := <-b.eventChan:
			b.dispatch(event)
		}
	}
}

// dispatch notifies listeners outside the lock
func (b *SimpleEventBus) dispatch(event Event) {
	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.mu.RUnlock()

	for _, listener := range listeners {
		listener.OnEvent(event)
	}
}

// Close stops the bus after delivering queued events
func (b *SimpleEventBus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
	})
}

// NoOpEventBus is a no-op implementation of EventBus for testing
type NoOpEventBus struct{}

// NewNoOpEventBus creates a no-op event bus
func NewNoOpEventBus() *NoOpEventBus {
	return &NoOpEventBus{}
}

// Publish does nothing
func (b *NoOpEventBus) Publish(event Event) {}

// Subscribe does nothing
func (b *NoOpEventBus) Subscribe(listener Listener) func() { return func() {} }

// Close does nothing
func (b *NoOpEventBus) Close() {}
