package domain

import (
	"maps"
	"sync"
)

// Message is a value flowing through a connection.
type Message struct {
	Data    any
	Context map[string]any
}

// OutputSlot is the producer side of a module port. It is safe for concurrent use so that
// module implementations may emit from any goroutine.
type OutputSlot struct {
	SlotID string
	Title  string

	mu   sync.RWMutex
	next uint64
	subs map[uint64]func(Message)
}

// NewOutputSlot creates an output slot without subscribers.
func NewOutputSlot(id, title string) *OutputSlot {
	return &OutputSlot{SlotID: id, Title: title, subs: make(map[uint64]func(Message))}
}

// Subscribe registers fn and returns the function cancelling the subscription.
// Cancelling twice is a no-op.
func (s *OutputSlot) Subscribe(fn func(Message)) (cancel func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Emit delivers msg to every current subscriber.
func (s *OutputSlot) Emit(msg Message) {
	s.mu.RLock()
	fns := make([]func(Message), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(Message{Data: msg.Data, Context: maps.Clone(msg.Context)})
	}
}

// Subscribers returns the number of active subscriptions.
func (s *OutputSlot) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// InputSlot is the receiver side of a module port. It keeps the last received message.
type InputSlot struct {
	SlotID string
	Title  string

	mu    sync.RWMutex
	last  Message
	count int
}

// NewInputSlot creates an input slot.
func NewInputSlot(id, title string) *InputSlot {
	return &InputSlot{SlotID: id, Title: title}
}

// Receive records msg as the last value of the slot.
func (s *InputSlot) Receive(msg Message) {
	s.mu.Lock()
	s.last = msg
	s.count++
	s.mu.Unlock()
}

// Last returns the last received message and whether one was received at all.
func (s *InputSlot) Last() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.count > 0
}

// Count returns the number of messages received.
func (s *InputSlot) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
