package main

import (
	"sync"
)

// EventChannel is a bounded, double-buffered event queue used to pass events
// between the engine, prediction and UI loops without blocking the producer.
//
// Submit appends under a short lock. Drain swaps the pending buffer with the
// previously drained one, so a drain costs a slice header exchange no matter
// how many events are pending. When a consumer stalls and the pending buffer
// fills up, the oldest half is dropped.
//
// The slice returned by Drain is only valid until the next Drain call.
type EventChannel struct {
	mu       sync.Mutex
	pending  []Event
	received []Event
	dropped  int
}

func NewEventChannel() *EventChannel {
	return &EventChannel{
		pending:  make([]Event, 0, 64),
		received: make([]Event, 0, 64),
	}
}

// Submit queues ev. It never blocks on the consumer and never fails.
func (c *EventChannel) Submit(ev Event) {
	c.mu.Lock()
	if len(c.pending) >= eventChannelCapacity {
		n := copy(c.pending, c.pending[eventChannelDropOnce:])
		clear(c.pending[n:])
		c.pending = c.pending[:n]
		c.dropped += eventChannelDropOnce
	}
	c.pending = append(c.pending, ev)
	c.mu.Unlock()
}

// Drain returns every pending event in submit order, or nil if there are none.
func (c *EventChannel) Drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return nil
	}

	clear(c.received)
	c.pending, c.received = c.received[:0], c.pending
	return c.received
}

// Len returns the number of pending events.
func (c *EventChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Dropped returns how many events were discarded because the consumer fell behind.
func (c *EventChannel) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
