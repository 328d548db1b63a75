package main

import (
	"sync"
	"testing"
)

func TestEventChannel_DrainInSubmitOrder(t *testing.T) {
	c := NewEventChannel()
	if evs := c.Drain(); evs != nil {
		t.Fatalf("expected nil drain on empty channel, got %v", evs)
	}

	c.Submit(RepeatKeyEvent{Key: KeyA, Count: 1})
	c.Submit(RepeatKeyEvent{Key: KeyA, Count: 2})
	c.Submit(RepeatKeyEvent{Key: KeyA, Count: 3})

	evs := c.Drain()
	if len(evs) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evs))
	}
	for i, ev := range evs {
		if ev.(RepeatKeyEvent).Count != i+1 {
			t.Errorf("event %d out of order: %+v", i, ev)
		}
	}
	if c.Len() != 0 {
		t.Errorf("expected drained channel to be empty")
	}

	// Buffers alternate; new events never show up in a drained slice.
	c.Submit(TextEvent{Text: "next"})
	again := c.Drain()
	if len(again) != 1 || again[0].(TextEvent).Text != "next" {
		t.Fatalf("unexpected second drain %+v", again)
	}
}

func TestEventChannel_DropsOldestHalfWhenFull(t *testing.T) {
	c := NewEventChannel()
	for i := 0; i < eventChannelCapacity+1; i++ {
		c.Submit(RepeatKeyEvent{Key: KeyA, Count: i})
	}

	if got := c.Dropped(); got != eventChannelDropOnce {
		t.Fatalf("expected %d dropped, got %d", eventChannelDropOnce, got)
	}
	evs := c.Drain()
	if len(evs) != eventChannelCapacity-eventChannelDropOnce+1 {
		t.Fatalf("unexpected pending count %d", len(evs))
	}
	if first := evs[0].(RepeatKeyEvent).Count; first != eventChannelDropOnce {
		t.Errorf("expected oldest surviving event %d, got %d", eventChannelDropOnce, first)
	}
	if last := evs[len(evs)-1].(RepeatKeyEvent).Count; last != eventChannelCapacity {
		t.Errorf("expected newest event %d, got %d", eventChannelCapacity, last)
	}
}

func TestEventChannel_ConcurrentSubmit(t *testing.T) {
	c := NewEventChannel()
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Submit(TextEvent{Text: "x"})
			}
		}()
	}
	wg.Wait()

	if n := len(c.Drain()); n != 400 {
		t.Errorf("expected 400 events, got %d", n)
	}
}
