package testutil

import (
	"context"
	"sync"
)

// PublishedEvent is one call to RecordingPublisher.Publish.
type PublishedEvent struct {
	Topic string
	Event any
}

// RecordingPublisher is an events.Publisher that keeps every event.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
	closed bool
}

func (p *RecordingPublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{Topic: topic, Event: event})
	return nil
}

func (p *RecordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Events returns a copy of everything published so far.
func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.events...)
}

// Topics returns the topic of every published event, in order.
func (p *RecordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]string, len(p.events))
	for i, e := range p.events {
		topics[i] = e.Topic
	}
	return topics
}

// Closed reports whether Close was called.
func (p *RecordingPublisher) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
