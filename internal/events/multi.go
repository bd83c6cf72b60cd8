package events

import (
	"context"
	"errors"
	"fmt"
)

// MultiPublisher fans an event out to several publishers. Every publisher is
// tried; their errors are joined.
type MultiPublisher struct {
	publishers []Publisher
}

// NewMulti returns a Publisher over pubs. With no publishers it behaves as a
// NoopPublisher; with one it returns that publisher unchanged.
func NewMulti(pubs ...Publisher) Publisher {
	switch len(pubs) {
	case 0:
		return &NoopPublisher{}
	case 1:
		return pubs[0]
	}
	return &MultiPublisher{publishers: pubs}
}

func (m *MultiPublisher) Publish(ctx context.Context, topic string, event any) error {
	var errs []error
	for i, p := range m.publishers {
		if err := p.Publish(ctx, topic, event); err != nil {
			errs = append(errs, fmt.Errorf("publisher %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiPublisher) Close() error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
