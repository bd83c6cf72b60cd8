package app

import (
	"context"
	"fmt"

	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/events"
)

// connectPublishers connects every configured event sink and fans them into
// one publisher. With no sinks configured the result discards events.
func (a *App) connectPublishers(ctx context.Context) (events.Publisher, error) {
	logger := ctxlog.FromContext(ctx)
	var pubs []events.Publisher
	fail := func(err error) (events.Publisher, error) {
		for _, p := range pubs {
			_ = p.Close()
		}
		return nil, err
	}

	if a.config.NATSURL != "" {
		p, err := events.NewNATSPublisher(a.config.NATSURL)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to NATS: %w", err))
		}
		pubs = append(pubs, p)
	}
	if a.config.RedisURL != "" {
		p, err := events.NewRedisPublisher(ctx, a.config.RedisURL, a.config.RedisChannel)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to Redis: %w", err))
		}
		pubs = append(pubs, p)
	}
	if a.config.UISocketURL != "" {
		p, err := events.NewSocketIOPublisher(ctx, a.config.UISocketURL)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to UI socket: %w", err))
		}
		pubs = append(pubs, p)
	}

	logger.Debug("Event publishers configured.", "count", len(pubs))
	return events.NewMulti(pubs...), nil
}
