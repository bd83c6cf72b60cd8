package events

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// SocketIOPublisher emits events to a Socket.IO server, one event name per
// topic. The UI shell listens on these to animate highlights.
type SocketIOPublisher struct {
	io *socket.Socket
}

// NewSocketIOPublisher connects to the Socket.IO server at rawURL. The URL's
// path selects the server path; the namespace defaults to "/".
func NewSocketIOPublisher(ctx context.Context, rawURL string) (*SocketIOPublisher, error) {
	logger := ctxlog.FromContext(ctx).With("sink", "socketio", "url", rawURL)
	logger.Info("Connecting to UI socket...")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to UI socket.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketIOPublisher{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(15 * time.Second):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after 15s waiting for socket.io connection")
	}
}

func (p *SocketIOPublisher) Publish(ctx context.Context, topic string, event any) error {
	if !p.io.Connected() {
		return fmt.Errorf("socket.io client is not connected")
	}
	// Round trip through JSON so the peer receives plain objects with the
	// same field names as the other sinks.
	data, err := sonic.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	var payload any
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return p.io.Emit(topic, payload)
}

func (p *SocketIOPublisher) Close() error {
	p.io.Disconnect()
	return nil
}
