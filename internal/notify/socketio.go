package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/specialistvlad/materialmgr/internal/ctxlog"
)

// DefaultEvent is the socket.io event name changes are emitted under.
const DefaultEvent = "materials"

// SocketIOConfig configures a SocketIO publisher.
type SocketIOConfig struct {
	URL                string
	Namespace          string
	Event              string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// SocketIO emits each event over a short-lived socket.io connection.
type SocketIO struct {
	cfg SocketIOConfig
}

// NewSocketIO validates cfg and returns a publisher.
func NewSocketIO(cfg SocketIOConfig) (*SocketIO, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notify URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("notify URL %q must be absolute", cfg.URL)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "/"
	}
	if cfg.Event == "" {
		cfg.Event = DefaultEvent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &SocketIO{cfg: cfg}, nil
}

// Publish connects, emits ev and disconnects. It fails if the connection is
// not established within the configured timeout.
func (s *SocketIO) Publish(ctx context.Context, ev Event) error {
	logger := ctxlog.FromContext(ctx).With("notifier", "socketio", "url", s.cfg.URL, "event", s.cfg.Event)
	logger.Debug("Publishing event.", "kind", ev.Kind, "id", ev.ID)

	var isConnected atomic.Bool
	done := make(chan error, 1)
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	parsedURL, err := url.Parse(s.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if s.cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(s.cfg.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Debug("Connected.", "namespace", s.cfg.Namespace, "sid", io.Id())
		if err := io.Emit(s.cfg.Event, ev.Payload()); err != nil {
			done <- fmt.Errorf("failed to emit event: %w", err)
			return
		}
		done <- nil
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				done <- err
				return
			}
		}
		done <- fmt.Errorf("connect error")
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return fmt.Errorf("timed out emitting %s after connecting", ev.Kind)
		}
		return fmt.Errorf("timed out connecting to %s", s.cfg.URL)
	case err := <-done:
		return err
	}
}
