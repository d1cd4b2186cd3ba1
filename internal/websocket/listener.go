package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	initialReconnectDelay = 1 * time.Second
	maxReconnectDelay     = 30 * time.Second
)

// Listener subscribes to a server's change feed and reports every
// records_changed message it receives, reconnecting with backoff.
type Listener struct {
	url      string
	onChange func(types.ChangeMessage)
	dialer   *websocket.Dialer
	logger   zerolog.Logger

	initialDelay time.Duration
	maxDelay     time.Duration
}

// NewListener creates a listener for the feed at rawURL. http(s) schemes
// are rewritten to ws(s).
func NewListener(rawURL string, onChange func(types.ChangeMessage), logger zerolog.Logger) *Listener {
	return &Listener{
		url:          ToWebSocketURL(rawURL),
		onChange:     onChange,
		dialer:       websocket.DefaultDialer,
		logger:       logger.With().Str("component", "live_updates").Logger(),
		initialDelay: initialReconnectDelay,
		maxDelay:     maxReconnectDelay,
	}
}

// ToWebSocketURL converts http:// to ws:// and https:// to wss://
func ToWebSocketURL(raw string) string {
	if strings.HasPrefix(raw, "http") {
		return "ws" + raw[len("http"):]
	}
	return raw
}

// Run keeps the subscription open until ctx is done. Every redial waits
// for the current delay; the delay resets only after a session that
// delivered a message or stayed up for maxDelay.
func (l *Listener) Run(ctx context.Context) {
	delay := l.initialDelay

	for {
		conn, _, err := l.dialer.DialContext(ctx, l.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Debug().Err(err).Dur("retry_in", delay).Msg("connection failed, retrying")
		} else {
			l.logger.Info().Str("url", l.url).Msg("subscribed to record changes")
			start := time.Now()
			received := l.readLoop(ctx, conn)
			if ctx.Err() != nil {
				return
			}
			if received || time.Since(start) >= l.maxDelay {
				delay = l.initialDelay
			}
			l.logger.Warn().Dur("retry_in", delay).Msg("change feed lost, reconnecting")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > l.maxDelay {
			delay = l.maxDelay
		}
	}
}

// readLoop delivers change messages until the connection drops and reports
// whether any message arrived.
func (l *Listener) readLoop(ctx context.Context, conn *websocket.Conn) bool {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	received := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return received
		}
		received = true
		var msg types.ChangeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			l.logger.Debug().Err(err).Msg("ignoring undecodable message")
			continue
		}
		if msg.Type != types.ChangeMessageType {
			continue
		}
		l.onChange(msg)
	}
}
