package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dennisdiepolder/monti/calldesk/internal/config"
	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func testConfig() *config.Config {
	return &config.Config{
		AllowedOrigins: []string{"http://localhost:3000"},
		PongWait:       time.Minute,
		PingPeriod:     54 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 512,
	}
}

func TestNewHub(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)

	if hub == nil {
		t.Fatal("expected hub to be created")
	}
	if hub.clients == nil {
		t.Error("expected clients map to be initialized")
	}
	if hub.broadcast == nil {
		t.Error("expected broadcast channel to be initialized")
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("expected register channels to be initialized")
	}
}

func TestHubClientCount(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}

	hub.mu.Lock()
	hub.clients[&Client{id: "test1"}] = true
	hub.clients[&Client{id: "test2"}] = true
	hub.mu.Unlock()

	if hub.ClientCount() != 2 {
		t.Errorf("expected 2 clients, got %d", hub.ClientCount())
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := &Client{
		id:   "test-client",
		hub:  hub,
		send: make(chan []byte, 1),
	}

	hub.register <- client
	time.Sleep(10 * time.Millisecond)
	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client after register, got %d", hub.ClientCount())
	}

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients after unregister, got %d", hub.ClientCount())
	}
}

func TestHubBroadcastChangeToMultipleClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client1 := &Client{id: "client1", hub: hub, send: make(chan []byte, 10)}
	client2 := &Client{id: "client2", hub: hub, send: make(chan []byte, 10)}
	hub.register <- client1
	hub.register <- client2

	hub.BroadcastChange(types.NewChangeMessage(types.ChangeCreated, "42"))

	for _, c := range []*Client{client1, client2} {
		select {
		case data := <-c.send:
			var msg types.ChangeMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("%s: invalid JSON: %v", c.id, err)
			}
			if msg.Type != types.ChangeMessageType || msg.Op != types.ChangeCreated || msg.ID != "42" {
				t.Errorf("%s: got %+v", c.id, msg)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("%s did not receive message", c.id)
		}
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := &Client{id: "slow", hub: hub, send: make(chan []byte)}
	hub.register <- slow
	hub.Broadcast([]byte("x"))

	deadline := time.After(200 * time.Millisecond)
	for hub.ClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("slow client was not removed")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestCheckOrigin(t *testing.T) {
	h := NewHandler(NewHub(zerolog.Nop()), testConfig(), zerolog.Nop())

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin", "", true},
		{"allowed origin", "http://localhost:3000", true},
		{"foreign origin", "http://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := h.checkOrigin(req); got != tt.want {
				t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestToWebSocketURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:5000/ws":  "ws://localhost:5000/ws",
		"https://example.com/ws":    "wss://example.com/ws",
		"ws://already.example/feed": "ws://already.example/feed",
	}
	for in, want := range tests {
		if got := ToWebSocketURL(in); got != want {
			t.Errorf("ToWebSocketURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestListenerReceivesChanges(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(NewHandler(hub, testConfig(), zerolog.Nop()))
	defer srv.Close()

	got := make(chan types.ChangeMessage, 1)
	listener := NewListener(srv.URL, func(msg types.ChangeMessage) { got <- msg }, zerolog.Nop())
	if !strings.HasPrefix(listener.url, "ws://") {
		t.Fatalf("listener url = %q, want ws scheme", listener.url)
	}

	listenCtx, stop := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		listener.Run(listenCtx)
		close(stopped)
	}()

	deadline := time.After(2 * time.Second)
	for hub.ClientCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("listener never connected")
		case <-time.After(10 * time.Millisecond):
		}
	}

	hub.Broadcast([]byte(`{"type":"something_else"}`))
	hub.BroadcastChange(types.NewChangeMessage(types.ChangeStatus, "7"))

	select {
	case msg := <-got:
		if msg.Op != types.ChangeStatus || msg.ID != "7" {
			t.Errorf("got %+v, want status change for 7", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not report the change")
	}

	stop()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop after cancel")
	}
}

func TestListenerBacksOffWhenServerDropsImmediately(t *testing.T) {
	var dials atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		dials.Add(1)
		conn.Close()
	}))
	defer srv.Close()

	listener := NewListener(srv.URL, func(types.ChangeMessage) {}, zerolog.Nop())
	listener.initialDelay = 50 * time.Millisecond
	listener.maxDelay = 200 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	listener.Run(ctx)

	// waits of 50ms, 100ms and 200ms leave room for at most four sessions
	if n := dials.Load(); n < 2 || n > 4 {
		t.Errorf("dials = %d, want 2..4 with backoff", n)
	}
}
