package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/telemetry"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

type rawMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func read(t *testing.T, conn *websocket.Conn) rawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg rawMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(Hello{RunID: "run-1", Width: 500, Height: 800})
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	defer conn.Close()

	hello := read(t, conn)
	if hello.Type != TypeHello {
		t.Fatalf("first message type = %q, want %q", hello.Type, TypeHello)
	}
	var h Hello
	if err := json.Unmarshal(hello.Data, &h); err != nil {
		t.Fatal(err)
	}
	if h.RunID != "run-1" || h.Width != 500 {
		t.Errorf("hello = %+v", h)
	}
	waitFor(t, func() bool { return hub.Clients() == 1 })

	hub.PublishFrame(game.Frame{Generation: 2, Tick: 17, Birds: []game.BirdView{{ID: 3}}})
	msg := read(t, conn)
	if msg.Type != TypeFrame {
		t.Fatalf("type = %q, want %q", msg.Type, TypeFrame)
	}
	var f game.Frame
	if err := json.Unmarshal(msg.Data, &f); err != nil {
		t.Fatal(err)
	}
	if f.Generation != 2 || f.Tick != 17 || len(f.Birds) != 1 || f.Birds[0].ID != 3 {
		t.Errorf("frame = %+v", f)
	}

	hub.PublishGeneration(telemetry.GenerationStats{Generation: 2, FitnessMax: 4.5})
	msg = read(t, conn)
	if msg.Type != TypeGeneration {
		t.Fatalf("type = %q, want %q", msg.Type, TypeGeneration)
	}
	var s telemetry.GenerationStats
	if err := json.Unmarshal(msg.Data, &s); err != nil {
		t.Fatal(err)
	}
	if s.Generation != 2 || s.FitnessMax != 4.5 {
		t.Errorf("stats = %+v", s)
	}
}

func TestHubDropsDisconnectedClient(t *testing.T) {
	hub := NewHub(Hello{})
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	read(t, conn)
	waitFor(t, func() bool { return hub.Clients() == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.Clients() == 0 })

	// Publishing with nobody connected is a no-op
	hub.PublishFrame(game.Frame{})
	if hub.Dropped() != 0 {
		t.Errorf("dropped = %d, want 0", hub.Dropped())
	}
}

func TestHubSlowClientDropsMessages(t *testing.T) {
	hub := NewHub(Hello{})
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	defer conn.Close()
	read(t, conn)
	waitFor(t, func() bool { return hub.Clients() == 1 })

	// Never reading lets the send buffer fill up; publish must not block
	big := game.Frame{Birds: make([]game.BirdView, 2000)}
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10*sendBuffer; i++ {
			hub.PublishFrame(big)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a slow client")
	}
	if hub.Dropped() == 0 {
		t.Error("expected some messages to be dropped")
	}
}

func TestHubCloseRefusesClients(t *testing.T) {
	hub := NewHub(Hello{})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	hub.Close()
	conn := dial(t, srv)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	if hub.Clients() != 0 {
		t.Errorf("clients = %d, want 0", hub.Clients())
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- Serve(ctx, "127.0.0.1:0", NewHub(Hello{}))
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}
