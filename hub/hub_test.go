package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nathoo/questrun/engine/events"
	"github.com/nathoo/questrun/types"
)

type fakeSnap struct {
	s   *types.RunState
	err error
}

func (f fakeSnap) Snapshot() (*types.RunState, error) { return f.s, f.err }

func startHub(t *testing.T, snap Snapshotter) (*Hub, *events.Bus, *httptest.Server, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := New(nil)
	go h.Run(ctx)
	bus := events.NewBus()
	h.Relay(ctx, bus)
	srv := httptest.NewServer(h.Handler(snap))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return h, bus, srv, cancel
}

func dial(t *testing.T, h *Hub, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("observer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestRelay_PushesChanges(t *testing.T) {
	h, bus, srv, _ := startHub(t, fakeSnap{})
	conn := dial(t, h, srv)

	bus.Publish("quest completed")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	want := Message{Type: MessageChanged, Rev: 1, Reason: "quest completed"}
	if msg != want {
		t.Errorf("msg = %+v, want %+v", msg, want)
	}
}

func TestRun_StopClosesObservers(t *testing.T) {
	h, _, srv, cancel := startHub(t, fakeSnap{})
	conn := dial(t, h, srv)

	cancel()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the connection to close")
	}
	if err := h.Broadcast(context.Background(), Message{Type: MessageChanged}); err == nil {
		t.Error("broadcast after stop should fail")
	}
}

func TestHandler_State(t *testing.T) {
	_, _, srv, _ := startHub(t, fakeSnap{s: &types.RunState{HP: 77, Gold: 12}})

	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
	var got types.RunState
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.HP != 77 || got.Gold != 12 {
		t.Errorf("state = hp %d gold %d", got.HP, got.Gold)
	}
}

func TestHandler_StateError(t *testing.T) {
	_, _, srv, _ := startHub(t, fakeSnap{err: errors.New("disk gone")})
	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestHandler_Healthz(t *testing.T) {
	_, _, srv, _ := startHub(t, fakeSnap{})
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}
