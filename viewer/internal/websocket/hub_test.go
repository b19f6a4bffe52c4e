package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Krimson/dts-viewer/viewer/internal/axis"
	"github.com/Krimson/dts-viewer/viewer/internal/cursor"
	"github.com/Krimson/dts-viewer/viewer/internal/override"
	"github.com/Krimson/dts-viewer/viewer/internal/session"
)

type fakeController struct {
	mu     sync.Mutex
	moves  []cursor.PointerEvent
	clicks []override.Click
}

func (f *fakeController) Move(id axis.ID, ev cursor.PointerEvent) (session.CursorFrame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, ev)
	if id == axis.HeadAxial {
		return session.CursorFrame{}, errors.New("axis not plotted")
	}
	p := cursor.Point{X: ev.X, Y: 20}
	return session.CursorFrame{Axis: id.String(), State: cursor.State{Snapped: &p, LabelVisible: ev.InAxes}}, nil
}

func (f *fakeController) Click(id axis.ID, click override.Click) (*override.Refresh, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, click)
	return nil, false, nil
}

func startHub(t *testing.T) (*Hub, *fakeController, string) {
	t.Helper()
	ctrl := &fakeController{}
	hub := NewHub(ctrl, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, ctrl, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readOutbound(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out Outbound
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return out
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, have %d", n, hub.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_MoveRepliesWithCursorFrame(t *testing.T) {
	hub, ctrl, url := startHub(t)
	conn := dial(t, url)
	waitClients(t, hub, 1)

	if err := conn.WriteJSON(Inbound{Type: TypeMove, Axis: "machine_primary", X: 2.4, Y: 7}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	out := readOutbound(t, conn)
	if out.Type != TypeCursor || out.Cursor == nil {
		t.Fatalf("Expected cursor frame, got %+v", out)
	}
	if out.Cursor.Axis != "machine_primary" || out.Cursor.State.Snapped.X != 2.4 {
		t.Errorf("Unexpected frame %+v", out.Cursor)
	}

	if err := conn.WriteJSON(Inbound{Type: TypeLeave, Axis: "machine_primary"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if out := readOutbound(t, conn); out.Cursor == nil || out.Cursor.State.LabelVisible {
		t.Errorf("Expected hidden label after leave, got %+v", out.Cursor)
	}

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if len(ctrl.moves) != 2 || !ctrl.moves[0].InAxes || ctrl.moves[1].InAxes {
		t.Errorf("Unexpected pointer events %+v", ctrl.moves)
	}
}

func TestHub_ErrorsGoToSender(t *testing.T) {
	hub, _, url := startHub(t)
	conn := dial(t, url)
	waitClients(t, hub, 1)

	cases := []Inbound{
		{Type: TypeMove, Axis: "elbow"},
		{Type: TypeMove, Axis: "head_axial"},
		{Type: "zoom", Axis: "machine_primary"},
	}
	for _, in := range cases {
		if err := conn.WriteJSON(in); err != nil {
			t.Fatalf("WriteJSON: %v", err)
		}
		if out := readOutbound(t, conn); out.Type != TypeError || out.Error == "" {
			t.Errorf("%+v: expected error reply, got %+v", in, out)
		}
	}
}

func TestHub_ClickHasNoDirectReply(t *testing.T) {
	hub, ctrl, url := startHub(t)
	conn := dial(t, url)
	waitClients(t, hub, 1)

	conn.WriteJSON(Inbound{Type: TypeClick, Axis: "machine_primary", X: 37.5, Button: 3})
	conn.WriteJSON(Inbound{Type: TypeMove, Axis: "machine_primary", X: 1})

	// The first reply is the move's, so the click produced none.
	if out := readOutbound(t, conn); out.Type != TypeCursor {
		t.Errorf("Expected cursor frame, got %+v", out)
	}
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if len(ctrl.clicks) != 1 || ctrl.clicks[0].Button != override.ButtonSecondary {
		t.Errorf("Unexpected clicks %+v", ctrl.clicks)
	}
}

func TestHub_BroadcastsToAllClients(t *testing.T) {
	hub, _, url := startHub(t)
	a := dial(t, url)
	b := dial(t, url)
	waitClients(t, hub, 2)

	hub.ExperimentCleared(context.Background(), "exp-1")

	for _, conn := range []*websocket.Conn{a, b} {
		out := readOutbound(t, conn)
		if out.Type != TypeCleared || out.ID != "exp-1" {
			t.Errorf("Expected cleared broadcast, got %+v", out)
		}
	}
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, _, url := startHub(t)
	conn := dial(t, url)
	waitClients(t, hub, 1)

	conn.Close()
	waitClients(t, hub, 0)
}
