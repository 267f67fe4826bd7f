package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, entities ...string) *Client {
	return NewClient(hub, nil, entities)
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return got
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
	return Message{}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c1 := mockClient(hub)
	c2 := mockClient(hub)

	hub.Register(c1)
	hub.Register(c2)
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}
	hub.Unregister(c2)
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())
	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)
	defer hub.Unregister(c1)
	defer hub.Unregister(c2)

	hub.Publish("formations", "created", "f-42", map[string]any{"title": "Go"})

	for _, c := range []*Client{c1, c2} {
		got := receive(t, c)
		if got.Type != "formations_created" {
			t.Errorf("expected type formations_created, got %s", got.Type)
		}
		if got.ID != "f-42" {
			t.Errorf("expected id f-42, got %s", got.ID)
		}
	}
}

func TestBroadcastFiltersEntities(t *testing.T) {
	hub := NewHub(slog.Default())
	all := mockClient(hub)
	cal := mockClient(hub, "calendar")
	hub.Register(all)
	hub.Register(cal)
	defer hub.Unregister(all)
	defer hub.Unregister(cal)

	hub.Publish("jobs", "deleted", "j-1", nil)
	hub.Publish("calendar", "ready", "", nil)

	if got := receive(t, all); got.Type != "jobs_deleted" {
		t.Errorf("first message = %s", got.Type)
	}
	if got := receive(t, cal); got.Type != "calendar_ready" {
		t.Errorf("filtered client got %s, want calendar_ready", got.Type)
	}
	select {
	case data := <-cal.send:
		t.Errorf("filtered client received extra message %s", data)
	default:
	}
}

func TestPublishError(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub)
	hub.Register(c)
	defer hub.Unregister(c)

	hub.PublishError("centers", "c-1", "Centre introuvable")
	got := receive(t, c)
	if got.Type != "centers_error" || got.Error != "Centre introuvable" {
		t.Errorf("got %+v", got)
	}
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub)
	hub.Register(c)
	defer hub.Unregister(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Publish("test", "fill", "", nil)
	}
	// Must drop, not block.
	hub.Publish("test", "dropped", "", nil)

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("expected %d queued messages, got %d", sendBufferSize, got)
	}
	if got := hub.Dropped(); got != 1 {
		t.Errorf("dropped = %d, want 1", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub)
			hub.Register(c)
			hub.Publish("test", "concurrent", "", nil)
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}

func TestHandlerDeliversMessages(t *testing.T) {
	hub := NewHub(slog.Default())
	srv := httptest.NewServer(Handler(hub, nil, slog.Default()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?entities=users"
	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	for hub.ClientCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish("jobs", "created", "j-1", nil)
	hub.Publish("users", "updated", "u-7", nil)

	var got Message
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != "users_updated" || got.ID != "u-7" {
		t.Errorf("got %+v, want users_updated u-7", got)
	}
}

func TestParseEntities(t *testing.T) {
	got := parseEntities(" formations, ,calendar")
	if len(got) != 2 || got[0] != "formations" || got[1] != "calendar" {
		t.Errorf("parseEntities = %v", got)
	}
	if parseEntities("") != nil {
		t.Error("empty filter should be nil")
	}
}
