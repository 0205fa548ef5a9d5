package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/muurk/nameloc/internal/roster"
	"github.com/muurk/nameloc/internal/urls"
)

// wsTestServer upgrades connections on the directory websocket path and hands
// them to handle.
func wsTestServer(t *testing.T, handle func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != urls.WebSocketPath {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "http://127.0.0.1:8080", want: "ws://127.0.0.1:8080" + urls.WebSocketPath},
		{in: "https://dir.example.com/", want: "wss://dir.example.com" + urls.WebSocketPath},
		{in: "ws://host:1", want: "ws://host:1" + urls.WebSocketPath},
		{in: "ftp://host", wantErr: true},
	}

	for _, tt := range tests {
		got, err := WebSocketURL(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("WebSocketURL(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("WebSocketURL(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("WebSocketURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWSClient_Locations(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn) {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		_ = conn.WriteJSON(Response{ID: req.ID, Type: FrameLocations, Locations: []roster.Location{"NYC", "SF"}})
		_, _, _ = conn.ReadMessage()
	})

	c, err := DialWS(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("DialWS() error = %v", err)
	}
	defer c.Close()

	got, err := c.Locations(context.Background())
	if err != nil {
		t.Fatalf("Locations() error = %v", err)
	}
	if diff := cmp.Diff([]roster.Location{"NYC", "SF"}, got); diff != "" {
		t.Errorf("Locations() mismatch (-want +got):\n%s", diff)
	}
}

func TestWSClient_ResponsesMatchedByID(t *testing.T) {
	// Answer both requests in reverse order
	server := wsTestServer(t, func(conn *websocket.Conn) {
		var reqs []Request
		for len(reqs) < 2 {
			var req Request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			reqs = append(reqs, req)
		}
		for i := len(reqs) - 1; i >= 0; i-- {
			req := reqs[i]
			_ = conn.WriteJSON(Response{
				ID:    req.ID,
				Type:  FrameNameChecked,
				Name:  req.Name,
				Valid: req.Name == "alice",
			})
		}
		_, _, _ = conn.ReadMessage()
	})

	c, err := DialWS(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("DialWS() error = %v", err)
	}
	defer c.Close()

	results := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, name := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			ok, err := c.CheckName(context.Background(), name)
			if err != nil {
				t.Errorf("CheckName(%q) error = %v", name, err)
				return
			}
			mu.Lock()
			results[name] = ok
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	if diff := cmp.Diff(map[string]bool{"alice": true, "bob": false}, results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestWSClient_ErrorFrame(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn) {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		_ = conn.WriteJSON(Response{ID: req.ID, Type: FrameError, Error: "registry offline"})
		_, _, _ = conn.ReadMessage()
	})

	c, err := DialWS(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("DialWS() error = %v", err)
	}
	defer c.Close()

	_, err = c.CheckName(context.Background(), "alice")
	if !errors.Is(err, ErrNameCheckFailed) {
		t.Fatalf("CheckName() error = %v, want ErrNameCheckFailed", err)
	}
	var dirErr *Error
	if errors.As(err, &dirErr) && dirErr.Message != "registry offline" {
		t.Errorf("Message = %q, want %q", dirErr.Message, "registry offline")
	}
}

func TestWSClient_ServerHangup(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn) {
		var req Request
		_ = conn.ReadJSON(&req)
		// Return without answering; the deferred Close drops the connection
	})

	c, err := DialWS(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("DialWS() error = %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = c.Locations(ctx)
	if !errors.Is(err, ErrLocationFetchFailed) {
		t.Fatalf("Locations() error = %v, want ErrLocationFetchFailed", err)
	}
	var dirErr *Error
	if errors.As(err, &dirErr) && dirErr.Type == ErrTypeTimeout {
		t.Error("hangup should fail fast, not wait for the context deadline")
	}

	// The next call redials; this server hangs up on it too
	if _, err := c.CheckName(ctx, "alice"); !errors.Is(err, ErrNameCheckFailed) {
		t.Errorf("CheckName() after hangup error = %v, want ErrNameCheckFailed", err)
	}
}

func TestWSClient_ContextCanceled(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn) {
		// Never answer
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c, err := DialWS(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("DialWS() error = %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err = c.CheckName(ctx, "alice")
	var dirErr *Error
	if !errors.As(err, &dirErr) || dirErr.Type != ErrTypeCanceled {
		t.Errorf("CheckName() error = %v, want canceled", err)
	}

	c.mu.Lock()
	pending := len(c.pending)
	c.mu.Unlock()
	if pending != 0 {
		t.Errorf("pending requests = %d, want 0 after cancellation", pending)
	}
}

func TestWSClient_RedialsAfterDrop(t *testing.T) {
	var conns atomic.Int32
	server := wsTestServer(t, func(conn *websocket.Conn) {
		n := conns.Add(1)
		for {
			var req Request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			_ = conn.WriteJSON(Response{ID: req.ID, Type: FrameNameChecked, Name: req.Name, Valid: true})
			if n == 1 {
				// Drop the first connection after one answer
				return
			}
		}
	})

	c, err := DialWS(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("DialWS() error = %v", err)
	}
	defer c.Close()

	if _, err := c.CheckName(context.Background(), "alice"); err != nil {
		t.Fatalf("first CheckName() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		lost := c.lost
		c.mu.Unlock()
		if lost {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("client never noticed the dropped connection")
		}
		time.Sleep(10 * time.Millisecond)
	}

	ok, err := c.CheckName(context.Background(), "bob")
	if err != nil {
		t.Fatalf("CheckName() after drop error = %v", err)
	}
	if !ok {
		t.Error("CheckName() after drop = false, want true")
	}
	if got := conns.Load(); got != 2 {
		t.Errorf("connections = %d, want 2", got)
	}
}

func TestWSClient_RedialFailure(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn) {})

	c, err := DialWS(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("DialWS() error = %v", err)
	}
	defer c.Close()
	c.MaxRedials = 1
	c.RedialDelay = time.Millisecond

	// Wait for the hangup, then take the server away
	<-c.done
	server.Close()

	_, err = c.Locations(context.Background())
	if !errors.Is(err, ErrLocationFetchFailed) {
		t.Fatalf("Locations() error = %v, want ErrLocationFetchFailed", err)
	}
	if !IsRetryable(err) {
		t.Error("a failed redial should stay retryable")
	}
}

func TestWSClient_NoRedialAfterClose(t *testing.T) {
	var conns atomic.Int32
	server := wsTestServer(t, func(conn *websocket.Conn) {
		conns.Add(1)
		_, _, _ = conn.ReadMessage()
	})

	c, err := DialWS(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("DialWS() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	_, err = c.CheckName(context.Background(), "alice")
	if !errors.Is(err, ErrNameCheckFailed) {
		t.Fatalf("CheckName() error = %v, want ErrNameCheckFailed", err)
	}
	if IsRetryable(err) {
		t.Error("requests on a closed client should not be retryable")
	}
	if got := conns.Load(); got > 1 {
		t.Errorf("connections = %d, want no redial", got)
	}
}
