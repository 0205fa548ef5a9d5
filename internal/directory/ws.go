package directory

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/nameloc/internal/logging"
	"github.com/muurk/nameloc/internal/roster"
	"github.com/muurk/nameloc/internal/urls"
)

const (
	// Time allowed to write a frame to the server
	writeWait = 10 * time.Second

	// DefaultMaxRedials is how many extra dial attempts a request makes after
	// the connection was lost
	DefaultMaxRedials = 2
)

var (
	errChannelClosed = errors.New("websocket channel closed")
	errClientClosed  = errors.New("websocket client closed")
)

// WSClient is a Directory that multiplexes requests over one websocket
// connection. Every request carries a fresh id and the server echoes it, so
// responses are matched to the call that issued them regardless of arrival
// order. When the connection drops, the next request dials again.
type WSClient struct {
	// MaxRedials is the number of extra dial attempts after the first one
	// fails when reconnecting
	MaxRedials int

	// RedialDelay is the initial delay between dial attempts; it doubles up
	// to DefaultMaxRetryDelay
	RedialDelay time.Duration

	url string

	writeMu sync.Mutex
	dialMu  sync.Mutex

	mu      sync.Mutex
	conn    *websocket.Conn
	done    chan struct{} // closed when conn's read loop exits
	pending map[string]chan Response
	lost    bool // read loop stopped; the next request redials
	closed  bool // Close was called
	readErr error
}

// WebSocketURL converts an http(s) base URL into the websocket endpoint URL
func WebSocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q in %q", u.Scheme, baseURL)
	}
	u.Path = urls.WebSocketPath
	u.RawQuery = ""

	return u.String(), nil
}

// DialWS connects to the directory websocket endpoint under baseURL
func DialWS(ctx context.Context, baseURL string) (*WSClient, error) {
	wsURL, err := WebSocketURL(baseURL)
	if err != nil {
		return nil, err
	}

	c := &WSClient{
		MaxRedials:  DefaultMaxRedials,
		RedialDelay: DefaultRetryDelay,
		url:         wsURL,
		pending:     make(map[string]chan Response),
	}
	if err := c.dial(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// dial opens a connection and starts its read loop
func (c *WSClient) dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return errClientClosed
	}
	done := make(chan struct{})
	c.conn = conn
	c.done = done
	c.lost = false
	c.readErr = nil
	c.mu.Unlock()

	logging.Info("Directory websocket connected", zap.String("url", c.url))
	go c.readLoop(conn, done)
	return nil
}

// Locations implements Directory
func (c *WSClient) Locations(ctx context.Context) ([]roster.Location, error) {
	start := time.Now()
	resp, err := c.roundTrip(ctx, OpFetchLocations, Request{Type: FrameLocations})
	logging.LogLookup(string(OpFetchLocations), "", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if resp.Type != FrameLocations {
		return nil, newProtocolError(OpFetchLocations, fmt.Sprintf("unexpected frame type %q", resp.Type))
	}
	return resp.Locations, nil
}

// CheckName implements Directory
func (c *WSClient) CheckName(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	resp, err := c.roundTrip(ctx, OpCheckName, Request{Type: FrameCheckName, Name: name})
	logging.LogLookup(string(OpCheckName), name, time.Since(start), err)
	if err != nil {
		return false, err
	}
	if resp.Type != FrameNameChecked {
		return false, newProtocolError(OpCheckName, fmt.Sprintf("unexpected frame type %q", resp.Type))
	}
	if resp.Name != name {
		return false, newProtocolError(OpCheckName, fmt.Sprintf("response for %q does not match request for %q", resp.Name, name))
	}
	return resp.Valid, nil
}

// Close shuts the connection down and fails any outstanding requests.
// Requests made after Close fail without dialing.
func (c *WSClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn, done, lost := c.conn, c.done, c.lost
	c.mu.Unlock()

	if lost {
		<-done
		return nil
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	c.writeMu.Unlock()

	err := conn.Close()
	<-done
	return err
}

// connection returns the live connection, redialing with backoff when the
// previous one was lost
func (c *WSClient) connection(ctx context.Context, op Op) (*websocket.Conn, error) {
	if conn, ok, err := c.current(op); ok || err != nil {
		return conn, err
	}

	c.dialMu.Lock()
	defer c.dialMu.Unlock()

	// Another request may have reconnected while we waited
	if conn, ok, err := c.current(op); ok || err != nil {
		return conn, err
	}

	var lastErr error
	delay := c.RedialDelay
	for i := 0; i <= c.MaxRedials; i++ {
		if i > 0 {
			logging.Debug("Redialing directory websocket",
				zap.String("op", string(op)),
				zap.Int("attempt", i),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, classifyTransportError(op, "request abandoned", ctx.Err())
			}

			delay *= 2
			if delay > DefaultMaxRetryDelay {
				delay = DefaultMaxRetryDelay
			}
		}

		lastErr = c.dial(ctx)
		if errors.Is(lastErr, errClientClosed) {
			return nil, closedClientError(op)
		}
		if lastErr == nil {
			if conn, ok, err := c.current(op); ok || err != nil {
				return conn, err
			}
		}
	}

	return nil, classifyTransportError(op, "websocket reconnect failed", lastErr)
}

// current returns the connection if it is live. ok is false when it was
// lost and a redial is needed.
func (c *WSClient) current(op Op) (conn *websocket.Conn, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false, closedClientError(op)
	}
	if c.lost {
		return nil, false, nil
	}
	return c.conn, true, nil
}

func closedClientError(op Op) *Error {
	return &Error{
		Op:      op,
		Type:    ErrTypeNetwork,
		Message: "websocket client closed",
		Err:     errClientClosed,
	}
}

func (c *WSClient) roundTrip(ctx context.Context, op Op, req Request) (Response, error) {
	conn, err := c.connection(ctx, op)
	if err != nil {
		return Response{}, err
	}

	req.ID = uuid.NewString()
	ch := make(chan Response, 1)

	c.mu.Lock()
	if c.conn != conn || c.lost || c.closed {
		readErr := c.readErr
		c.mu.Unlock()
		return Response{}, classifyTransportError(op, "websocket channel closed", readErr)
	}
	c.pending[req.ID] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(req.ID)
		return Response{}, classifyTransportError(op, "failed to send request", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return Response{}, classifyTransportError(op, "websocket channel closed", c.closeErr())
		}
		if resp.Type == FrameError {
			return Response{}, &Error{
				Op:        op,
				Type:      ErrTypeUnavailable,
				Message:   resp.Error,
				Retryable: true,
			}
		}
		return resp, nil

	case <-ctx.Done():
		c.forget(req.ID)
		return Response{}, classifyTransportError(op, "request abandoned", ctx.Err())
	}
}

func (c *WSClient) forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

func (c *WSClient) closeErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return c.readErr
	}
	return errChannelClosed
}

func (c *WSClient) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	defer conn.Close()

	for {
		var resp Response
		if err := conn.ReadJSON(&resp); err != nil {
			c.shutdown(conn, err)
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()

		if !ok {
			logging.Debug("Dropping websocket response with unknown id",
				zap.String("id", resp.ID),
				zap.String("type", resp.Type),
			)
			continue
		}
		ch <- resp
	}
}

// shutdown marks conn lost and fails the requests waiting on it
func (c *WSClient) shutdown(conn *websocket.Conn, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != conn {
		return
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		err = errChannelClosed
	}
	c.lost = true
	c.readErr = err
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}

	logging.Debug("Directory websocket read loop stopped", zap.Error(err))
}
