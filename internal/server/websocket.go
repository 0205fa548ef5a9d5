package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/nameloc/internal/directory"
	"github.com/muurk/nameloc/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// session is one websocket connection. Requests are answered concurrently;
// each reply carries the request id so the client can match it.
type session struct {
	id         string
	conn       *websocket.Conn
	remoteAddr string
	writeMu    sync.Mutex
	transcript *Transcript
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	// RemoteAddr may be a bare client IP after RealIP, so it cannot key sessions
	sess := &session{
		id:         uuid.NewString(),
		conn:       conn,
		remoteAddr: r.RemoteAddr,
	}
	s.track(sess)
	defer s.untrack(sess)

	sess.transcript = OpenTranscript(s.config.CaptureDir, sess.remoteAddr, sess.id)
	defer sess.transcript.Close()

	s.serveSession(sess)
}

func (s *Server) track(sess *session) {
	s.wg.Add(1)
	s.mu.Lock()
	s.sessions[sess.id] = sess.conn
	s.mu.Unlock()
	s.metrics.WebSocketSessions.Inc()
	logging.LogConnection(sess.remoteAddr, "websocket_opened")
	logging.Debug("Session opened", zap.String("session_id", sess.id))
}

func (s *Server) untrack(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	s.metrics.WebSocketSessions.Dec()
	logging.LogConnection(sess.remoteAddr, "websocket_closed")
	s.wg.Done()
}

// serveSession reads request frames until the peer goes away
func (s *Server) serveSession(sess *session) {
	ctx, cancel := context.WithCancel(context.Background())
	var inflight sync.WaitGroup

	defer func() {
		cancel()
		inflight.Wait()
		_ = sess.conn.Close()
	}()

	sess.conn.SetReadLimit(maxMessageSize)
	_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go sess.pingLoop(ctx)

	for {
		var req directory.Request
		if err := sess.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info("Connection closed or error reading frame",
					zap.String("remote_addr", sess.remoteAddr),
					zap.Error(err),
				)
			}
			return
		}

		sess.transcript.Record(DirectionInbound, req)
		s.metrics.WebSocketFrames.WithLabelValues(frameLabel(req.Type)).Inc()

		inflight.Add(1)
		go func() {
			defer inflight.Done()
			sess.reply(s.answer(ctx, req))
		}()
	}
}

// answer runs one request frame against the backend
func (s *Server) answer(ctx context.Context, req directory.Request) directory.Response {
	switch req.Type {
	case directory.FrameLocations:
		locations, err := s.backend.Locations(ctx)
		if err != nil {
			return errorFrame(req.ID, err)
		}
		return directory.Response{ID: req.ID, Type: directory.FrameLocations, Locations: locations}

	case directory.FrameCheckName:
		if req.Name == "" {
			return errorFrame(req.ID, errors.New("missing name"))
		}
		valid, err := s.checkName(ctx, req.Name)
		if err != nil {
			return errorFrame(req.ID, err)
		}
		return directory.Response{ID: req.ID, Type: directory.FrameNameChecked, Name: req.Name, Valid: valid}

	default:
		logging.Warn("Received frame with unknown type", zap.String("type", req.Type))
		return directory.Response{ID: req.ID, Type: directory.FrameError, Error: "unknown request type: " + req.Type}
	}
}

// frameLabel bounds the frame metric's label set; the type comes from the
// client
func frameLabel(frameType string) string {
	switch frameType {
	case directory.FrameLocations, directory.FrameCheckName:
		return frameType
	default:
		return frameTypeUnknown
	}
}

func errorFrame(id string, err error) directory.Response {
	return directory.Response{ID: id, Type: directory.FrameError, Error: directory.ShortMessage(err)}
}

func (sess *session) reply(resp directory.Response) {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()

	_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := sess.conn.WriteJSON(resp); err != nil {
		logging.Debug("Failed to write websocket response",
			zap.String("remote_addr", sess.remoteAddr),
			zap.Error(err),
		)
		return
	}
	sess.transcript.Record(DirectionOutbound, resp)
}

func (sess *session) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := sess.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
