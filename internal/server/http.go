package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/nameloc/internal/directory"
	"github.com/muurk/nameloc/internal/logging"
	"github.com/muurk/nameloc/internal/urls"
)

// observe logs every request and records it in the request metrics. It runs
// after chimiddleware.RequestID so the request id is available.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		status := ww.Status()
		if status == 0 {
			// Hijacked for a websocket, or nothing written at all
			if websocket.IsWebSocketUpgrade(r) {
				status = http.StatusSwitchingProtocols
			} else {
				status = http.StatusOK
			}
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		s.metrics.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.metrics.RequestSeconds.WithLabelValues(route).Observe(elapsed.Seconds())

		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, status, elapsed)
		logging.Debug("Request id",
			zap.String("path", r.URL.Path),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := s.backend.Locations(r.Context())
	if err != nil {
		logging.Warn("Locations lookup failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, directory.ErrorResponse{Error: directory.ShortMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, directory.LocationsResponse{Locations: locations})
}

func (s *Server) handleNameCheck(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get(urls.NameParam)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, directory.ErrorResponse{
			Error: "missing required query parameter: " + urls.NameParam,
		})
		return
	}

	valid, err := s.checkName(r.Context(), name)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, directory.ErrorResponse{Error: directory.ShortMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, directory.NameCheckResponse{Name: name, Valid: valid})
}

// checkName asks the backend and records the outcome. Shared by the HTTP
// and websocket paths.
func (s *Server) checkName(ctx context.Context, name string) (bool, error) {
	valid, err := s.backend.CheckName(ctx, name)
	switch {
	case err != nil:
		s.metrics.NameChecks.WithLabelValues(checkResultError).Inc()
		logging.Warn("Name check failed", zap.String("name", name), zap.Error(err))
	case valid:
		s.metrics.NameChecks.WithLabelValues(checkResultValid).Inc()
	default:
		s.metrics.NameChecks.WithLabelValues(checkResultTaken).Inc()
	}
	return valid, err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to write JSON response", zap.Error(err))
	}
}
