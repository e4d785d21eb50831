package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	snap, err := s.svc.Dashboard.Snapshot(r.Context())
	if err != nil {
		s.fail(w, r, err, log.ComponentDashboard, log.OpRead)
		return
	}
	NewResponse().JSON(snap).Write(w)
}

// handleDashboardEvents streams one "refresh" event per dashboard
// invalidation until the client goes away or the server shuts down.
func (s *Server) handleDashboardEvents(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalServerError("streaming unsupported").Write(w)
		return
	}

	updates, stop := s.svc.Dashboard.Updates()
	defer stop()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "retry: 3000\n\n")
	flusher.Flush()

	logger := log.FromContext(r.Context())
	logger.DebugContext(r.Context(), "Dashboard stream opened")
	defer logger.DebugContext(r.Context(), "Dashboard stream closed")

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case c := <-updates:
			data, err := json.Marshal(c)
			if err != nil {
				data = []byte("{}")
			}
			if _, err := fmt.Fprintf(w, "event: refresh\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
