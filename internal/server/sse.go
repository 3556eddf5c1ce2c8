package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"embodi/internal/demux"
)

// handleStream handles GET /config/{id}/{key} as a Server-Sent Events stream.
// The container is looked up before any header is written so an unknown id
// still gets a plain 404.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id := r.PathValue("id")
	key := r.PathValue("key")

	ctx := r.Context()
	events, err := s.svc.Stream(ctx, id, key)
	if err != nil {
		s.writeErrorFor(w, r, id, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	s.logger.Debug("Log stream opened", "containerID", id)

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Log stream client went away", "containerID", id)
			return
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				s.logger.Debug("Log stream finished", "containerID", id)
				return
			}
			writeEvent(w, ev)
			flusher.Flush()
		}
	}
}

// writeEvent frames one log event. Output lines are unnamed events; stderr
// lines are named "stderr". A payload holding CR or LF is sent as several data
// lines, which the client joins back with LF.
func writeEvent(w http.ResponseWriter, ev demux.LogEvent) {
	if ev.Channel == demux.Error {
		fmt.Fprint(w, "event: stderr\n")
	}
	for _, line := range dataLines(ev.Payload) {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

// dataLines splits s on CRLF, CR and LF, the line endings an event stream
// recognises.
func dataLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
