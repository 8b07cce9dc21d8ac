package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/psaab/nocterm/pkg/eventlog"
)

// setSSEHeaders configures the response for Server-Sent Events streaming.
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// writeSSEEvent writes a single SSE event to the response.
func writeSSEEvent(w http.ResponseWriter, id string, event string, data string) {
	fmt.Fprintf(w, "id: %s\n", id)
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// logStreamHandler streams new event log entries via SSE.
// Supports ?level= to drop entries less severe than the given level.
func (s *Server) logStreamHandler(w http.ResponseWriter, r *http.Request) {
	minLevel := eventlog.LevelInfo
	if v := r.URL.Query().Get("level"); v != "" {
		minLevel = eventlog.ParseLevel(v)
	}

	sub := s.log.Subscribe(128)
	defer sub.Close()

	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	var seq uint64
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-sub.C:
			if e.Level < minLevel {
				continue
			}
			seq++
			data, err := json.Marshal(logEntry(e))
			if err != nil {
				continue
			}
			writeSSEEvent(w, fmt.Sprintf("%d", seq), "log", string(data))
		}
	}
}
