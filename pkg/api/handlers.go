package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/psaab/nocterm/pkg/eventlog"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Success: false, Error: msg})
}

func writeStopped(w http.ResponseWriter) {
	writeError(w, http.StatusServiceUnavailable, "interpreter stopped")
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, _ *http.Request) {
	var resp StatusResponse
	ok := s.onLoop(func() {
		sess := s.cli.Sessions().Active()
		resp = StatusResponse{
			Uptime:     time.Since(s.startTime).Truncate(time.Second).String(),
			Hostname:   sess.Hostname,
			Session:    sess.ID,
			Mode:       sess.Mode.String(),
			Prompt:     s.cli.Prompt(),
			UplinkUp:   s.cli.Model().UplinkUp(),
			Scenario:   s.cli.Scenarios().Current(),
			JobRunning: s.cli.Jobs().Running(),
		}
	})
	if !ok {
		writeStopped(w)
		return
	}
	writeOK(w, resp)
}

func (s *Server) interfacesHandler(w http.ResponseWriter, _ *http.Request) {
	var out []InterfaceInfo
	ok := s.onLoop(func() {
		for _, ifc := range s.cli.Model().Interfaces() {
			out = append(out, InterfaceInfo{
				Name:        ifc.Name,
				IP:          ifc.IP,
				Mask:        ifc.Mask,
				Status:      ifc.Status(),
				Protocol:    ifc.Protocol(),
				Description: ifc.Description,
			})
		}
	})
	if !ok {
		writeStopped(w)
		return
	}
	writeOK(w, out)
}

func (s *Server) routesHandler(w http.ResponseWriter, _ *http.Request) {
	var out []RouteInfo
	ok := s.onLoop(func() {
		m := s.cli.Model()
		for _, r := range append(m.Routes(), m.ConnectedRoutes()...) {
			out = append(out, RouteInfo{
				Prefix: r.Prefix,
				Via:    r.Via,
				Iface:  r.Iface,
				Proto:  r.Proto,
				Metric: r.Metric,
			})
		}
	})
	if !ok {
		writeStopped(w)
		return
	}
	writeOK(w, out)
}

func (s *Server) neighborsHandler(w http.ResponseWriter, _ *http.Request) {
	var out []NeighborInfo
	ok := s.onLoop(func() {
		for _, n := range s.cli.Model().Neighbors() {
			out = append(out, NeighborInfo{
				IP:       n.IP,
				ASN:      n.ASN,
				State:    n.State,
				Uptime:   n.Uptime,
				Prefixes: n.Prefixes,
			})
		}
	})
	if !ok {
		writeStopped(w)
		return
	}
	writeOK(w, out)
}

// loggingHandler returns the newest n entries, newest first. The event
// log is safe for concurrent readers, so this skips the loop.
func (s *Server) loggingHandler(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r, "n", s.log.Capacity())
	entries := s.log.Latest(n)
	out := make([]LogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, logEntry(e))
	}
	writeOK(w, out)
}

func logEntry(e eventlog.Entry) LogEntry {
	return LogEntry{
		Time:    e.Time.Format(time.RFC3339),
		Level:   e.Level.String(),
		Message: e.Message,
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
