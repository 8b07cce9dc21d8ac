package api

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psaab/nocterm/pkg/cli"
	"github.com/psaab/nocterm/pkg/output"
	"github.com/psaab/nocterm/pkg/sched"
)

func newTestServer(t *testing.T, auth *AuthConfig) (*Server, *cli.CLI, *sched.Loop) {
	t.Helper()
	loop := sched.NewLoop()
	c := cli.Build(cli.DefaultOptions(), loop, &output.Recorder{})
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)
	return NewServer(Config{CLI: c, Loop: loop, Auth: auth}), c, loop
}

func get(t *testing.T, h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success, "body: %s", w.Body.String())
	return resp.Data
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	w := get(t, s.Handler(), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestStatusAndInterfaces(t *testing.T) {
	s, c, loop := newTestServer(t, nil)

	status := decode[StatusResponse](t, get(t, s.Handler(), "/api/v1/status"))
	assert.Equal(t, "linux", status.Mode)
	assert.Equal(t, "local", status.Session)
	assert.True(t, status.UplinkUp)
	assert.False(t, status.JobRunning)

	ifaces := decode[[]InterfaceInfo](t, get(t, s.Handler(), "/api/v1/interfaces"))
	require.Len(t, ifaces, 3)
	byName := map[string]InterfaceInfo{}
	for _, i := range ifaces {
		byName[i.Name] = i
	}
	assert.Equal(t, "192.168.1.10", byName["GigabitEthernet0/0"].IP)
	assert.Equal(t, "up", byName["GigabitEthernet0/0"].Status)
	assert.Equal(t, "administratively down", byName["GigabitEthernet0/1"].Status)

	// Changes made through the interpreter are visible to the API.
	require.True(t, loop.Do(func() { c.Submit("ssh r1") }))
	require.Eventually(t, func() bool {
		var remote bool
		loop.Do(func() { remote = c.Sessions().Active().Remote() })
		return remote
	}, 5*time.Second, 20*time.Millisecond)
	require.True(t, loop.Do(func() {
		for _, l := range []string{"enable", "configure terminal", "interface Gi0/1", "no shutdown"} {
			c.Submit(l)
		}
	}))

	ifaces = decode[[]InterfaceInfo](t, get(t, s.Handler(), "/api/v1/interfaces"))
	for _, i := range ifaces {
		if i.Name == "GigabitEthernet0/1" {
			assert.Equal(t, "up", i.Status)
		}
	}
	status = decode[StatusResponse](t, get(t, s.Handler(), "/api/v1/status"))
	assert.Equal(t, "cisco_if", status.Mode)
	assert.Equal(t, "ssh_r1", status.Session)
}

func TestRoutesAndNeighbors(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	routes := decode[[]RouteInfo](t, get(t, s.Handler(), "/api/v1/routes"))
	require.NotEmpty(t, routes)
	assert.Equal(t, "0.0.0.0/0", routes[0].Prefix)
	assert.Equal(t, "192.168.1.1", routes[0].Via)

	neighbors := decode[[]NeighborInfo](t, get(t, s.Handler(), "/api/v1/bgp/neighbors"))
	require.Len(t, neighbors, 1)
	assert.Equal(t, "10.45.0.1", neighbors[0].IP)
	assert.Equal(t, 65001, neighbors[0].ASN)
}

func TestLoggingNewestFirst(t *testing.T) {
	s, c, _ := newTestServer(t, nil)
	c.Log().Warning("third")

	entries := decode[[]LogEntry](t, get(t, s.Handler(), "/api/v1/logging?n=2"))
	require.Len(t, entries, 2)
	assert.Equal(t, "third", entries[0].Message)
	assert.Equal(t, "WARNING", entries[0].Level)
	assert.Equal(t, "Telemetry agent: gNMI stream idle (simulated).", entries[1].Message)

	all := decode[[]LogEntry](t, get(t, s.Handler(), "/api/v1/logging"))
	assert.Len(t, all, 3)

	bad := decode[[]LogEntry](t, get(t, s.Handler(), "/api/v1/logging?n=bogus"))
	assert.Len(t, bad, 3, "invalid n falls back to the whole buffer")
}

func TestLoopStopped(t *testing.T) {
	s, _, loop := newTestServer(t, nil)
	loop.Close()
	w := get(t, s.Handler(), "/api/v1/interfaces")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetrics(t *testing.T) {
	s, c, loop := newTestServer(t, nil)
	require.True(t, loop.Do(func() {
		c.Submit("whoami")
		c.Submit("bogus")
		c.Submit("scenario start bgp-flap")
	}))

	w := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	for _, want := range []string{
		`nocterm_interface_up{iface="GigabitEthernet0/0"} 1`,
		`nocterm_interface_up{iface="GigabitEthernet0/1"} 0`,
		`nocterm_bgp_neighbor_established{neighbor="10.45.0.1"} 1`,
		`nocterm_commands_total{result="ok"} 2`,
		`nocterm_commands_total{result="unknown"} 1`,
		`nocterm_scenario_active{scenario="bgp-flap"} 1`,
		`nocterm_sessions 1`,
		`nocterm_routes{protocol="S"} 1`,
	} {
		assert.Contains(t, body, want)
	}
}

func TestLogStream(t *testing.T) {
	s, c, _ := newTestServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/v1/logging/stream?level=notice", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	c.Log().Info("filtered out")
	c.Log().Notice("Scenario started: bgp-flap")

	line, err := readData(bufio.NewReader(resp.Body))
	require.NoError(t, err)
	var e LogEntry
	require.NoError(t, json.Unmarshal([]byte(line), &e))
	assert.Equal(t, "NOTICE", e.Level)
	assert.Equal(t, "Scenario started: bgp-flap", e.Message)
}

func readData(r *bufio.Reader) (string, error) {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		if data, ok := strings.CutPrefix(strings.TrimRight(line, "\n"), "data: "); ok {
			return data, nil
		}
	}
}

func TestSSEHelpers(t *testing.T) {
	w := httptest.NewRecorder()
	setSSEHeaders(w)
	writeSSEEvent(w, "42", "log", `{"k":"v"}`)
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, "id: 42\nevent: log\ndata: {\"k\":\"v\"}\n\n", w.Body.String())

	w = httptest.NewRecorder()
	writeSSEEvent(w, "1", "", "hello")
	body, _ := io.ReadAll(w.Body)
	assert.NotContains(t, string(body), "event:")
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestAuthMiddleware(t *testing.T) {
	assert.Nil(t, NewAuthConfig(nil, nil))

	s, _, _ := newTestServer(t, NewAuthConfig(map[string]string{"admin": "secret123"}, []string{"tok-abc-123"}))
	h := s.Handler()

	tests := []struct {
		name   string
		path   string
		header []string
		want   int
	}{
		{"health bypass", "/health", nil, http.StatusOK},
		{"metrics bypass", "/metrics", nil, http.StatusOK},
		{"no auth", "/api/v1/status", nil, http.StatusUnauthorized},
		{"valid basic", "/api/v1/status", []string{"Authorization", basicAuth("admin", "secret123")}, http.StatusOK},
		{"wrong password", "/api/v1/status", []string{"Authorization", basicAuth("admin", "nope")}, http.StatusUnauthorized},
		{"unknown user", "/api/v1/status", []string{"Authorization", basicAuth("nobody", "secret123")}, http.StatusUnauthorized},
		{"malformed basic", "/api/v1/status", []string{"Authorization", "Basic !!!"}, http.StatusUnauthorized},
		{"valid bearer", "/api/v1/logging", []string{"Authorization", "Bearer tok-abc-123"}, http.StatusOK},
		{"invalid bearer", "/api/v1/logging", []string{"Authorization", "Bearer bad"}, http.StatusUnauthorized},
		{"valid api key", "/api/v1/interfaces", []string{"X-API-Key", "tok-abc-123"}, http.StatusOK},
		{"invalid api key", "/api/v1/interfaces", []string{"X-API-Key", "bad"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, h, tt.path, tt.header...)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
