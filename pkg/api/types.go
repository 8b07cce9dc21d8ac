// Package api implements the HTTP REST API, the event log stream and the
// Prometheus metrics endpoint.
package api

// Response is the standard JSON response envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatusResponse summarises the simulator.
type StatusResponse struct {
	Uptime     string `json:"uptime"`
	Hostname   string `json:"hostname"`
	Session    string `json:"session"`
	Mode       string `json:"mode"`
	Prompt     string `json:"prompt"`
	UplinkUp   bool   `json:"uplink_up"`
	Scenario   string `json:"scenario,omitempty"`
	JobRunning bool   `json:"job_running"`
}

// LogEntry is one event log record.
type LogEntry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// InterfaceInfo is one row of the interface brief.
type InterfaceInfo struct {
	Name        string `json:"name"`
	IP          string `json:"ip,omitempty"`
	Mask        string `json:"mask,omitempty"`
	Status      string `json:"status"`
	Protocol    string `json:"protocol"`
	Description string `json:"description,omitempty"`
}

// RouteInfo is one routing table entry.
type RouteInfo struct {
	Prefix string `json:"prefix"`
	Via    string `json:"via,omitempty"`
	Iface  string `json:"interface,omitempty"`
	Proto  string `json:"protocol"`
	Metric string `json:"metric,omitempty"`
}

// NeighborInfo is one BGP neighbor.
type NeighborInfo struct {
	IP       string `json:"ip"`
	ASN      int    `json:"asn"`
	State    string `json:"state"`
	Uptime   string `json:"uptime"`
	Prefixes int    `json:"prefixes"`
}
