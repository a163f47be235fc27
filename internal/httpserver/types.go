package httpserver

import "time"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string     `json:"status"`
	Version     string     `json:"version,omitempty"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// wsMessage is pushed to WebSocket clients.
type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
