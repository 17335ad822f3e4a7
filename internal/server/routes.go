// Package server wires HTTP handlers into a ServeMux for the DrawHub relay.
package server

import "net/http"

// Routes configures and returns an HTTP ServeMux with all application routes:
// health check, WebSocket endpoint, and the whiteboard test page.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.HandleHealth)
	mux.HandleFunc("/ws", s.HandleWebSocket)
	mux.HandleFunc("/test", s.HandleTestPage)
	return mux
}
