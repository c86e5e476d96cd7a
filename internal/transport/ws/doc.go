// Package ws carries protocol envelopes over WebSocket.
//
// Server upgrades requests on /ws, assigns each connection a UUID and
// reports it to a domain.ConnectionHandler. Every connection has a read
// pump that forwards frames to the handler in order and a write pump that
// drains its send queue. Router mounts /ws next to /healthz and /metrics.
//
// Dial returns the client end as a domain.ClientConn.
package ws
