// Package server is the server side of the authentication protocol.
//
// Server implements domain.ConnectionHandler. Each connection gets a
// session in the registry and one actor goroutine that handles its messages
// strictly in arrival order; a handler, including its store calls, finishes
// before the next message of that connection is taken.
//
// Handling by message type:
//
//	handshake_request  key exchange; a malformed key disconnects
//	register_request   decrypt, register, then authenticate in the same round trip
//	auth_request       decrypt, authenticate
//
// Requests that arrive before the handshake or that repeat a sequence
// number are logged and ignored. A credential request on an authenticated
// connection disconnects it. Every other failure is answered with a plain
// negative result.
package server
