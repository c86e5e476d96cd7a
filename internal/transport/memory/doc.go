// Package memory is an in-process transport: a Network connects clients
// directly to a domain.ConnectionHandler with buffered channels.
package memory
