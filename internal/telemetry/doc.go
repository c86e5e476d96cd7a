// Package telemetry builds the process logger and the protocol metrics.
package telemetry
