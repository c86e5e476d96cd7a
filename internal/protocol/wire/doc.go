// Package wire converts protocol messages to and from the JSON envelope
// every transport carries.
//
// An envelope names its payload type; Decode checks that name before
// unmarshalling so a register payload is never read as an auth payload.
package wire
