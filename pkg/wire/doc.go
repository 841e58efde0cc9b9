// Package wire defines the JSON message types carried inside IPC frames.
//
// Every frame payload is a UTF-8 JSON object. The first frame a client
// sends is a Handshake; every later outbound frame is a Command. Inbound
// frames decode into an Envelope.
//
// # Correlation
//
// Outbound commands carry a nonce. A response echoes the nonce of the
// command it answers. Inbound messages without a nonce are events and
// carry an event name in "evt" instead:
//
//	{"cmd":"SET_ACTIVITY","args":{...},"nonce":"7"}          // outbound
//	{"cmd":"SET_ACTIVITY","data":{...},"nonce":"7"}          // response
//	{"cmd":"DISPATCH","evt":"READY","data":{...}}            // event
//
// # Errors
//
// A failed command is answered with "evt":"ERROR" and an ErrorData
// payload. Numeric codes map onto Result; codes without a mapping decode
// to ResultUnknown so that an unrecognised failure never reads as success.
package wire
