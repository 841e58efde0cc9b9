// Package transport provides the local IPC channel and its frame codec.
//
// The transport layer handles:
//   - Locating the companion process among a fixed set of local endpoints
//   - Non-blocking reads and partial writes over that endpoint
//   - Binary-prefixed framing of JSON payloads
//
// # Frame Format
//
//	┌───────────────┬───────────────┬──────────────────────────┐
//	│ opcode int32  │ length int32  │ length bytes UTF-8 JSON  │
//	│ little-endian │ little-endian │                          │
//	└───────────────┴───────────────┴──────────────────────────┘
//
// Opcodes: 0 handshake, 1 frame, 2 close, 3 ping, 4 pong. A sender stamps
// the opcode with its current connection state.
//
// # Endpoints
//
// On unix-like systems the candidates are sockets named discord-ipc-0 to
// discord-ipc-9 in the first of $XDG_RUNTIME_DIR, $TMPDIR, $TMP, $TEMP or
// /tmp that is set. On Windows they are the named pipes
// \\.\pipe\discord-ipc-0 to \\.\pipe\discord-ipc-9.
//
// # Non-blocking Reads
//
// Channel.Read returns (0, nil) when no data is available. A reader that
// sees zero header bytes treats it as "no message" and tries again later;
// once a header byte has arrived the rest of the frame is accumulated
// across partial reads.
package transport
