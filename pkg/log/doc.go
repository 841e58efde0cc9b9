// Package log provides structured protocol capture for the IPC client.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at three layers: transport (raw frames), wire
// (decoded commands, responses and events) and presence (visibility
// changes). It is separate from operational logging (slog): a capture is a
// machine-readable trace that can be replayed with `presencectl log`.
//
// # Basic Usage
//
//	// Console while developing
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Binary capture file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("presence.plog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(console, file)
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events using integer keys.
package log
