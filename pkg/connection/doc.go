// Package connection tracks the protocol client's connection state and
// keeps a usable client around when its receive worker dies.
//
// # States
//
//	HANDSHAKE ──READY──▶ CONNECTED
//	    │                    │
//	    └──worker failure────┴──▶ ERROR (terminal)
//
// The state ordinal doubles as the opcode stamped on outgoing frames.
//
// # Rebuilding
//
// A client whose worker failed is dead for good. Supervisor notices this
// through the client's Done channel and builds a replacement, waiting
// between attempts with exponential backoff:
//
//  1. Initial delay: 2 seconds
//  2. Exponential increase: 4s, 8s, 16s, 32s, 64s
//  3. Maximum delay: 2 minutes
//  4. Reset to 2s once a replacement is connected
//
// # Jitter
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
package connection
