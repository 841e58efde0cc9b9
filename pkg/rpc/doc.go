// Package rpc implements the presence IPC client.
//
// A Client owns one channel to the companion process and one receive
// worker reading from it. Outbound commands carry a nonce; the response
// with the same nonce resolves the command's callback exactly once.
// Inbound messages without a nonce are events and go to the handler
// registered for them in the client's Registry.
//
// # Handshake
//
// Connect writes the handshake frame and starts the worker. Until the
// companion answers with READY the client is in HANDSHAKE state and every
// command except the READY subscription is queued. On READY the client
// subscribes to the registered events and then sends the queued commands
// in the order they were issued.
//
// # Failure
//
// A clean channel close ends the worker quietly. Waiting responses fail
// with transport.ErrChannelClosed, and so do queued commands when READY
// never arrived. Further commands fail the same way until the next
// SET_ACTIVITY reconnects, if Config.Reconnect allows it. Any other I/O failure moves
// the client to ERROR, closes Done and leaves the client unusable. Use
// connection.Supervisor to replace such clients.
//
// # Basic Usage
//
//	client, err := rpc.New(ctx, rpc.DefaultConfig("853387211897700394"))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	activities := rpc.NewActivityManager(client)
//	activities.UpdateActivity(ctx, a, nil)
package rpc
