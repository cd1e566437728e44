// Package marionette implements the host side of a JSON text-frame
// protocol between a game and an external controlling agent. The game
// registers actions it is willing to have performed, each described by
// a JSON-schema subset; the agent invokes them, spontaneously or in
// answer to a forced choice issued by the host.
//
// The core is synchronous and does no I/O. A Session consumes inbound
// frame text and returns events plus any reply frames to send; the
// transport, loop, and locking live outside, in pkg/runner and the
// adapters.
package marionette
