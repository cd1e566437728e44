/*
Package ports defines the driven ports (interfaces) for the marionette
runtime.

These interfaces decouple the protocol loop from external
implementations, allowing the runner to work with different transports
and the transcript layer with different storage backends.

# Key Interfaces

  - Transport: carries protocol frames to and from the peer (e.g. WebSocket).
  - transcript.Store (in pkg/transcript): persists exchanged frames.
*/
package ports
