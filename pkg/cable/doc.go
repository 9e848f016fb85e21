// Package cable is a client-side implementation of the Cable messaging
// protocol: a lightweight binary protocol carried over a persistent
// duplex byte stream, typically a WebSocket subprotocol named "cable".
//
// It focuses on continuous asynchronous reading of inbound packets,
// and enables concurrent sends and request/response round-trips.
//
// The package provides:
//  1. A session state machine covering handshake, heartbeating,
//     graceful shutdown, and reconnection with pluggable backoff
//  2. At-least-once message delivery (QoS 1) with automatic
//     retransmission and duplicate flagging
//  3. Request/response correlation over 16-bit IDs
//  4. A pluggable transport, with a WebSocket implementation included
//
// Note A: all session state lives inside a [Client] instance and is
// serialized behind a single mutex; transport callbacks and user API
// calls interleave but never preempt each other.
//
// Note B: user code interacts only with the [Client] API and a
// [Handler] callback interface. Handlers receive the client explicitly
// in every callback, so they don't need to retain a reference to it.
package cable
