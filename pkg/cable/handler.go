package cable

import "github.com/tzrikka/cable/pkg/packet"

// Handler receives session events. OnMessage and OnRequest are called
// from a single goroutine per connection, in the order the frames
// arrived, and must not block for long: the session doesn't read
// further inbound frames until the callback returns.
//
// OnStatus is called, after the session mutex is released, from the
// goroutine that caused the change: a Connect or Close caller, the
// dialing or read-loop goroutine, or a timer. Calls made from
// different goroutines are not ordered with respect to each other.
//
// The client is passed into every callback, so handlers don't
// need to hold their own (cyclic) reference to it.
type Handler interface {
	// OnStatus reports every session state change.
	OnStatus(c *Client, s Status)
	// OnMessage delivers an inbound message. QoS-1 messages are
	// acknowledged automatically after this returns.
	OnMessage(c *Client, m *packet.Message)
	// OnRequest handles an inbound request and must return a
	// response, which the session sends back to the server.
	OnRequest(c *Client, r *packet.Request) *packet.Response
}
