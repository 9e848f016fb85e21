package cable

import (
	"errors"
	"fmt"

	"github.com/tzrikka/cable/pkg/packet"
)

// Session-level failures surfaced to callers.
var (
	// ErrNotReady is returned by [Client.Send] and [Client.Request]
	// when the session is not in [StatusOpened].
	ErrNotReady = errors.New("cable: client is not ready")
	// ErrRequestTimeout is returned when a request's response
	// doesn't arrive within the request timeout.
	ErrRequestTimeout = errors.New("cable: request timed out")
	// ErrMessageTimeout is returned when a QoS-1 message's ack doesn't
	// arrive within the message timeout, across all retransmissions.
	ErrMessageTimeout = errors.New("cable: message timed out")
	// ErrClientClosed is reported when the session reaches
	// [StatusClosed] without a more specific reason.
	ErrClientClosed = errors.New("cable: client is closed")
	// ErrPingTimeout is the retry reason when the server fails to
	// answer a ping within the ping timeout.
	ErrPingTimeout = errors.New("cable: ping timeout")
)

// ConnectFailedError is the retry reason when the
// server answers the handshake with a non-accepted code.
type ConnectFailedError struct {
	Code packet.ConnackCode
}

func (e *ConnectFailedError) Error() string {
	return fmt.Sprintf("cable: connect failed: %s", e.Code)
}

// ServerClosedError is the retry reason when the
// server terminates the session with a Close frame.
type ServerClosedError struct {
	Code packet.CloseCode
}

func (e *ServerClosedError) Error() string {
	return fmt.Sprintf("cable: server closed the session: %s", e.Code)
}

// NetworkError is the retry reason when the transport fails, or
// when inbound data can't be decoded. Decode failures are never
// raised to callers directly, they always take this form.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("cable: network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ResponseError is returned by [Client.Request] when the
// response carries a non-OK status code.
type ResponseError struct {
	Code packet.StatusCode
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("cable: request failed: %s", e.Code)
}
