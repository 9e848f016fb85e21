package cable

import "strconv"

// Status is the lifecycle state of a [Client] session.
type Status int

const (
	// StatusUnknown is the state of a newly constructed client.
	StatusUnknown Status = iota
	// StatusOpening means a transport connection or handshake
	// is in progress, or a reconnect is pending.
	StatusOpening
	// StatusOpened means the handshake was accepted:
	// sends and requests are allowed.
	StatusOpened
	// StatusClosing means a graceful shutdown is in progress.
	StatusClosing
	// StatusClosed means the session is over: the retry controller
	// is absent, exhausted, or the user closed the client.
	StatusClosed
)

// String returns the status name, or its number if it's unrecognized.
func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusOpening:
		return "opening"
	case StatusOpened:
		return "opened"
	case StatusClosing:
		return "closing"
	case StatusClosed:
		return "closed"
	default:
		return strconv.Itoa(int(s))
	}
}
