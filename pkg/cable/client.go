package cable

import (
	"context"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/rs/zerolog"

	"github.com/tzrikka/cable/pkg/packet"
)

// Default session timing parameters.
const (
	DefaultPingInterval    = 30 * time.Second
	DefaultPingTimeout     = 5 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
	DefaultMessageTimeout  = 10 * time.Second
	DefaultMessageMaxRetry = 5

	writeTimeout = 10 * time.Second
)

// Option adjusts a [Client] during construction.
type Option func(*Client)

// WithPingInterval sets the heartbeat period while the session is open.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pingInterval = d
	}
}

// WithPingTimeout sets how long to wait for a pong before
// treating the session as dead.
func WithPingTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.pingTimeout = d
	}
}

// WithRequestTimeout sets the per-request response deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.requestTimeout = d
	}
}

// WithMessageTimeout sets the per-attempt ack deadline
// for QoS-1 messages.
func WithMessageTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.messageTimeout = d
	}
}

// WithMessageMaxRetry sets how many times an unacknowledged
// QoS-1 message is retransmitted before failing.
func WithMessageMaxRetry(n int) Option {
	return func(c *Client) {
		c.messageMaxRetry = n
	}
}

// WithHandler installs the user-event handler.
func WithHandler(h Handler) Option {
	return func(c *Client) {
		c.handler = h
	}
}

// WithLogger attaches a logger to the session. The default discards.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithDialer replaces the transport dialer. The default
// opens WebSocket connections with the "cable" subprotocol.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// Client is a long-running Cable session endpoint. It owns the
// transport exclusively, drives the handshake and heartbeat, and
// correlates in-flight sends and requests by their 16-bit IDs.
type Client struct {
	url     string
	dialer  Dialer
	handler Handler
	logger  zerolog.Logger

	pingInterval    time.Duration
	pingTimeout     time.Duration
	requestTimeout  time.Duration
	messageTimeout  time.Duration
	messageMaxRetry int

	// All fields below are guarded by mu. There is no finer-grained
	// locking: transport callbacks, timers, and user API calls
	// interleave but never preempt each other.
	mu       sync.Mutex
	status   Status
	identity packet.Identity
	id       string
	connID   string
	tr       Transport
	epoch    int // Bumped on every transport change; stale callbacks no-op.
	lastErr  error

	retrier   *retrier
	reconnect *time.Timer

	heartbeat    *time.Timer
	pingDeadline *time.Timer
	pongReceived bool

	messageSeq uint16
	requestSeq uint16
	messages   map[uint16]*pendingMessage
	requests   map[uint16]*pendingRequest

	waiters []chan error // Connect callers awaiting Opened or Closed.
}

// New returns a client for the given Cable endpoint URL,
// in state [StatusUnknown]. It does not connect.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:             url,
		id:              shortuuid.New(),
		dialer:          &WebSocketDialer{},
		logger:          zerolog.Nop(),
		pingInterval:    DefaultPingInterval,
		pingTimeout:     DefaultPingTimeout,
		requestTimeout:  DefaultRequestTimeout,
		messageTimeout:  DefaultMessageTimeout,
		messageMaxRetry: DefaultMessageMaxRetry,
		messages:        map[uint16]*pendingMessage{},
		requests:        map[uint16]*pendingRequest{},
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the client's ID: the identity's client ID once
// [Client.Connect] is called with a non-empty one, otherwise
// a generated short UUID.
func (c *Client) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// ConnID returns the server-assigned connection ID from the last
// accepted handshake, if the server provided one.
func (c *Client) ConnID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connID
}

// Status returns the session's lifecycle state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// IsReady reports whether sends and requests are currently allowed.
func (c *Client) IsReady() bool {
	return c.Status() == StatusOpened
}

// AutoRetry installs a retry controller: on every failure reason
// that isn't suppressed, the session reconnects after a backoff
// delay instead of closing.
func (c *Client) AutoRetry(opts RetryOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retrier = newRetrier(opts)
}

// Connect initiates a session with the given identity and blocks until
// the handshake is accepted, the session closes, or ctx is done. It is
// valid from [StatusUnknown] and [StatusClosed], and idempotent while
// [StatusOpening] or [StatusOpened]: concurrent callers join the same
// attempt. Cancelling ctx abandons the wait, not the session.
func (c *Client) Connect(ctx context.Context, id packet.Identity) error {
	c.mu.Lock()

	initiated := false
	epoch := c.epoch
	switch c.status {
	case StatusOpened:
		c.mu.Unlock()
		return nil
	case StatusClosing:
		c.mu.Unlock()
		return ErrClientClosed
	case StatusOpening:
		// Join the attempt already in progress.
	default: // StatusUnknown, StatusClosed.
		c.identity = id
		if id.ClientID != "" {
			c.id = id.ClientID
		}
		c.lastErr = nil
		c.status = StatusOpening
		initiated = true
	}

	done := make(chan error, 1)
	c.waiters = append(c.waiters, done)
	c.mu.Unlock()

	if initiated {
		c.notifyStatus(StatusOpening)
		go c.open(epoch)
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts the session down gracefully. If a close code is given,
// it is sent to the server in a best-effort terminal Close frame.
// Close never fails; it is a no-op unless the session is
// [StatusOpening] or [StatusOpened].
func (c *Client) Close(code ...packet.CloseCode) {
	c.mu.Lock()
	if c.status != StatusOpening && c.status != StatusOpened {
		c.mu.Unlock()
		return
	}

	c.status = StatusClosing
	if len(code) > 0 && c.tr != nil {
		if frame, err := packet.Encode(&packet.Close{Code: code[0]}); err == nil {
			_ = c.writeLocked(frame)
		}
	}
	c.toClosedLocked(nil)
	c.mu.Unlock()

	c.notifyStatus(StatusClosing)
	c.notifyStatus(StatusClosed)
}

// Send delivers a message to the server. A QoS-0 message completes as
// soon as its frame is handed to the transport. A QoS-1 message is
// assigned an ID and blocks until the matching ack arrives; it is
// retransmitted with the dup flag on each ack timeout, and fails with
// [ErrMessageTimeout] once the retry budget is spent. Fails immediately
// with [ErrNotReady] unless the session is [StatusOpened].
//
// Cancelling ctx abandons the wait; a pending QoS-1 delivery keeps
// retrying until its own timeout.
func (c *Client) Send(ctx context.Context, m *packet.Message) error {
	if m.Kind > packet.MaxKind {
		return packet.ErrMessageKindTooLarge
	}

	c.mu.Lock()
	if c.status != StatusOpened {
		c.mu.Unlock()
		return ErrNotReady
	}

	if m.QoS == packet.QoS0 {
		m.ID = 0
		frame, err := packet.Encode(m)
		if err == nil {
			err = c.writeLocked(frame)
		}
		c.mu.Unlock()
		return err
	}

	// Insert the correlation entry and arm the ack
	// timer before the frame is written.
	m.ID = c.nextMessageIDLocked()
	pm := &pendingMessage{msg: m, done: make(chan error, 1)}
	c.messages[m.ID] = pm
	epoch := c.epoch
	pm.timer = time.AfterFunc(c.messageTimeout, func() {
		c.messageExpired(epoch, m.ID)
	})

	frame, err := packet.Encode(m)
	if err != nil {
		pm.timer.Stop()
		delete(c.messages, m.ID)
		c.mu.Unlock()
		return err
	}
	// A write failure here is not final: the transport error also
	// surfaces through the read loop, which fails all pending sends.
	_ = c.writeLocked(frame)
	c.mu.Unlock()

	select {
	case err := <-pm.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Request invokes a named method on the server and blocks until its
// response arrives. It completes with the response when its status is
// OK, fails with a [ResponseError] on any other status, and fails with
// [ErrRequestTimeout] if no response arrives in time. Fails immediately
// with [ErrNotReady] unless the session is [StatusOpened].
func (c *Client) Request(ctx context.Context, method string, body []byte, props ...packet.Properties) (*packet.Response, error) {
	c.mu.Lock()
	if c.status != StatusOpened {
		c.mu.Unlock()
		return nil, ErrNotReady
	}

	r := packet.NewRequest(method, body)
	if len(props) > 0 {
		r.Props = props[0]
	}
	r.ID = c.nextRequestIDLocked()

	pr := &pendingRequest{done: make(chan requestResult, 1)}
	c.requests[r.ID] = pr
	epoch := c.epoch
	pr.timer = time.AfterFunc(c.requestTimeout, func() {
		c.requestExpired(epoch, r.ID)
	})

	frame, err := packet.Encode(r)
	if err != nil {
		pr.timer.Stop()
		delete(c.requests, r.ID)
		c.mu.Unlock()
		return nil, err
	}
	_ = c.writeLocked(frame)
	c.mu.Unlock()

	select {
	case res := <-pr.done:
		return res.resp, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
