package cable

import (
	"context"
	"time"

	"github.com/tzrikka/cable/pkg/packet"
)

// pendingMessage is an in-flight QoS-1 send awaiting its ack.
type pendingMessage struct {
	msg      *packet.Message
	attempts int // Retransmissions so far.
	timer    *time.Timer
	done     chan error
}

// pendingRequest is an in-flight request awaiting its response.
type pendingRequest struct {
	timer *time.Timer
	done  chan requestResult
}

type requestResult struct {
	resp *packet.Response
	err  error
}

// open dials the transport and starts the handshake. It runs as its
// own goroutine; the epoch identifies the connection attempt it
// belongs to, so it no-ops if the session moved on.
func (c *Client) open(epoch int) {
	c.mu.Lock()
	if c.epoch != epoch || c.status != StatusOpening {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	tr, err := c.dialer.Dial(context.Background(), c.url)

	c.mu.Lock()
	if c.epoch != epoch || c.status != StatusOpening {
		c.mu.Unlock()
		if err == nil {
			_ = tr.Close()
		}
		return
	}

	if err != nil {
		c.logger.Error().Err(err).Str("url", c.url).Msg("failed to open Cable transport")
		s, changed := c.retryWhenLocked(&NetworkError{Err: err})
		c.mu.Unlock()
		if changed {
			c.notifyStatus(s)
		}
		return
	}

	c.tr = tr
	frame, _ := packet.Encode(packet.NewConnect(c.identity))
	if err := c.writeLocked(frame); err != nil {
		s, changed := c.retryWhenLocked(&NetworkError{Err: err})
		c.mu.Unlock()
		if changed {
			c.notifyStatus(s)
		}
		return
	}

	go c.readLoop(epoch, tr)
	c.logger.Debug().Str("url", c.url).Msg("Cable transport opened, handshake sent")
	c.mu.Unlock()
}

// readLoop runs as a goroutine per transport connection. It consumes
// inbound frames until the transport fails or the session moves to a
// new epoch, and feeds every decoded packet to the dispatcher.
func (c *Client) readLoop(epoch int, tr Transport) {
	for {
		frame, err := tr.Read(context.Background())
		if err == nil {
			var p packet.Packet
			if p, err = packet.Decode(frame); err == nil {
				if !c.handle(epoch, p) {
					return
				}
				continue
			}
		}

		// Transport errors and inbound decode failures are
		// never raised to callers: both become a retry reason.
		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			return
		}
		c.logger.Debug().Err(err).Msg("Cable transport read failed")
		s, changed := c.retryWhenLocked(&NetworkError{Err: err})
		c.mu.Unlock()
		if changed {
			c.notifyStatus(s)
		}
		return
	}
}

// handle dispatches one inbound packet. It reports whether the
// read loop should keep going.
func (c *Client) handle(epoch int, p packet.Packet) bool {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return false
	}

	c.logger.Trace().Str("packet", p.Type().String()).Msg("received Cable packet")

	switch p := p.(type) {
	case *packet.Connack:
		return c.handleConnackLocked(p)

	case *packet.Message:
		c.mu.Unlock()
		if c.handler != nil {
			c.handler.OnMessage(c, p)
		}
		if p.QoS == packet.QoS1 {
			c.writeBack(epoch, p.Ack())
		}

	case *packet.Messack:
		if pm, ok := c.messages[p.ID]; ok {
			pm.timer.Stop()
			delete(c.messages, p.ID)
			pm.done <- nil
		}
		c.mu.Unlock()

	case *packet.Request:
		c.mu.Unlock()
		resp := c.serveRequest(p)
		c.writeBack(epoch, resp)

	case *packet.Response:
		if pr, ok := c.requests[p.ID]; ok {
			pr.timer.Stop()
			delete(c.requests, p.ID)
			if p.Code == packet.StatusOK {
				pr.done <- requestResult{resp: p}
			} else {
				pr.done <- requestResult{err: &ResponseError{Code: p.Code}}
			}
		}
		c.mu.Unlock()

	case *packet.Ping:
		c.mu.Unlock()
		c.writeBack(epoch, &packet.Pong{})

	case *packet.Pong:
		c.pongReceived = true
		if c.pingDeadline != nil {
			c.pingDeadline.Stop()
			c.pingDeadline = nil
		}
		c.mu.Unlock()

	case *packet.Close:
		s, changed := c.retryWhenLocked(&ServerClosedError{Code: p.Code})
		c.mu.Unlock()
		if changed {
			c.notifyStatus(s)
		}
		return false

	default:
		// Connect frames flow client to server only.
		c.mu.Unlock()
	}

	return true
}

// handleConnackLocked resolves the handshake. Called with the mutex
// held; releases it. Reports whether the read loop should keep going.
func (c *Client) handleConnackLocked(p *packet.Connack) bool {
	if c.status != StatusOpening {
		c.mu.Unlock()
		return true
	}

	if p.Code != packet.Accepted {
		s, changed := c.retryWhenLocked(&ConnectFailedError{Code: p.Code})
		c.mu.Unlock()
		if changed {
			c.notifyStatus(s)
		}
		return false
	}

	c.status = StatusOpened
	c.connID = p.Props[packet.PropConnID]
	if c.retrier != nil {
		c.retrier.reset()
	}
	c.scheduleHeartbeatLocked()
	c.completeWaitersLocked(nil)
	c.logger.Debug().Str("conn_id", c.connID).Msg("Cable session opened")
	c.mu.Unlock()

	c.notifyStatus(StatusOpened)
	return true
}

// serveRequest produces the response for an inbound request.
func (c *Client) serveRequest(r *packet.Request) *packet.Response {
	var resp *packet.Response
	if c.handler != nil {
		resp = c.handler.OnRequest(c, r)
	}
	if resp == nil {
		resp = r.Response(packet.StatusNotFound, nil)
	}
	resp.ID = r.ID
	return resp
}

// writeBack encodes and writes an engine-originated reply (ack, pong,
// response), unless the session has moved on from the given epoch.
func (c *Client) writeBack(epoch int, p packet.Packet) {
	frame, err := packet.Encode(p)
	if err != nil {
		return
	}

	c.mu.Lock()
	if c.epoch == epoch {
		_ = c.writeLocked(frame)
	}
	c.mu.Unlock()
}

// writeLocked hands one frame to the transport, bounded by the write
// timeout so the session mutex can't be held indefinitely.
func (c *Client) writeLocked(frame []byte) error {
	if c.tr == nil {
		return ErrNotReady
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return c.tr.Write(ctx, frame)
}

// scheduleHeartbeatLocked arms the next ping tick.
func (c *Client) scheduleHeartbeatLocked() {
	epoch := c.epoch
	c.heartbeat = time.AfterFunc(c.pingInterval, func() {
		c.pingTick(epoch)
	})
}

// pingTick sends a liveness probe, arms its deadline,
// and schedules the next tick.
func (c *Client) pingTick(epoch int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.status != StatusOpened {
		return
	}

	c.pongReceived = false
	if frame, err := packet.Encode(&packet.Ping{}); err == nil {
		_ = c.writeLocked(frame)
	}
	c.pingDeadline = time.AfterFunc(c.pingTimeout, func() {
		c.pingExpired(epoch)
	})
	c.scheduleHeartbeatLocked()
}

// pingExpired fires when a pong failed to arrive in time.
func (c *Client) pingExpired(epoch int) {
	c.mu.Lock()
	if c.epoch != epoch || c.pongReceived {
		c.mu.Unlock()
		return
	}

	c.logger.Debug().Msg("Cable heartbeat expired without a pong")
	s, changed := c.retryWhenLocked(ErrPingTimeout)
	c.mu.Unlock()
	if changed {
		c.notifyStatus(s)
	}
}

// messageExpired fires when a QoS-1 ack failed to arrive in time:
// it retransmits with the dup flag, or fails the send once the
// retry budget is spent.
func (c *Client) messageExpired(epoch int, id uint16) {
	c.mu.Lock()
	pm, ok := c.messages[id]
	if !ok || c.epoch != epoch || c.status != StatusOpened {
		c.mu.Unlock()
		return
	}

	if pm.attempts >= c.messageMaxRetry {
		delete(c.messages, id)
		c.mu.Unlock()
		pm.done <- ErrMessageTimeout
		return
	}

	pm.attempts++
	pm.msg.Dup = true
	c.logger.Debug().Uint16("id", id).Int("attempt", pm.attempts).
		Msg("retransmitting unacknowledged Cable message")
	if frame, err := packet.Encode(pm.msg); err == nil {
		_ = c.writeLocked(frame)
	}
	pm.timer = time.AfterFunc(c.messageTimeout, func() {
		c.messageExpired(epoch, id)
	})
	c.mu.Unlock()
}

// requestExpired fires when a response failed to arrive in time.
func (c *Client) requestExpired(epoch int, id uint16) {
	c.mu.Lock()
	pr, ok := c.requests[id]
	if !ok || c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	pr.timer.Stop()
	delete(c.requests, id)
	c.mu.Unlock()

	pr.done <- requestResult{err: ErrRequestTimeout}
}

// retryWhenLocked reacts to a failure reason: it tears the current
// transport down and either schedules a reconnect or closes the
// session for good. Called with the mutex held. Returns the resulting
// status and whether it changed.
func (c *Client) retryWhenLocked(reason error) (Status, bool) {
	if c.status != StatusOpening && c.status != StatusOpened {
		return c.status, false
	}

	prev := c.status
	c.lastErr = reason
	c.dropTransportLocked()
	c.failPendingLocked(reason)

	if c.retrier != nil {
		if delay, ok := c.retrier.shouldRetry(reason); ok {
			c.status = StatusOpening
			epoch := c.epoch
			c.reconnect = time.AfterFunc(delay, func() {
				c.open(epoch)
			})
			c.logger.Debug().Err(reason).Dur("delay", delay).
				Msg("Cable session lost, reconnect scheduled")
			return StatusOpening, prev != StatusOpening
		}
	}

	return c.toClosedLocked(reason)
}

// toClosedLocked moves the session to its terminal state: stops all
// timers, drops the transport, and fails everything pending. Called
// with the mutex held. Returns the resulting status and whether
// it changed.
func (c *Client) toClosedLocked(reason error) (Status, bool) {
	if c.status == StatusClosed {
		return c.status, false
	}

	if reason == nil {
		reason = ErrClientClosed
	}
	c.lastErr = reason
	c.dropTransportLocked()
	c.failPendingLocked(reason)
	c.completeWaitersLocked(reason)
	c.status = StatusClosed
	c.logger.Debug().Err(reason).Msg("Cable session closed")
	return StatusClosed, true
}

// dropTransportLocked invalidates the current connection attempt:
// all timers are stopped, the transport (if any) is closed, and the
// epoch advances so stale callbacks become no-ops.
func (c *Client) dropTransportLocked() {
	c.epoch++
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	if c.heartbeat != nil {
		c.heartbeat.Stop()
		c.heartbeat = nil
	}
	if c.pingDeadline != nil {
		c.pingDeadline.Stop()
		c.pingDeadline = nil
	}
	if c.tr != nil {
		_ = c.tr.Close()
		c.tr = nil
	}
}

// failPendingLocked completes every in-flight send and request
// with the given reason, and clears both correlation tables.
func (c *Client) failPendingLocked(reason error) {
	for id, pm := range c.messages {
		pm.timer.Stop()
		delete(c.messages, id)
		pm.done <- reason
	}
	for id, pr := range c.requests {
		pr.timer.Stop()
		delete(c.requests, id)
		pr.done <- requestResult{err: reason}
	}
}

// completeWaitersLocked releases every Connect caller, with nil on
// a successful handshake and with the failure reason otherwise.
func (c *Client) completeWaitersLocked(err error) {
	for _, w := range c.waiters {
		w <- err
	}
	c.waiters = nil
}

// nextMessageIDLocked assigns a message ID: a monotonic counter
// modulo 2^16, skipping zero (reserved for QoS 0) and any ID with
// an in-flight correlation entry.
func (c *Client) nextMessageIDLocked() uint16 {
	for {
		c.messageSeq++
		id := c.messageSeq
		if id == 0 {
			continue
		}
		if _, busy := c.messages[id]; !busy {
			return id
		}
	}
}

// nextRequestIDLocked assigns a request ID from its own counter,
// with the same wraparound and in-flight rules.
func (c *Client) nextRequestIDLocked() uint16 {
	for {
		c.requestSeq++
		id := c.requestSeq
		if id == 0 {
			continue
		}
		if _, busy := c.requests[id]; !busy {
			return id
		}
	}
}

// notifyStatus reports a state change to the handler.
// Never called with the mutex held.
func (c *Client) notifyStatus(s Status) {
	if c.handler != nil {
		c.handler.OnStatus(c, s)
	}
}
