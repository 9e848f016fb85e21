package cable

import "time"

// RetryOptions configures automatic reconnection, installed
// with [Client.AutoRetry].
type RetryOptions struct {
	// Limit caps the number of reconnect attempts between successful
	// handshakes. Zero or negative means unlimited.
	Limit int
	// Backoff computes the delay before each attempt.
	// Nil means ExponentialBackoff{Factor: 2, Jitter: 0.1}.
	Backoff Backoff
	// Suppress, when non-nil, is consulted with the failure reason
	// before each attempt. Returning true suppresses the retry and
	// closes the session. (Polarity: true means "do NOT retry".)
	Suppress func(reason error) bool
}

// retrier tracks reconnect attempts between successful handshakes.
type retrier struct {
	limit    int
	count    int
	backoff  Backoff
	suppress func(reason error) bool
}

func newRetrier(opts RetryOptions) *retrier {
	b := opts.Backoff
	if b == nil {
		b = ExponentialBackoff{Factor: 2, Jitter: 0.1}
	}
	return &retrier{limit: opts.Limit, backoff: b, suppress: opts.Suppress}
}

// shouldRetry decides whether to attempt another reconnect for the
// given failure reason, and after what delay.
func (r *retrier) shouldRetry(reason error) (time.Duration, bool) {
	if r.suppress != nil && r.suppress(reason) {
		return 0, false
	}
	if r.limit > 0 && r.count >= r.limit {
		return 0, false
	}

	r.count++
	secs := r.backoff.Next(r.count)
	if secs < 0 {
		secs = 0
	}
	return time.Duration(secs * float64(time.Second)), true
}

// reset clears the attempt counter, on each successful
// transition into [StatusOpened].
func (r *retrier) reset() {
	r.count = 0
}
