package client

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/logging"
)

// DefaultMaxMissed is how many failed cycles in a row mark the heartbeater stale
const DefaultMaxMissed = 3

// DefaultInterval keeps three beats inside the default 30s online window
const DefaultInterval = 10 * time.Second

// HeartbeatFunc sends one heartbeat
type HeartbeatFunc func(ctx context.Context) error

// Heartbeater sends a heartbeat every interval, retrying transient failures
// within the cycle. A cycle that still fails is counted as missed.
type Heartbeater struct {
	beat      HeartbeatFunc
	interval  time.Duration
	maxMissed int
	logger    *logging.Logger

	mu     sync.Mutex
	missed int
	last   time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHeartbeater creates a heartbeater; interval should be well under the server's online threshold
func NewHeartbeater(beat HeartbeatFunc, interval time.Duration, logger *logging.Logger) *Heartbeater {
	if logger == nil {
		logger = logging.NewNop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Heartbeater{
		beat:      beat,
		interval:  interval,
		maxMissed: DefaultMaxMissed,
		logger:    logger.Named("heartbeater"),
	}
}

// RoomHeartbeater keeps a user present in a room
func (c *Client) RoomHeartbeater(roomID, userID uint, interval time.Duration, logger *logging.Logger) *Heartbeater {
	return NewHeartbeater(func(ctx context.Context) error {
		return c.Heartbeat(ctx, roomID, userID)
	}, interval, logger)
}

// GlobalHeartbeater keeps a user online globally
func (c *Client) GlobalHeartbeater(userID uint, interval time.Duration, logger *logging.Logger) *Heartbeater {
	return NewHeartbeater(func(ctx context.Context) error {
		return c.GlobalHeartbeat(ctx, userID)
	}, interval, logger)
}

// Beat runs one cycle with retries and records the outcome
func (h *Heartbeater) Beat(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = h.interval / 4
	policy.MaxElapsedTime = h.interval / 2

	err := backoff.Retry(func() error {
		err := h.beat(ctx)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx))

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.missed++
		h.logger.Warn("heartbeat missed", zap.Int("missed", h.missed), zap.Error(err))
		return err
	}
	h.missed = 0
	h.last = time.Now()
	return nil
}

// Start sends a heartbeat immediately and then every interval until Stop
func (h *Heartbeater) Start(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)
	h.done = make(chan struct{})

	go func() {
		defer close(h.done)
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()

		h.Beat(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.Beat(ctx)
			}
		}
	}()
}

// Stop ends the loop and waits for the current cycle
func (h *Heartbeater) Stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
}

// Missed returns the number of consecutive failed cycles
func (h *Heartbeater) Missed() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.missed
}

// LastSuccess returns when the last heartbeat was accepted
func (h *Heartbeater) LastSuccess() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Stale reports whether enough cycles failed that the server has likely dropped us
func (h *Heartbeater) Stale() bool {
	return h.Missed() >= h.maxMissed
}

// retryable reports whether another attempt in the same cycle may succeed.
// Client errors such as an unknown room will fail again.
func retryable(err error) bool {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Status >= 500 || appErr.Status == 0
	}
	return true
}
