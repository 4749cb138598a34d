package presence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jgirmay/chatroom/pkg/logging"
	"github.com/jgirmay/chatroom/pkg/metrics"
	"github.com/jgirmay/chatroom/pkg/repository"
)

// Sweeper periodically deletes room presence rows older than the retention
// horizon. Reads never depend on it: rows it removes are already offline.
type Sweeper struct {
	presence  repository.PresenceRepository
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	metrics   *metrics.Metrics
	logger    *logging.Logger

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewSweeper creates a sweeper; retention must be at least the online threshold
func NewSweeper(presence repository.PresenceRepository, interval, retention time.Duration, m *metrics.Metrics, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sweeper{
		presence:  presence,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		metrics:   m,
		logger:    logger.Named("sweeper"),
		stop:      make(chan struct{}),
	}
}

// SweepOnce deletes stale rows and returns how many were removed
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.retention)
	removed, err := s.presence.DeleteRoomSeenBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.metrics.AddSwept(removed)
	return removed, nil
}

// Start runs the sweep loop until Stop or ctx is done
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				removed, err := s.SweepOnce(ctx)
				if err != nil {
					s.logger.Warn("presence sweep failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					s.logger.Debug("presence sweep", zap.Int64("removed", removed))
				}
			}
		}
	}()
}

// Stop ends the sweep loop and waits for it to exit
func (s *Sweeper) Stop() {
	s.once.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
}
