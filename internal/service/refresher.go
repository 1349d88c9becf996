package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultRefreshTimeout = 30 * time.Second

// SeedRefresher reloads the global seed bundle on a fixed schedule so a
// reindexed knowledge base reaches the floor without a restart. It also drops
// cached chunk text, which may have changed with the reindex.
type SeedRefresher struct {
	seeds  *SeedService
	chunks *CachedChunkStore
	logger *zap.Logger

	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func NewSeedRefresher(seeds *SeedService, chunks *CachedChunkStore, interval time.Duration, logger *zap.Logger) *SeedRefresher {
	return &SeedRefresher{
		seeds:    seeds,
		chunks:   chunks,
		logger:   logger,
		interval: interval,
		timeout:  defaultRefreshTimeout,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the refresher in a background goroutine. A non-positive
// interval disables it.
func (s *SeedRefresher) Start() {
	if s.interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("seed refresher started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
				s.run(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("seed refresher stopped")
				return
			}
		}
	}()
}

// Stop waits for an in-flight refresh to finish. It is safe to call more than once.
func (s *SeedRefresher) Stop() {
	s.once.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *SeedRefresher) run(ctx context.Context) {
	b, err := s.seeds.Refresh(ctx)
	if err != nil {
		s.logger.Error("scheduled seed refresh failed, keeping previous bundle", zap.Error(err))
		return
	}
	if s.chunks != nil {
		s.chunks.Flush()
	}
	s.logger.Info("seed bundle refreshed", zap.String("fingerprint", b.Fingerprint()))
}
