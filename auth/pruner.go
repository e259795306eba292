package auth

import (
	"time"

	"go.uber.org/zap"
)

// RevocationPruner periodically drops expired entries from a MemoryRevocationStore
// to bound its memory. Correctness does not depend on it running.
type RevocationPruner struct {
	store    *MemoryRevocationStore
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRevocationPruner defaults a non-positive interval to ten minutes.
func NewRevocationPruner(store *MemoryRevocationStore, logger *zap.Logger, interval time.Duration) *RevocationPruner {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &RevocationPruner{
		store:    store,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (p *RevocationPruner) Start() {
	go p.run()
	p.logger.Info("revocation pruner started", zap.Duration("interval", p.interval))
}

// Stop blocks until the worker has exited.
func (p *RevocationPruner) Stop() {
	close(p.stopCh)
	<-p.doneCh
	p.logger.Info("revocation pruner stopped")
}

func (p *RevocationPruner) run() {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.pruneOnce()
		case <-p.stopCh:
			return
		}
	}
}

func (p *RevocationPruner) pruneOnce() {
	removed := p.store.Prune(p.now())
	p.logger.Debug("pruned revocation set", zap.Int("removed", removed), zap.Int("remaining", p.store.Len()))
}
