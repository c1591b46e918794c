package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/loaves/internal/logging"
	"github.com/aretw0/loaves/pkg/ports"
)

// DefaultSweepInterval is how often RunJanitor sweeps by default.
const DefaultSweepInterval = 10 * time.Minute

// RunJanitor sweeps expired sessions from stores that only evict lazily,
// once per interval, until ctx is done. A non-positive interval disables it.
func RunJanitor(ctx context.Context, sweeper ports.Sweeper, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sweeper.Sweep(ctx)
			if err != nil {
				logger.Warn("Session sweep failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Debug("Expired sessions swept", "count", n)
			}
		}
	}
}
