package jobs

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

const sweepInterval = 10 * time.Minute

// RetentionSweeper evicts terminal job statuses older than the configured
// retention period. Running jobs are never touched. The sweep ticker is
// jittered so multiple replicas don't sweep in lockstep.
type RetentionSweeper struct {
	statuses  *StatusStore
	retention time.Duration
}

func NewRetentionSweeper(statuses *StatusStore, retention time.Duration) *RetentionSweeper {
	return &RetentionSweeper{
		statuses:  statuses,
		retention: retention,
	}
}

func (s *RetentionSweeper) Run(ctx context.Context) {
	ticker := jitterbug.New(sweepInterval, &jitterbug.Norm{Stdev: 30 * time.Second, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if evicted := s.Sweep(time.Now()); evicted > 0 {
			zap.S().Named("retention").Infof("evicted %d finished job statuses", evicted)
		}
	}
}

// Sweep removes terminal snapshots last updated before now minus the
// retention period and returns the number of evicted entries.
func (s *RetentionSweeper) Sweep(now time.Time) int {
	cutoff := now.Add(-s.retention)

	expired := []string{}
	s.statuses.Range(func(id string, status Status) bool {
		if status.Step.Terminal() && status.UpdatedAt.Before(cutoff) {
			expired = append(expired, id)
		}
		return true
	})

	for _, id := range expired {
		s.statuses.Delete(id)
	}
	return len(expired)
}
