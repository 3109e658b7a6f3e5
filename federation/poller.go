package federation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/absmach/cleanroom/pkg/cron"
	"github.com/absmach/cleanroom/store"
)

const defaultCheckInterval = 5 * time.Second

// Poller refreshes sync statistics on the workspace's sync schedule while
// sync pulsing is on.
type Poller struct {
	ctrl          Controller
	store         *store.Store
	logger        *slog.Logger
	checkInterval time.Duration
	timezone      string
	stopChan      chan struct{}
	stopOnce      sync.Once

	// guarded by the Start loop
	schedule string
	nextRun  time.Time
}

func NewPoller(ctrl Controller, st *store.Store, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		ctrl:          ctrl,
		store:         st,
		logger:        logger,
		checkInterval: defaultCheckInterval,
		timezone:      "UTC",
		stopChan:      make(chan struct{}),
	}
}

func (p *Poller) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.checkInterval)
	defer ticker.Stop()

	p.logger.Info("sync stats poller started", slog.Duration("check_interval", p.checkInterval))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("sync stats poller stopping")

			return ctx.Err()
		case <-p.stopChan:
			p.logger.Info("sync stats poller stopped")

			return nil
		case now := <-ticker.C:
			p.tick(ctx, now)
		}
	}
}

func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})
}

// tick polls when the schedule is due. It reports whether a poll happened.
func (p *Poller) tick(ctx context.Context, now time.Time) bool {
	st := p.store.Get()
	if st.FederationStatus != store.StatusActive || !st.Syncing {
		p.nextRun = time.Time{}

		return false
	}

	expr := p.ctrl.Schedule()
	schedule, err := cron.ParseSyncSchedule(expr)
	if err != nil {
		p.logger.Warn("invalid sync schedule", slog.String("schedule", expr), slog.Any("error", err))

		return false
	}
	if expr != p.schedule || p.nextRun.IsZero() {
		p.schedule = expr
		p.nextRun = cron.CalculateNextRun(schedule, now, p.timezone)

		return false
	}
	if now.Before(p.nextRun) {
		return false
	}
	p.nextRun = cron.CalculateNextRun(schedule, now, p.timezone)

	n, err := p.ctrl.RefreshSyncStats(ctx)
	if err != nil {
		p.logger.Warn("failed to refresh sync stats", slog.Any("error", err))

		return true
	}
	p.logger.Debug("refreshed sync stats",
		slog.Int("new_entries", n),
		slog.Time("next_run", p.nextRun))

	return true
}
