package services

import (
	"context"
	"fmt"
	"time"

	"youth-sports-gamification/logger"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

const (
	cooldownPruneInterval = 15 * time.Minute
	jobTimeout            = 2 * time.Minute
)

// AuditExporter ships one local day of suspicious-activity flags somewhere durable.
type AuditExporter interface {
	ExportDay(ctx context.Context, day time.Time) (string, error)
}

type MaintenanceJobs struct {
	Cooldowns *MemoryCooldownCache // nil when cooldowns live in Redis
	Streaks   *StreakCalculator
	Audit     AuditExporter // nil when the export bucket is not configured
}

// StartMaintenanceScheduler registers the background jobs and starts them.
// Callers own Shutdown.
func StartMaintenanceScheduler(clock clockwork.Clock, rules *RuleBook, jobs MaintenanceJobs) (gocron.Scheduler, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	sched, err := gocron.NewScheduler(
		gocron.WithClock(clock),
		gocron.WithLocation(rules.Load().location()),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	// Every 15 minutes: forget cooldowns that already elapsed
	if jobs.Cooldowns != nil {
		_, err = sched.NewJob(
			gocron.DurationJob(cooldownPruneInterval),
			gocron.NewTask(func() {
				if n := jobs.Cooldowns.Prune(clock.Now()); n > 0 {
					logger.Debug().Int("removed", n).Msg("[Scheduler] pruned cooldown cache")
				}
			}),
			gocron.WithName("cooldown-prune"),
		)
		if err != nil {
			return nil, fmt.Errorf("register cooldown prune: %w", err)
		}
	}

	// Just after midnight: zero streaks that lapsed yesterday
	if jobs.Streaks != nil {
		_, err = sched.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
				defer cancel()
				n, err := jobs.Streaks.RefreshStaleCaches(ctx)
				if err != nil {
					logger.Error().Err(err).Msg("[Scheduler] streak refresh failed")
					return
				}
				logger.Info().Int64("reset", n).Msg("✅ Stale streaks reset")
			}),
			gocron.WithName("streak-refresh"),
		)
		if err != nil {
			return nil, fmt.Errorf("register streak refresh: %w", err)
		}
	}

	// Daily: export yesterday's suspicious-activity flags
	if jobs.Audit != nil {
		_, err = sched.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 15, 0))),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
				defer cancel()
				yesterday := clock.Now().AddDate(0, 0, -1)
				if _, err := jobs.Audit.ExportDay(ctx, yesterday); err != nil {
					logger.Error().Err(err).Msg("[Scheduler] audit export failed")
				}
			}),
			gocron.WithName("audit-export"),
		)
		if err != nil {
			return nil, fmt.Errorf("register audit export: %w", err)
		}
	}

	sched.Start()
	return sched, nil
}
