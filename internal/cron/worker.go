package cron

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/contaluz/contaluz/internal/alerting"
	"github.com/contaluz/contaluz/internal/config"
	"github.com/contaluz/contaluz/internal/metrics"
	"github.com/contaluz/contaluz/internal/storage"
	"github.com/contaluz/contaluz/internal/tariff"
)

const (
	jobName = "refresh_tariffs"
	lockKey = int64(7301)
)

// Run starts the background worker that periodically refreshes the tariff
// snapshot. When the storage backend supports advisory locks (Postgres),
// only one worker in a multi-instance deployment executes the job;
// otherwise the worker runs unguarded, which is fine single-instance.
func Run(ctx context.Context, cfg config.Config) error {
	if cfg.DBDriver == "" || cfg.DBDriver == "memory" {
		return fmt.Errorf("worker requires a persistent CONTALUZ_DB_DRIVER (got %q)", cfg.DBDriver)
	}

	st, err := storage.Open(ctx, storage.Config{Driver: cfg.DBDriver, DSN: cfg.DSN})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()

	locker, _ := st.(storage.AdvisoryLocker)

	svc := tariff.NewServiceWithStorage(tariff.Config{
		BaseURL:     cfg.ANEELBaseURL,
		ResourceID:  cfg.ANEELResourceID,
		Limit:       cfg.ANEELLimit,
		SnapshotTTL: cfg.SnapshotTTL,
	}, st)

	alerter := alerting.NewAlerter(alerting.DefaultAlertConfig())

	// Interval comes from the environment, overridable at runtime through
	// the settings table. Integer seconds or a cron expression.
	intervalSetting := "86400"
	if raw := os.Getenv("CONTALUZ_REFRESH_INTERVAL"); raw != "" {
		intervalSetting = raw
	}
	if val, err := st.GetSetting(ctx, "refresh_interval_seconds"); err == nil && val != "" {
		intervalSetting = val
	}

	getNextRun := func(setting string, lastRun time.Time) time.Time {
		if v, err := strconv.Atoi(setting); err == nil && v > 0 {
			return lastRun.Add(time.Duration(v) * time.Second)
		}
		if sched, err := cron.ParseStandard(setting); err == nil {
			return sched.Next(lastRun)
		}
		return lastRun.Add(24 * time.Hour)
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	// Run immediately on a fresh start, then schedule.
	nextRun := time.Now()
	failures := 0

	log.Printf("worker starting, interval=%q driver=%s", intervalSetting, cfg.DBDriver)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if val, err := st.GetSetting(ctx, "refresh_interval_seconds"); err == nil && val != "" && val != intervalSetting {
				log.Printf("worker: interval updated from %q to %q", intervalSetting, val)
				intervalSetting = val
				nextRun = getNextRun(intervalSetting, time.Now())
			}

			if time.Now().Before(nextRun) {
				continue
			}

			started := time.Now()

			if locker != nil {
				ok, err := locker.AcquireAdvisoryLock(ctx, lockKey)
				if err != nil {
					log.Printf("worker: acquire advisory lock failed: %v", err)
					metrics.UpdateJobMetrics(jobName, started, err)
					nextRun = getNextRun(intervalSetting, time.Now())
					continue
				}
				if !ok {
					log.Printf("worker: advisory lock held by another worker, skipping run")
					nextRun = getNextRun(intervalSetting, time.Now())
					continue
				}
			}

			var runErr error
			func() {
				if locker != nil {
					defer func() {
						if _, err := locker.ReleaseAdvisoryLock(ctx, lockKey); err != nil {
							log.Printf("worker: release advisory lock failed: %v", err)
						}
					}()
				}
				_, runErr = svc.ForceRefresh(ctx)
			}()

			metrics.UpdateJobMetrics(jobName, started, runErr)
			dur := time.Since(started)
			errMsg := ""
			if runErr != nil {
				errMsg = runErr.Error()
				failures++
			} else {
				failures = 0
			}
			if err := st.UpdateScheduledJob(ctx, jobName, started, dur, runErr == nil, errMsg); err != nil {
				log.Printf("worker: update scheduled_jobs failed: %v", err)
			}

			if runErr != nil {
				log.Printf("worker: job %s failed: %v (duration=%s)", jobName, runErr, dur)
				if err := alerter.SendJobAlert(ctx, alerting.JobAlert{
					JobName:      jobName,
					Source:       "aneel",
					Error:        runErr.Error(),
					FailureCount: failures,
					Duration:     dur,
					Timestamp:    started,
				}); err != nil {
					log.Printf("worker: send alert failed: %v", err)
				}
			} else {
				log.Printf("worker: job %s completed (duration=%s)", jobName, dur)
			}

			nextRun = getNextRun(intervalSetting, time.Now())
		}
	}
}
