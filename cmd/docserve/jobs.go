package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/ancientlore/docserve/config"
	"github.com/ancientlore/docserve/logattr"
	"github.com/ancientlore/docserve/notify"
	"github.com/ancientlore/docserve/session"
	"github.com/ancientlore/docserve/site"
)

// job is a periodic background task. A job with a zero interval is not scheduled.
type job struct {
	name      string
	every     time.Duration
	immediate bool
	run       func(context.Context) error
}

// jobsFor returns the background jobs of the server.
func jobsFor(cfg config.Config, src source, st *site.Site, store session.Store, notifier *notify.Notifier, log *slog.Logger) []job {
	jobs := []job{{
		name:      "warm",
		every:     time.Duration(cfg.Jobs.Warm),
		immediate: true,
		run: func(ctx context.Context) error {
			warm(ctx, st, log)
			return nil
		},
	}}
	if src.git != nil {
		jobs = append(jobs, job{
			name:  "fetch",
			every: time.Duration(cfg.Jobs.Fetch),
			run: func(ctx context.Context) error {
				if err := src.git.Fetch(ctx); err != nil {
					return err
				}
				notifier.Invalidate(ctx, "git")
				return nil
			},
		})
	}
	if cfg.Session.MaxAge > 0 {
		jobs = append(jobs, job{
			name:  "prunesessions",
			every: time.Duration(cfg.Jobs.PruneSession),
			run: func(ctx context.Context) error {
				n, err := store.Prune(ctx, time.Now().Add(-time.Duration(cfg.Session.MaxAge)))
				if err != nil {
					return err
				}
				log.InfoContext(ctx, "Pruned sessions", logattr.Count(n))
				return nil
			},
		})
	}
	return jobs
}

// startJobs schedules jobs and starts the scheduler.
func startJobs(ctx context.Context, jobs []job, log *slog.Logger) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("startJobs: %w", err)
	}
	for _, j := range jobs {
		if j.every <= 0 {
			continue
		}
		opts := []gocron.JobOption{
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		}
		if j.immediate {
			opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
		}
		_, err := s.NewJob(gocron.DurationJob(j.every), gocron.NewTask(func() {
			start := time.Now()
			if err := j.run(ctx); err != nil {
				log.ErrorContext(ctx, "Job failed", logattr.Job(j.name), logattr.Error(err))
				return
			}
			log.DebugContext(ctx, "Job done", logattr.Job(j.name), logattr.Duration(time.Since(start)))
		}), opts...)
		if err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("startJobs: %s: %w", j.name, err)
		}
		log.Info("Scheduled job", logattr.Job(j.name), slog.String("every", j.every.String()))
	}
	s.Start()
	return s, nil
}

// warm fills the content cache, logging failures.
func warm(ctx context.Context, st *site.Site, log *slog.Logger) {
	if _, err := st.Warm(ctx); err != nil {
		log.WarnContext(ctx, "Warm-up stopped", logattr.Error(err))
	}
}
