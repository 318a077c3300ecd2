// Package backup writes timestamped CSV snapshots of the trip book on a cron
// schedule. Snapshots are taken through the same exporters the HTTP API
// uses, so they work for either store driver and never touch the caches.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pkordes/tripbook/internal/csvio"
)

// timeLayout is used in snapshot file names; it sorts chronologically.
const timeLayout = "20060102T150405"

// Source is one snapshot written per run, as <Name>_<timestamp>.csv.
type Source struct {
	Name  string
	Write func(w io.Writer) error
}

// Job writes every source into dir on each run.
type Job struct {
	dir     string
	sources []Source
	log     *slog.Logger
	now     func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// New constructs a Job. It does nothing until Run or Start is called.
func New(dir string, sources []Source, log *slog.Logger) *Job {
	return &Job{dir: dir, sources: sources, log: log, now: time.Now}
}

// WithClock replaces the time source used for file names. For tests.
func (j *Job) WithClock(now func() time.Time) *Job {
	j.now = now
	return j
}

// Run writes one snapshot per source and returns the paths written. A
// failing source does not stop the others; all failures are joined.
func (j *Job) Run(ctx context.Context) ([]string, error) {
	stamp := j.now().UTC().Format(timeLayout)

	var (
		written []string
		errs    []error
	)
	for _, src := range j.sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		path := filepath.Join(j.dir, fmt.Sprintf("%s_%s.csv", src.Name, stamp))
		if err := csvio.WriteFileAtomic(path, src.Write); err != nil {
			errs = append(errs, fmt.Errorf("backup %s: %w", src.Name, err))
			continue
		}
		written = append(written, path)
	}

	if err := errors.Join(errs...); err != nil {
		return written, fmt.Errorf("backup.Job.Run: %w", err)
	}
	return written, nil
}

// Start schedules Run with a standard 5-field cron expression.
func (j *Job) Start(schedule string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cron != nil {
		return errors.New("backup.Job.Start: already started")
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx := context.Background()
		paths, err := j.Run(ctx)
		if err != nil {
			j.log.ErrorContext(ctx, "backup failed", "error", err)
		}
		if len(paths) > 0 {
			j.log.InfoContext(ctx, "backup written", "files", paths)
		}
	})
	if err != nil {
		return fmt.Errorf("backup.Job.Start: schedule %q: %w", schedule, err)
	}
	c.Start()
	j.cron = c
	j.log.Info("backup scheduled", "schedule", schedule, "dir", j.dir)
	return nil
}

// Stop halts the schedule and waits for a running backup to finish, or for
// ctx to be done. It is safe to call on a Job that was never started.
func (j *Job) Stop(ctx context.Context) {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		j.log.Warn("backup still running at shutdown")
	}
}
