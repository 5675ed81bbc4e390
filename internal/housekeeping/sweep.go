// Package housekeeping runs the periodic sweep spec.md's section 4.9 open
// question about drain() grace periods leaves unaddressed operationally: a
// TempfileUploadJob's tempfile is unlinked immediately on a clean finish or
// cancel, but a server crash mid-upload can leave an orphaned temp file
// behind in the upload staging directory forever. This package expires
// those on a schedule, grounded on arkeep's internal/scheduler's gocron
// wrapper.
package housekeeping

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// defaultMaxAge is how old an orphaned temp file must be before Sweep
// removes it. Generous relative to any real upload duration, so an upload
// still in flight is never mistaken for an orphan.
const defaultMaxAge = time.Hour

// Sweeper periodically scans one or more reserved temp directories and
// removes files older than MaxAge. The zero value is not usable — construct
// with New.
type Sweeper struct {
	cron   gocron.Scheduler
	dirs   []string
	maxAge time.Duration
	logger *zap.Logger
}

// New creates a Sweeper over the given directories (cmd/providerd passes
// the upload staging directory plus each account's Provider reserved
// directory). Call Start to begin running on interval.
func New(dirs []string, interval time.Duration, logger *zap.Logger) (*Sweeper, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("housekeeping: creating gocron scheduler: %w", err)
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	s := &Sweeper{
		cron:   cron,
		dirs:   append([]string(nil), dirs...),
		maxAge: defaultMaxAge,
		logger: logger.Named("housekeeping"),
	}

	_, err = cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.sweepOnce),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("housekeeping: scheduling sweep job: %w", err)
	}
	return s, nil
}

// WithMaxAge overrides the default orphan age threshold. Exposed for tests
// that don't want to wait an hour.
func (s *Sweeper) WithMaxAge(d time.Duration) *Sweeper {
	s.maxAge = d
	return s
}

// Start begins running the sweep on its configured interval.
func (s *Sweeper) Start() { s.cron.Start() }

// Stop gracefully shuts the scheduler down, waiting for any in-flight sweep
// to finish.
func (s *Sweeper) Stop() error {
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("housekeeping: shutdown: %w", err)
	}
	return nil
}

// SweepNow runs one sweep pass immediately, outside the scheduled interval.
// Exposed for tests and for an operator-triggered cleanup.
func (s *Sweeper) SweepNow() { s.sweepOnce() }

func (s *Sweeper) sweepOnce() {
	cutoff := time.Now().Add(-s.maxAge)
	var removed int

	for _, dir := range s.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Warn("reading reserved directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				s.logger.Warn("removing orphaned temp file", zap.String("path", path), zap.Error(err))
				continue
			}
			removed++
			s.logger.Info("removed orphaned temp file", zap.String("path", path), zap.Time("mtime", info.ModTime()))
		}
	}

	if removed > 0 {
		s.logger.Info("housekeeping sweep complete", zap.Int("removed", removed))
	}
}
