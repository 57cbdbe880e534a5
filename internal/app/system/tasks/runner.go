// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownJob is returned by RunOnce for an unregistered job name.
var ErrUnknownJob = errors.New("unknown job")

// Job is a task run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration

	// Timeout bounds a single run. Zero leaves only shutdown as a bound.
	Timeout time.Duration

	// SkipInitial waits one Interval before the first run.
	SkipInitial bool

	Run func(ctx context.Context) error
}

// JobStats is a point-in-time view of one job.
type JobStats struct {
	Name      string    `json:"name"`
	Interval  string    `json:"interval"`
	Runs      uint64    `json:"runs"`
	Failures  uint64    `json:"failures"`
	Running   bool      `json:"running"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

type entry struct {
	job Job

	mu    sync.Mutex
	stats JobStats
}

// Runner runs registered jobs until Stop.
type Runner struct {
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new task runner.
func New(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		logger:  logger.Named("tasks"),
		entries: make(map[string]*entry),
	}
}

// Register adds a job. A job with the same name replaces the earlier
// one. Jobs registered after Start are not scheduled.
func (r *Runner) Register(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[job.Name] = &entry{
		job:   job,
		stats: JobStats{Name: job.Name, Interval: job.Interval.String()},
	}
}

// Start schedules every registered job. A second call is a no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	for _, e := range r.entries {
		r.wg.Add(1)
		go r.loop(ctx, e)
	}
	r.logger.Info("background task runner started", zap.Int("job_count", len(r.entries)))
}

// Stop cancels every job and waits for in-flight runs. If ctx ends first
// it returns ctx.Err() and logs the jobs still running.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background task runner stopped")
		return nil
	case <-ctx.Done():
		var busy []string
		for _, s := range r.Stats() {
			if s.Running {
				busy = append(busy, s.Name)
			}
		}
		r.logger.Warn("background task runner shutdown timed out", zap.Strings("jobs_still_running", busy))
		return ctx.Err()
	}
}

// Stats returns every job's counters sorted by name.
func (r *Runner) Stats() []JobStats {
	r.mu.Lock()
	out := make([]JobStats, 0, len(r.entries))
	for _, e := range r.entries {
		e.mu.Lock()
		out = append(out, e.stats)
		e.mu.Unlock()
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RunOnce runs the named job now, outside its schedule.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	r.mu.Lock()
	e, ok := r.entries[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return r.execute(ctx, e)
}

func (r *Runner) loop(ctx context.Context, e *entry) {
	defer r.wg.Done()

	if !e.job.SkipInitial {
		_ = r.execute(ctx, e)
	}

	ticker := time.NewTicker(e.job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.execute(ctx, e)
		}
	}
}

// execute runs one job invocation, records it, and logs failures. A
// shutdown-cancelled run is not counted as a failure.
func (r *Runner) execute(ctx context.Context, e *entry) error {
	e.mu.Lock()
	e.stats.Running = true
	e.mu.Unlock()

	start := time.Now()
	err := invoke(ctx, e.job)

	e.mu.Lock()
	e.stats.Running = false
	e.stats.Runs++
	e.stats.LastRun = start
	e.stats.LastError = ""
	if err != nil && ctx.Err() == nil {
		e.stats.Failures++
		e.stats.LastError = err.Error()
	}
	e.mu.Unlock()

	fields := []zap.Field{zap.String("job", e.job.Name), zap.Duration("duration", time.Since(start))}
	switch {
	case err == nil:
		r.logger.Debug("job completed", fields...)
	case ctx.Err() != nil:
		r.logger.Debug("job cancelled during shutdown", fields...)
	default:
		r.logger.Error("job failed", append(fields, zap.Error(err))...)
	}
	return err
}

// invoke applies the job timeout and turns a panic into an error.
func invoke(ctx context.Context, job Job) (err error) {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, p)
		}
	}()
	return job.Run(ctx)
}
