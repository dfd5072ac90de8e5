// Package batch runs lattice jobs concurrently.
//
// Each job loads a point cloud, builds its Voronoi lattice and saves the
// result. Jobs share nothing so they run on a bounded pool of goroutines.
// A panic inside a job is recovered and reported as ErrFatal for that job
// alone.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/soypat/lattice"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrFatal wraps panics recovered from a job.
var ErrFatal = errors.New("batch: fatal error")

// Job is a unit of work. Load and Save must be safe to call concurrently
// with other jobs.
type Job struct {
	// ID identifies the job in logs. Run assigns a random UUID when empty.
	ID string
	// Name is a human readable label such as the input file name.
	Name string
	Load func(ctx context.Context) ([]r3.Vec, error)
	// Save receives the lattice. A nil Save discards it.
	Save func(ctx context.Context, l lattice.Lattice) error
}

// Result is the outcome of a Job.
type Result struct {
	Job     Job
	Points  int
	Lattice lattice.Lattice
	Elapsed time.Duration
	Err     error
}

// Options configures Run.
type Options struct {
	// Workers bounds the number of concurrent jobs. Zero uses GOMAXPROCS.
	Workers int
	// FailFast cancels jobs not yet started after the first failure.
	FailFast bool
	// Logger overrides the logger installed by Setup.
	Logger *Logger
}

// Run executes jobs and returns one Result per job in input order. The
// returned error joins the errors of all failed jobs.
func Run(ctx context.Context, jobs []Job, opts Options) ([]Result, error) {
	Setup(opts.Logger)
	log := opts.Logger
	if log == nil {
		log = Log()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	start := time.Now()
	results := make([]Result, len(jobs))
	g, gctx := new(errgroup.Group), ctx
	if opts.FailFast {
		g, gctx = errgroup.WithContext(ctx)
	}
	g.SetLimit(workers)
	for i := range jobs {
		i := i // per-iteration copy; go.mod targets go1.21 loop semantics.
		job := jobs[i]
		if job.ID == "" {
			job.ID = uuid.NewString()
		}
		g.Go(func() error {
			jlog := log.WithJob(job)
			r := runJob(gctx, job, jlog)
			jlog.LogResult(gctx, r)
			results[i] = r
			return r.Err
		})
	}
	g.Wait()
	log.LogRun(ctx, results, time.Since(start))
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("job %s %s: %w", r.Job.ID, r.Job.Name, r.Err))
		}
	}
	return results, errors.Join(errs...)
}

func runJob(ctx context.Context, job Job, log *Logger) (r Result) {
	r.Job = job
	start := time.Now()
	defer func() {
		if a := recover(); a != nil {
			log.Debug("recovered job panic", "stack", string(debug.Stack()))
			r.Err = fmt.Errorf("%w: %v", ErrFatal, a)
		}
		r.Elapsed = time.Since(start)
	}()
	if err := ctx.Err(); err != nil {
		r.Err = err
		return r
	}
	if job.Load == nil {
		r.Err = errors.New("job has no loader")
		return r
	}
	points, err := job.Load(ctx)
	if err != nil {
		r.Err = fmt.Errorf("loading points: %w", err)
		return r
	}
	r.Points = len(points)
	if len(points) < 4 {
		log.WarnContext(ctx, "cannot create a Voronoi lattice with fewer than 4 points", "points", len(points))
	}
	l, err := lattice.Build(points)
	if err != nil {
		r.Err = err
		return r
	}
	r.Lattice = l
	if job.Save != nil {
		if err := job.Save(ctx, l); err != nil {
			r.Err = fmt.Errorf("saving lattice: %w", err)
		}
	}
	return r
}
