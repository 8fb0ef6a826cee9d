package scheduler

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// JobType represents the different maintenance jobs
type JobType int

const (
	JobGeocodeListings JobType = iota
	JobPruneRateLimits
)

// String returns the string representation of a JobType
func (j JobType) String() string {
	switch j {
	case JobGeocodeListings:
		return "geocode_listings"
	case JobPruneRateLimits:
		return "prune_rate_limits"
	default:
		return "unknown"
	}
}

// Job is a task run every Every. Jobs with RunOnStart also run once when the
// scheduler starts.
type Job struct {
	Type       JobType
	Every      time.Duration
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// Scheduler runs maintenance jobs periodically, one at a time
type Scheduler struct {
	jobs     []Job
	logger   *logrus.Logger
	tick     time.Duration
	stopChan chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	jobMutex sync.Mutex // Ensures sequential job execution
	// Tracks whether we're in startup run
	isStartupRun atomic.Bool
}

// NewScheduler creates a new scheduler. Jobs without an interval or function
// are ignored.
func NewScheduler(logger *logrus.Logger, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	s := &Scheduler{
		logger:   logger,
		tick:     time.Minute,
		stopChan: make(chan struct{}),
	}
	for _, job := range jobs {
		if job.Every <= 0 || job.Run == nil {
			logger.WithField("job_type", job.Type.String()).Warn("Ignoring job without interval")
			continue
		}
		s.jobs = append(s.jobs, job)
		if job.Every < s.tick {
			s.tick = job.Every
		}
	}
	s.isStartupRun.Store(true)
	return s
}

// Start begins the scheduled tasks
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.runScheduler(ctx)
}

// runScheduler handles all scheduled tasks
func (s *Scheduler) runScheduler(ctx context.Context) {
	defer s.wg.Done()

	started := time.Now()
	lastRun := make(map[int]time.Time, len(s.jobs))
	for i := range s.jobs {
		lastRun[i] = started
	}

	// Startup jobs run in the background so the first tick is not delayed
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.jobMutex.Lock()
		defer s.jobMutex.Unlock()

		s.logger.Info("Running startup jobs")
		for _, job := range s.jobs {
			if job.RunOnStart {
				s.runJob(ctx, job)
			}
		}
		s.isStartupRun.Store(false)
		s.logger.Info("Startup jobs completed")
	}()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case t := <-ticker.C:
			s.executeDueJobs(ctx, t, lastRun)
		}
	}
}

// executeDueJobs runs every job whose interval has elapsed since its last run
func (s *Scheduler) executeDueJobs(ctx context.Context, t time.Time, lastRun map[int]time.Time) {
	if s.isStartupRun.Load() {
		s.logger.Debug("Skipping scheduled jobs while startup is in progress")
		return
	}

	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	for i, job := range s.jobs {
		// Half a tick of slack absorbs ticker jitter
		if t.Sub(lastRun[i]) < job.Every-s.tick/2 {
			continue
		}
		lastRun[i] = t
		s.runJob(ctx, job)
	}
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}

	fields := logrus.Fields{"job_type": job.Type.String()}
	s.logger.WithFields(fields).Debug("Starting job")

	started := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.WithError(err).WithFields(fields).Error("Job failed")
		return
	}

	fields["duration_ms"] = time.Since(started).Milliseconds()
	s.logger.WithFields(fields).Debug("Job completed")
}

// Stop cancels running jobs and waits for the scheduler to exit
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	close(s.stopChan)
	s.wg.Wait()
}
