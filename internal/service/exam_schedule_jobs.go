package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/repository"
	appErrors "github.com/noah-isme/exam-scheduler/pkg/errors"
	"github.com/noah-isme/exam-scheduler/pkg/jobs"
)

// ScheduleJobType tags queued scheduling runs.
const ScheduleJobType = "exam_schedule"

var errScheduleJobNotFound = errors.New("schedule job not found")

// ScheduleJobStore persists job state for polling.
type ScheduleJobStore interface {
	Save(ctx context.Context, job dto.ScheduleJob) error
	Get(ctx context.Context, id string) (*dto.ScheduleJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type scheduleRunner interface {
	Schedule(ctx context.Context, req dto.ScheduleExamsRequest) (*dto.ScheduleResult, error)
}

// ScheduleJobService runs scheduling in the background and tracks job state.
type ScheduleJobService struct {
	runner scheduleRunner
	store  ScheduleJobStore
	queue  jobDispatcher
	logger *zap.Logger
	now    func() time.Time
}

// NewScheduleJobService wires the job service. The queue is attached later with
// SetQueue because the queue's handler is this service.
func NewScheduleJobService(runner scheduleRunner, store ScheduleJobStore, logger *zap.Logger) *ScheduleJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleJobService{runner: runner, store: store, logger: logger, now: time.Now}
}

// SetQueue attaches the dispatcher used by Enqueue.
func (s *ScheduleJobService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// Enqueue records a queued job and hands it to the worker.
func (s *ScheduleJobService) Enqueue(ctx context.Context, req dto.ScheduleExamsRequest) (*dto.ScheduleJob, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "background scheduling is not configured")
	}
	job := dto.ScheduleJob{
		ID:         uuid.NewString(),
		Status:     dto.ScheduleJobQueued,
		Request:    req,
		EnqueuedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record schedule job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ScheduleJobType, Payload: req}); err != nil {
		job.Status = dto.ScheduleJobFailed
		job.Error = err.Error()
		if saveErr := s.store.Save(ctx, job); saveErr != nil {
			s.logger.Warn("failed to mark schedule job failed", zap.String("job_id", job.ID), zap.Error(saveErr))
		}
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Clone(appErrors.ErrUnavailable, "scheduling queue is full; try again later")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue schedule job")
	}
	s.logger.Info("schedule job queued", zap.String("job_id", job.ID))
	return &job, nil
}

// Job returns the current state of a queued run.
func (s *ScheduleJobService) Job(ctx context.Context, id string) (*dto.ScheduleJob, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, errScheduleJobNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule job")
	}
	return job, nil
}

// Handle executes a queued run. Failures are recorded on the job, never retried.
func (s *ScheduleJobService) Handle(ctx context.Context, queued jobs.Job) error {
	job, err := s.store.Get(ctx, queued.ID)
	if err != nil {
		s.logger.Warn("schedule job vanished before running", zap.String("job_id", queued.ID), zap.Error(err))
		return nil
	}

	started := s.now().UTC()
	job.Status = dto.ScheduleJobRunning
	job.StartedAt = &started
	if err := s.store.Save(ctx, *job); err != nil {
		s.logger.Warn("failed to mark schedule job running", zap.String("job_id", job.ID), zap.Error(err))
	}

	result, runErr := s.runner.Schedule(ctx, job.Request)
	finished := s.now().UTC()
	job.FinishedAt = &finished
	job.Result = result
	switch {
	case runErr != nil:
		job.Status = dto.ScheduleJobFailed
		job.Error = runErr.Error()
	case result.Aborted:
		job.Status = dto.ScheduleJobFailed
		job.Error = result.Message
	default:
		job.Status = dto.ScheduleJobSucceeded
	}

	// the worker context may already be cancelled on shutdown
	if err := s.store.Save(context.WithoutCancel(ctx), *job); err != nil {
		s.logger.Warn("failed to record schedule job result", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.logger.Info("schedule job finished", zap.String("job_id", job.ID), zap.String("status", string(job.Status)))
	return nil
}

// MemoryJobStore keeps jobs in process for a TTL.
type MemoryJobStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]storedJob
}

type storedJob struct {
	job       dto.ScheduleJob
	expiresAt time.Time
}

// NewMemoryJobStore keeps job records in memory.
func NewMemoryJobStore(ttl time.Duration) *MemoryJobStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryJobStore{ttl: ttl, now: time.Now, items: make(map[string]storedJob)}
}

// Save stores job and sweeps expired records.
func (s *MemoryJobStore) Save(_ context.Context, job dto.ScheduleJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, item := range s.items {
		if now.After(item.expiresAt) {
			delete(s.items, id)
		}
	}
	s.items[job.ID] = storedJob{job: job, expiresAt: now.Add(s.ttl)}
	return nil
}

// Get returns a live job or errScheduleJobNotFound once its TTL has passed.
func (s *MemoryJobStore) Get(_ context.Context, id string) (*dto.ScheduleJob, error) {
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()
	if !ok || s.now().After(item.expiresAt) {
		return nil, errScheduleJobNotFound
	}
	job := item.job
	return &job, nil
}

type jobCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CacheJobStore shares job records through Redis so any instance can answer polls.
type CacheJobStore struct {
	cache  jobCache
	prefix string
	ttl    time.Duration
}

// NewCacheJobStore stores job records through the cache repository under prefix.
func NewCacheJobStore(cache jobCache, prefix string, ttl time.Duration) *CacheJobStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if prefix == "" {
		prefix = "jobs"
	}
	return &CacheJobStore{cache: cache, prefix: prefix, ttl: ttl}
}

func (s *CacheJobStore) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

// Save writes job under the store prefix with the store TTL.
func (s *CacheJobStore) Save(ctx context.Context, job dto.ScheduleJob) error {
	return s.cache.Set(ctx, s.key(job.ID), job, s.ttl)
}

// Get reads a job back; a cache miss maps to errScheduleJobNotFound.
func (s *CacheJobStore) Get(ctx context.Context, id string) (*dto.ScheduleJob, error) {
	var job dto.ScheduleJob
	if err := s.cache.Get(ctx, s.key(id), &job); err != nil {
		if errors.Is(err, repository.ErrCacheMiss) {
			return nil, errScheduleJobNotFound
		}
		return nil, err
	}
	return &job, nil
}
