package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/nodrums/nodrums/pkg/domain/interfaces"
	"github.com/nodrums/nodrums/pkg/domain/model"
	"github.com/nodrums/nodrums/pkg/domain/types"
	"github.com/nodrums/nodrums/pkg/utils/async"
)

type jobRegistry struct {
	proc interfaces.ProcessUseCase

	mutex sync.RWMutex
	jobs  map[string]*model.Job
	done  map[string]chan struct{}

	// Separation loads the full model into memory; sem bounds how many
	// runs happen at once
	sem chan struct{}
}

// NewJobs creates a new JobRegistry. maxParallel bounds concurrent
// pipeline runs; values below 1 are treated as 1.
func NewJobs(proc interfaces.ProcessUseCase, maxParallel int) interfaces.JobRegistry {
	if maxParallel < 1 {
		maxParallel = 1
	}

	return &jobRegistry{
		proc: proc,
		jobs: make(map[string]*model.Job),
		done: make(map[string]chan struct{}),
		sem:  make(chan struct{}, maxParallel),
	}
}

// Submit starts processing in the background and returns the job
func (r *jobRegistry) Submit(ctx context.Context, sub *model.Submission) (*model.Job, error) {
	trackID, err := r.proc.Resolve(sub)
	if err != nil {
		return nil, err
	}

	job := &model.Job{
		ID:        uuid.NewString(),
		TrackID:   trackID,
		State:     types.StatePending,
		StartedAt: time.Now(),
	}

	r.mutex.Lock()
	r.jobs[job.ID] = job
	r.done[job.ID] = make(chan struct{})
	r.mutex.Unlock()

	jobID := job.ID
	async.Dispatch(ctx, func(ctx context.Context) error {
		return r.run(ctx, jobID, sub)
	})

	return r.snapshot(job), nil
}

// run executes the pipeline for one job, respecting the parallelism bound
func (r *jobRegistry) run(ctx context.Context, jobID string, sub *model.Submission) (err error) {
	r.sem <- struct{}{}
	defer func() { <-r.sem }()

	// The done channel must close no matter how Process ends, or every
	// Wait on this job blocks until its caller's context does
	defer func() {
		if rec := recover(); rec != nil {
			err = goerr.New(fmt.Sprintf("panic during processing: %v", rec))
		}
		r.finish(jobID, err)
	}()

	report := func(message string) {
		r.mutex.Lock()
		defer r.mutex.Unlock()
		if job, ok := r.jobs[jobID]; ok {
			job.Updates = append(job.Updates, model.StatusUpdate{At: time.Now(), Message: message})
		}
	}

	_, err = r.proc.Process(ctx, sub, report)
	return err
}

// finish records the terminal state and releases waiters
func (r *jobRegistry) finish(jobID string, err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if job, ok := r.jobs[jobID]; ok {
		job.FinishedAt = time.Now()
		if err != nil {
			job.State = types.StateFailed
			job.Error = err.Error()
		} else {
			job.State = types.StateDone
		}
	}
	if ch, ok := r.done[jobID]; ok {
		close(ch)
	}
}

// Wait blocks until the job reaches a terminal state or ctx ends
func (r *jobRegistry) Wait(ctx context.Context, jobID string) (*model.Job, error) {
	r.mutex.RLock()
	ch, ok := r.done[jobID]
	r.mutex.RUnlock()

	if !ok {
		return nil, goerr.New("unknown job", goerr.V("job_id", jobID))
	}

	select {
	case <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	job, _ := r.Get(jobID)
	return job, nil
}

// Get returns a snapshot of the job, safe to read while processing runs
func (r *jobRegistry) Get(jobID string) (*model.Job, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil, false
	}
	return r.snapshotLocked(job), true
}

// List returns snapshots of all jobs
func (r *jobRegistry) List() []*model.Job {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	jobs := make([]*model.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, r.snapshotLocked(job))
	}
	return jobs
}

func (r *jobRegistry) snapshot(job *model.Job) *model.Job {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.snapshotLocked(job)
}

func (r *jobRegistry) snapshotLocked(job *model.Job) *model.Job {
	cp := *job
	cp.Updates = make([]model.StatusUpdate, len(job.Updates))
	copy(cp.Updates, job.Updates)
	return &cp
}
