package interfaces

import (
	"context"

	"github.com/nodrums/nodrums/pkg/domain/model"
	"github.com/nodrums/nodrums/pkg/domain/types"
)

// ProcessUseCase defines the track processing pipeline
type ProcessUseCase interface {
	// Process runs the full pipeline synchronously: resolve identity,
	// fetch/store input, separate, verify, mix, record. Progress is
	// reported through report, one human-readable line per step.
	Process(ctx context.Context, sub *model.Submission, report model.StatusFunc) (*model.Track, error)

	// Resolve computes the track identity of a submission without
	// doing any work
	Resolve(sub *model.Submission) (types.TrackID, error)
}

// JobRegistry manages asynchronous pipeline runs
type JobRegistry interface {
	// Submit starts processing in the background and returns the job
	Submit(ctx context.Context, sub *model.Submission) (*model.Job, error)

	// Wait blocks until the job reaches a terminal state or ctx ends
	Wait(ctx context.Context, jobID string) (*model.Job, error)

	Get(jobID string) (*model.Job, bool)
	List() []*model.Job
}
