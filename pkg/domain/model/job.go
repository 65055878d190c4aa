package model

import (
	"fmt"
	"time"

	"github.com/nodrums/nodrums/pkg/domain/types"
)

// Submission is a processing request before it has been resolved to a
// Track: either uploaded bytes or a URL, never both.
type Submission struct {
	Source     types.SourceKind
	Filename   string // original upload filename (untrusted)
	Data       []byte // upload payload
	URL        string
	ClientHash string // MD5 the client computed before upload, optional
}

// Job tracks one asynchronous run of the processing pipeline
type Job struct {
	ID         string           `json:"id"`
	TrackID    types.TrackID    `json:"track_id"`
	State      types.TrackState `json:"state"`
	Error      string           `json:"error,omitempty"`
	Updates    []StatusUpdate   `json:"updates"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at,omitempty"`
}

// StatusFunc receives one human-readable progress line per pipeline step
type StatusFunc func(message string)

// StatusUpdate is one line of the human-readable processing log shown
// on the result page
type StatusUpdate struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

func (u StatusUpdate) String() string {
	return fmt.Sprintf("%s - %s", u.At.Format(time.RFC3339), u.Message)
}
