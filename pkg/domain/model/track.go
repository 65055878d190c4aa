package model

import (
	"time"

	"github.com/nodrums/nodrums/pkg/domain/types"
)

// Track represents one submitted piece of audio and everything derived
// from it. It is the row stored in the track index and the unit of
// caching: a Track in StateDone never needs the separation model again.
type Track struct {
	ID         types.TrackID    `json:"id"`
	Source     types.SourceKind `json:"source"`
	Origin     string           `json:"origin"` // original filename or URL
	InputPath  string           `json:"input_path"`
	OutputDir  string           `json:"output_dir"`
	SizeBytes  int64            `json:"size_bytes"`
	State      types.TrackState `json:"state"`
	FailReason string           `json:"fail_reason,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// MergedName is the drum-stripped mix, the product of the service
const MergedName = "merged.mp3"

// MergedNoVocalsName is the secondary karaoke-style mix
const MergedNoVocalsName = "merged_no_vocals.mp3"
