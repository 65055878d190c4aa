package interfaces

import (
	"context"

	"github.com/nodrums/nodrums/pkg/domain/model"
	"github.com/nodrums/nodrums/pkg/domain/types"
)

// Fetcher defines operations for pulling remote audio onto local disk
type Fetcher interface {
	// FetchDirect downloads the file at url to dest
	FetchDirect(ctx context.Context, url, dest string) error

	// FetchYouTube downloads the audio track of a YouTube video into
	// destDir as <id>.wav and returns the final path
	FetchYouTube(ctx context.Context, url, destDir string, id types.TrackID) (string, error)
}

// Separator runs the source separation model on a local file
type Separator interface {
	// Separate writes 4 stem WAV files under outputDir
	Separate(ctx context.Context, inputPath, outputDir string) error
}

// Mixer combines stem files into a single encoded track
type Mixer interface {
	// Mix merges the input files into out
	Mix(ctx context.Context, out string, inputs ...string) error
}

// TrackStore defines the persistent track index
type TrackStore interface {
	Put(ctx context.Context, track *model.Track) error
	Get(ctx context.Context, id types.TrackID) (*model.Track, error)
	List(ctx context.Context) ([]*model.Track, error)
	Delete(ctx context.Context, id types.TrackID) error
	Close() error
}
