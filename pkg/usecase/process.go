package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/nodrums/nodrums/pkg/domain/interfaces"
	"github.com/nodrums/nodrums/pkg/domain/model"
	"github.com/nodrums/nodrums/pkg/domain/types"
	"github.com/nodrums/nodrums/pkg/infra/fetch"
	"github.com/nodrums/nodrums/pkg/infra/store"
)

type processor struct {
	fetcher   interfaces.Fetcher
	separator interfaces.Separator
	mixer     interfaces.Mixer
	tracks    interfaces.TrackStore
	layout    *store.Layout
}

// NewProcessor creates a new instance of ProcessUseCase
func NewProcessor(
	fetcher interfaces.Fetcher,
	separator interfaces.Separator,
	mixer interfaces.Mixer,
	tracks interfaces.TrackStore,
	layout *store.Layout,
) interfaces.ProcessUseCase {
	return &processor{
		fetcher:   fetcher,
		separator: separator,
		mixer:     mixer,
		tracks:    tracks,
		layout:    layout,
	}
}

// Resolve computes the track identity of a submission
func (uc *processor) Resolve(sub *model.Submission) (types.TrackID, error) {
	switch {
	case sub.Source == types.SourceUpload:
		if sub.Filename == "" {
			return "", goerr.New("no selected file")
		}
		if !allowedFile(sub.Filename) {
			return "", goerr.New("invalid file type", goerr.V("filename", sub.Filename))
		}
		sum := md5.Sum(sub.Data)
		return types.TrackID(hex.EncodeToString(sum[:])), nil

	case sub.URL != "":
		if slug := fetch.Slug(sub.URL); slug != "" && !strings.HasSuffix(sub.URL, ".mp3") {
			return types.TrackID(slug), nil
		}
		sum := md5.Sum([]byte(sub.URL))
		return types.TrackID(hex.EncodeToString(sum[:])), nil

	default:
		return "", goerr.New("no file or URL provided")
	}
}

// Process runs the full pipeline for one submission
func (uc *processor) Process(ctx context.Context, sub *model.Submission, report model.StatusFunc) (*model.Track, error) {
	logger := ctxlog.From(ctx)

	id, err := uc.Resolve(sub)
	if err != nil {
		return nil, err
	}

	track, err := uc.tracks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if track == nil {
		track = &model.Track{
			ID:        id,
			Source:    sub.Source,
			Origin:    originOf(sub),
			OutputDir: uc.layout.OutputDir(id),
			CreatedAt: time.Now(),
		}
	}

	fail := func(reason string, err error) (*model.Track, error) {
		report(reason)
		uc.transition(ctx, track, types.StateFailed, reason)
		return nil, err
	}

	// Materialize the input file
	uc.transition(ctx, track, types.StateFetching, "")
	inputPath, err := uc.materialize(ctx, sub, id, report)
	if err != nil {
		return fail(fmt.Sprintf("Failed to obtain input: %v", err), err)
	}
	track.InputPath = inputPath
	if st, err := os.Stat(inputPath); err == nil {
		track.SizeBytes = st.Size()
	}

	// Cache check: a verified set of stems means the model already ran
	missing, invalid := uc.verifyStems(id)
	if len(missing) == 0 && len(invalid) == 0 {
		logger.Info("Using cached stems", "id", id)
		report(fmt.Sprintf("Using cached output for %s", id))
	} else {
		uc.transition(ctx, track, types.StateSeparating, "")
		report(fmt.Sprintf("Running separation on %s (%s)",
			filepath.Base(inputPath), humanize.Bytes(uint64(track.SizeBytes))))

		if err := uc.separator.Separate(ctx, inputPath, uc.layout.OutputDir(id)); err != nil {
			return fail(fmt.Sprintf("Separation failed: %v", err), err)
		}
		report("Separation complete")

		missing, invalid = uc.verifyStems(id)
		if len(missing) > 0 {
			err := goerr.New("missing output stems", goerr.V("missing", missing))
			return fail(fmt.Sprintf("Error: missing output files: %s", strings.Join(missing, ", ")), err)
		}
		if len(invalid) > 0 {
			err := goerr.New("invalid output stems", goerr.V("invalid", invalid))
			return fail(fmt.Sprintf("Error: invalid audio files: %s", strings.Join(invalid, ", ")), err)
		}
	}

	// Build the two mixes; existing files are kept as-is so a purge of
	// one mix only re-runs sox for that mix
	uc.transition(ctx, track, types.StateMixing, "")

	merged := uc.layout.MergedPath(id)
	if _, err := os.Stat(merged); os.IsNotExist(err) {
		report("Mixing drum-free track")
		if err := uc.mixer.Mix(ctx, merged,
			uc.layout.StemPath(id, model.StemBass),
			uc.layout.StemPath(id, model.StemVocals),
			uc.layout.StemPath(id, model.StemOther),
		); err != nil {
			return fail(fmt.Sprintf("Mixing failed: %v", err), err)
		}
	}

	noVocals := uc.layout.MergedNoVocalsPath(id)
	if _, err := os.Stat(noVocals); os.IsNotExist(err) {
		report("Mixing vocal-free track")
		if err := uc.mixer.Mix(ctx, noVocals,
			uc.layout.StemPath(id, model.StemBass),
			uc.layout.StemPath(id, model.StemDrums),
			uc.layout.StemPath(id, model.StemOther),
		); err != nil {
			return fail(fmt.Sprintf("Mixing failed: %v", err), err)
		}
	}

	uc.transition(ctx, track, types.StateDone, "")
	report("Processing complete")

	logger.Info("Track processed",
		"id", id,
		"source", track.Source,
		"size", humanize.Bytes(uint64(track.SizeBytes)),
	)

	return track, nil
}

// materialize puts the submission's audio on disk and returns its path
func (uc *processor) materialize(ctx context.Context, sub *model.Submission, id types.TrackID, report model.StatusFunc) (string, error) {
	switch {
	case sub.Source == types.SourceUpload:
		if sub.ClientHash != "" && !strings.EqualFold(sub.ClientHash, string(id)) {
			return "", goerr.New("file upload verification failed",
				goerr.V("client_hash", sub.ClientHash),
				goerr.V("server_hash", id),
			)
		}

		path := uc.layout.UploadPath(id, ".mp3")
		if err := os.WriteFile(path, sub.Data, 0644); err != nil {
			return "", goerr.Wrap(err, "failed to save upload", goerr.V("path", path))
		}
		report(fmt.Sprintf("File saved to %s", path))
		if sub.ClientHash != "" {
			report(fmt.Sprintf("File hash verified: %s", id))
		}
		return path, nil

	case strings.HasSuffix(sub.URL, ".mp3"):
		path := uc.layout.UploadPath(id, ".mp3")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		if err := uc.fetcher.FetchDirect(ctx, sub.URL, path); err != nil {
			return "", err
		}
		report(fmt.Sprintf("File downloaded from URL to %s", path))
		return path, nil

	default:
		path := uc.layout.UploadPath(id, ".wav")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		dest, err := uc.fetcher.FetchYouTube(ctx, sub.URL, uc.layout.UploadsDir, id)
		if err != nil {
			return "", err
		}
		report(fmt.Sprintf("YouTube audio downloaded to %s", dest))
		return dest, nil
	}
}

// verifyStems returns stems whose files are missing, and stems whose
// files exist but are not valid WAV audio
func (uc *processor) verifyStems(id types.TrackID) (missing, invalid []string) {
	for _, stem := range model.StemFiles() {
		path := uc.layout.StemPath(id, stem)
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, stem)
			continue
		}
		if err := model.ValidateWAV(path); err != nil {
			invalid = append(invalid, stem)
		}
	}
	return missing, invalid
}

// transition updates track state and persists the row. Persistence
// failures are logged, not returned: the pipeline outcome matters more
// than a stale index row.
func (uc *processor) transition(ctx context.Context, track *model.Track, state types.TrackState, reason string) {
	track.State = state
	track.FailReason = reason
	track.UpdatedAt = time.Now()

	if err := uc.tracks.Put(ctx, track); err != nil {
		ctxlog.From(ctx).Error("Failed to persist track state",
			"id", track.ID,
			"state", state,
			"error", err,
		)
	}
}

func originOf(sub *model.Submission) string {
	if sub.Source == types.SourceUpload {
		return sub.Filename
	}
	return sub.URL
}

// allowedFile checks the upload extension allow-list
func allowedFile(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".mp3")
}
