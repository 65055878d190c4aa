package usecase_test

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/nodrums/nodrums/pkg/domain/interfaces"
	"github.com/nodrums/nodrums/pkg/domain/model"
	"github.com/nodrums/nodrums/pkg/domain/types"
	"github.com/nodrums/nodrums/pkg/infra/store"
	"github.com/nodrums/nodrums/pkg/usecase"
)

// MockFetcher is a mock implementation of Fetcher
type MockFetcher struct {
	fetchDirectFunc  func(ctx context.Context, url, dest string) error
	fetchYouTubeFunc func(ctx context.Context, url, destDir string, id types.TrackID) (string, error)
}

func (m *MockFetcher) FetchDirect(ctx context.Context, url, dest string) error {
	if m.fetchDirectFunc != nil {
		return m.fetchDirectFunc(ctx, url, dest)
	}
	return errors.New("mock not configured")
}

func (m *MockFetcher) FetchYouTube(ctx context.Context, url, destDir string, id types.TrackID) (string, error) {
	if m.fetchYouTubeFunc != nil {
		return m.fetchYouTubeFunc(ctx, url, destDir, id)
	}
	return "", errors.New("mock not configured")
}

// MockSeparator is a mock implementation of Separator
type MockSeparator struct {
	separateFunc func(ctx context.Context, inputPath, outputDir string) error
	calls        int
}

func (m *MockSeparator) Separate(ctx context.Context, inputPath, outputDir string) error {
	m.calls++
	if m.separateFunc != nil {
		return m.separateFunc(ctx, inputPath, outputDir)
	}
	return errors.New("mock not configured")
}

// MockMixer is a mock implementation of Mixer
type MockMixer struct {
	mixFunc func(ctx context.Context, out string, inputs ...string) error
	mixes   [][]string
}

func (m *MockMixer) Mix(ctx context.Context, out string, inputs ...string) error {
	m.mixes = append(m.mixes, append([]string{out}, inputs...))
	if m.mixFunc != nil {
		return m.mixFunc(ctx, out, inputs...)
	}
	return os.WriteFile(out, []byte("mp3"), 0644)
}

// wavBytes builds a minimal valid WAV file
func wavBytes() []byte {
	body := []byte("WAVEfmt data")
	out := make([]byte, 8, 8+len(body))
	copy(out, "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(len(body)))
	return append(out, body...)
}

// writeStems simulates a successful separation run
func writeStems(t *testing.T, layout *store.Layout, id types.TrackID) {
	t.Helper()
	gt.NoError(t, os.MkdirAll(layout.StemDir(id), 0755))
	for _, stem := range model.StemFiles() {
		gt.NoError(t, os.WriteFile(layout.StemPath(id, stem), wavBytes(), 0644))
	}
}

type testEnv struct {
	fetcher   *MockFetcher
	separator *MockSeparator
	mixer     *MockMixer
	tracks    *store.Store
	layout    *store.Layout
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	layout, err := store.NewLayout(filepath.Join(dir, "uploads"), filepath.Join(dir, "output"))
	gt.NoError(t, err)

	tracks, err := store.Open(filepath.Join(dir, "index.db"), layout)
	gt.NoError(t, err)
	t.Cleanup(func() { _ = tracks.Close() })

	return &testEnv{
		fetcher:   &MockFetcher{},
		separator: &MockSeparator{},
		mixer:     &MockMixer{},
		tracks:    tracks,
		layout:    layout,
	}
}

func (e *testEnv) processor() interfaces.ProcessUseCase {
	return usecase.NewProcessor(e.fetcher, e.separator, e.mixer, e.tracks, e.layout)
}

func collectUpdates(updates *[]string) model.StatusFunc {
	return func(message string) {
		*updates = append(*updates, message)
	}
}

func TestResolve(t *testing.T) {
	env := newTestEnv(t)
	p := env.processor()

	t.Run("upload id is the content hash", func(t *testing.T) {
		data := []byte("test data")
		sum := md5.Sum(data)

		id, err := p.Resolve(&model.Submission{
			Source:   types.SourceUpload,
			Filename: "song.mp3",
			Data:     data,
		})
		gt.NoError(t, err)
		gt.Value(t, string(id)).Equal(hex.EncodeToString(sum[:]))
	})

	t.Run("youtube id is the video slug", func(t *testing.T) {
		id, err := p.Resolve(&model.Submission{
			Source: types.SourceYouTube,
			URL:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		})
		gt.NoError(t, err)
		gt.Value(t, string(id)).Equal("dQw4w9WgXcQ")
	})

	t.Run("plain URL id is the URL hash", func(t *testing.T) {
		url := "https://example.com/song.mp3"
		sum := md5.Sum([]byte(url))

		id, err := p.Resolve(&model.Submission{Source: types.SourceURL, URL: url})
		gt.NoError(t, err)
		gt.Value(t, string(id)).Equal(hex.EncodeToString(sum[:]))
	})

	t.Run("non-mp3 upload is rejected", func(t *testing.T) {
		_, err := p.Resolve(&model.Submission{
			Source:   types.SourceUpload,
			Filename: "song.wav",
			Data:     []byte("x"),
		})
		gt.Error(t, err)
		gt.String(t, err.Error()).Contains("invalid file type")
	})

	t.Run("empty filename is rejected", func(t *testing.T) {
		_, err := p.Resolve(&model.Submission{Source: types.SourceUpload})
		gt.Error(t, err)
		gt.String(t, err.Error()).Contains("no selected file")
	})

	t.Run("empty submission is rejected", func(t *testing.T) {
		_, err := p.Resolve(&model.Submission{Source: types.SourceURL})
		gt.Error(t, err)
		gt.String(t, err.Error()).Contains("no file or URL provided")
	})
}

func TestProcess_UploadSuccess(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.separator.separateFunc = func(ctx context.Context, inputPath, outputDir string) error {
		id := types.TrackID(filepath.Base(outputDir))
		writeStems(t, env.layout, id)
		return nil
	}

	p := env.processor()

	var updates []string
	track, err := p.Process(ctx, &model.Submission{
		Source:   types.SourceUpload,
		Filename: "song.mp3",
		Data:     []byte("some mp3 bytes"),
	}, collectUpdates(&updates))

	gt.NoError(t, err)
	gt.Value(t, track.State).Equal(types.StateDone)
	gt.Value(t, track.Source).Equal(types.SourceUpload)
	gt.Value(t, track.Origin).Equal("song.mp3")

	// Input was persisted under its content hash
	_, statErr := os.Stat(env.layout.UploadPath(track.ID, ".mp3"))
	gt.NoError(t, statErr)

	// Both mixes ran, drum-free first, with the stem order the mixer expects
	gt.Number(t, len(env.mixer.mixes)).Equal(2)
	gt.Value(t, env.mixer.mixes[0][0]).Equal(env.layout.MergedPath(track.ID))
	gt.Value(t, env.mixer.mixes[0][1:]).Equal([]string{
		env.layout.StemPath(track.ID, model.StemBass),
		env.layout.StemPath(track.ID, model.StemVocals),
		env.layout.StemPath(track.ID, model.StemOther),
	})
	gt.Value(t, env.mixer.mixes[1][0]).Equal(env.layout.MergedNoVocalsPath(track.ID))
	gt.Value(t, env.mixer.mixes[1][1:]).Equal([]string{
		env.layout.StemPath(track.ID, model.StemBass),
		env.layout.StemPath(track.ID, model.StemDrums),
		env.layout.StemPath(track.ID, model.StemOther),
	})

	// Index row persisted as done
	row, err := env.tracks.Get(ctx, track.ID)
	gt.NoError(t, err)
	gt.NotNil(t, row)
	gt.Value(t, row.State).Equal(types.StateDone)

	gt.Number(t, len(updates)).Greater(0)
	gt.String(t, updates[len(updates)-1]).Contains("complete")
}

func TestProcess_ClientHashMismatch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.processor()

	var updates []string
	_, err := p.Process(ctx, &model.Submission{
		Source:     types.SourceUpload,
		Filename:   "song.mp3",
		Data:       []byte("some mp3 bytes"),
		ClientHash: "0000000000000000000000000000dead",
	}, collectUpdates(&updates))

	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("verification failed")
	gt.Number(t, env.separator.calls).Equal(0)
}

func TestProcess_CachedStemsSkipSeparation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.processor()

	data := []byte("cached track")
	sum := md5.Sum(data)
	id := types.TrackID(hex.EncodeToString(sum[:]))

	writeStems(t, env.layout, id)

	var updates []string
	track, err := p.Process(ctx, &model.Submission{
		Source:   types.SourceUpload,
		Filename: "song.mp3",
		Data:     data,
	}, collectUpdates(&updates))

	gt.NoError(t, err)
	gt.Value(t, track.State).Equal(types.StateDone)
	gt.Number(t, env.separator.calls).Equal(0)

	found := false
	for _, u := range updates {
		if u == "Using cached output for "+string(id) {
			found = true
		}
	}
	gt.True(t, found)
}

func TestProcess_ExistingMergesAreKept(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.processor()

	data := []byte("mixed already")
	sum := md5.Sum(data)
	id := types.TrackID(hex.EncodeToString(sum[:]))

	writeStems(t, env.layout, id)
	gt.NoError(t, os.WriteFile(env.layout.MergedPath(id), []byte("mp3"), 0644))

	var updates []string
	_, err := p.Process(ctx, &model.Submission{
		Source:   types.SourceUpload,
		Filename: "song.mp3",
		Data:     data,
	}, collectUpdates(&updates))

	gt.NoError(t, err)

	// Only the missing no-vocals mix was built
	gt.Number(t, len(env.mixer.mixes)).Equal(1)
	gt.Value(t, env.mixer.mixes[0][0]).Equal(env.layout.MergedNoVocalsPath(id))
}

func TestProcess_SeparationFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.separator.separateFunc = func(ctx context.Context, inputPath, outputDir string) error {
		return errors.New("model blew up")
	}

	p := env.processor()

	var updates []string
	_, err := p.Process(ctx, &model.Submission{
		Source:   types.SourceUpload,
		Filename: "song.mp3",
		Data:     []byte("doomed"),
	}, collectUpdates(&updates))

	gt.Error(t, err)

	// Track row records the failure
	id, rErr := p.Resolve(&model.Submission{Source: types.SourceUpload, Filename: "song.mp3", Data: []byte("doomed")})
	gt.NoError(t, rErr)
	row, gErr := env.tracks.Get(ctx, id)
	gt.NoError(t, gErr)
	gt.NotNil(t, row)
	gt.Value(t, row.State).Equal(types.StateFailed)
	gt.String(t, row.FailReason).Contains("Separation failed")
}

func TestProcess_MissingStemAfterSeparation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.separator.separateFunc = func(ctx context.Context, inputPath, outputDir string) error {
		id := types.TrackID(filepath.Base(outputDir))
		writeStems(t, env.layout, id)
		// One stem vanished
		return os.Remove(env.layout.StemPath(id, model.StemDrums))
	}

	p := env.processor()

	var updates []string
	_, err := p.Process(ctx, &model.Submission{
		Source:   types.SourceUpload,
		Filename: "song.mp3",
		Data:     []byte("partial"),
	}, collectUpdates(&updates))

	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("missing output stems")
}

func TestProcess_InvalidStemAfterSeparation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.separator.separateFunc = func(ctx context.Context, inputPath, outputDir string) error {
		id := types.TrackID(filepath.Base(outputDir))
		writeStems(t, env.layout, id)
		// Corrupt one stem
		return os.WriteFile(env.layout.StemPath(id, model.StemBass), []byte("not audio"), 0644)
	}

	p := env.processor()

	var updates []string
	_, err := p.Process(ctx, &model.Submission{
		Source:   types.SourceUpload,
		Filename: "song.mp3",
		Data:     []byte("corrupt"),
	}, collectUpdates(&updates))

	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("invalid output stems")
}

func TestProcess_YouTubeSubmission(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.fetcher.fetchYouTubeFunc = func(ctx context.Context, url, destDir string, id types.TrackID) (string, error) {
		dest := filepath.Join(destDir, string(id)+".wav")
		if err := os.WriteFile(dest, wavBytes(), 0644); err != nil {
			return "", err
		}
		return dest, nil
	}
	env.separator.separateFunc = func(ctx context.Context, inputPath, outputDir string) error {
		writeStems(t, env.layout, types.TrackID(filepath.Base(outputDir)))
		return nil
	}

	p := env.processor()

	var updates []string
	track, err := p.Process(ctx, &model.Submission{
		Source: types.SourceYouTube,
		URL:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}, collectUpdates(&updates))

	gt.NoError(t, err)
	gt.Value(t, string(track.ID)).Equal("dQw4w9WgXcQ")
	gt.Value(t, track.State).Equal(types.StateDone)
	gt.String(t, track.InputPath).Contains("dQw4w9WgXcQ.wav")
}

func TestProcess_DirectURLSubmission(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.fetcher.fetchDirectFunc = func(ctx context.Context, url, dest string) error {
		return os.WriteFile(dest, []byte("mp3 from web"), 0644)
	}
	env.separator.separateFunc = func(ctx context.Context, inputPath, outputDir string) error {
		writeStems(t, env.layout, types.TrackID(filepath.Base(outputDir)))
		return nil
	}

	p := env.processor()

	var updates []string
	track, err := p.Process(ctx, &model.Submission{
		Source: types.SourceURL,
		URL:    "https://example.com/song.mp3",
	}, collectUpdates(&updates))

	gt.NoError(t, err)
	gt.Value(t, track.State).Equal(types.StateDone)
	gt.String(t, track.InputPath).Contains(".mp3")
}
