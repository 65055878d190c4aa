package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/nodrums/nodrums/pkg/domain/model"
	"github.com/nodrums/nodrums/pkg/domain/types"
)

// Layout computes where track files live on disk. The shape follows the
// separation tool's own convention: stems land in a directory named
// after the input inside the per-track output directory, so the full
// stem path is output/<id>/<id>/<stem>.wav.
type Layout struct {
	UploadsDir string
	OutputsDir string
}

// NewLayout creates a Layout and ensures both root directories exist
func NewLayout(uploadsDir, outputsDir string) (*Layout, error) {
	for _, dir := range []string{uploadsDir, outputsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("dir", dir))
		}
	}

	return &Layout{UploadsDir: uploadsDir, OutputsDir: outputsDir}, nil
}

// UploadPath returns where the input file for a track is stored
func (l *Layout) UploadPath(id types.TrackID, ext string) string {
	return filepath.Join(l.UploadsDir, string(id)+ext)
}

// OutputDir returns the per-track output directory
func (l *Layout) OutputDir(id types.TrackID) string {
	return filepath.Join(l.OutputsDir, string(id))
}

// StemDir returns the directory the separator writes stems into
func (l *Layout) StemDir(id types.TrackID) string {
	return filepath.Join(l.OutputsDir, string(id), string(id))
}

// StemPath returns the path of one stem file
func (l *Layout) StemPath(id types.TrackID, stem string) string {
	return filepath.Join(l.StemDir(id), stem)
}

// MergedPath returns the path of the drum-stripped mix
func (l *Layout) MergedPath(id types.TrackID) string {
	return filepath.Join(l.OutputDir(id), model.MergedName)
}

// MergedNoVocalsPath returns the path of the vocal-stripped mix
func (l *Layout) MergedNoVocalsPath(id types.TrackID) string {
	return filepath.Join(l.OutputDir(id), model.MergedNoVocalsName)
}

// ResolveUpload maps a request filename to a path under UploadsDir,
// rejecting anything that would escape it
func (l *Layout) ResolveUpload(name string) (string, error) {
	return resolveUnder(l.UploadsDir, name)
}

// ResolveOutput maps a request path to a path under OutputsDir,
// rejecting anything that would escape it
func (l *Layout) ResolveOutput(name string) (string, error) {
	return resolveUnder(l.OutputsDir, name)
}

// resolveUnder guards file serving against path traversal
func resolveUnder(root, name string) (string, error) {
	cleaned := filepath.Clean("/" + name)
	dest := filepath.Join(root, cleaned)

	if !strings.HasPrefix(dest, filepath.Clean(root)+string(os.PathSeparator)) {
		return "", goerr.New("invalid file path", goerr.V("name", name))
	}

	return dest, nil
}
