package types

// Version is the application version, overridden at build time via
// -ldflags "-X github.com/nodrums/nodrums/pkg/domain/types.Version=..."
var Version = "dev"

// ServiceName is used in health responses and log attributes
const ServiceName = "nodrums"

// TrackID identifies a submitted track by content: the MD5 hex digest of
// uploaded bytes, the YouTube video id for YouTube URLs, or the MD5 hex
// digest of the URL string for other remote files.
type TrackID string

func (x TrackID) String() string {
	return string(x)
}

// SourceKind represents where a track came from
type SourceKind string

const (
	SourceUpload  SourceKind = "upload"
	SourceURL     SourceKind = "url"
	SourceYouTube SourceKind = "youtube"
)

// TrackState represents the processing lifecycle of a track
type TrackState string

const (
	StatePending    TrackState = "pending"
	StateFetching   TrackState = "fetching"
	StateSeparating TrackState = "separating"
	StateMixing     TrackState = "mixing"
	StateDone       TrackState = "done"
	StateFailed     TrackState = "failed"
)

// IsTerminal reports whether no further state transition will happen
func (s TrackState) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}
