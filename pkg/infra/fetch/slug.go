package fetch

import (
	"regexp"
	"strings"

	"github.com/nodrums/nodrums/pkg/domain/types"
)

var slugPattern = regexp.MustCompile(`v=([\w-]+)`)

// Slug extracts the YouTube video id from a watch URL, or returns an
// empty string when the URL carries no v= parameter
func Slug(url string) string {
	m := slugPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// KindOf classifies a submitted URL. A direct .mp3 link wins over a
// YouTube-looking URL, matching the order the processor fetches in.
func KindOf(url string) types.SourceKind {
	if !strings.HasSuffix(url, ".mp3") && Slug(url) != "" {
		return types.SourceYouTube
	}
	return types.SourceURL
}
