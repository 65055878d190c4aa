package fetch

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/nodrums/nodrums/pkg/domain/types"
)

// Client pulls remote audio onto local disk, either as a direct HTTP
// download or through yt-dlp for YouTube sources
type Client struct {
	httpClient *http.Client
	retries    int
}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for direct downloads
func WithHTTPClient(c *http.Client) Option {
	return func(f *Client) {
		f.httpClient = c
	}
}

// WithRetries sets how many times a failed YouTube download is retried
func WithRetries(n int) Option {
	return func(f *Client) {
		f.retries = n
	}
}

// New creates a fetch Client
func New(opts ...Option) *Client {
	f := &Client{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		retries:    1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchDirect downloads the file at url to dest, streaming to disk
func (f *Client) FetchDirect(ctx context.Context, url, dest string) error {
	logger := ctxlog.From(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to create download request", goerr.V("url", url))
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to download file", goerr.V("url", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return goerr.New("unexpected status code for download",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode),
		)
	}

	out, err := os.Create(dest)
	if err != nil {
		return goerr.Wrap(err, "failed to create download target", goerr.V("dest", dest))
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return goerr.Wrap(err, "failed to write download", goerr.V("dest", dest))
	}

	logger.Info("File downloaded", "url", url, "dest", dest, "size_bytes", n)
	return nil
}

// FetchYouTube downloads the audio track of a YouTube video into
// destDir as <id>.wav and returns the final path. The download is
// retried once with a short backoff: transient extractor failures are
// common.
func (f *Client) FetchYouTube(ctx context.Context, url, destDir string, id types.TrackID) (string, error) {
	logger := ctxlog.From(ctx)

	// Output template without extension: yt-dlp appends it after the
	// audio extraction pass
	outTmpl := filepath.Join(destDir, string(id)) + ".%(ext)s"

	dl := ytdlp.New().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat("wav").
		RestrictFilenames().
		NoPlaylist().
		NoContinue().
		Output(outTmpl)

	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			logger.Warn("Retrying YouTube download", "url", url, "attempt", attempt+1)
		}

		if _, err := dl.Run(ctx, url); err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}

		dest := filepath.Join(destDir, string(id)+".wav")
		if _, err := os.Stat(dest); err != nil {
			return "", goerr.Wrap(err, "yt-dlp finished but output is missing", goerr.V("dest", dest))
		}

		logger.Info("YouTube audio downloaded", "url", url, "dest", dest)
		return dest, nil
	}

	return "", goerr.Wrap(lastErr, "failed to download YouTube audio", goerr.V("url", url))
}
