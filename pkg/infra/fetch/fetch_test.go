package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/nodrums/nodrums/pkg/infra/fetch"
)

func TestFetchDirect(t *testing.T) {
	payload := []byte("fake mp3 bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/song.mp3" {
			_, _ = w.Write(payload)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := fetch.New(fetch.WithHTTPClient(srv.Client()))

	t.Run("downloads file to dest", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "song.mp3")

		gt.NoError(t, client.FetchDirect(context.Background(), srv.URL+"/song.mp3", dest))

		got, err := os.ReadFile(dest)
		gt.NoError(t, err)
		gt.Value(t, got).Equal(payload)
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "missing.mp3")

		err := client.FetchDirect(context.Background(), srv.URL+"/missing.mp3", dest)
		gt.Error(t, err)
	})
}
