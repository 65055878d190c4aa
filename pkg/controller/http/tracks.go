package http

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/nodrums/nodrums/pkg/domain/interfaces"
	"github.com/nodrums/nodrums/pkg/domain/model"
	"github.com/nodrums/nodrums/pkg/domain/types"
	"github.com/nodrums/nodrums/pkg/infra/fetch"
	"github.com/nodrums/nodrums/pkg/infra/store"
)

// maxUploadBytes bounds multipart parsing; a 100MB cap comfortably fits
// any single MP3 track
const maxUploadBytes = 100 << 20

// TrackHandler handles track submission, status and file serving
type TrackHandler struct {
	jobs       interfaces.JobRegistry
	tracks     interfaces.TrackStore
	layout     *store.Layout
	adminToken string
}

// NewTrackHandler creates a new TrackHandler
func NewTrackHandler(
	jobs interfaces.JobRegistry,
	tracks interfaces.TrackStore,
	layout *store.Layout,
	adminToken string,
) *TrackHandler {
	return &TrackHandler{
		jobs:       jobs,
		tracks:     tracks,
		layout:     layout,
		adminToken: adminToken,
	}
}

// submissionFromRequest maps the HTML form contract onto a Submission.
// The field names (file_submit, url_submit, file_hash) are the public
// form API and must not change.
func submissionFromRequest(r *http.Request) (*model.Submission, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, goerr.Wrap(err, "failed to parse multipart form")
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, goerr.Wrap(err, "failed to parse form")
		}
	}

	// The browser form carries both fields; the pressed submit button
	// decides which one counts. API clients send only one of them.
	wantFile := r.FormValue("file_submit") != "" ||
		(r.FormValue("url_submit") == "" && r.MultipartForm != nil && len(r.MultipartForm.File["file"]) > 0)

	if wantFile {
		file, header, err := r.FormFile("file")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return nil, goerr.New("no file or URL provided")
			}
			return nil, goerr.Wrap(err, "failed to read uploaded file")
		}
		defer file.Close()

		if header.Filename == "" {
			return nil, goerr.New("no selected file")
		}

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read upload payload")
		}

		return &model.Submission{
			Source:     types.SourceUpload,
			Filename:   header.Filename,
			Data:       data,
			ClientHash: r.FormValue("file_hash"),
		}, nil
	}

	if url := strings.TrimSpace(r.FormValue("url")); url != "" {
		return &model.Submission{
			Source: fetch.KindOf(url),
			URL:    url,
		}, nil
	}

	return nil, goerr.New("no file or URL provided")
}

// SubmitAsync accepts a submission and returns immediately with the job id
func (h *TrackHandler) SubmitAsync(w http.ResponseWriter, r *http.Request) {
	sub, err := submissionFromRequest(r)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	job, err := h.jobs.Submit(r.Context(), sub)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id":   job.ID,
		"track_id": string(job.TrackID),
	})
}

// GetJob returns the state and status log of a job
func (h *TrackHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, ok := h.jobs.Get(id)
	if !ok {
		writeError(w, goerr.New("unknown job"), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// ListTracks returns all rows of the track index
func (h *TrackHandler) ListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.tracks.List(r.Context())
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

// GetTrack returns one track row
func (h *TrackHandler) GetTrack(w http.ResponseWriter, r *http.Request) {
	id := types.TrackID(chi.URLParam(r, "id"))

	track, err := h.tracks.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if track == nil {
		writeError(w, goerr.New("unknown track"), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, track)
}

// DeleteTrack purges a cache entry and its output files
func (h *TrackHandler) DeleteTrack(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, goerr.New("unauthorized"), http.StatusUnauthorized)
		return
	}

	id := types.TrackID(chi.URLParam(r, "id"))

	track, err := h.tracks.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if track == nil {
		writeError(w, goerr.New("unknown track"), http.StatusNotFound)
		return
	}

	if err := h.tracks.Delete(r.Context(), id); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	ctxlog.From(r.Context()).Info("Track purged via API", "id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ServeUpload serves an input file from the uploads directory
func (h *TrackHandler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	path, err := h.layout.ResolveUpload(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err, http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

// ServeOutput serves a stem or merged file from the output directory
func (h *TrackHandler) ServeOutput(w http.ResponseWriter, r *http.Request) {
	path, err := h.layout.ResolveOutput(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, err, http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

// authorized checks the bearer token on destructive endpoints. With no
// token configured, those endpoints are open (single-user deployments).
func (h *TrackHandler) authorized(r *http.Request) bool {
	if h.adminToken == "" {
		return true
	}

	auth := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return subtle.ConstantTimeCompare([]byte(auth), []byte(h.adminToken)) == 1
}
