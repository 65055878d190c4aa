package http

import (
	_ "embed"
	"html/template"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/m-mizutani/ctxlog"

	"github.com/nodrums/nodrums/pkg/domain/model"
	"github.com/nodrums/nodrums/pkg/domain/types"
)

//go:embed templates/index.html
var indexTemplateSrc string

var indexTemplate = template.Must(template.New("index").Parse(indexTemplateSrc))

type stemLink struct {
	Name string
	URL  string
}

type indexData struct {
	Error          string
	FileHash       string
	Original       string
	OriginalType   string
	Stems          []stemLink
	Merged         string
	MergedNoVocals string
	Updates        []string
}

// Index renders the upload form
func (h *TrackHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, r, &indexData{})
}

// SubmitForm handles the browser form: it processes the submission
// inline and renders the result page, mirroring the classic synchronous
// flow. API clients that want to poll use SubmitAsync instead.
func (h *TrackHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	sub, err := submissionFromRequest(r)
	if err != nil {
		h.renderIndex(w, r, &indexData{Error: err.Error()})
		return
	}

	job, err := h.jobs.Submit(r.Context(), sub)
	if err != nil {
		h.renderIndex(w, r, &indexData{Error: err.Error()})
		return
	}

	job, err = h.jobs.Wait(r.Context(), job.ID)
	if err != nil {
		h.renderIndex(w, r, &indexData{Error: err.Error()})
		return
	}

	data := &indexData{}
	if sub.Source == types.SourceUpload {
		data.FileHash = string(job.TrackID)
	}
	for _, u := range job.Updates {
		data.Updates = append(data.Updates, u.String())
	}

	if job.State == types.StateFailed {
		data.Error = job.Error
		h.renderIndex(w, r, data)
		return
	}

	track, err := h.tracks.Get(r.Context(), job.TrackID)
	if err != nil || track == nil {
		data.Error = "processed track is missing from the index"
		h.renderIndex(w, r, data)
		return
	}

	h.fillResult(data, track)
	h.renderIndex(w, r, data)
}

// fillResult builds the audio links for a finished track
func (h *TrackHandler) fillResult(data *indexData, track *model.Track) {
	id := string(track.ID)

	data.Original = path.Join("/uploads", filepath.Base(track.InputPath))
	data.OriginalType = "audio/mpeg"
	if filepath.Ext(track.InputPath) == ".wav" {
		data.OriginalType = "audio/wav"
	}

	for _, stem := range model.StemFiles() {
		data.Stems = append(data.Stems, stemLink{
			Name: stemTitle(stem),
			URL:  path.Join("/output", id, id, stem),
		})
	}

	data.Merged = path.Join("/output", id, model.MergedName)
	data.MergedNoVocals = path.Join("/output", id, model.MergedNoVocalsName)
}

func (h *TrackHandler) renderIndex(w http.ResponseWriter, r *http.Request, data *indexData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		ctxlog.From(r.Context()).Error("Failed to render index page", "error", err)
	}
}

// stemTitle turns "vocals.wav" into "Vocals"
func stemTitle(stem string) string {
	name := strings.TrimSuffix(stem, filepath.Ext(stem))
	if name == "" {
		return stem
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
