package spleeter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultPreset is the 4-stem pretrained model configuration
const DefaultPreset = "spleeter:4stems"

// Runner invokes the spleeter binary to split a track into stems
type Runner struct {
	binary    string
	preset    string
	modelPath string
}

// Option is a functional option for Runner configuration
type Option func(*Runner)

// WithBinary overrides the spleeter executable name
func WithBinary(bin string) Option {
	return func(r *Runner) {
		r.binary = bin
	}
}

// WithPreset overrides the model preset
func WithPreset(preset string) Option {
	return func(r *Runner) {
		r.preset = preset
	}
}

// WithModelPath sets MODEL_PATH for the child process. An empty value
// is still exported, which forces the model download on first use.
func WithModelPath(path string) Option {
	return func(r *Runner) {
		r.modelPath = path
	}
}

// New creates a spleeter Runner
func New(opts ...Option) *Runner {
	r := &Runner{
		binary: "spleeter",
		preset: DefaultPreset,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Separate runs the separation model on inputPath, writing stem WAV
// files under outputDir
func (r *Runner) Separate(ctx context.Context, inputPath, outputDir string) error {
	logger := ctxlog.From(ctx)

	absOut, err := filepath.Abs(outputDir)
	if err != nil {
		return goerr.Wrap(err, "failed to resolve output dir", goerr.V("dir", outputDir))
	}
	absIn, err := filepath.Abs(inputPath)
	if err != nil {
		return goerr.Wrap(err, "failed to resolve input path", goerr.V("path", inputPath))
	}

	if err := os.MkdirAll(absOut, 0755); err != nil {
		return goerr.Wrap(err, "failed to create output dir", goerr.V("dir", absOut))
	}

	args := []string{"separate", "-o", absOut, "-p", r.preset, absIn}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Env = append(os.Environ(), "MODEL_PATH="+r.modelPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Info("Running separation",
		"binary", r.binary,
		"preset", r.preset,
		"input", absIn,
		"output_dir", absOut,
	)

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return goerr.Wrap(err, "separation failed",
			goerr.V("command", fmt.Sprintf("%s %s", r.binary, strings.Join(args, " "))),
			goerr.V("stderr", strings.TrimSpace(stderr.String())),
		)
	}

	logger.Info("Separation complete",
		"input", absIn,
		"duration_ms", time.Since(start).Milliseconds(),
		"stdout", strings.TrimSpace(stdout.String()),
	)

	return nil
}
