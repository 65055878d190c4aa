package sox

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Defaults match the mix the product ships: 192kbps MP3 with a 5dB gain
// to compensate for the level drop of summing stems
const (
	DefaultBitrateKbps = 192
	DefaultGainDB      = 5
)

// Mixer merges stem WAV files into a single MP3 using the sox binary
type Mixer struct {
	binary      string
	bitrateKbps int
	gainDB      int
}

// Option is a functional option for Mixer configuration
type Option func(*Mixer)

// WithBinary overrides the sox executable name
func WithBinary(bin string) Option {
	return func(m *Mixer) {
		m.binary = bin
	}
}

// WithBitrate sets the MP3 bitrate in kbps
func WithBitrate(kbps int) Option {
	return func(m *Mixer) {
		m.bitrateKbps = kbps
	}
}

// WithGain sets the gain applied after mixing, in dB
func WithGain(db int) Option {
	return func(m *Mixer) {
		m.gainDB = db
	}
}

// New creates a sox Mixer
func New(opts ...Option) *Mixer {
	m := &Mixer{
		binary:      "sox",
		bitrateKbps: DefaultBitrateKbps,
		gainDB:      DefaultGainDB,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Args builds the sox argument list for merging inputs into out.
// Input order matters to sox only for header inheritance; the order
// used by callers is bass first, then the remaining stems.
func (m *Mixer) Args(out string, inputs ...string) []string {
	args := []string{"-m"}
	args = append(args, inputs...)
	args = append(args, "-C", strconv.Itoa(m.bitrateKbps), out, "gain", strconv.Itoa(m.gainDB))
	return args
}

// Mix merges the input files into out
func (m *Mixer) Mix(ctx context.Context, out string, inputs ...string) error {
	logger := ctxlog.From(ctx)

	if len(inputs) < 2 {
		return goerr.New("mixing needs at least two inputs", goerr.V("inputs", inputs))
	}

	args := m.Args(out, inputs...)
	cmd := exec.CommandContext(ctx, m.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("Running mix", "command", fmt.Sprintf("%s %s", m.binary, strings.Join(args, " ")))

	if err := cmd.Run(); err != nil {
		return goerr.Wrap(err, "mix failed",
			goerr.V("command", fmt.Sprintf("%s %s", m.binary, strings.Join(args, " "))),
			goerr.V("stderr", strings.TrimSpace(stderr.String())),
		)
	}

	logger.Info("Mix complete", "output", out, "inputs", len(inputs))
	return nil
}
