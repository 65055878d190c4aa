package model

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
)

// StemNames lists the outputs of the 4-stem separation model, in the
// order the separator writes them
var StemNames = []string{"vocals", "drums", "bass", "other"}

// Stem files are WAV; mixes reference them by these names
const (
	StemVocals = "vocals.wav"
	StemDrums  = "drums.wav"
	StemBass   = "bass.wav"
	StemOther  = "other.wav"
)

// StemFiles returns the stem filenames expected after separation
func StemFiles() []string {
	return []string{StemVocals, StemDrums, StemBass, StemOther}
}

// ValidateWAV checks that the file at path starts with a well-formed
// RIFF/WAVE header. Separation occasionally leaves truncated or empty
// files behind when the model process dies; those must not reach the
// mixer.
func ValidateWAV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return goerr.Wrap(err, "failed to open stem file", goerr.V("path", path))
	}
	defer f.Close()

	var header [12]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return goerr.Wrap(err, "stem file too short for WAV header", goerr.V("path", path))
	}

	if string(header[0:4]) != "RIFF" {
		return goerr.New("stem file is not a RIFF container", goerr.V("path", path))
	}
	if string(header[8:12]) != "WAVE" {
		return goerr.New("stem file is not WAVE audio", goerr.V("path", path))
	}

	riffSize := binary.LittleEndian.Uint32(header[4:8])
	if riffSize < 4 {
		return goerr.New("stem file has empty RIFF payload", goerr.V("path", path))
	}

	return nil
}
