package config

import "github.com/urfave/cli/v3"

// Separator holds separation and mixing configuration
type Separator struct {
	SpleeterBin string
	Preset      string
	SoxBin      string
	BitrateKbps int
	GainDB      int
	MaxParallel int
}

// Flags returns CLI flags for separator configuration
func (c *Separator) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "spleeter-bin",
			Usage:       "Separation model executable",
			Value:       "spleeter",
			Destination: &c.SpleeterBin,
			Sources:     cli.EnvVars("NODRUMS_SPLEETER_BIN"),
		},
		&cli.StringFlag{
			Name:        "preset",
			Usage:       "Separation model preset",
			Value:       "spleeter:4stems",
			Destination: &c.Preset,
			Sources:     cli.EnvVars("NODRUMS_PRESET"),
		},
		&cli.StringFlag{
			Name:        "sox-bin",
			Usage:       "Mixer executable",
			Value:       "sox",
			Destination: &c.SoxBin,
			Sources:     cli.EnvVars("NODRUMS_SOX_BIN"),
		},
		&cli.IntFlag{
			Name:        "mix-bitrate",
			Usage:       "Merged MP3 bitrate in kbps",
			Value:       192,
			Destination: &c.BitrateKbps,
			Sources:     cli.EnvVars("NODRUMS_MIX_BITRATE"),
		},
		&cli.IntFlag{
			Name:        "mix-gain",
			Usage:       "Gain in dB applied after mixing",
			Value:       5,
			Destination: &c.GainDB,
			Sources:     cli.EnvVars("NODRUMS_MIX_GAIN"),
		},
		&cli.IntFlag{
			Name:        "max-parallel",
			Usage:       "Maximum concurrent separation runs",
			Value:       1,
			Destination: &c.MaxParallel,
			Sources:     cli.EnvVars("NODRUMS_MAX_PARALLEL"),
		},
	}
}
