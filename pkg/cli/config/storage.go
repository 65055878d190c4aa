package config

import "github.com/urfave/cli/v3"

// Storage holds filesystem and track index configuration
type Storage struct {
	UploadsDir string
	OutputsDir string
	DBPath     string
	ModelPath  string
}

// Flags returns CLI flags for storage configuration
func (c *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "uploads-dir",
			Usage:       "Directory for input audio files",
			Value:       "uploads",
			Destination: &c.UploadsDir,
			Sources:     cli.EnvVars("NODRUMS_UPLOADS_DIR"),
		},
		&cli.StringFlag{
			Name:        "output-dir",
			Usage:       "Directory for stems and merged tracks",
			Value:       "output",
			Destination: &c.OutputsDir,
			Sources:     cli.EnvVars("NODRUMS_OUTPUT_DIR"),
		},
		&cli.StringFlag{
			Name:        "db",
			Usage:       "Path of the track index database",
			Value:       "nodrums.db",
			Destination: &c.DBPath,
			Sources:     cli.EnvVars("NODRUMS_DB"),
		},
		&cli.StringFlag{
			Name:        "model-path",
			Usage:       "Pretrained model cache directory (empty forces download on first use)",
			Destination: &c.ModelPath,
			Sources:     cli.EnvVars("MODEL_PATH"),
		},
	}
}
