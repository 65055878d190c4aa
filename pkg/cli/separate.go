package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/nodrums/nodrums/pkg/cli/config"
	"github.com/nodrums/nodrums/pkg/domain/model"
	"github.com/nodrums/nodrums/pkg/domain/types"
	"github.com/nodrums/nodrums/pkg/infra/fetch"
	"github.com/nodrums/nodrums/pkg/infra/sox"
	"github.com/nodrums/nodrums/pkg/infra/spleeter"
	"github.com/nodrums/nodrums/pkg/infra/store"
	"github.com/nodrums/nodrums/pkg/usecase"
)

// cmdSeparate runs the pipeline once for a local file, without HTTP.
// Useful for scripting and for smoke-testing a model installation.
func cmdSeparate() *cli.Command {
	var (
		storeCfg config.Storage
		sepCfg   config.Separator
	)

	flags := append(storeCfg.Flags(), sepCfg.Flags()...)

	return &cli.Command{
		Name:      "separate",
		Usage:     "Process a local MP3 file and print the resulting paths",
		ArgsUsage: "<file.mp3>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("expected exactly one input file")
			}
			input := c.Args().First()

			data, err := os.ReadFile(input)
			if err != nil {
				return goerr.Wrap(err, "failed to read input file", goerr.V("path", input))
			}

			layout, err := store.NewLayout(storeCfg.UploadsDir, storeCfg.OutputsDir)
			if err != nil {
				return err
			}

			tracks, err := store.Open(storeCfg.DBPath, layout)
			if err != nil {
				return err
			}
			defer tracks.Close()

			proc := usecase.NewProcessor(
				fetch.New(),
				spleeter.New(
					spleeter.WithBinary(sepCfg.SpleeterBin),
					spleeter.WithPreset(sepCfg.Preset),
					spleeter.WithModelPath(storeCfg.ModelPath),
				),
				sox.New(
					sox.WithBinary(sepCfg.SoxBin),
					sox.WithBitrate(sepCfg.BitrateKbps),
					sox.WithGain(sepCfg.GainDB),
				),
				tracks,
				layout,
			)

			logger := ctxlog.From(ctx)
			report := func(message string) {
				logger.Info(message)
			}

			track, err := proc.Process(ctx, &model.Submission{
				Source:   types.SourceUpload,
				Filename: filepath.Base(input),
				Data:     data,
			}, report)
			if err != nil {
				return err
			}

			fmt.Println(layout.MergedPath(track.ID))
			fmt.Println(layout.MergedNoVocalsPath(track.ID))
			return nil
		},
	}
}
