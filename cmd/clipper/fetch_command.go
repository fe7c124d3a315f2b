package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"clipper/internal/config"
	"clipper/internal/daemonrun"
	"clipper/internal/logging"
	"clipper/internal/media"
	"clipper/internal/resolver"
	"clipper/internal/session"
	"clipper/internal/status"
	"clipper/internal/transport/localdir"
)

// localUser keys the single session a fetch run drives.
const localUser int64 = 1

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var (
		video  bool
		whole  bool
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Run one job and save the results into a local directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceRef := strings.TrimSpace(args[0])
			if err := resolver.ValidateSourceRef(sourceRef); err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := resolveOutDir(outDir)
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:            ctx.resolvedLogLevel(cfg),
				Format:           cfg.Logging.Format,
				OutputPaths:      []string{"stderr"},
				ErrorOutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			// Nobody reads a terminal notice later, so do not hold the job open.
			local := *cfg
			local.Pipeline.FailureDwellSeconds = 0
			local.Pipeline.NoticeDwellSeconds = 0

			out := cmd.OutOrStdout()
			messenger := localdir.New(target, out)
			components, err := daemonrun.Build(&local, messenger, status.NewMemoryRegistry(), logger)
			if err != nil {
				return err
			}

			kind := media.KindAudio
			if video {
				kind = media.KindVideo
			}
			mode := media.ModeByTimestamps
			if whole {
				mode = media.ModeWhole
			}
			components.Sessions.Update(localUser, func(s *session.Session) {
				s.SourceRef = sourceRef
				s.Kind = kind
				s.Mode = mode
			})

			if err := components.Pipeline.Submit(cmd.Context(), localUser); err != nil {
				return err
			}
			fmt.Fprintf(out, "Delivered %d file(s) to %s\n", len(messenger.Delivered()), target)
			return nil
		},
	}
	cmd.Flags().BoolVar(&video, "video", false, "Deliver video instead of audio")
	cmd.Flags().BoolVar(&whole, "whole", false, "Deliver the whole file without splitting by timestamps")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory that receives the delivered files")
	return cmd
}

func resolveOutDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "."
	}
	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output directory: %w", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve output directory: %w", err)
	}
	return abs, nil
}
