package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clipper/internal/deps"
	"clipper/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var apiBase string
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external tools, directories and the Bot API token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state := "ok"
				detail := s.Path
				if !s.Available {
					state = "missing"
					if s.Optional {
						state = "optional"
					}
					detail = s.Detail
				}
				rows = append(rows, []string{s.Name, s.Command, colorizeState(state, s.Available || s.Optional, colorize), detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Tool", "Command", "State", "Detail"}, rows, nil))

			results := preflight.RunAll(cmd.Context(), cfg, apiBase)
			checkRows := make([][]string, 0, len(results))
			for _, r := range results {
				state := "ok"
				if !r.Passed {
					state = "failed"
				}
				checkRows = append(checkRows, []string{r.Name, colorizeState(state, r.Passed, colorize), r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "State", "Detail"}, checkRows, nil))

			var problems []string
			for _, s := range deps.Missing(statuses) {
				problems = append(problems, s.Name)
			}
			for _, r := range preflight.Failed(results) {
				problems = append(problems, r.Name)
			}
			if len(problems) > 0 {
				return errors.New("failed checks: " + strings.Join(problems, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&apiBase, "api-base", "", "Bot API base URL for the token check")
	return cmd
}
