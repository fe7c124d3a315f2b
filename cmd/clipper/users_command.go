package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clipper/internal/registry"
)

func newUsersCommand(ctx *commandContext) *cobra.Command {
	var activeOnly bool
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users known to the bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := registry.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			list := store.List
			if activeOnly {
				list = store.ListActive
			}
			users, err := list(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users registered")
				return nil
			}

			rows := make([][]string, 0, len(users))
			for _, u := range users {
				statusID := "-"
				if u.StatusMessageID > 0 {
					statusID = strconv.Itoa(u.StatusMessageID)
				}
				updated := "-"
				if !u.UpdatedAt.IsZero() {
					updated = humanize.Time(u.UpdatedAt)
				}
				rows = append(rows, []string{
					strconv.FormatInt(u.ID, 10),
					yesNo(u.Active),
					statusID,
					updated,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"User", "Active", "Status Message", "Updated"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only list users that can still be reached")
	return cmd
}
