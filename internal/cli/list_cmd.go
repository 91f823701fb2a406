package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"leaveportal/internal/cli/formatter"
	"leaveportal/internal/domain/calendar"
)

func newListCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leave entries, optionally for one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				list []calendar.DisplayEvent
				err  error
			)
			if date != "" {
				day, perr := parseDay(date, app.loc())
				if perr != nil {
					return perr
				}
				list, err = app.Source.ListEventsOn(cmd.Context(), day)
			} else {
				list, err = app.Source.ListEvents(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatEvents(list, app.loc()))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Only entries overlapping this day (YYYY-MM-DD)")
	return cmd
}

func newDayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "day DATE",
		Short: "Show who is on leave on a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[0], app.loc())
			if err != nil {
				return err
			}
			view, err := app.Source.Day(cmd.Context(), day)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDay(view, app.loc()))
			return nil
		},
	}
}

func newSummariesCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "summaries",
		Short: "Show one line per employee spanning all of their leave",
		RunE: func(cmd *cobra.Command, args []string) error {
			var on *time.Time
			if date != "" {
				day, err := parseDay(date, app.loc())
				if err != nil {
					return err
				}
				on = &day
			}
			list, err := app.Source.Summaries(cmd.Context(), on)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSummaries(list, app.loc()))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Only employees on leave this day (YYYY-MM-DD)")
	return cmd
}
