package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"leaveportal/internal/cli/formatter"
	"leaveportal/internal/domain/calendar"
)

type leaveFlags struct {
	title  string
	start  string
	end    string
	reason string
}

func (f *leaveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Employee name")
	cmd.Flags().StringVar(&f.start, "start", "", "First day of leave (YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC3339)")
	cmd.Flags().StringVar(&f.end, "end", "", "Last day of leave; a bare day runs to end of day")
	cmd.Flags().StringVar(&f.reason, "reason", "", "Reason for leave")
}

func newApplyCmd(app *App) *cobra.Command {
	var f leaveFlags

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Record a leave span, one entry per day",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseTime(f.start, app.loc(), false)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			end, err := parseTime(f.end, app.loc(), true)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}

			editor := calendar.NewEditor(app.validateOptions())
			editor.SelectSlot(start)
			if err := editor.SetForm(calendar.Form{Title: f.title, Start: start, End: end, Reason: f.reason}); err != nil {
				return err
			}
			created, err := submit(cmd.Context(), app, editor)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf("Recorded %d day(s) of leave for %s", len(created), formatter.Bold(strings.TrimSpace(f.title)))))
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatEvents(created, app.loc()))
			return nil
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	var f leaveFlags

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change one leave entry; a multi-day span keeps only its first day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := openEntry(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}

			form := editor.Form()
			flags := cmd.Flags()
			if flags.Changed("title") {
				form.Title = f.title
			}
			if flags.Changed("reason") {
				form.Reason = f.reason
			}
			if flags.Changed("start") {
				if form.Start, err = parseTime(f.start, app.loc(), false); err != nil {
					return fmt.Errorf("--start: %w", err)
				}
			}
			if flags.Changed("end") {
				if form.End, err = parseTime(f.end, app.loc(), true); err != nil {
					return fmt.Errorf("--end: %w", err)
				}
			}
			if err := editor.SetForm(form); err != nil {
				return err
			}

			updated, err := submit(cmd.Context(), app, editor)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success("Updated leave entry"))
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatEvents(updated, app.loc()))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove one leave entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := openEntry(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			target, _ := editor.Target()
			m, err := editor.Delete()
			if err != nil {
				return err
			}
			if _, err := app.Source.Apply(cmd.Context(), m); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf("Deleted %s on %s", formatter.Bold(target.Title), calendar.DayKey(target.Start.In(app.loc())))))
			return nil
		},
	}
}

// openEntry loads id and opens it in a fresh editor. Selecting an entry on
// a crowded day opens the chooser first, so the entry is picked from it.
func openEntry(ctx context.Context, app *App, id string) (*calendar.Editor, error) {
	ev, err := app.Source.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", id, err)
	}
	all, err := app.Source.ListEventsOn(ctx, ev.Start)
	if err != nil {
		return nil, err
	}

	editor := calendar.NewEditor(app.validateOptions())
	editor.SelectEvent(all, ev)
	if editor.Mode() == calendar.ModeChoosingAmongMany {
		if err := editor.Choose(ev); err != nil {
			return nil, err
		}
	}
	return editor, nil
}

func submit(ctx context.Context, app *App, editor *calendar.Editor) ([]calendar.DisplayEvent, error) {
	m, err := editor.Submit()
	if err != nil {
		return nil, err
	}
	return app.Source.Apply(ctx, m)
}
