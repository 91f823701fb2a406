package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the "leavecal" command and registers its subcommands
// against app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "leavecal",
		Short:         "Team leave calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive != nil && app.IsInteractive() {
				return runCalendar(cmd, app)
			}
			return cmd.Help()
		},
	}

	root.AddCommand(
		newListCmd(app),
		newDayCmd(app),
		newSummariesCmd(app),
		newApplyCmd(app),
		newEditCmd(app),
		newDeleteCmd(app),
		newExportCmd(app),
		newImportCmd(app),
		newCalendarCmd(app),
	)
	return root
}
