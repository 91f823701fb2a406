package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"leaveportal/internal/cli/tui"
)

func newCalendarCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "calendar",
		Short: "Open the interactive month calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalendar(cmd, app)
		},
	}
}

func runCalendar(cmd *cobra.Command, app *App) error {
	model := tui.New(app.Source, tui.Options{
		Location:     app.loc(),
		Now:          app.Now,
		DisallowPast: app.DisallowPast,
	})
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	_, err := p.Run()
	return err
}
