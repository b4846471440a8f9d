package dashboard

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the dashboard on the alternate screen until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, r Reader, opts Options, progOpts ...tea.ProgramOption) error {
	all := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, progOpts...)

	_, err := tea.NewProgram(NewModel(r, opts), all...).Run()
	if err != nil && ctx.Err() != nil {
		// Cancellation is a normal way out.
		return nil
	}
	return err
}
