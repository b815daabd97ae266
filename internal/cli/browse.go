package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackgraph/pkg/datadir"
)

// browseCommand creates the browse command: pick a profile interactively,
// then show its top frames and calls.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Pick a profile from the data directory and rank it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := datadir.New(c.Config.DataDir)
			entries, err := dir.List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printInfo("No profiles in %s", dir.Root)
				return nil
			}

			final, err := tea.NewProgram(NewProfileListModel(entries), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			m, ok := final.(ProfileListModel)
			if !ok || m.Selected == nil {
				return nil
			}

			path, err := dir.Path(m.Selected.Name)
			if err != nil {
				return err
			}
			top := c.topCommand()
			top.SetContext(cmd.Context())
			top.SetOut(cmd.OutOrStdout())
			return top.RunE(top, []string{path})
		},
	}
}
