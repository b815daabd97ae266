package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackgraph/pkg/datadir"
)

// listCommand creates the list command, which shows the profiles the viewer
// would offer.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the profiles in the data directory, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := datadir.New(c.Config.DataDir)
			entries, err := dir.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, StyleDim.Render("No profiles in "+dir.Root))
				return nil
			}

			now := time.Now()
			t := newTable("#", "size", "modified", "profile")
			for i, e := range entries {
				t.Row(strconv.Itoa(i+1), formatSize(e.Size), formatRelativeTime(e.ModTime, now), e.Name)
			}
			fmt.Fprintln(out, t.Render())
			fmt.Fprintln(out, StyleDim.Render(fmt.Sprintf("  %d profiles in %s", len(entries), dir.Root)))
			return nil
		},
	}
}
