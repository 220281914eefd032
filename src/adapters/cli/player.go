package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func NewPlayerCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "player <userId>",
		Short: "Show a player's economy profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootOpts.context(cmd)
			defer cancel()

			player, err := rootOpts.backends.Database.GetPlayer(ctx, args[0])
			if err != nil {
				return err
			}

			return rootOpts.print(cmd.OutOrStdout(), player, func(w io.Writer) {
				fmt.Fprintf(w, "id:          %s\n", player.ID())
				fmt.Fprintf(w, "level:       %d\n", player.Level)
				fmt.Fprintf(w, "experience:  %d\n", player.Experience)
				fmt.Fprintf(w, "reputation:  %d\n", player.Reputation)
				fmt.Fprintf(w, "money:       %d\n", player.CurrentMoney())
				fmt.Fprintf(w, "badges:      %v\n", player.Badges)
			})
		},
	}
}
