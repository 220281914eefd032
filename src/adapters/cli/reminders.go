package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

func NewRemindersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Inspect and cancel scheduled reminders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <userId>",
		Short: "List a user's pending reminders, soonest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootOpts.context(cmd)
			defer cancel()

			reminders, err := rootOpts.backends.Reminders.List(ctx, args[0])
			if err != nil {
				return err
			}

			return rootOpts.print(cmd.OutOrStdout(), reminders, func(w io.Writer) {
				for _, r := range reminders {
					fmt.Fprintf(w, "%s\t%s\t%s\n", r.ItemID, r.FireTime().UTC().Format(time.RFC3339), r.Payload)
				}
				fmt.Fprintf(w, "%d reminders\n", len(reminders))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <userId> <reminderId>",
		Short: "Cancel a pending reminder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootOpts.context(cmd)
			defer cancel()

			if err := rootOpts.backends.Reminders.Cancel(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reminder %s cancelled\n", args[1])
			return nil
		},
	})

	return cmd
}
