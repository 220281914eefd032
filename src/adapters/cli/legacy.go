package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"botstore/src/domain/entities"

	"github.com/spf13/cobra"
)

func NewLegacyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legacy",
		Short: "Inspect the legacy key-value collections",
	}

	cmd.AddCommand(newLegacyPlayersCommand(rootOpts))
	cmd.AddCommand(newLegacyCommandsCommand(rootOpts))
	cmd.AddCommand(newLegacyFlushCommand(rootOpts))

	return cmd
}

func newLegacyPlayersCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "players",
		Short: "List global legacy players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootOpts.context(cmd)
			defer cancel()

			var players []*entities.LegacyPlayer
			for player, err := range rootOpts.backends.Database.GetLegacyPlayers(ctx) {
				if err != nil {
					return err
				}
				players = append(players, player)
				if limit > 0 && len(players) >= limit {
					break
				}
			}

			return rootOpts.print(cmd.OutOrStdout(), players, func(w io.Writer) {
				for _, p := range players {
					fmt.Fprintf(w, "%s\tlevel=%d\tmoney=%d\treputation=%d\n", p.ID(), p.Level, p.Money, p.Reputation)
				}
				fmt.Fprintf(w, "%d players\n", len(players))
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many players (0 = all)")
	return cmd
}

func newLegacyCommandsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "commands <name>",
		Short: "List custom commands with the given name across all guilds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rootOpts.context(cmd)
			defer cancel()

			var commands []*entities.LegacyCustomCommand
			for command, err := range rootOpts.backends.Database.GetCustomCommandsByName(ctx, args[0]) {
				if err != nil {
					return err
				}
				commands = append(commands, command)
			}

			return rootOpts.print(cmd.OutOrStdout(), commands, func(w io.Writer) {
				for _, c := range commands {
					fmt.Fprintf(w, "%s\t%s\n", c.ID(), strings.Join(c.Values, " | "))
				}
				fmt.Fprintf(w, "%d commands\n", len(commands))
			})
		},
	}
}

func newLegacyFlushCommand(rootOpts *RootOptions) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Delete every legacy key-value record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to flush without --yes")
			}
			if rootOpts.backends.FlushLegacy == nil {
				return errors.New("flush is not available")
			}

			ctx, cancel := rootOpts.context(cmd)
			defer cancel()

			if err := rootOpts.backends.FlushLegacy(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "legacy records flushed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm the flush")
	return cmd
}
