package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"time"

	"botstore/src/domain"
	"botstore/src/domain/entities"

	"github.com/spf13/cobra"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

type Database interface {
	GetPlayer(ctx context.Context, userID string) (*entities.Player, error)
	GetLegacyPlayers(ctx context.Context) iter.Seq2[*entities.LegacyPlayer, error]
	GetCustomCommandsByName(ctx context.Context, name string) iter.Seq2[*entities.LegacyCustomCommand, error]
}

type Reminders interface {
	List(ctx context.Context, ownerID string) ([]domain.Reminder, error)
	Cancel(ctx context.Context, ownerID string, itemID string) error
}

// Backends is what the commands run against. Fields a command does not use may be nil.
type Backends struct {
	Database    Database
	Reminders   Reminders
	Migrate     func(direction string) error
	FlushLegacy func(ctx context.Context) error
}

// Connect opens the backends once per invocation; the returned func releases them.
type Connect func(ctx context.Context) (*Backends, func(), error)

type RootOptions struct {
	Format  string
	Timeout time.Duration

	connect  Connect
	backends *Backends
	release  func()
}

// Run executes the CLI with args and releases the backends whatever the outcome.
func Run(ctx context.Context, connect Connect, args []string, out io.Writer) error {
	opts := &RootOptions{connect: connect}
	defer func() {
		if opts.release != nil {
			opts.release()
		}
	}()

	cmd := NewRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(out)
	return cmd.ExecuteContext(ctx)
}

func NewRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "botstore-admin",
		Short:         "Maintenance tasks for the bot data store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			backends, release, err := opts.connect(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			opts.backends = backends
			opts.release = release
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", time.Minute, "deadline for the whole command")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewPlayerCommand(opts))
	cmd.AddCommand(NewLegacyCommand(opts))
	cmd.AddCommand(NewRemindersCommand(opts))

	return cmd
}

func (o *RootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, o.Timeout)
}

// print writes v as indented JSON, or runs text when the format is text.
func (o *RootOptions) print(w io.Writer, v interface{}, text func(io.Writer)) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
