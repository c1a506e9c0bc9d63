// Package stampctl implements the stampctl command line tool, which reads and
// appends to the stamp card event log directly.
package stampctl

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/stampcard/internal/adapters/eventlog"
	"github.com/okian/stampcard/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	URL     string
	Format  string // "json" | "text"
	Timeout time.Duration
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stampctl",
		Short: "Inspect and edit a stamp card event log",
		Long: `stampctl talks to the event log behind the stamp card service.

It replays the log locally with the same fold the service uses, so its output
matches what the service shows after a sync.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.URL, "url", os.Getenv("STAMPCARD_LOG_ENDPOINT"), "event log URL (default $STAMPCARD_LOG_ENDPOINT)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", eventlog.DefaultTimeout, "request timeout")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log requests to stderr")

	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewGridCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewAppendCommand(opts))

	return cmd
}

// client builds an event log client from the global flags.
func (o *RootOptions) client(cmd *cobra.Command) (*eventlog.Client, error) {
	log := logger.Nop()
	if o.Verbose {
		if err := logger.InitWith(cmd.ErrOrStderr(), logger.FormatText); err != nil {
			return nil, WrapExitError(ExitCommandError, "init logging", err)
		}
		_ = logger.SetLevelString("debug")
		log = logger.Named("stampctl")
	}
	c, err := eventlog.New(o.URL, eventlog.WithTimeout(o.Timeout), eventlog.WithLogger(log))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "--url is required", err)
	}
	return c, nil
}
