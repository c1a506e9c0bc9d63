package stampctl

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/okian/stampcard/internal/domain/model"
	"github.com/okian/stampcard/internal/domain/replay"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Verify bool
}

// ReplayResult is the output of the replay command.
type ReplayResult struct {
	Rows          int               `json:"rows"`
	Applied       int               `json:"applied"`
	Skipped       int               `json:"skipped"`
	Deterministic *bool             `json:"deterministic,omitempty"`
	State         model.SystemState `json:"state"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Fetch the log and fold it into both profiles",
		Long: `Fetch the whole event log and replay it from the default state.

With --verify the events are replayed twice and the results compared.

Exit codes:
  0 - Replay succeeded (and was deterministic)
  1 - Determinism verification failed
  2 - Command error (missing --url, log unreachable, ...)

Examples:
  stampctl replay --url http://127.0.0.1:9080/log
  stampctl replay --verify --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "replay twice and compare the results")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command) error {
	res, err := fetchAndReplay(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	out := ReplayResult{
		Rows:    len(res.events) + res.rowsSkipped,
		Applied: res.Applied,
		Skipped: res.Skipped + res.rowsSkipped,
		State:   res.State,
	}
	if opts.Verify {
		ok := reflect.DeepEqual(res.Result, replay.Run(res.events))
		out.Deterministic = &ok
	}

	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
	} else {
		printReplay(cmd.OutOrStdout(), out)
	}

	if out.Deterministic != nil && !*out.Deterministic {
		return NewExitError(ExitFailure, "replay is not deterministic")
	}
	return nil
}

func printReplay(w io.Writer, r ReplayResult) {
	fmt.Fprintf(w, "%d rows, %d applied, %d skipped\n", r.Rows, r.Applied, r.Skipped)
	for _, p := range model.Profiles {
		ps := r.State.Profile(p)
		fmt.Fprintf(w, "%s  %-12s count=%d sets=%d valid=%d history=%d\n",
			p, ps.DisplayName, ps.ActiveCount, ps.CompletedSets, ps.ValidStamps(), len(ps.History))
	}
	if r.Deterministic != nil {
		if *r.Deterministic {
			fmt.Fprintln(w, "deterministic: yes")
		} else {
			fmt.Fprintln(w, "deterministic: NO")
		}
	}
}

// fetched is a replay together with the events it was built from.
type fetched struct {
	replay.Result
	events      []model.Event
	rowsSkipped int
}

func fetchAndReplay(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (fetched, error) {
	c, err := opts.client(cmd)
	if err != nil {
		return fetched{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	batch, err := c.Fetch(ctx)
	if err != nil {
		return fetched{}, WrapExitError(ExitCommandError, "failed to fetch log", err)
	}
	return fetched{
		Result:      replay.Run(batch.Events),
		events:      batch.Events,
		rowsSkipped: batch.Skipped,
	}, nil
}

// profileArg parses the single profile argument of a command.
func profileArg(args []string) (model.Profile, error) {
	p, err := model.ParseProfile(args[0])
	if err != nil {
		return "", WrapExitError(ExitCommandError, "invalid profile", err)
	}
	return p, nil
}
