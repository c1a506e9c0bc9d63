package stampctl

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/stampcard/internal/domain/model"
)

// AppendOptions holds flags for the append command.
type AppendOptions struct {
	*RootOptions
	Stamp  string
	Name   string
	Avatar string
}

// NewAppendCommand creates the append command.
func NewAppendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AppendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "append <A|B> <kind>",
		Short: "Append one raw event to the log",
		Long: `Append one event to the log without checking the action guards.

Kinds: stamp, penalty, undo_stamp, reset_all, redeem_gift, update_profile.`,
		Example: `  stampctl append A stamp --stamp panda
  stampctl append B update_profile --name Mochi`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppend(cmd.Context(), opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Stamp, "stamp", "", "stamp variant for stamp events")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name to carry")
	cmd.Flags().StringVar(&opts.Avatar, "avatar", "", "avatar reference to carry")

	return cmd
}

func runAppend(ctx context.Context, opts *AppendOptions, cmd *cobra.Command, args []string) error {
	p, err := profileArg(args)
	if err != nil {
		return err
	}
	kind, err := model.ParseEventKind(args[1])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid kind", err)
	}
	if opts.Stamp != "" {
		if _, err := model.LookupVariant(opts.Stamp); err != nil {
			return WrapExitError(ExitCommandError, "invalid stamp", err)
		}
	}

	e := model.Event{
		Profile:     p,
		Kind:        kind,
		Variant:     opts.Stamp,
		DisplayName: opts.Name,
		AvatarRef:   opts.Avatar,
		OccurredAt:  time.Now().UTC(),
	}
	if kind == model.KindStamp && e.Variant == "" {
		e.Variant = model.DefaultVariant
	}

	c, err := opts.client(cmd)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.Append(ctx, e); err != nil {
		return WrapExitError(ExitCommandError, "failed to append", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), e)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "appended %s for %s\n", e.Kind, e.Profile)
	return nil
}
