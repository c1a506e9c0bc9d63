package stampctl

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/stampcard/internal/domain/model"
	"github.com/okian/stampcard/internal/domain/projection"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Page     int
	PageSize int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <A|B>",
		Short: "List a profile's stamp history, oldest first",
		Example: `  stampctl history A
  stampctl history A --page 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd, args)
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 0, "zero-based page")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", projection.DefaultPageSize, "records per page")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command, args []string) error {
	p, err := profileArg(args)
	if err != nil {
		return err
	}
	if opts.Page < 0 || opts.PageSize <= 0 {
		return NewExitError(ExitCommandError, "--page must be >= 0 and --page-size > 0")
	}
	res, err := fetchAndReplay(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	page := projection.BuildHistoryPage(res.State.Profile(p), opts.Page, opts.PageSize)
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), page)
	}
	printHistory(cmd.OutOrStdout(), p, page)
	return nil
}

func printHistory(w io.Writer, p model.Profile, page projection.HistoryPage) {
	fmt.Fprintf(w, "profile %s: %d records, %d valid stamps (page %d/%d)\n",
		p, page.Total, page.TotalValidStamps, page.Page+1, page.Pages)
	for _, it := range page.Items {
		fmt.Fprintf(w, "%4d  %s  %-9s %s\n",
			it.Index+1,
			it.OccurredAt.Local().Format("2006-01-02 15:04"),
			kindStyle(string(it.Kind)).Render(string(it.Kind)),
			it.Glyph,
		)
	}
}
