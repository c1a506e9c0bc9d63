package stampctl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/okian/stampcard/internal/domain/model"
	"github.com/okian/stampcard/internal/domain/projection"
)

const slotsPerRow = 5

// GridResult is the output of the grid command.
type GridResult struct {
	Profile       model.Profile   `json:"profile"`
	Name          string          `json:"name"`
	Count         int             `json:"count"`
	CompletedSets int             `json:"completedSets"`
	Grid          projection.Grid `json:"grid"`
}

// NewGridCommand creates the grid command.
func NewGridCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "grid <A|B>",
		Short: "Draw a profile's stamp card",
		Example: `  stampctl grid A
  stampctl grid b --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrid(cmd.Context(), rootOpts, cmd, args)
		},
	}
}

func runGrid(ctx context.Context, opts *RootOptions, cmd *cobra.Command, args []string) error {
	p, err := profileArg(args)
	if err != nil {
		return err
	}
	res, err := fetchAndReplay(ctx, opts, cmd)
	if err != nil {
		return err
	}

	ps := res.State.Profile(p)
	out := GridResult{
		Profile:       p,
		Name:          ps.DisplayName,
		Count:         ps.ActiveCount,
		CompletedSets: ps.CompletedSets,
		Grid:          projection.BuildGrid(ps),
	}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), out)
	}
	fmt.Fprintln(cmd.OutOrStdout(), RenderGrid(out))
	return nil
}

// RenderGrid draws the card as two rows of bordered slots under a title.
func RenderGrid(r GridResult) string {
	title := titleStyle.Render(fmt.Sprintf("%s  set #%d", r.Name, r.Grid.SetNumber))
	status := mutedStyle.Render(fmt.Sprintf("%d/%d  completed sets: %d", r.Grid.Filled, model.Threshold, r.CompletedSets))
	if r.Grid.JustCompleted {
		status = titleStyle.Render("set complete!") + "  " + status
	}

	var rows []string
	for start := 0; start < len(r.Grid.Slots); start += slotsPerRow {
		end := min(start+slotsPerRow, len(r.Grid.Slots))
		cells := make([]string, 0, end-start)
		for _, s := range r.Grid.Slots[start:end] {
			cells = append(cells, renderSlot(s))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, title, status, strings.Join(rows, "\n"))
	return cardStyle.Render(body)
}

func renderSlot(s projection.Slot) string {
	if s.Filled {
		return filledSlotStyle.Render(s.Glyph)
	}
	return emptySlotStyle.Render(strconv.Itoa(s.Index + 1))
}
