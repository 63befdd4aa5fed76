package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ecatsim/datarecording"
)

type reportOptions struct {
	faults bool
	limit  int
}

func newReportCmd() *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report <recording.sqlite3>",
		Short: "Summarize a recorded run.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := datarecording.NewReader(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			return report(cmd.Context(), reader, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.faults, "faults", false,
		"List the faulted cycles as well.")
	cmd.Flags().IntVar(&opts.limit, "limit", 20,
		"Maximum number of faulted cycles to list, 0 for all.")

	return cmd
}

func report(
	ctx context.Context,
	reader datarecording.DataReader,
	opts reportOptions,
	w io.Writer,
) error {
	transitions, _, err := datarecording.QueryCycles(ctx, reader,
		datarecording.QueryParams{
			Where:   "FromState != State",
			OrderBy: "Cycle",
		})
	if err != nil {
		return err
	}

	last, total, err := datarecording.QueryCycles(ctx, reader,
		datarecording.QueryParams{OrderBy: "Cycle DESC", Limit: 1})
	if err != nil {
		return err
	}

	if total == 0 {
		fmt.Fprintln(w, "no cycles recorded")
		return nil
	}

	end := last[0]

	fmt.Fprintf(w, "cycles:        %d\n", total)
	fmt.Fprintf(w, "sim time:      %.4f s\n", end.Time)
	fmt.Fprintf(w, "final state:   %s\n", end.State)
	fmt.Fprintf(w, "total faults:  %d\n", end.TotalFaults)
	fmt.Fprintf(w, "recoveries:    %d\n", end.Recoveries)
	fmt.Fprintf(w, "terminal:      %t\n", end.Terminal)

	fmt.Fprintln(w, "\ntransitions:")
	for _, r := range transitions {
		fmt.Fprintf(w, "  cycle %d: %s -> %s\n", r.Cycle, r.FromState, r.State)
	}

	if !opts.faults {
		return nil
	}

	return reportFaults(ctx, reader, opts.limit, w)
}

func reportFaults(
	ctx context.Context,
	reader datarecording.DataReader,
	limit int,
	w io.Writer,
) error {
	faults, total, err := datarecording.QueryCycles(ctx, reader,
		datarecording.QueryParams{
			Where:   "Fault != ''",
			OrderBy: "Cycle",
			Limit:   limit,
		})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nfaulted cycles (%d of %d):\n", len(faults), total)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  CYCLE\tTIME\tSTATE\tFAULT")

	for _, r := range faults {
		fmt.Fprintf(tw, "  %d\t%.6f\t%s\t%s\n", r.Cycle, r.Time, r.State, r.Fault)
	}

	return tw.Flush()
}
