package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ecatsim/pdo"
)

func newLayoutCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the channel table of the process data image.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				return writeLayoutJSON(cmd.OutOrStdout())
			}

			return writeLayoutTable(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON.")

	return cmd
}

func writeLayoutJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(pdo.Layout())
}

func writeLayoutTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "REGION\tINDEX\tOFFSET\tTYPE\tUNIT\tNAME")

	for _, ch := range pdo.Layout() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
			ch.Region, ch.Index, ch.Offset, ch.Type, ch.Unit, ch.Name)
	}

	fmt.Fprintf(tw, "\nsensors: %d bytes, commands: %d bytes\n",
		pdo.SensorsSize, pdo.CommandsSize)

	return tw.Flush()
}
