package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ecatsim/datarecording"
	"github.com/sarchlab/ecatsim/monitoring"
)

func newSchemaCmd() *cobra.Command {
	var (
		snapshot bool
		out      string
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of recorded cycles or monitor snapshots.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema := datarecording.CycleRecordSchema()
			if snapshot {
				schema = monitoring.SnapshotSchema()
			}

			w := cmd.OutOrStdout()

			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()

				w = f
			}

			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")

			return enc.Encode(schema)
		},
	}

	cmd.Flags().BoolVar(&snapshot, "snapshot", false,
		"Print the schema of the monitor snapshot instead.")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the schema to a file.")

	return cmd
}
