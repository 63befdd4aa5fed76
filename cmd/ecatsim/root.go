package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ecatsim",
		Short: "ecatsim runs a simulated robot behind an emulated EtherCAT bus.",
		Long: `ecatsim connects a physics simulator to the process data image ` +
			`a robot's control stack expects from its EtherCAT bus. It ` +
			`reproduces the bus handshake and its fault accounting one ` +
			`cycle per simulation step.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			return loadEnv(envFile)
		},
	}

	root.PersistentFlags().String("env-file", ".env",
		"File of ECATSIM_* variables that provide flag defaults.")

	root.AddCommand(
		newRunCmd(),
		newLayoutCmd(),
		newSchemaCmd(),
		newReportCmd(),
	)

	return root
}

// loadEnv loads envFile into the environment. A missing file is not an
// error. Variables already set are kept.
func loadEnv(envFile string) error {
	if envFile == "" {
		return nil
	}

	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}

	return nil
}

// applyEnv sets every flag the user did not pass from its environment
// variable, if the variable is set.
func applyEnv(flags *pflag.FlagSet, envs map[string]string) error {
	for flag, env := range envs {
		value, ok := os.LookupEnv(env)
		if !ok || flags.Changed(flag) {
			continue
		}

		if err := flags.Set(flag, value); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}

	return nil
}
