// Command frules trains, inspects and applies fraud-rule models over
// labeled CSV data.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})

	root := &cobra.Command{
		Use:          "frules",
		Short:        "Extract and apply fraud detection rules from labeled data",
		SilenceUsage: true,
	}

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	}

	root.AddCommand(newTrainCmd(), newScoreCmd(), newRulesCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
