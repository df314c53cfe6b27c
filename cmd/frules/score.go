package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hed1ad/fraudrules/pkg/detectors/frules"
	"github.com/hed1ad/fraudrules/pkg/io"
	"github.com/hed1ad/fraudrules/pkg/io/csv"
	"github.com/hed1ad/fraudrules/pkg/io/jsonl"
)

func newScoreCmd() *cobra.Command {
	var (
		modelPath  string
		inputPath  string
		outputPath string
		noHeader   bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a CSV file with a trained rule model",
		RunE: func(cmd *cobra.Command, args []string) error {
			clf, err := loadModel(modelPath)
			if err != nil {
				return err
			}

			reader, err := csv.NewReader(inputPath, csv.WithHeader(!noHeader))
			if err != nil {
				return fmt.Errorf("open %s: %w", inputPath, err)
			}
			defer reader.Close()

			x, err := reader.Read()
			if err != nil {
				return err
			}

			scores, err := clf.DecisionFunction(x)
			if err != nil {
				return err
			}

			writer := jsonl.NewWriter(os.Stdout)
			if outputPath != "" {
				writer, err = jsonl.NewFileWriter(outputPath)
				if err != nil {
					return err
				}
				defer writer.Close()
			}

			now := time.Now().Unix()
			var flagged int
			results := make([]io.Result, len(scores))
			for i, s := range scores {
				if s < 0 {
					flagged++
				}
				results[i] = io.Result{
					Timestamp: now,
					Score:     s,
					IsAnomaly: s < 0,
					Features:  x[i],
				}
			}
			if err := writer.WriteAll(results); err != nil {
				return err
			}

			log.Info().
				Int("rows", len(x)).
				Int("flagged", flagged).
				Msg("scoring complete")
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "model.bin", "trained model file")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "CSV input file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "JSONL output file (default stdout)")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "input has no header row")
	cmd.MarkFlagRequired("input")

	return cmd
}

func loadModel(path string) (*frules.FraudRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}

	clf := frules.New()
	if err := clf.Load(data); err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return clf, nil
}
