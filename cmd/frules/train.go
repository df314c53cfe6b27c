package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hed1ad/fraudrules/pkg/detectors/frules"
	"github.com/hed1ad/fraudrules/pkg/io/csv"
)

func newTrainCmd() *cobra.Command {
	var (
		configPath string
		inputPath  string
		outputPath string
		labelCol   int
		noHeader   bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a rule model on a labeled CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			opts, err := cfg.Options()
			if err != nil {
				return err
			}

			reader, err := csv.NewReader(inputPath,
				csv.WithHeader(!noHeader),
				csv.WithLabelColumn(labelCol),
			)
			if err != nil {
				return fmt.Errorf("open %s: %w", inputPath, err)
			}
			defer reader.Close()

			x, y, err := reader.ReadLabeled()
			if err != nil {
				return err
			}
			if names := reader.FeatureNames(); names != nil {
				opts = append(opts, frules.WithFeatureNames(names))
			}
			log.Info().Int("rows", len(x)).Msg("training data loaded")

			clf := frules.New(opts...)
			if err := clf.Fit(x, y); err != nil {
				return err
			}
			for _, w := range clf.Warnings() {
				log.Warn().Msg(w)
			}

			ruleSet := clf.Rules()
			strs := clf.RuleStrings()
			log.Info().
				Int("rules", len(ruleSet)).
				Int("max_samples", clf.MaxSamples()).
				Msg("training complete")
			for i, r := range ruleSet {
				log.Debug().
					Str("rule", strs[i]).
					Float64("precision", r.Precision).
					Float64("recall", r.Recall).
					Msg("rule kept")
			}

			model, err := clf.Save()
			if err != nil {
				return err
			}
			if err := os.WriteFile(outputPath, model, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outputPath, err)
			}
			log.Info().Str("path", outputPath).Msg("model saved")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "labeled CSV input file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "model.bin", "model output file")
	cmd.Flags().IntVar(&labelCol, "label-col", -1, "zero-based label column (-1 = last)")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "input has no header row")
	cmd.MarkFlagRequired("input")

	return cmd
}
