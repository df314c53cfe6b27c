package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRulesCmd() *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the rules of a trained model",
		RunE: func(cmd *cobra.Command, args []string) error {
			clf, err := loadModel(modelPath)
			if err != nil {
				return err
			}

			ruleSet := clf.Rules()
			strs := clf.RuleStrings()
			for i, r := range ruleSet {
				fmt.Printf("%s  (precision=%.3f recall=%.3f)\n", strs[i], r.Precision, r.Recall)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "model.bin", "trained model file")

	return cmd
}
