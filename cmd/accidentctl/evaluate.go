package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newEvaluateCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Report performance of the current model on the full dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.predictions.Initialize(ctx); err != nil {
				return err
			}

			m, err := e.predictions.PerformanceMetrics(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, m)
			}

			fmt.Fprintf(out, "Model version: %s\n", m.ModelVersion)
			fmt.Fprintf(out, "Samples:       %d\n", m.Samples)
			fmt.Fprintf(out, "Accuracy:      %.4f\n\n", m.Accuracy)
			classes := make([]string, 0, len(m.Precision))
			for c := range m.Precision {
				classes = append(classes, c)
			}
			sort.Strings(classes)
			fmt.Fprintf(out, "%-10s %9s %9s %9s\n", "class", "precision", "recall", "f1")
			for _, c := range classes {
				fmt.Fprintf(out, "%-10s %9.4f %9.4f %9.4f\n", c, m.Precision[c], m.Recall[c], m.F1Score[c])
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}
