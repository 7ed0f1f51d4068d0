package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gin-gonic/gin/binding"
	"github.com/spf13/cobra"

	"accident-severity-api/models"
	"accident-severity-api/services"
)

func newPredictCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one accident scenario read as JSON",
		Example: `  accidentctl predict --file request.json
  cat request.json | accidentctl predict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var req models.AccidentRequest
			if err := json.NewDecoder(in).Decode(&req); err != nil {
				return fmt.Errorf("decode request: %w", err)
			}
			if err := binding.Validator.ValidateStruct(&req); err != nil {
				return fmt.Errorf("invalid request: %w", err)
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.predictions.Initialize(ctx); err != nil {
				return err
			}

			res, err := e.predictions.Predict(services.WithSource(ctx, services.SourceCLI), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Request JSON file, - or empty for stdin")
	return cmd
}
