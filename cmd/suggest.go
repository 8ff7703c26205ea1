package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/model"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <lead-id>",
	Short: "Generate ten ranked keyword suggestions for a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		batch, err := env.Pipeline.RequestSuggestions(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "request suggestions")
		}
		env.Runner.Wait()

		final, err := env.Store.GetSuggestionBatch(ctx, batch.ID)
		if err != nil {
			return err
		}

		zap.L().Info("suggestion batch finished",
			zap.String("lead_id", args[0]),
			zap.String("batch_id", final.ID),
			zap.String("status", string(final.Status)))

		if final.Status != model.BatchStatusReady {
			return eris.Errorf("suggestion batch failed: %s", final.ErrorMessage)
		}
		return json.NewEncoder(os.Stdout).Encode(final)
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}
