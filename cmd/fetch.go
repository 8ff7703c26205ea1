package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/model"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <lead-id>",
	Short: "Fetch the lead's business listing and derive issues",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		analysis, err := env.Pipeline.RequestFetch(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "request fetch")
		}
		env.Runner.Wait()

		final, err := env.Store.GetAnalysis(ctx, analysis.ID)
		if err != nil {
			return err
		}

		zap.L().Info("fetch finished",
			zap.String("lead_id", args[0]),
			zap.String("analysis_id", final.ID),
			zap.String("status", string(final.Status)))

		if final.Status == model.AnalysisStatusError {
			return eris.Errorf("fetch failed: %s", final.ErrorMessage)
		}
		return json.NewEncoder(os.Stdout).Encode(final)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
