package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/model"
)

var analyzeKeywords []string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <lead-id>",
	Short: "Synthesize the sales narrative for the lead's latest fetched analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		analysis, err := env.Pipeline.RequestAnalyze(ctx, args[0], analyzeKeywords)
		if err != nil {
			return eris.Wrap(err, "request analyze")
		}
		env.Runner.Wait()

		final, err := env.Store.GetAnalysis(ctx, analysis.ID)
		if err != nil {
			return err
		}

		zap.L().Info("analyze finished",
			zap.String("lead_id", args[0]),
			zap.String("analysis_id", final.ID),
			zap.String("status", string(final.Status)))

		if final.Status != model.AnalysisStatusAnalyzed {
			return eris.Errorf("analyze failed: %s", final.ErrorMessage)
		}
		return json.NewEncoder(os.Stdout).Encode(final)
	},
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeKeywords, "keyword", nil, "target keyword for the narrative (repeatable)")
	rootCmd.AddCommand(analyzeCmd)
}
