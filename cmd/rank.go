package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rankPhrases []string

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Track and check map search rankings for a lead's keywords",
}

var rankAddCmd = &cobra.Command{
	Use:   "add <lead-id> <phrase>...",
	Short: "Track phrases for a lead",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		for _, phrase := range args[1:] {
			kw, err := st.AddTrackedKeyword(ctx, args[0], phrase)
			if err != nil {
				return eris.Wrapf(err, "track %q", phrase)
			}
			zap.L().Info("keyword tracked",
				zap.String("lead_id", args[0]),
				zap.String("keyword_id", kw.ID),
				zap.String("phrase", kw.Phrase))
		}
		return nil
	},
}

var rankListCmd = &cobra.Command{
	Use:   "list <lead-id>",
	Short: "List tracked keywords with their rank history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		keywords, err := st.ListTrackedKeywords(ctx, args[0])
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(keywords)
	},
}

var rankCheckCmd = &cobra.Command{
	Use:   "check <lead-id>",
	Short: "Run a rank check for the lead's tracked keywords",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Pipeline.RequestRankCheck(ctx, args[0], rankPhrases); err != nil {
			return eris.Wrap(err, "request rank check")
		}
		env.Runner.Wait()

		keywords, err := env.Store.ListTrackedKeywords(ctx, args[0])
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(keywords)
	},
}

func init() {
	rankCheckCmd.Flags().StringSliceVar(&rankPhrases, "phrase", nil, "limit the check to this phrase (repeatable)")
	rankCmd.AddCommand(rankAddCmd, rankListCmd, rankCheckCmd)
	rootCmd.AddCommand(rankCmd)
}
