package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	scrapeEmailAll  bool
	scrapeEmailCity string
)

var scrapeEmailCmd = &cobra.Command{
	Use:   "scrape-email [lead-id]",
	Short: "Discover contact emails from lead websites",
	Long:  "Crawls the lead's website (home page, then a linked or guessed contact page) for a contact email address. With --all, crawls every lead that has no email on file.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if len(args) == 0 && !scrapeEmailAll {
			return eris.New("pass a lead id or --all")
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if scrapeEmailAll {
			found, err := env.Pipeline.ScrapeMissingEmails(ctx, scrapeEmailCity)
			if err != nil {
				return eris.Wrap(err, "bulk email scrape")
			}
			zap.L().Info("bulk email scrape complete", zap.Int("found", found))
			return nil
		}

		email, err := env.Pipeline.ScrapeEmail(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "email scrape")
		}
		if email == "" {
			zap.L().Info("no email found", zap.String("lead_id", args[0]))
		} else {
			zap.L().Info("email found",
				zap.String("lead_id", args[0]),
				zap.String("email", email))
		}
		return nil
	},
}

func init() {
	scrapeEmailCmd.Flags().BoolVar(&scrapeEmailAll, "all", false, "scrape every lead without an email")
	scrapeEmailCmd.Flags().StringVar(&scrapeEmailCity, "city", "", "limit --all to one city")
	rootCmd.AddCommand(scrapeEmailCmd)
}
