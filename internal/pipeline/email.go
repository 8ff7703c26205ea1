package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/store"
)

// ScrapeEmail runs the contact-email crawl for one lead and records
// the outcome. The email_scraped flag is set either way so the lead is
// not re-crawled on the next bulk pass.
func (p *Pipeline) ScrapeEmail(ctx context.Context, leadID string) (string, error) {
	lead, err := p.store.GetLead(ctx, leadID)
	if err != nil {
		return "", err
	}

	email, outcome := p.crawler.DiscoverEmail(ctx, lead.Website)
	zap.L().Info("email crawl finished",
		zap.String("lead_id", lead.ID),
		zap.String("outcome", string(outcome)),
		zap.Bool("found", outcome.Found()))

	if err := p.store.SetLeadEmail(ctx, lead.ID, email); err != nil {
		return "", err
	}
	return email, nil
}

// ScrapeMissingEmails crawls every lead that has no email on file and
// has not been crawled before. Crawls run sequentially; the fetcher's
// rate limit spaces the requests. Returns how many emails were found.
func (p *Pipeline) ScrapeMissingEmails(ctx context.Context, city string) (int, error) {
	leads, err := p.store.ListLeads(ctx, store.LeadFilter{City: city, MissingEmail: true, Limit: 1000})
	if err != nil {
		return 0, err
	}

	found := 0
	for _, lead := range leads {
		if lead.EmailScraped || lead.Website == "" {
			continue
		}
		email, err := p.ScrapeEmail(ctx, lead.ID)
		if err != nil {
			zap.L().Warn("email crawl failed",
				zap.String("lead_id", lead.ID),
				zap.Error(err))
			continue
		}
		if email != "" {
			found++
		}
	}
	return found, nil
}
