package scrape

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// EmailOutcome describes how (or why not) an email was found.
type EmailOutcome string

const (
	OutcomeNoURL           EmailOutcome = "no_url"
	OutcomeBlockedPlatform EmailOutcome = "blocked_platform"
	OutcomeFetchError      EmailOutcome = "fetch_error"
	OutcomeFoundOnHome     EmailOutcome = "found_on_home"
	OutcomeFoundOnContact  EmailOutcome = "found_on_contact_page"
	OutcomeNotFound        EmailOutcome = "not_found"
)

// fallbackOutcome marks a hit on one of the fixed path suffixes tried
// after the home page and linked contact page came up empty.
func fallbackOutcome(slug string) EmailOutcome {
	return EmailOutcome("found_on_fallback:" + strings.Trim(slug, "/"))
}

// Found reports whether the outcome carries an email.
func (o EmailOutcome) Found() bool {
	return o == OutcomeFoundOnHome || o == OutcomeFoundOnContact ||
		strings.HasPrefix(string(o), "found_on_fallback:")
}

// contactPageSlugs are href fragments that identify a linked contact or
// about page, and the first fallback suffixes to probe directly.
var contactPageSlugs = []string{
	"/kontakt", "/contact", "/kontaktiere-uns",
	"/o-nas", "/about", "/about-us",
}

// legalPageSlugs are probed after the contact pages; legal notices
// often carry a company email when nothing else does.
var legalPageSlugs = []string{
	"/regulamin", "/polityka-prywatnosci", "/privacy-policy",
	"/terms", "/rodo",
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	hrefRe  = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`)
)

// EmailCrawler discovers a contact email for a website, best effort.
type EmailCrawler struct {
	fetcher Fetcher
}

// NewEmailCrawler creates an EmailCrawler using the given fetcher.
func NewEmailCrawler(fetcher Fetcher) *EmailCrawler {
	return &EmailCrawler{fetcher: fetcher}
}

// DiscoverEmail crawls the site's home page, a linked contact page, and
// a fixed list of likely paths, returning the first email found and an
// outcome describing where it came from. Individual page failures are
// tolerated; only the initial home page fetch is fatal.
func (c *EmailCrawler) DiscoverEmail(ctx context.Context, rawURL string) (string, EmailOutcome) {
	if rawURL == "" {
		return "", OutcomeNoURL
	}
	if IsBlockedForScraping(rawURL) {
		return "", OutcomeBlockedPlatform
	}

	html, err := c.fetcher.Get(ctx, rawURL)
	if err != nil {
		zap.L().Debug("emailcrawl: home page fetch failed",
			zap.String("url", rawURL), zap.Error(err))
		return "", OutcomeFetchError
	}

	if emails := findEmails(html); len(emails) > 0 {
		return emails[0], OutcomeFoundOnHome
	}

	if contactURL := findContactPageURL(rawURL, html); contactURL != "" {
		if contactHTML, err := c.fetcher.Get(ctx, contactURL); err == nil {
			if emails := findEmails(contactHTML); len(emails) > 0 {
				return emails[0], OutcomeFoundOnContact
			}
		}
	}

	base := strings.TrimRight(rawURL, "/")
	for _, slug := range append(append([]string{}, contactPageSlugs...), legalPageSlugs...) {
		pageHTML, err := c.fetcher.Get(ctx, base+slug)
		if err != nil {
			continue
		}
		if emails := findEmails(pageHTML); len(emails) > 0 {
			return emails[0], fallbackOutcome(slug)
		}
	}

	return "", OutcomeNotFound
}

// findEmails collects candidate emails from mailto: links and from the
// visible text, deduplicated in first-seen order. mailto: targets come
// first since they are the page author's explicit contact address.
// Candidates whose domain part has no dot are discarded.
func findEmails(html string) []string {
	var candidates []string

	for _, m := range hrefRe.FindAllStringSubmatch(html, -1) {
		href := m[1]
		if !strings.HasPrefix(href, "mailto:") {
			continue
		}
		email := strings.TrimPrefix(href, "mailto:")
		// Drop ?subject=... and friends.
		if idx := strings.Index(email, "?"); idx >= 0 {
			email = email[:idx]
		}
		if email = strings.TrimSpace(email); email != "" {
			candidates = append(candidates, email)
		}
	}

	candidates = append(candidates, emailRe.FindAllString(StripTags(html), -1)...)

	seen := make(map[string]bool)
	var out []string
	for _, email := range candidates {
		at := strings.LastIndex(email, "@")
		if at < 1 || !strings.Contains(email[at+1:], ".") {
			continue
		}
		if seen[email] {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	return out
}

// findContactPageURL scans hrefs for a link containing one of the
// contact page fragments. Relative links are resolved against the base.
func findContactPageURL(baseURL, html string) string {
	for _, m := range hrefRe.FindAllStringSubmatch(html, -1) {
		href := m[1]
		lower := strings.ToLower(href)
		for _, slug := range contactPageSlugs {
			if !strings.Contains(lower, slug) {
				continue
			}
			if strings.HasPrefix(lower, "http") {
				return href
			}
			return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(href, "/")
		}
	}
	return ""
}
