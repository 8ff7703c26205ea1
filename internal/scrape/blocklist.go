// Package scrape provides best-effort website scraping: the platform
// deny list, a bounded HTTP fetcher, contact-email discovery, and
// plain-text extraction for LLM context.
package scrape

import (
	"net/url"
	"strings"
)

// blockedDomains lists social/UGC platforms that must never be crawled.
var blockedDomains = []string{
	// Meta
	"facebook.com", "fb.com", "fb.me", "instagram.com",
	// Google
	"youtube.com", "youtu.be",
	// Microsoft
	"linkedin.com",
	// Twitter / X
	"twitter.com", "x.com",
	// TikTok
	"tiktok.com",
	// Pinterest
	"pinterest.com", "pin.it",
	// Snapchat
	"snapchat.com",
	// Reddit
	"reddit.com",
	// Other
	"vk.com", "tumblr.com", "flickr.com", "tripadvisor.com",
}

// IsBlockedForScraping reports whether the URL points at a platform on
// the deny list. Hosts are matched exactly, including subdomains of a
// blocked domain; URLs that do not parse fall back to a substring
// check.
func IsBlockedForScraping(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		// Bare "facebook.com/page" style strings still need to match.
		for _, domain := range blockedDomains {
			if strings.Contains(rawURL, domain) {
				return true
			}
		}
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, domain := range blockedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
