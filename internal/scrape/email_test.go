package scrape

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFetcher serves canned pages by URL and counts requests.
type mockFetcher struct {
	pages map[string]string
	calls int
}

func (m *mockFetcher) Get(_ context.Context, url string) (string, error) {
	m.calls++
	if page, ok := m.pages[url]; ok {
		return page, nil
	}
	return "", eris.Errorf("scrape: fetch %s: status 404", url)
}

func TestDiscoverEmail_NoURL(t *testing.T) {
	c := NewEmailCrawler(&mockFetcher{})

	email, outcome := c.DiscoverEmail(context.Background(), "")
	assert.Empty(t, email)
	assert.Equal(t, OutcomeNoURL, outcome)
	assert.False(t, outcome.Found())
}

func TestDiscoverEmail_BlockedPlatformMakesNoRequest(t *testing.T) {
	fetcher := &mockFetcher{}
	c := NewEmailCrawler(fetcher)

	email, outcome := c.DiscoverEmail(context.Background(), "https://www.facebook.com/bellanapoli")
	assert.Empty(t, email)
	assert.Equal(t, OutcomeBlockedPlatform, outcome)
	assert.Zero(t, fetcher.calls)
}

func TestDiscoverEmail_FoundOnHome(t *testing.T) {
	c := NewEmailCrawler(&mockFetcher{pages: map[string]string{
		"https://bellanapoli.pl": `<html><body>Napisz do nas: kontakt@bellanapoli.pl</body></html>`,
	}})

	email, outcome := c.DiscoverEmail(context.Background(), "https://bellanapoli.pl")
	assert.Equal(t, "kontakt@bellanapoli.pl", email)
	assert.Equal(t, OutcomeFoundOnHome, outcome)
	assert.True(t, outcome.Found())
}

func TestDiscoverEmail_MailtoPreferredOverText(t *testing.T) {
	c := NewEmailCrawler(&mockFetcher{pages: map[string]string{
		"https://bellanapoli.pl": `<a href="mailto:biuro@bellanapoli.pl?subject=Hej">Napisz</a>
			<p>inny@example.pl</p>`,
	}})

	email, _ := c.DiscoverEmail(context.Background(), "https://bellanapoli.pl")
	assert.Equal(t, "biuro@bellanapoli.pl", email)
}

func TestDiscoverEmail_FollowsLinkedContactPage(t *testing.T) {
	c := NewEmailCrawler(&mockFetcher{pages: map[string]string{
		"https://bellanapoli.pl":         `<a href="/kontakt">Kontakt</a>`,
		"https://bellanapoli.pl/kontakt": `<p>kontakt@bellanapoli.pl</p>`,
	}})

	email, outcome := c.DiscoverEmail(context.Background(), "https://bellanapoli.pl")
	assert.Equal(t, "kontakt@bellanapoli.pl", email)
	assert.Equal(t, OutcomeFoundOnContact, outcome)
}

func TestDiscoverEmail_FallbackPaths(t *testing.T) {
	// No link on the home page; the fixed suffixes are probed and the
	// privacy policy carries the address.
	c := NewEmailCrawler(&mockFetcher{pages: map[string]string{
		"https://bellanapoli.pl": `<html><body>Witamy</body></html>`,
		"https://bellanapoli.pl/polityka-prywatnosci": `<p>Administratorem danych jest rodo@bellanapoli.pl</p>`,
	}})

	email, outcome := c.DiscoverEmail(context.Background(), "https://bellanapoli.pl")
	assert.Equal(t, "rodo@bellanapoli.pl", email)
	assert.Equal(t, EmailOutcome("found_on_fallback:polityka-prywatnosci"), outcome)
	assert.True(t, outcome.Found())
}

func TestDiscoverEmail_HomeFetchErrorIsFatal(t *testing.T) {
	fetcher := &mockFetcher{}
	c := NewEmailCrawler(fetcher)

	email, outcome := c.DiscoverEmail(context.Background(), "https://unreachable.example.pl")
	assert.Empty(t, email)
	assert.Equal(t, OutcomeFetchError, outcome)
	assert.Equal(t, 1, fetcher.calls)
}

func TestDiscoverEmail_NotFound(t *testing.T) {
	c := NewEmailCrawler(&mockFetcher{pages: map[string]string{
		"https://bellanapoli.pl": `<html><body>Brak adresu</body></html>`,
	}})

	email, outcome := c.DiscoverEmail(context.Background(), "https://bellanapoli.pl")
	assert.Empty(t, email)
	assert.Equal(t, OutcomeNotFound, outcome)
}

func TestFindEmails_FiltersAndDeduplicates(t *testing.T) {
	emails := findEmails(`
		<a href="mailto:a@example.pl">a</a>
		<p>a@example.pl b@example.pl zly@localhost</p>`)
	require.Equal(t, []string{"a@example.pl", "b@example.pl"}, emails)
}
