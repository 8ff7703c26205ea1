// Package issues derives prioritized findings from a business snapshot.
// The rule set is pure and deterministic: sections are evaluated in a
// fixed order, every applicable rule fires, and the thresholds are
// product decisions carried over verbatim.
package issues

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/lead-enrich/internal/model"
)

const (
	minDescriptionLength = 200
	maxDescriptionLength = 750
	minPhotos            = 10
	minReviews           = 20
	ratingErrorBelow     = 4.0
	ratingWarnBelow      = 4.5
	minOwnerResponse     = 0.5
	stalePostAge         = 60 * 24 * time.Hour
)

// nameSeparators mark a business name as descriptive even when short
// ("Bar | Pizzeria" carries keywords despite two words).
var nameSeparators = []string{"-", "–", "—", "|", "/", "&"}

// Detect runs every rule against the snapshot and returns the ordered
// findings. Post-related rules are skipped until postsVerified is true,
// so a still-pending posts sub-fetch never produces false "no posts"
// findings.
func Detect(s *model.BusinessSnapshot, posts model.PostsInfo, postsVerified bool) []model.Issue {
	return detectAt(s, posts, postsVerified, time.Now())
}

func detectAt(s *model.BusinessSnapshot, posts model.PostsInfo, postsVerified bool, now time.Time) []model.Issue {
	var out []model.Issue
	add := func(severity model.Severity, section model.Section, message string) {
		out = append(out, model.Issue{Severity: severity, Section: section, Message: message})
	}

	// Nazwa
	if shortPlainName(s.BusinessName) {
		add(model.SeverityWarning, model.SectionName,
			"Krótka nazwa wizytówki — brak słów kluczowych w nazwie")
	}

	// Kategorie
	if s.PrimaryCategory() == "" {
		add(model.SeverityError, model.SectionPrimaryCategory, "Brak kategorii głównej")
	}
	switch len(s.SecondaryCategories()) {
	case 0:
		add(model.SeverityWarning, model.SectionSecondaryCategories, "Brak kategorii dodatkowych")
	case 1:
		add(model.SeverityWarning, model.SectionSecondaryCategories,
			"Tylko jedna kategoria dodatkowa — zalecane minimum 2")
	}

	// Opis
	if !s.HasDescription() {
		add(model.SeverityError, model.SectionDescription, "Brak opisu wizytówki")
	} else if n := s.DescriptionLength(); n < minDescriptionLength {
		add(model.SeverityWarning, model.SectionDescription,
			fmt.Sprintf("Opis jest za krótki (%d znaków) — zalecane minimum %d", n, minDescriptionLength))
	} else if n > maxDescriptionLength {
		add(model.SeverityWarning, model.SectionDescription,
			fmt.Sprintf("Opis jest za długi (%d znaków) — maksimum to %d", n, maxDescriptionLength))
	}

	// Strona WWW / Telefon / Godziny
	if !s.HasWebsite() {
		add(model.SeverityError, model.SectionWebsite, "Brak strony internetowej")
	}
	if !s.HasPhone() {
		add(model.SeverityWarning, model.SectionPhone, "Brak numeru telefonu")
	}
	if !s.HasHours() {
		add(model.SeverityError, model.SectionHours, "Brak godzin otwarcia")
	}

	// Zdjęcia
	if !s.HasMainImage() {
		add(model.SeverityWarning, model.SectionPhotos, "Brak zdjęcia głównego")
	}
	switch {
	case s.PhotoCount == 0:
		add(model.SeverityError, model.SectionPhotos, "Brak zdjęć na wizytówce")
	case s.PhotoCount < minPhotos:
		add(model.SeverityWarning, model.SectionPhotos,
			fmt.Sprintf("Mało zdjęć (%d) — zalecane minimum %d", s.PhotoCount, minPhotos))
	}

	// Opinie
	if s.Rating != nil {
		switch r := *s.Rating; {
		case r < ratingErrorBelow:
			add(model.SeverityError, model.SectionReviews,
				fmt.Sprintf("Niska ocena (%.1f) — wymaga działań", r))
		case r < ratingWarnBelow:
			add(model.SeverityWarning, model.SectionReviews,
				fmt.Sprintf("Ocena poniżej %.1f (%.1f)", ratingWarnBelow, r))
		}
	}
	if s.ReviewCount < minReviews {
		add(model.SeverityWarning, model.SectionReviews,
			fmt.Sprintf("Mało opinii (%d) — zalecane minimum %d", s.ReviewCount, minReviews))
	}
	switch ratio := s.OwnerResponseRatio; {
	case ratio == nil || *ratio == 0:
		add(model.SeverityWarning, model.SectionReviews, "Właściciel nie odpowiada na opinie")
	case *ratio < minOwnerResponse:
		add(model.SeverityWarning, model.SectionReviews,
			"Właściciel odpowiada na mniej niż połowę opinii")
	}

	// Posty — dopiero po zakończeniu pobierania postów.
	if postsVerified {
		if !posts.HasPosts {
			add(model.SeverityWarning, model.SectionPosts, "Brak postów na wizytówce")
		} else if posts.LastPostDate != nil && now.Sub(*posts.LastPostDate) > stalePostAge {
			add(model.SeverityWarning, model.SectionPosts,
				"Ostatni post starszy niż 60 dni — wizytówka wygląda na nieaktywną")
		}
	}

	// Atrybuty
	if !s.HasAttributes() {
		add(model.SeverityWarning, model.SectionAttributes, "Brak atrybutów wizytówki")
	}

	return out
}

// shortPlainName reports whether the name has fewer than three words
// and no separator character.
func shortPlainName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	if len(strings.Fields(name)) >= 3 {
		return false
	}
	for _, sep := range nameSeparators {
		if strings.Contains(name, sep) {
			return false
		}
	}
	return true
}
