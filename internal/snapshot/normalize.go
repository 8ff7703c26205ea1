// Package snapshot normalizes heterogeneous business-listing payloads
// into the canonical model.BusinessSnapshot. Provider payloads are
// nested, partially populated, and inconsistently typed; everything in
// this package is total over malformed input and defaults to empty
// values instead of failing.
package snapshot

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sells-group/lead-enrich/internal/model"
)

// socialDomains are the link fragments that qualify a raw link as a
// social profile.
var socialDomains = []string{
	"facebook.com", "instagram.com", "youtube.com", "linkedin.com",
	"twitter.com", "x.com", "tiktok.com", "pinterest.com",
}

// Normalize maps a raw listing payload into a BusinessSnapshot. It
// never returns an error; missing or malformed fields produce zero
// values.
func Normalize(raw map[string]any) *model.BusinessSnapshot {
	s := &model.BusinessSnapshot{}
	if raw == nil {
		return s
	}

	s.BusinessName = firstString(raw, "title", "name", "business_name")
	s.Description = getString(raw, "description")
	s.Phone = getString(raw, "phone")
	s.WebsiteURL = firstString(raw, "url", "website")
	s.MainImageURL = getString(raw, "main_image")

	if rating, ok := raw["rating"]; ok {
		s.Rating, s.ReviewCount = normalizeRating(rating)
	}

	s.Categories = normalizeCategories(raw)
	s.OpeningHours = normalizeHours(raw["work_hours"])
	s.OwnerResponseRatio = ownerResponseRatio(getList(raw, "reviews"))

	s.PhotoCount = countWithFallback(raw, "total_photos", "photos")
	s.MenuItemCount = countWithFallback(raw, "menu_items_count", "menu_items")

	s.SocialLinks = filterSocialLinks(raw)
	s.Attributes = normalizeAttributes(raw["attributes"])

	return s
}

// normalizeRating handles both nested ({"value": 4.5, "votes_count": 120})
// and flat (4.5) rating shapes.
func normalizeRating(v any) (*float64, int) {
	switch r := v.(type) {
	case map[string]any:
		var rating *float64
		if val, ok := asFloat(r["value"]); ok {
			rating = &val
		}
		count, _ := asInt(r["votes_count"])
		return rating, count
	default:
		if val, ok := asFloat(v); ok {
			return &val, 0
		}
	}
	return nil, 0
}

// normalizeCategories concatenates the primary category and the
// secondary list, primary first. Secondary entries may be plain strings
// or structured records carrying a "name" field.
func normalizeCategories(raw map[string]any) []string {
	var out []string

	if primary := getString(raw, "category"); primary != "" {
		out = append(out, primary)
	} else if cats := categoryNames(getList(raw, "categories")); len(cats) > 0 {
		out = append(out, cats...)
	}

	out = append(out, categoryNames(getList(raw, "additional_categories"))...)
	return out
}

// categoryNames extracts category names from a list of strings or of
// structured records.
func categoryNames(items []any) []string {
	var out []string
	for _, item := range items {
		switch c := item.(type) {
		case string:
			if c != "" {
				out = append(out, c)
			}
		case map[string]any:
			if name := getString(c, "name"); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// normalizeHours renders the provider timetable into per-day strings.
// Days absent from the source are omitted; an empty slot list renders
// as closed; a 00:00-24:00 slot renders as "24h"; otherwise the first
// slot of the day renders as a zero-padded HH:MM-HH:MM range.
func normalizeHours(v any) map[string]string {
	table, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	// DataForSEO nests the per-day map under "timetable"; accept the
	// bare map too.
	if inner, ok := table["timetable"].(map[string]any); ok {
		table = inner
	}

	out := make(map[string]string)
	for _, day := range model.Weekdays {
		slots, present := table[day]
		if !present {
			continue
		}
		out[day] = renderDay(slots)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func renderDay(v any) string {
	slots, ok := v.([]any)
	if !ok || len(slots) == 0 {
		return model.HoursClosed
	}
	slot, ok := slots[0].(map[string]any)
	if !ok {
		return model.HoursClosed
	}

	openH, openM := hourMinute(slot["open"])
	closeH, closeM := hourMinute(slot["close"])

	if openH == 0 && openM == 0 && closeH == 24 && closeM == 0 {
		return model.HoursAllDay
	}
	return fmt.Sprintf("%02d:%02d-%02d:%02d", openH, openM, closeH, closeM)
}

func hourMinute(v any) (int, int) {
	m, ok := v.(map[string]any)
	if !ok {
		return 0, 0
	}
	h, _ := asInt(m["hour"])
	min, _ := asInt(m["minute"])
	return h, min
}

// ownerResponseRatio computes the fraction of reviews carrying an owner
// reply, rounded to two decimals. Nil (not zero) when there are no
// reviews to divide by.
func ownerResponseRatio(reviews []any) *float64 {
	if len(reviews) == 0 {
		return nil
	}
	answered := 0
	for _, r := range reviews {
		review, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if getString(review, "owner_answer") != "" {
			answered++
		}
	}
	ratio := math.Round(float64(answered)/float64(len(reviews))*100) / 100
	return &ratio
}

// countWithFallback prefers an explicit total field and falls back to
// the length of an items list.
func countWithFallback(raw map[string]any, totalKey, listKey string) int {
	if total, ok := asInt(raw[totalKey]); ok {
		return total
	}
	return len(getList(raw, listKey))
}

// filterSocialLinks keeps raw link entries whose string form contains a
// known social-platform domain.
func filterSocialLinks(raw map[string]any) []string {
	links := getList(raw, "social_links")
	if len(links) == 0 {
		links = getList(raw, "links")
	}

	var out []string
	for _, l := range links {
		link := fmt.Sprintf("%v", l)
		if link == "" {
			continue
		}
		for _, domain := range socialDomains {
			if strings.Contains(link, domain) {
				out = append(out, link)
				break
			}
		}
	}
	return out
}

// normalizeAttributes accepts either a flat list of tags or the
// provider's grouped shape ({"available_attributes": {group: [tags]}}).
func normalizeAttributes(v any) []string {
	switch attrs := v.(type) {
	case []any:
		var out []string
		for _, a := range attrs {
			if s, ok := a.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case map[string]any:
		grouped, ok := attrs["available_attributes"].(map[string]any)
		if !ok {
			return nil
		}
		var out []string
		for _, group := range grouped {
			items, ok := group.([]any)
			if !ok {
				continue
			}
			for _, a := range items {
				if s, ok := a.(string); ok && s != "" {
					out = append(out, s)
				}
			}
		}
		// Map iteration order is random; keep the output stable.
		sort.Strings(out)
		return out
	}
	return nil
}

// --- payload accessors ---

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := getString(m, k); s != "" {
			return s
		}
	}
	return ""
}

func getList(m map[string]any, key string) []any {
	l, _ := m[key].([]any)
	return l
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}
