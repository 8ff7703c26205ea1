package model

import "time"

// Weekdays is the canonical rendering order for opening hours.
var Weekdays = []string{
	"monday", "tuesday", "wednesday", "thursday",
	"friday", "saturday", "sunday",
}

// HoursClosed is the rendered value for a day with an empty slot list.
// HoursAllDay is the rendered value for a 00:00-24:00 slot.
const (
	HoursClosed = "zamkniete"
	HoursAllDay = "24h"
)

// BusinessSnapshot is the canonical, point-in-time view of a business
// listing after normalization. Presence flags are derived from the
// source fields via the Has* methods and are never stored separately.
type BusinessSnapshot struct {
	BusinessName string   `json:"business_name"`
	Rating       *float64 `json:"rating,omitempty"`
	ReviewCount  int      `json:"review_count"`

	// Categories holds the primary category first, then secondary
	// categories in source order.
	Categories []string `json:"categories,omitempty"`

	Description string `json:"description,omitempty"`
	Phone       string `json:"phone,omitempty"`
	WebsiteURL  string `json:"website_url,omitempty"`

	// OpeningHours maps a lowercase weekday name to a rendered range:
	// "zamkniete", "24h", or "HH:MM-HH:MM". Days absent from the source
	// payload are absent here too.
	OpeningHours map[string]string `json:"opening_hours,omitempty"`

	MainImageURL string `json:"main_image_url,omitempty"`
	PhotoCount   int    `json:"photo_count"`

	// OwnerResponseRatio is the fraction of reviews with an owner
	// reply, rounded to two decimals. Nil when there are zero reviews.
	OwnerResponseRatio *float64 `json:"owner_response_ratio,omitempty"`

	MenuItemCount int      `json:"menu_item_count"`
	SocialLinks   []string `json:"social_links,omitempty"`
	Attributes    []string `json:"attributes,omitempty"`
}

// PrimaryCategory returns the first category or "".
func (s *BusinessSnapshot) PrimaryCategory() string {
	if len(s.Categories) == 0 {
		return ""
	}
	return s.Categories[0]
}

// SecondaryCategories returns every category after the primary one.
func (s *BusinessSnapshot) SecondaryCategories() []string {
	if len(s.Categories) <= 1 {
		return nil
	}
	return s.Categories[1:]
}

// DescriptionLength counts the description in runes, not bytes, so
// thresholds behave the same for Polish diacritics.
func (s *BusinessSnapshot) DescriptionLength() int {
	return len([]rune(s.Description))
}

func (s *BusinessSnapshot) HasDescription() bool { return s.Description != "" }
func (s *BusinessSnapshot) HasPhone() bool       { return s.Phone != "" }
func (s *BusinessSnapshot) HasWebsite() bool     { return s.WebsiteURL != "" }
func (s *BusinessSnapshot) HasHours() bool       { return len(s.OpeningHours) > 0 }
func (s *BusinessSnapshot) HasMainImage() bool   { return s.MainImageURL != "" }
func (s *BusinessSnapshot) HasSocialLinks() bool { return len(s.SocialLinks) > 0 }
func (s *BusinessSnapshot) HasMenuItems() bool   { return s.MenuItemCount > 0 }
func (s *BusinessSnapshot) HasAttributes() bool  { return len(s.Attributes) > 0 }

// PostsInfo holds the listing's activity-post summary. It is populated
// by the posts sub-fetch, which runs on its own schedule; until that
// fetch completes the zero value means "not verified yet", not "no
// posts".
type PostsInfo struct {
	HasPosts bool `json:"has_posts"`
	Count    int  `json:"count"`
	// CountPlus is set when the provider returned its full fetch depth,
	// meaning the real number of posts may be higher.
	CountPlus    bool       `json:"count_plus"`
	LastPostDate *time.Time `json:"last_post_date,omitempty"`
}
