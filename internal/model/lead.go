package model

import "time"

// LeadSource describes where a lead record came from.
type LeadSource string

const (
	LeadSourceGoogleMaps LeadSource = "google_maps"
	LeadSourceFile       LeadSource = "file"
	LeadSourceReferral   LeadSource = "referral"
)

// Lead represents a single sales prospect. Every other entity in the
// store (analyses, suggestion batches, tracked keywords) hangs off a
// lead and is deleted with it.
type Lead struct {
	ID           string     `json:"id"`
	City         string     `json:"city"`
	Source       LeadSource `json:"source"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone,omitempty"`
	Address      string     `json:"address,omitempty"`
	Email        string     `json:"email,omitempty"`
	Website      string     `json:"website,omitempty"`
	// MapsURL is the lead's map listing URL; the rank tracker derives
	// the stable listing identifier from it when present.
	MapsURL      string     `json:"maps_url,omitempty"`
	EmailScraped bool       `json:"email_scraped"`
	CreatedAt    time.Time  `json:"created_at"`
}
