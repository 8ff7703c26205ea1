package model

// Severity classifies how urgent a finding is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Section identifies which part of the listing a finding concerns.
// Sections are emitted by the rule engine in a fixed evaluation order.
type Section string

const (
	SectionName                Section = "Nazwa"
	SectionPrimaryCategory     Section = "Kategoria główna"
	SectionSecondaryCategories Section = "Kategorie dodatkowe"
	SectionDescription         Section = "Opis"
	SectionWebsite             Section = "Strona WWW"
	SectionPhone               Section = "Telefon"
	SectionHours               Section = "Godziny otwarcia"
	SectionPhotos              Section = "Zdjęcia"
	SectionReviews             Section = "Opinie"
	SectionPosts               Section = "Posty"
	SectionAttributes          Section = "Atrybuty"
)

// Issue is a single rule-engine finding. Issues are recomputed from the
// current snapshot on every run, never patched incrementally.
type Issue struct {
	Severity Severity `json:"severity"`
	Section  Section  `json:"section"`
	Message  string   `json:"message"`
}
