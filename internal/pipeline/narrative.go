package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/lead-enrich/internal/model"
)

// BuildNarrativePrompt renders the deterministic Polish prompt for the
// narrative synthesis. Same inputs, same prompt: the only variation in
// phase-2 output comes from the model itself.
func BuildNarrativePrompt(leadName, city string, snap *model.BusinessSnapshot, found []model.Issue, targetKeywords []string) string {
	var b strings.Builder

	b.WriteString("Jesteś ekspertem od optymalizacji wizytówek Google Business Profile dla lokalnych firm.\n\n")
	fmt.Fprintf(&b, "Analizujesz wizytówkę: %s (%s)\n\n", leadName, city)

	b.WriteString("Dane z wizytówki:\n")
	if snap.Rating != nil {
		fmt.Fprintf(&b, "- Ocena: %.1f\n", *snap.Rating)
	} else {
		b.WriteString("- Ocena: brak\n")
	}
	fmt.Fprintf(&b, "- Liczba opinii: %d\n", snap.ReviewCount)
	fmt.Fprintf(&b, "- Opis: %s\n", yesOrMissing(snap.HasDescription()))
	if snap.WebsiteURL != "" {
		fmt.Fprintf(&b, "- Strona WWW: %s\n", snap.WebsiteURL)
	} else {
		b.WriteString("- Strona WWW: BRAK\n")
	}
	fmt.Fprintf(&b, "- Telefon: %s\n", yesOrMissing(snap.HasPhone()))
	fmt.Fprintf(&b, "- Godziny otwarcia: %s\n", yesOrMissing(snap.HasHours()))
	fmt.Fprintf(&b, "- Liczba zdjęć: %d\n", snap.PhotoCount)
	if len(snap.Categories) > 0 {
		fmt.Fprintf(&b, "- Kategorie: %s\n", strings.Join(snap.Categories, ", "))
	} else {
		b.WriteString("- Kategorie: BRAK\n")
	}

	if len(targetKeywords) > 0 {
		b.WriteString("\nFrazy, na które firma chce być widoczna:\n")
		for _, kw := range targetKeywords {
			fmt.Fprintf(&b, "- %s\n", kw)
		}
	}

	if len(found) > 0 {
		b.WriteString("\nWykryte problemy:\n")
		for _, is := range found {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", is.Severity, is.Section, is.Message)
		}
	}

	b.WriteString(`
Przygotuj krótką analizę (max 300 słów) w języku polskim:
1. Oceń ogólny stan wizytówki (1-2 zdania)
2. Wymień 3 najważniejsze problemy do naprawienia
3. Podaj 2-3 konkretne działania które możesz zaproponować właścicielowi jako usługę

Pisz jak doświadczony handlowiec który chce przekonać właściciela do współpracy. Bądź konkretny i rzeczowy.`)

	return b.String()
}

func yesOrMissing(present bool) string {
	if present {
		return "tak"
	}
	return "BRAK"
}
