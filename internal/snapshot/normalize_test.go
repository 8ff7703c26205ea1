package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_NilAndEmptyInput(t *testing.T) {
	s := Normalize(nil)
	require.NotNil(t, s)
	assert.Empty(t, s.BusinessName)
	assert.Nil(t, s.Rating)

	s = Normalize(map[string]any{})
	require.NotNil(t, s)
	assert.Empty(t, s.Categories)
	assert.Nil(t, s.OpeningHours)
}

func TestNormalize_MalformedFieldsDoNotPanic(t *testing.T) {
	// Every structured field carries the wrong type; normalization must
	// stay total and fall back to zero values.
	s := Normalize(map[string]any{
		"title":       42,
		"rating":      "not a number",
		"work_hours":  []any{"nope"},
		"reviews":     "nope",
		"categories":  map[string]any{},
		"attributes":  3.14,
		"links":       nil,
		"photos":      "many",
		"description": []any{},
	})
	require.NotNil(t, s)
	assert.Empty(t, s.BusinessName)
	assert.Nil(t, s.Rating)
	assert.Nil(t, s.OpeningHours)
	assert.Nil(t, s.OwnerResponseRatio)
	assert.Empty(t, s.Attributes)
}

func TestNormalize_RatingShapes(t *testing.T) {
	nested := Normalize(map[string]any{
		"rating": map[string]any{"value": 4.5, "votes_count": float64(120)},
	})
	require.NotNil(t, nested.Rating)
	assert.Equal(t, 4.5, *nested.Rating)
	assert.Equal(t, 120, nested.ReviewCount)

	flat := Normalize(map[string]any{"rating": 3.8})
	require.NotNil(t, flat.Rating)
	assert.Equal(t, 3.8, *flat.Rating)
	assert.Equal(t, 0, flat.ReviewCount)

	absent := Normalize(map[string]any{"title": "X"})
	assert.Nil(t, absent.Rating)
}

func TestNormalize_Categories(t *testing.T) {
	s := Normalize(map[string]any{
		"category": "Pizzeria",
		"additional_categories": []any{
			"Restauracja włoska",
			map[string]any{"name": "Dostawa jedzenia"},
			map[string]any{"other": "ignored"},
		},
	})
	assert.Equal(t, []string{"Pizzeria", "Restauracja włoska", "Dostawa jedzenia"}, s.Categories)
	assert.Equal(t, "Pizzeria", s.PrimaryCategory())
	assert.Equal(t, []string{"Restauracja włoska", "Dostawa jedzenia"}, s.SecondaryCategories())
}

func TestNormalize_Hours(t *testing.T) {
	s := Normalize(map[string]any{
		"work_hours": map[string]any{
			"timetable": map[string]any{
				"monday": []any{map[string]any{
					"open":  map[string]any{"hour": float64(9), "minute": float64(0)},
					"close": map[string]any{"hour": float64(17), "minute": float64(30)},
				}},
				"tuesday": []any{},
				"wednesday": []any{map[string]any{
					"open":  map[string]any{"hour": float64(0), "minute": float64(0)},
					"close": map[string]any{"hour": float64(24), "minute": float64(0)},
				}},
				// thursday..sunday absent from the source.
			},
		},
	})

	require.NotNil(t, s.OpeningHours)
	assert.Equal(t, "09:00-17:30", s.OpeningHours["monday"])
	assert.Equal(t, "zamkniete", s.OpeningHours["tuesday"])
	assert.Equal(t, "24h", s.OpeningHours["wednesday"])
	_, present := s.OpeningHours["thursday"]
	assert.False(t, present)
	assert.Len(t, s.OpeningHours, 3)
}

func TestNormalize_OwnerResponseRatio(t *testing.T) {
	none := Normalize(map[string]any{"reviews": []any{}})
	assert.Nil(t, none.OwnerResponseRatio)

	some := Normalize(map[string]any{
		"reviews": []any{
			map[string]any{"owner_answer": "Dziękujemy!"},
			map[string]any{"owner_answer": ""},
			map[string]any{},
		},
	})
	require.NotNil(t, some.OwnerResponseRatio)
	assert.InDelta(t, 0.33, *some.OwnerResponseRatio, 0.001)
}

func TestNormalize_PhotoCountFallback(t *testing.T) {
	explicit := Normalize(map[string]any{
		"total_photos": float64(25),
		"photos":       []any{"a", "b"},
	})
	assert.Equal(t, 25, explicit.PhotoCount)

	fallback := Normalize(map[string]any{
		"photos": []any{"a", "b", "c"},
	})
	assert.Equal(t, 3, fallback.PhotoCount)
}

func TestNormalize_SocialLinks(t *testing.T) {
	s := Normalize(map[string]any{
		"links": []any{
			"https://facebook.com/bellanapoli",
			"https://bellanapoli.pl/menu",
			"https://instagram.com/bellanapoli",
		},
	})
	assert.Equal(t, []string{
		"https://facebook.com/bellanapoli",
		"https://instagram.com/bellanapoli",
	}, s.SocialLinks)
}

func TestNormalize_AttributesGrouped(t *testing.T) {
	s := Normalize(map[string]any{
		"attributes": map[string]any{
			"available_attributes": map[string]any{
				"service_options": []any{"na wynos", "dostawa"},
				"accessibility":   []any{"wejście dla wózków"},
			},
		},
	})
	// Grouped attributes are flattened and sorted for stable output.
	assert.Equal(t, []string{"dostawa", "na wynos", "wejście dla wózków"}, s.Attributes)

	flat := Normalize(map[string]any{
		"attributes": []any{"na wynos", "dostawa"},
	})
	assert.Equal(t, []string{"na wynos", "dostawa"}, flat.Attributes)
}

func TestNormalize_NameFallbackKeys(t *testing.T) {
	s := Normalize(map[string]any{"name": "Bella Napoli"})
	assert.Equal(t, "Bella Napoli", s.BusinessName)

	s = Normalize(map[string]any{"title": "Primary", "name": "Secondary"})
	assert.Equal(t, "Primary", s.BusinessName)
}
