package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"empty", "", ""},
		{"query param", "https://maps.google.com/?cid=12345678901234567890", "cid:12345678901234567890"},
		{"query param after other params", "https://maps.google.com/?hl=pl&cid=987654321", "cid:987654321"},
		{"hex data segment", "https://www.google.com/maps/place/X/data=!1s0x47165b0a8c5a7c01:0xff51a0f96cf7c0de", "cid:18397662945920663774"},
		{"no identifier", "https://www.google.com/maps/place/Bella+Napoli", ""},
		{"cid not a param boundary", "https://example.pl/lucid=123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCID(tt.url))
		})
	}
}
