package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"250", 250, false},
		{"99.50", 99.5, false},
		{"99,50", 99.5, false},
		{" 1500 ", 1500, false},
		{"0", 0, true},
		{"-10", 0, true},
		{"дорого", 0, true},
		{"", 0, true},
		{"10 грн", 0, true},
		{"NaN", 0, true},
		{"nan", 0, true},
		{"Inf", 0, true},
		{"+inf", 0, true},
		{"Infinity", 0, true},
		{"-Inf", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "1500.00 грн", FormatPrice(1500))
	assert.Equal(t, "99.50 грн", FormatPrice(99.5))
}

func TestNormalizeCity(t *testing.T) {
	assert.Equal(t, "", NormalizeCity("-"))
	assert.Equal(t, "", NormalizeCity(" - "))
	assert.Equal(t, "Київ", NormalizeCity(" Київ "))
	assert.Equal(t, "Нью-Йорк", NormalizeCity("Нью-Йорк"))
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "#велосипед, #спорт", "#велосипед #спорт"},
		{"drops tokens without hash", "#велосипед, спорт, #дитяче", "#велосипед #дитяче"},
		{"trims whitespace", "  #one ,  #two  ", "#one #two"},
		{"nothing valid", "просто слова, без тегів", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.input)
			assert.Equal(t, tt.want, got)
			// Normalizing an already normalized value is a no-op
			assert.Equal(t, got, NormalizeTags(got))
		})
	}
}
