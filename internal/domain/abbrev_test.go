package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAbbreviateName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"initials", "Algorithmen und Datenstrukturen", "AuD"},
		{"digit word kept whole", "Analysis 2", "A2"},
		{"single word unchanged", "Analysis", "Analysis"},
		{"leading digits", "42 Things", "42T"},
		{"umlaut initial", "Übung Analysis", "ÜA"},
		{"empty", "", ""},
		{"surrounding space", "  Analysis  ", "Analysis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, AbbreviateName(tt.in))
		})
	}
}

func TestAbbreviateType(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single word", "Vorlesung", "V"},
		{"two words uppercased", "practical course", "PC"},
		{"already upper", "Seminar", "S"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, AbbreviateType(tt.in))
		})
	}
}

func TestEffectiveAbbrevPrefersStored(t *testing.T) {
	c := Course{Name: "Algorithmen und Datenstrukturen", Abbrev: "AlgoDat"}
	require.Equal(t, "AlgoDat", c.EffectiveAbbrev())

	c.Abbrev = ""
	require.Equal(t, "AuD", c.EffectiveAbbrev())

	c.Type = "Vorlesung"
	require.Equal(t, "V", c.EffectiveTypeAbbrev())
	c.TypeAbbrev = "VL"
	require.Equal(t, "VL", c.EffectiveTypeAbbrev())
}
