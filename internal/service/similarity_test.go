package service

import (
	"math"
	"testing"

	"github.com/lorekeep/canon/internal/domain"
)

func TestTokenSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "works at Acme", "works at Acme", 1},
		{"case and punctuation ignored", "Acme, Inc.", "acme inc", 1},
		{"disjoint", "Portland", "Seattle", 0},
		{"partial overlap", "senior engineer", "staff engineer", 1.0 / 3.0},
		{"both empty", "", "", 1},
		{"one empty", "Acme", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TokenSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValueSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b domain.Value
		want float64
	}{
		{"equal numbers", domain.NumberValue(3), domain.NumberValue(3), 1},
		{"close numbers", domain.NumberValue(100), domain.NumberValue(90), 0.9},
		{"far numbers", domain.NumberValue(1), domain.NumberValue(100), 0.01},
		{"small magnitudes use unit scale", domain.NumberValue(0.1), domain.NumberValue(0.2), 0.9},
		{"equal strings", domain.StringValue("Acme"), domain.StringValue("acme"), 1},
		{"number versus string falls back to tokens", domain.NumberValue(3), domain.StringValue("3"), 1},
		{
			"list overlap",
			domain.ListValue(domain.Scalar{Kind: domain.ScalarString, Str: "running"}, domain.Scalar{Kind: domain.ScalarString, Str: "climbing"}),
			domain.ListValue(domain.Scalar{Kind: domain.ScalarString, Str: "running"}),
			0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValueSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ValueSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"initial matches full name", "Maya R.", "Maya Rivera", 0.7, 1},
		{"unrelated names stay low", "Maya R.", "Mark Chen", 0, 0.69},
		{"identical", "Maya Rivera", "maya rivera", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nameSimilarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("nameSimilarity(%q, %q) = %v, want within [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}
