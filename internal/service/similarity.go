package service

import (
	"math"
	"strings"
	"unicode"

	"github.com/lorekeep/canon/internal/domain"
)

// Tokens splits s into lowercased alphanumeric tokens, stripping punctuation.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TokenSimilarity is the Jaccard index over the token sets of a and b.
// Two empty strings are identical (1); one empty side shares nothing (0).
func TokenSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokens(s) {
		set[tok] = true
	}
	return set
}

// ValueSimilarity compares two evidence values on [0,1]. Numbers compare by
// relative distance; everything else by token overlap over the display form.
func ValueSimilarity(a, b domain.Value) float64 {
	if na, ok := a.Numeric(); ok {
		if nb, ok := b.Numeric(); ok {
			if na == nb {
				return 1
			}
			scale := math.Max(math.Abs(na), math.Abs(nb))
			if scale < 1 {
				scale = 1
			}
			return clamp01(1 - math.Abs(na-nb)/scale)
		}
	}
	return TokenSimilarity(a.String(), b.String())
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
