package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lorekeep/canon/internal/domain"
	"go.uber.org/zap"
)

// DefaultAliasSimilarity is the normalized-name token overlap two subjects
// must reach before a merge is proposed.
const DefaultAliasSimilarity = 0.7

// MergeSuggester scans canonical facts for likely-duplicate subjects and
// proposes merges for a human to confirm. It never mutates the registry;
// a confirmation enters the system as new evidence.
type MergeSuggester struct {
	logger *zap.Logger
}

func NewMergeSuggester(logger *zap.Logger) *MergeSuggester {
	return &MergeSuggester{logger: logger}
}

// Suggest pairs subjects whose names overlap strongly and that share at
// least one identical (attribute, value) canonical fact.
func (m *MergeSuggester) Suggest(facts []domain.CanonicalFact) []domain.MergeSuggestion {
	type subjectFacts struct {
		display string
		facts   map[string]domain.Value
	}
	bySubject := make(map[string]*subjectFacts)
	for _, fact := range facts {
		key := strings.ToLower(fact.Subject)
		entry, ok := bySubject[key]
		if !ok {
			entry = &subjectFacts{display: fact.Subject, facts: make(map[string]domain.Value)}
			bySubject[key] = entry
		}
		entry.facts[strings.ToLower(fact.Attribute)] = fact.Value
	}

	subjects := make([]string, 0, len(bySubject))
	for key := range bySubject {
		subjects = append(subjects, key)
	}
	sort.Strings(subjects)

	var suggestions []domain.MergeSuggestion
	for i := 0; i < len(subjects); i++ {
		for j := i + 1; j < len(subjects); j++ {
			a, b := bySubject[subjects[i]], bySubject[subjects[j]]
			similarity := nameSimilarity(a.display, b.display)
			if similarity < DefaultAliasSimilarity {
				continue
			}
			attr, value, ok := sharedFact(a.facts, b.facts)
			if !ok {
				continue
			}
			suggestions = append(suggestions, domain.MergeSuggestion{
				ID:       uuid.NewSHA1(uuid.NameSpaceOID, []byte(subjects[i]+"\x00"+subjects[j])),
				Title:    fmt.Sprintf("Possible alias: %s and %s", a.display, b.display),
				Subjects: []string{a.display, b.display},
				Rationale: fmt.Sprintf("both subjects share %s = %q and their names overlap with similarity %.2f",
					attr, value.String(), similarity),
			})
		}
	}
	return suggestions
}

// nameSimilarity measures token overlap between two subject names. Unlike
// plain Jaccard, a token also matches when one is a prefix of the other, so
// initials and abbreviations ("Maya R." vs "Maya Rivera") still align.
func nameSimilarity(a, b string) float64 {
	tokensA, tokensB := Tokens(a), Tokens(b)
	if len(tokensA) == 0 && len(tokensB) == 0 {
		return 1
	}
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	matched := 0
	for _, ta := range tokensA {
		if matchesAny(ta, tokensB) {
			matched++
		}
	}
	for _, tb := range tokensB {
		if matchesAny(tb, tokensA) {
			matched++
		}
	}
	return float64(matched) / float64(len(tokensA)+len(tokensB))
}

func matchesAny(tok string, others []string) bool {
	for _, other := range others {
		if strings.HasPrefix(tok, other) || strings.HasPrefix(other, tok) {
			return true
		}
	}
	return false
}

// sharedFact returns the first attribute (alphabetically) both subjects
// assert with an identical canonical value.
func sharedFact(a, b map[string]domain.Value) (string, domain.Value, bool) {
	attrs := make([]string, 0, len(a))
	for attr := range a {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	for _, attr := range attrs {
		if other, ok := b[attr]; ok && a[attr].Equal(other) {
			return attr, a[attr], true
		}
	}
	return "", domain.Value{}, false
}
