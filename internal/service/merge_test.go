package service

import (
	"strings"
	"testing"

	"github.com/lorekeep/canon/internal/domain"
	"go.uber.org/zap"
)

func canonicalFactsFor(t *testing.T, recs ...domain.EvidenceRecord) []domain.CanonicalFact {
	t.Helper()
	registry, err := BuildRegistry(recs, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}
	return registry.CanonicalFacts()
}

func TestMergeSuggester_AliasWithSharedFact(t *testing.T) {
	facts := canonicalFactsFor(t,
		testEvidence("Maya R.", "employer", domain.StringValue("Acme"), 0.9, false, testBase),
		testEvidence("Maya Rivera", "employer", domain.StringValue("Acme"), 0.8, false, weeksAfter(1)),
	)

	suggestions := NewMergeSuggester(zap.NewNop()).Suggest(facts)
	if len(suggestions) != 1 {
		t.Fatalf("Suggest() = %d suggestions, want 1", len(suggestions))
	}
	s := suggestions[0]
	if len(s.Subjects) != 2 {
		t.Errorf("subjects = %v, want the two aliases", s.Subjects)
	}
	if !strings.Contains(s.Rationale, "employer") || !strings.Contains(s.Rationale, "Acme") {
		t.Errorf("rationale = %q, want the shared fact cited", s.Rationale)
	}
}

func TestMergeSuggester_NoSharedFactNoSuggestion(t *testing.T) {
	facts := canonicalFactsFor(t,
		testEvidence("Maya R.", "employer", domain.StringValue("Acme"), 0.9, false, testBase),
		testEvidence("Maya Rivera", "employer", domain.StringValue("Globex"), 0.8, false, weeksAfter(1)),
	)

	if suggestions := NewMergeSuggester(zap.NewNop()).Suggest(facts); len(suggestions) != 0 {
		t.Fatalf("Suggest() = %d suggestions, want 0 without a shared fact", len(suggestions))
	}
}

func TestMergeSuggester_DissimilarNamesNoSuggestion(t *testing.T) {
	facts := canonicalFactsFor(t,
		testEvidence("Maya Rivera", "employer", domain.StringValue("Acme"), 0.9, false, testBase),
		testEvidence("Mark Chen", "employer", domain.StringValue("Acme"), 0.8, false, weeksAfter(1)),
	)

	if suggestions := NewMergeSuggester(zap.NewNop()).Suggest(facts); len(suggestions) != 0 {
		t.Fatalf("Suggest() = %d suggestions, want 0 for dissimilar names", len(suggestions))
	}
}

func TestMergeSuggester_DeterministicIDs(t *testing.T) {
	facts := canonicalFactsFor(t,
		testEvidence("Maya R.", "employer", domain.StringValue("Acme"), 0.9, false, testBase),
		testEvidence("Maya Rivera", "employer", domain.StringValue("Acme"), 0.8, false, weeksAfter(1)),
	)

	suggester := NewMergeSuggester(zap.NewNop())
	first := suggester.Suggest(facts)
	second := suggester.Suggest(facts)
	if first[0].ID != second[0].ID {
		t.Errorf("suggestion ids differ across runs: %s vs %s", first[0].ID, second[0].ID)
	}
}
