package service

import (
	"testing"
	"time"

	"github.com/lorekeep/canon/internal/domain"
	"go.uber.org/zap"
)

func detectConflicts(t *testing.T, recs ...domain.EvidenceRecord) []domain.ContinuityConflict {
	t.Helper()
	registry, err := BuildRegistry(recs, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}
	detector, err := NewConflictDetector(DefaultSegmentWidth, zap.NewNop())
	if err != nil {
		t.Fatalf("NewConflictDetector() error = %v", err)
	}
	return detector.Detect(registry.Histories())
}

func conflictsOfType(conflicts []domain.ContinuityConflict, kind domain.ConflictType) []domain.ContinuityConflict {
	var out []domain.ContinuityConflict
	for _, c := range conflicts {
		if c.Type == kind {
			out = append(out, c)
		}
	}
	return out
}

func TestConflictDetector_ContradictsPermanent(t *testing.T) {
	tests := []struct {
		name         string
		gap          time.Duration
		wantSeverity domain.Severity
	}{
		{"fresh permanent escalates", 7 * 24 * time.Hour, domain.SeverityHigh},
		{"stale permanent stays medium", 40 * 24 * time.Hour, domain.SeverityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perm := testEvidence("Maya", "employer", domain.StringValue("Acme"), 0.9, true, testBase)
			contradiction := testEvidence("Maya", "employer", domain.StringValue("Globex"), 0.8, false, testBase.Add(tt.gap))

			conflicts := conflictsOfType(detectConflicts(t, perm, contradiction), domain.ConflictContradictsPermanent)
			if len(conflicts) != 1 {
				t.Fatalf("got %d contradicts_permanent conflicts, want 1", len(conflicts))
			}
			c := conflicts[0]
			if c.Severity != tt.wantSeverity {
				t.Errorf("severity = %s, want %s", c.Severity, tt.wantSeverity)
			}
			if len(c.Evidence) != 2 {
				t.Errorf("evidence = %d records, want permanent plus offender", len(c.Evidence))
			}
			if len(c.Subjects) != 1 || c.Subjects[0] != "Maya" {
				t.Errorf("subjects = %v, want [Maya]", c.Subjects)
			}
		})
	}
}

func TestConflictDetector_OlderEvidenceDoesNotContradict(t *testing.T) {
	// Evidence predating the permanent assertion is superseded history.
	older := testEvidence("Maya", "employer", domain.StringValue("Globex"), 0.8, false, testBase)
	perm := testEvidence("Maya", "employer", domain.StringValue("Acme"), 0.9, true, weeksAfter(5))

	conflicts := conflictsOfType(detectConflicts(t, older, perm), domain.ConflictContradictsPermanent)
	if len(conflicts) != 0 {
		t.Fatalf("got %d contradicts_permanent conflicts, want 0", len(conflicts))
	}
}

func TestConflictDetector_SimultaneousDisagreement(t *testing.T) {
	t.Run("two confident values in one segment", func(t *testing.T) {
		a := testEvidence("Maya", "location", domain.StringValue("Portland"), 0.8, false, testBase)
		b := testEvidence("Maya", "location", domain.StringValue("Seattle"), 0.7, false, testBase.Add(2*time.Hour))

		conflicts := conflictsOfType(detectConflicts(t, a, b), domain.ConflictSimultaneousDisagreement)
		if len(conflicts) != 1 {
			t.Fatalf("got %d simultaneous_disagreement conflicts, want 1", len(conflicts))
		}
		if conflicts[0].Severity != domain.SeverityMedium {
			t.Errorf("severity = %s, want medium", conflicts[0].Severity)
		}
	})

	t.Run("three distinct values escalate", func(t *testing.T) {
		a := testEvidence("Maya", "location", domain.StringValue("Portland"), 0.8, false, testBase)
		b := testEvidence("Maya", "location", domain.StringValue("Seattle"), 0.7, false, testBase.Add(2*time.Hour))
		c := testEvidence("Maya", "location", domain.StringValue("Denver"), 0.6, false, testBase.Add(4*time.Hour))

		conflicts := conflictsOfType(detectConflicts(t, a, b, c), domain.ConflictSimultaneousDisagreement)
		if len(conflicts) != 1 {
			t.Fatalf("got %d simultaneous_disagreement conflicts, want 1", len(conflicts))
		}
		if conflicts[0].Severity != domain.SeverityHigh {
			t.Errorf("severity = %s, want high", conflicts[0].Severity)
		}
	})

	t.Run("low confidence does not qualify", func(t *testing.T) {
		a := testEvidence("Maya", "location", domain.StringValue("Portland"), 0.8, false, testBase)
		b := testEvidence("Maya", "location", domain.StringValue("Seattle"), 0.3, false, testBase.Add(2*time.Hour))

		conflicts := conflictsOfType(detectConflicts(t, a, b), domain.ConflictSimultaneousDisagreement)
		if len(conflicts) != 0 {
			t.Fatalf("got %d simultaneous_disagreement conflicts, want 0", len(conflicts))
		}
	})

	t.Run("similar values do not disagree", func(t *testing.T) {
		a := testEvidence("Maya", "employer", domain.StringValue("Acme Inc"), 0.8, false, testBase)
		b := testEvidence("Maya", "employer", domain.StringValue("Acme"), 0.7, false, testBase.Add(2*time.Hour))

		conflicts := conflictsOfType(detectConflicts(t, a, b), domain.ConflictSimultaneousDisagreement)
		if len(conflicts) != 0 {
			t.Fatalf("got %d simultaneous_disagreement conflicts, want 0", len(conflicts))
		}
	})
}

func TestConflictDetector_RapidReversal(t *testing.T) {
	t.Run("oscillation across four segments", func(t *testing.T) {
		values := []string{"Portland", "Seattle", "Portland", "Seattle"}
		var recs []domain.EvidenceRecord
		for week, v := range values {
			recs = append(recs, testEvidence("Maya", "location", domain.StringValue(v), 0.8, false, weeksAfter(week)))
		}

		conflicts := conflictsOfType(detectConflicts(t, recs...), domain.ConflictRapidReversal)
		if len(conflicts) != 1 {
			t.Fatalf("got %d rapid_reversal conflicts, want 1", len(conflicts))
		}
		if conflicts[0].Severity != domain.SeverityLow {
			t.Errorf("severity = %s, want low", conflicts[0].Severity)
		}
	})

	t.Run("oscillating permanent value escalates", func(t *testing.T) {
		recs := []domain.EvidenceRecord{
			testEvidence("Maya", "employer", domain.StringValue("Acme"), 0.9, true, weeksAfter(0)),
			testEvidence("Maya", "employer", domain.StringValue("Globex"), 0.8, false, weeksAfter(1)),
			testEvidence("Maya", "employer", domain.StringValue("Acme"), 0.9, true, weeksAfter(2)),
		}

		conflicts := conflictsOfType(detectConflicts(t, recs...), domain.ConflictRapidReversal)
		if len(conflicts) != 1 {
			t.Fatalf("got %d rapid_reversal conflicts, want 1", len(conflicts))
		}
		if conflicts[0].Severity != domain.SeverityHigh {
			t.Errorf("severity = %s, want high", conflicts[0].Severity)
		}
	})

	t.Run("steady change is not a reversal", func(t *testing.T) {
		values := []string{"Portland", "Seattle", "Denver"}
		var recs []domain.EvidenceRecord
		for week, v := range values {
			recs = append(recs, testEvidence("Maya", "location", domain.StringValue(v), 0.8, false, weeksAfter(week)))
		}

		conflicts := conflictsOfType(detectConflicts(t, recs...), domain.ConflictRapidReversal)
		if len(conflicts) != 0 {
			t.Fatalf("got %d rapid_reversal conflicts, want 0", len(conflicts))
		}
	})
}
