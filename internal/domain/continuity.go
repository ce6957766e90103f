package domain

import (
	"time"

	"github.com/google/uuid"
)

// CanonicalFact is the currently winning value for a fact slot, derived on
// read from the evidence trail. It carries the fields of the winning record.
type CanonicalFact struct {
	Subject       string    `json:"subject"`
	Attribute     string    `json:"attribute"`
	Value         Value     `json:"value"`
	Confidence    float64   `json:"confidence"`
	Scope         string    `json:"scope,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Permanent     bool      `json:"permanent"`
	ObservedAt    time.Time `json:"observed_at"`
	EvidenceCount int       `json:"evidence_count"`
}

// DriftSignal describes how much the asserted value for one fact slot has
// moved across time segments. Recomputed fresh on every engine run.
type DriftSignal struct {
	Subject    string   `json:"subject"`
	Attribute  string   `json:"attribute"`
	DriftScore float64  `json:"drift_score"`
	Segments   []string `json:"segments"`
	Notes      string   `json:"notes"`
}

type ConflictType string

const (
	ConflictContradictsPermanent     ConflictType = "contradicts_permanent"
	ConflictSimultaneousDisagreement ConflictType = "simultaneous_disagreement"
	ConflictRapidReversal            ConflictType = "rapid_reversal"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Weight returns the scoring penalty weight for a severity. A few high
// severity conflicts dominate the continuity score; many low severity ones
// degrade it gradually.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// ContinuityConflict is a detected inconsistency between evidence records.
// Conflicts are ephemeral: resolution is modeled as new evidence arriving,
// never as mutation of the conflict itself.
type ContinuityConflict struct {
	Type        ConflictType `json:"type"`
	Description string       `json:"description"`
	Severity    Severity     `json:"severity"`
	Subjects    []string     `json:"subjects"`
	Attributes  []string     `json:"attributes"`
	Evidence    []uuid.UUID  `json:"evidence"`
}

// RegistrySnapshot is the canonical-facts view embedded in ContinuityState.
type RegistrySnapshot struct {
	Facts []CanonicalFact `json:"facts"`
}

// ContinuityState is the engine's single output aggregate for one user.
type ContinuityState struct {
	Registry     RegistrySnapshot     `json:"registry"`
	DriftSummary map[string]float64   `json:"drift_summary"`
	DriftSignals []DriftSignal        `json:"drift_signals"`
	Score        float64              `json:"score"`
	Conflicts    []ContinuityConflict `json:"conflicts"`
}

// MergeSuggestion proposes that two subject identifiers likely denote the
// same real-world entity. Advisory only; never auto-applied.
type MergeSuggestion struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Subjects  []string  `json:"subjects"`
	Rationale string    `json:"rationale"`
}
