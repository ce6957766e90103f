package service

import (
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/lorekeep/canon/internal/domain"
	"go.uber.org/zap"
)

// DefaultConfidenceBand is how far below the maximum confidence seen for a
// key a more recent non-permanent record may sit and still win the canonical
// slot. Keeps a stale high-confidence record from perpetually overriding
// fresher, nearly-as-confident evidence.
const DefaultConfidenceBand = 0.15

var (
	ErrSubjectEmpty    = errors.New("evidence subject is empty")
	ErrAttributeEmpty  = errors.New("evidence attribute is empty")
	ErrValueEmpty      = errors.New("evidence value is empty")
	ErrConfidenceRange = errors.New("evidence confidence must be within [0,1]")
	ErrTimestampZero   = errors.New("evidence timestamp is required")
)

// IsValidationError reports whether err rejects a malformed evidence record.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrSubjectEmpty) ||
		errors.Is(err, ErrAttributeEmpty) ||
		errors.Is(err, ErrValueEmpty) ||
		errors.Is(err, ErrConfidenceRange) ||
		errors.Is(err, ErrTimestampZero)
}

// ValidateEvidence rejects malformed records before they can enter the trail.
func ValidateEvidence(ev domain.EvidenceRecord) error {
	if domain.KeyOf(ev.Subject, ev.Attribute).Subject == "" {
		return ErrSubjectEmpty
	}
	if domain.KeyOf(ev.Subject, ev.Attribute).Attribute == "" {
		return ErrAttributeEmpty
	}
	if ev.Value.Empty() {
		return ErrValueEmpty
	}
	if ev.Confidence < 0 || ev.Confidence > 1 {
		return ErrConfidenceRange
	}
	if ev.Timestamp.IsZero() {
		return ErrTimestampZero
	}
	return nil
}

// FactRegistry holds one user's evidence trail and projects canonical facts
// from it at read time. Built per request from the persisted trail; never a
// process-wide singleton.
type FactRegistry struct {
	logger         *zap.Logger
	records        []domain.EvidenceRecord
	confidenceBand float64
}

func NewFactRegistry(logger *zap.Logger) *FactRegistry {
	return &FactRegistry{
		logger:         logger,
		confidenceBand: DefaultConfidenceBand,
	}
}

// BuildRegistry constructs a registry from a persisted trail, validating and
// deduplicating each record.
func BuildRegistry(records []domain.EvidenceRecord, logger *zap.Logger) (*FactRegistry, error) {
	r := NewFactRegistry(logger)
	for _, rec := range records {
		if err := r.Apply(rec); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Apply validates ev and appends it to the trail. Re-applying an exact
// duplicate is a no-op. Never mutates or removes existing records.
func (r *FactRegistry) Apply(ev domain.EvidenceRecord) error {
	if err := ValidateEvidence(ev); err != nil {
		return err
	}
	for _, existing := range r.records {
		if existing.Duplicate(ev) {
			r.logger.Debug("duplicate evidence ignored",
				zap.String("subject", ev.Subject),
				zap.String("attribute", ev.Attribute))
			return nil
		}
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	r.records = append(r.records, ev)
	sort.SliceStable(r.records, func(i, j int) bool {
		return r.records[i].Timestamp.Before(r.records[j].Timestamp)
	})
	return nil
}

func (r *FactRegistry) Len() int { return len(r.records) }

// Records returns a copy of the ordered trail.
func (r *FactRegistry) Records() []domain.EvidenceRecord {
	out := make([]domain.EvidenceRecord, len(r.records))
	copy(out, r.records)
	return out
}

// History returns the ordered evidence trail for one fact slot.
func (r *FactRegistry) History(subject, attribute string) []domain.EvidenceRecord {
	key := domain.KeyOf(subject, attribute)
	var out []domain.EvidenceRecord
	for _, rec := range r.records {
		if rec.Key() == key {
			out = append(out, rec)
		}
	}
	return out
}

// Histories groups the trail by fact key, preserving timestamp order.
func (r *FactRegistry) Histories() map[domain.FactKey][]domain.EvidenceRecord {
	out := make(map[domain.FactKey][]domain.EvidenceRecord)
	for _, rec := range r.records {
		key := rec.Key()
		out[key] = append(out[key], rec)
	}
	return out
}

// CanonicalFacts resolves the winning record per key and returns the derived
// facts sorted by subject then attribute.
func (r *FactRegistry) CanonicalFacts() []domain.CanonicalFact {
	histories := r.Histories()
	facts := make([]domain.CanonicalFact, 0, len(histories))
	for _, history := range histories {
		winner, ok := resolveCanonical(history, r.confidenceBand)
		if !ok {
			continue
		}
		facts = append(facts, domain.CanonicalFact{
			Subject:       winner.Subject,
			Attribute:     winner.Attribute,
			Value:         winner.Value,
			Confidence:    winner.Confidence,
			Scope:         winner.Scope,
			Tags:          winner.Tags,
			Permanent:     winner.Permanent,
			ObservedAt:    winner.Timestamp,
			EvidenceCount: len(history),
		})
	}
	sort.Slice(facts, func(i, j int) bool {
		a, b := facts[i], facts[j]
		ka, kb := domain.KeyOf(a.Subject, a.Attribute), domain.KeyOf(b.Subject, b.Attribute)
		if ka.Subject != kb.Subject {
			return ka.Subject < kb.Subject
		}
		return ka.Attribute < kb.Attribute
	})
	return facts
}

// resolveCanonical applies the resolution rule over one key's history:
// the newest permanent record wins outright; otherwise the most recent
// non-permanent record within the confidence band of the maximum wins.
// Ties break by recency, then lexicographic value.
func resolveCanonical(history []domain.EvidenceRecord, band float64) (domain.EvidenceRecord, bool) {
	if len(history) == 0 {
		return domain.EvidenceRecord{}, false
	}

	var perm *domain.EvidenceRecord
	for i := range history {
		if !history[i].Permanent {
			continue
		}
		if perm == nil || moreRecent(history[i], *perm) {
			perm = &history[i]
		}
	}
	if perm != nil {
		return *perm, true
	}

	maxConf := 0.0
	for _, rec := range history {
		if rec.Confidence > maxConf {
			maxConf = rec.Confidence
		}
	}

	var best *domain.EvidenceRecord
	for i := range history {
		if history[i].Confidence < maxConf-band {
			continue
		}
		if best == nil || moreRecent(history[i], *best) {
			best = &history[i]
		}
	}
	return *best, true
}

func moreRecent(a, b domain.EvidenceRecord) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.Value.String() < b.Value.String()
}
