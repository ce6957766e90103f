package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lorekeep/canon/internal/domain"
	"go.uber.org/zap"
)

const (
	// DefaultDisagreementSimilarity is the similarity floor below which two
	// same-segment values count as materially different.
	DefaultDisagreementSimilarity = 0.5
	// DefaultDisagreementConfidence is the minimum confidence both sides of
	// a simultaneous disagreement must carry.
	DefaultDisagreementConfidence = 0.5
	// DefaultPermanentFreshness is the window within which contradicting a
	// freshly asserted permanent fact escalates to high severity.
	DefaultPermanentFreshness = 30 * 24 * time.Hour
)

// ConflictDetector compares evidence against canonical facts and against
// other evidence in the same time segment, emitting typed conflicts.
type ConflictDetector struct {
	width  time.Duration
	logger *zap.Logger
}

func NewConflictDetector(width time.Duration, logger *zap.Logger) (*ConflictDetector, error) {
	if width <= 0 {
		return nil, ErrSegmentWidth
	}
	return &ConflictDetector{width: width, logger: logger}, nil
}

// Detect runs all three conflict classes over the trail. Conflicts are
// recomputed from scratch each invocation; there is no persisted open
// conflict state.
func (c *ConflictDetector) Detect(histories map[domain.FactKey][]domain.EvidenceRecord) []domain.ContinuityConflict {
	var conflicts []domain.ContinuityConflict
	for _, key := range sortedKeys(histories) {
		history := histories[key]
		if conflict := c.contradictsPermanent(history); conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
		conflicts = append(conflicts, c.simultaneousDisagreements(history)...)
		if conflict := c.rapidReversal(history); conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
	}
	return conflicts
}

// contradictsPermanent flags non-permanent evidence newer than the winning
// permanent record whose value differs from it.
func (c *ConflictDetector) contradictsPermanent(history []domain.EvidenceRecord) *domain.ContinuityConflict {
	perm := newestPermanent(history)
	if perm == nil {
		return nil
	}

	severity := domain.SeverityMedium
	var offenders []domain.EvidenceRecord
	for _, rec := range history {
		if rec.Permanent || !rec.Timestamp.After(perm.Timestamp) || rec.Value.Equal(perm.Value) {
			continue
		}
		offenders = append(offenders, rec)
		if rec.Timestamp.Sub(perm.Timestamp) < DefaultPermanentFreshness {
			severity = domain.SeverityHigh
		}
	}
	if len(offenders) == 0 {
		return nil
	}

	evidence := []uuid.UUID{perm.ID}
	for _, rec := range offenders {
		evidence = append(evidence, rec.ID)
	}
	description := fmt.Sprintf("%s %s contradicts permanent value %q (saw %s)",
		perm.Subject, perm.Attribute, perm.Value.String(), distinctValues(offenders))

	conflict := newConflict(domain.ConflictContradictsPermanent, description, severity,
		append([]domain.EvidenceRecord{*perm}, offenders...), evidence)
	return &conflict
}

// simultaneousDisagreements flags confident records in the same segment with
// materially different values.
func (c *ConflictDetector) simultaneousDisagreements(history []domain.EvidenceRecord) []domain.ContinuityConflict {
	var conflicts []domain.ContinuityConflict
	for _, seg := range segmentHistory(history, c.width) {
		var confident []domain.EvidenceRecord
		for _, rec := range seg.records {
			if rec.Confidence >= DefaultDisagreementConfidence {
				confident = append(confident, rec)
			}
		}

		involved := make(map[uuid.UUID]domain.EvidenceRecord)
		for i := 0; i < len(confident); i++ {
			for j := i + 1; j < len(confident); j++ {
				if ValueSimilarity(confident[i].Value, confident[j].Value) < DefaultDisagreementSimilarity {
					involved[confident[i].ID] = confident[i]
					involved[confident[j].ID] = confident[j]
				}
			}
		}
		if len(involved) == 0 {
			continue
		}

		records := make([]domain.EvidenceRecord, 0, len(involved))
		for _, rec := range involved {
			records = append(records, rec)
		}
		sort.Slice(records, func(i, j int) bool { return moreRecent(records[j], records[i]) })

		severity := domain.SeverityMedium
		values := distinctValueSet(records)
		if len(values) >= 3 {
			severity = domain.SeverityHigh
		}

		evidence := make([]uuid.UUID, len(records))
		for i, rec := range records {
			evidence[i] = rec.ID
		}
		description := fmt.Sprintf("%s %s asserted as %s within segment %s",
			records[0].Subject, records[0].Attribute, distinctValues(records), seg.label)
		conflicts = append(conflicts, newConflict(domain.ConflictSimultaneousDisagreement,
			description, severity, records, evidence))
	}
	return conflicts
}

// rapidReversal flags canonical values flipping back and forth across three
// or more consecutive segments: unstable self-reporting rather than genuine
// change.
func (c *ConflictDetector) rapidReversal(history []domain.EvidenceRecord) *domain.ContinuityConflict {
	segments := segmentHistory(history, c.width)
	if len(segments) < 3 {
		return nil
	}
	winners := canonicalPerSegment(segments, DefaultConfidenceBand)
	if len(winners) < 3 {
		return nil
	}

	var involved []domain.EvidenceRecord
	oscillating := make(map[string]bool)
	for i := 0; i+2 < len(winners); i++ {
		a, b, back := winners[i], winners[i+1], winners[i+2]
		if a.Value.Equal(back.Value) && !a.Value.Equal(b.Value) {
			involved = append(involved, a, b, back)
			oscillating[a.Value.String()] = true
			oscillating[b.Value.String()] = true
		}
	}
	if len(involved) == 0 {
		return nil
	}

	severity := domain.SeverityLow
	for _, rec := range history {
		if rec.Permanent && oscillating[rec.Value.String()] {
			severity = domain.SeverityHigh
			break
		}
	}

	seen := make(map[uuid.UUID]bool)
	var records []domain.EvidenceRecord
	var evidence []uuid.UUID
	for _, rec := range involved {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		records = append(records, rec)
		evidence = append(evidence, rec.ID)
	}

	description := fmt.Sprintf("%s %s oscillates between %s across %d segments",
		records[0].Subject, records[0].Attribute, distinctValues(records), len(segments))
	conflict := newConflict(domain.ConflictRapidReversal, description, severity, records, evidence)
	return &conflict
}

func newConflict(kind domain.ConflictType, description string, severity domain.Severity,
	records []domain.EvidenceRecord, evidence []uuid.UUID) domain.ContinuityConflict {
	subjects := make(map[string]bool)
	attributes := make(map[string]bool)
	for _, rec := range records {
		subjects[rec.Subject] = true
		attributes[rec.Attribute] = true
	}
	return domain.ContinuityConflict{
		Type:        kind,
		Description: description,
		Severity:    severity,
		Subjects:    sortedSet(subjects),
		Attributes:  sortedSet(attributes),
		Evidence:    evidence,
	}
}

func newestPermanent(history []domain.EvidenceRecord) *domain.EvidenceRecord {
	var perm *domain.EvidenceRecord
	for i := range history {
		if !history[i].Permanent {
			continue
		}
		if perm == nil || moreRecent(history[i], *perm) {
			perm = &history[i]
		}
	}
	return perm
}

func distinctValueSet(records []domain.EvidenceRecord) map[string]bool {
	values := make(map[string]bool)
	for _, rec := range records {
		values[rec.Value.String()] = true
	}
	return values
}

func distinctValues(records []domain.EvidenceRecord) string {
	values := sortedSet(distinctValueSet(records))
	for i, v := range values {
		values[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(values, ", ")
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
