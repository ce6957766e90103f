package service

import (
	"strings"

	"github.com/lorekeep/canon/internal/domain"
)

const (
	DefaultDriftWeight    = 0.6
	DefaultConflictWeight = 0.4
	// DefaultPenaltyScale caps the conflict penalty: severity weights sum to
	// this before the penalty saturates at 1.
	DefaultPenaltyScale = 10.0
	// DefaultCategory receives drift signals whose attribute has no entry in
	// the category map.
	DefaultCategory = "general"
)

// ContinuityScorer aggregates drift and conflict signals into a single
// 0-100 stability score and a per-category stability summary.
type ContinuityScorer struct {
	categories map[string]string
}

// NewContinuityScorer takes the attribute -> category mapping supplied by
// configuration. Lookup is case-insensitive on the attribute.
func NewContinuityScorer(categories map[string]string) *ContinuityScorer {
	normalized := make(map[string]string, len(categories))
	for attr, category := range categories {
		normalized[strings.ToLower(attr)] = category
	}
	return &ContinuityScorer{categories: normalized}
}

// Score computes the aggregate stability score and the per-category drift
// summary (1 - mean drift, so higher means more stable). With no signals
// and no conflicts the score is 100: nothing established yet counts as
// maximally stable.
func (s *ContinuityScorer) Score(signals []domain.DriftSignal, conflicts []domain.ContinuityConflict) (float64, map[string]float64) {
	summary := make(map[string]float64)
	perCategory := make(map[string][]float64)
	meanDrift := 0.0
	for _, sig := range signals {
		category := s.categories[strings.ToLower(sig.Attribute)]
		if category == "" {
			category = DefaultCategory
		}
		perCategory[category] = append(perCategory[category], sig.DriftScore)
		meanDrift += sig.DriftScore
	}
	if len(signals) > 0 {
		meanDrift /= float64(len(signals))
	}
	for category, scores := range perCategory {
		total := 0.0
		for _, sc := range scores {
			total += sc
		}
		summary[category] = 1 - total/float64(len(scores))
	}

	penalty := 0.0
	for _, conflict := range conflicts {
		penalty += conflict.Severity.Weight()
	}
	penalty = penalty / DefaultPenaltyScale
	if penalty > 1 {
		penalty = 1
	}

	score := 100 * (DefaultDriftWeight*(1-meanDrift) + DefaultConflictWeight*(1-penalty))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, summary
}
