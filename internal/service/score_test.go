package service

import (
	"math"
	"testing"

	"github.com/lorekeep/canon/internal/domain"
)

func TestScorer_EmptyInputsScoreHundred(t *testing.T) {
	scorer := NewContinuityScorer(nil)
	score, summary := scorer.Score(nil, nil)
	if score != 100 {
		t.Errorf("score = %v, want 100 for nothing established yet", score)
	}
	if len(summary) != 0 {
		t.Errorf("summary = %v, want empty", summary)
	}
}

func TestScorer_CategoryBuckets(t *testing.T) {
	scorer := NewContinuityScorer(map[string]string{"Employer": "professional"})
	signals := []domain.DriftSignal{
		{Subject: "Maya", Attribute: "employer", DriftScore: 0.4},
		{Subject: "Maya", Attribute: "location", DriftScore: 0.2},
	}

	_, summary := scorer.Score(signals, nil)
	if got := summary["professional"]; math.Abs(got-0.6) > 1e-9 {
		t.Errorf("professional stability = %v, want 0.6", got)
	}
	// Unmapped attributes land in the default bucket.
	if got := summary[DefaultCategory]; math.Abs(got-0.8) > 1e-9 {
		t.Errorf("%s stability = %v, want 0.8", DefaultCategory, got)
	}
}

func TestScorer_SeverityWeights(t *testing.T) {
	scorer := NewContinuityScorer(nil)
	tests := []struct {
		name      string
		conflicts []domain.ContinuityConflict
		want      float64
	}{
		{
			name:      "one high conflict",
			conflicts: []domain.ContinuityConflict{{Severity: domain.SeverityHigh}},
			// 100 * (0.6 + 0.4*(1 - 4/10))
			want: 84,
		},
		{
			name: "penalty saturates",
			conflicts: []domain.ContinuityConflict{
				{Severity: domain.SeverityHigh}, {Severity: domain.SeverityHigh},
				{Severity: domain.SeverityHigh}, {Severity: domain.SeverityMedium},
			},
			// weights sum to 14, capped at the penalty scale
			want: 60,
		},
		{
			name:      "one low conflict degrades gently",
			conflicts: []domain.ContinuityConflict{{Severity: domain.SeverityLow}},
			want:      96,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _ := scorer.Score(nil, tt.conflicts)
			if math.Abs(score-tt.want) > 1e-9 {
				t.Errorf("score = %v, want %v", score, tt.want)
			}
		})
	}
}

func TestScorer_BoundsHold(t *testing.T) {
	scorer := NewContinuityScorer(nil)
	signals := []domain.DriftSignal{{Attribute: "a", DriftScore: 1}, {Attribute: "b", DriftScore: 1}}
	conflicts := make([]domain.ContinuityConflict, 20)
	for i := range conflicts {
		conflicts[i] = domain.ContinuityConflict{Severity: domain.SeverityHigh}
	}

	score, _ := scorer.Score(signals, conflicts)
	if score < 0 || score > 100 {
		t.Fatalf("score = %v, out of [0,100]", score)
	}
	if score != 0 {
		t.Errorf("score = %v, want 0 at maximum drift and saturated penalty", score)
	}
}
