package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lorekeep/canon/internal/domain"
	"go.uber.org/zap"
)

var ErrSegmentWidth = errors.New("segment width must be positive")

// DriftDetector measures how much the canonical value of each fact slot has
// moved across consecutive time segments.
type DriftDetector struct {
	width  time.Duration
	logger *zap.Logger
}

func NewDriftDetector(width time.Duration, logger *zap.Logger) (*DriftDetector, error) {
	if width <= 0 {
		return nil, ErrSegmentWidth
	}
	return &DriftDetector{width: width, logger: logger}, nil
}

// Detect computes one DriftSignal per fact slot with at least two segments
// of history. Slots with fewer segments yield no signal; that is a normal
// empty result, not a failure.
func (d *DriftDetector) Detect(histories map[domain.FactKey][]domain.EvidenceRecord) []domain.DriftSignal {
	var signals []domain.DriftSignal
	for _, key := range sortedKeys(histories) {
		history := histories[key]
		segments := segmentHistory(history, d.width)
		if len(segments) < 2 {
			continue
		}
		winners := canonicalPerSegment(segments, DefaultConfidenceBand)
		if len(winners) < 2 {
			continue
		}

		labels := make([]string, len(segments))
		for i, seg := range segments {
			labels[i] = seg.label
		}

		score := driftScore(winners)
		signals = append(signals, domain.DriftSignal{
			Subject:    winners[len(winners)-1].Subject,
			Attribute:  winners[len(winners)-1].Attribute,
			DriftScore: score,
			Segments:   labels,
			Notes:      driftNotes(winners[0].Value, winners[len(winners)-1].Value, len(segments), score),
		})
	}
	return signals
}

// driftScore is the mean drift contribution over consecutive segment pairs,
// clamped to [0,1]. Numeric pairs contribute |delta| normalized by the value
// range observed across all segments; everything else contributes
// 1 - token-overlap similarity.
func driftScore(winners []domain.EvidenceRecord) float64 {
	scale := numericScale(winners)
	total := 0.0
	pairs := 0
	for i := 1; i < len(winners); i++ {
		a, b := winners[i-1].Value, winners[i].Value
		total += driftContribution(a, b, scale)
		pairs++
	}
	if pairs == 0 {
		return 0
	}
	return clamp01(total / float64(pairs))
}

func driftContribution(a, b domain.Value, scale float64) float64 {
	if na, ok := a.Numeric(); ok {
		if nb, ok := b.Numeric(); ok {
			return clamp01(math.Abs(nb-na) / scale)
		}
	}
	return clamp01(1 - ValueSimilarity(a, b))
}

// numericScale is the observed numeric value range across segments, or 1
// when degenerate.
func numericScale(winners []domain.EvidenceRecord) float64 {
	min, max := math.Inf(1), math.Inf(-1)
	seen := false
	for _, w := range winners {
		if n, ok := w.Value.Numeric(); ok {
			seen = true
			min = math.Min(min, n)
			max = math.Max(max, n)
		}
	}
	if !seen || max-min == 0 {
		return 1
	}
	return max - min
}

// driftNotes names the earliest and latest observed values and the direction
// of change.
func driftNotes(first, last domain.Value, segments int, score float64) string {
	if score == 0 {
		return fmt.Sprintf("stable at %q across %d segments", first.String(), segments)
	}
	verb := "shifted"
	if nf, ok := first.Numeric(); ok {
		if nl, ok := last.Numeric(); ok {
			switch {
			case nl > nf:
				verb = "rose"
			case nl < nf:
				verb = "fell"
			}
		}
	}
	return fmt.Sprintf("%s from %q to %q across %d segments", verb, first.String(), last.String(), segments)
}
