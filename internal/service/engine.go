package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/lorekeep/canon/internal/domain"
	"go.uber.org/zap"
)

var ErrCategoryMap = errors.New("category map entries must have a non-empty attribute and category")

// EngineConfig carries the time-segmentation and scoring configuration.
// Validated at construction, before any evidence is processed.
type EngineConfig struct {
	SegmentWidth time.Duration
	Categories   map[string]string
}

// ContinuityEngine runs the drift, conflict and scoring passes over one
// user's fact registry. Stateless between invocations; every run is a pure
// function of the registry snapshot it is handed.
type ContinuityEngine struct {
	drift     *DriftDetector
	conflicts *ConflictDetector
	scorer    *ContinuityScorer
	merges    *MergeSuggester
	logger    *zap.Logger
}

func NewContinuityEngine(cfg EngineConfig, logger *zap.Logger) (*ContinuityEngine, error) {
	for attr, category := range cfg.Categories {
		if strings.TrimSpace(attr) == "" || strings.TrimSpace(category) == "" {
			return nil, ErrCategoryMap
		}
	}
	drift, err := NewDriftDetector(cfg.SegmentWidth, logger)
	if err != nil {
		return nil, err
	}
	conflicts, err := NewConflictDetector(cfg.SegmentWidth, logger)
	if err != nil {
		return nil, err
	}
	return &ContinuityEngine{
		drift:     drift,
		conflicts: conflicts,
		scorer:    NewContinuityScorer(cfg.Categories),
		merges:    NewMergeSuggester(logger),
		logger:    logger,
	}, nil
}

// Analyze runs both detectors concurrently over independent read-only views
// of the trail, then joins for scoring. The registry must not receive new
// evidence while the run is in flight; concurrent ingest operates on a
// separate snapshot.
func (e *ContinuityEngine) Analyze(ctx context.Context, registry *FactRegistry) domain.ContinuityState {
	histories := registry.Histories()
	facts := registry.CanonicalFacts()

	var (
		signals   []domain.DriftSignal
		conflicts []domain.ContinuityConflict
		wg        sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		signals = e.drift.Detect(histories)
	}()
	go func() {
		defer wg.Done()
		conflicts = e.conflicts.Detect(histories)
	}()
	wg.Wait()

	score, summary := e.scorer.Score(signals, conflicts)
	e.logger.Debug("continuity analysis complete",
		zap.Int("facts", len(facts)),
		zap.Int("drift_signals", len(signals)),
		zap.Int("conflicts", len(conflicts)),
		zap.Float64("score", score))

	if signals == nil {
		signals = []domain.DriftSignal{}
	}
	if conflicts == nil {
		conflicts = []domain.ContinuityConflict{}
	}
	return domain.ContinuityState{
		Registry:     domain.RegistrySnapshot{Facts: facts},
		DriftSummary: summary,
		DriftSignals: signals,
		Score:        score,
		Conflicts:    conflicts,
	}
}

// Conflicts computes the conflicts-only view.
func (e *ContinuityEngine) Conflicts(ctx context.Context, registry *FactRegistry) []domain.ContinuityConflict {
	return e.conflicts.Detect(registry.Histories())
}

// Merges scans the registry for alias candidates.
func (e *ContinuityEngine) Merges(ctx context.Context, registry *FactRegistry) []domain.MergeSuggestion {
	return e.merges.Suggest(registry.CanonicalFacts())
}
