package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lorekeep/canon/internal/domain"
	"go.uber.org/zap"
)

// ContinuityService loads one user's evidence trail, builds a fresh registry
// snapshot and runs the engine over it. All I/O happens here; the engine
// itself never blocks.
type ContinuityService struct {
	store  domain.EvidenceStore
	engine *ContinuityEngine
	logger *zap.Logger
}

func NewContinuityService(store domain.EvidenceStore, engine *ContinuityEngine, logger *zap.Logger) *ContinuityService {
	return &ContinuityService{store: store, engine: engine, logger: logger}
}

// Ingest validates and appends one evidence record to the trail. Returns
// false when the record was an exact duplicate.
func (s *ContinuityService) Ingest(ctx context.Context, rec *domain.EvidenceRecord) (bool, error) {
	if err := ValidateEvidence(*rec); err != nil {
		return false, err
	}
	stored, err := s.store.Append(ctx, rec)
	if err != nil {
		return false, err
	}
	if !stored {
		s.logger.Debug("duplicate evidence ignored",
			zap.String("subject", rec.Subject),
			zap.String("attribute", rec.Attribute))
	}
	return stored, nil
}

// History returns the user's ordered trail, optionally filtered to one fact
// slot.
func (s *ContinuityService) History(ctx context.Context, userID uuid.UUID, subject, attribute string) ([]domain.EvidenceRecord, error) {
	records, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if subject == "" && attribute == "" {
		return records, nil
	}
	key := domain.KeyOf(subject, attribute)
	var out []domain.EvidenceRecord
	for _, rec := range records {
		recKey := rec.Key()
		if subject != "" && recKey.Subject != key.Subject {
			continue
		}
		if attribute != "" && recKey.Attribute != key.Attribute {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// State rebuilds the registry from the persisted trail and runs the full
// analysis pipeline.
func (s *ContinuityService) State(ctx context.Context, userID uuid.UUID) (domain.ContinuityState, error) {
	registry, err := s.snapshot(ctx, userID)
	if err != nil {
		return domain.ContinuityState{}, err
	}
	return s.engine.Analyze(ctx, registry), nil
}

// Conflicts returns the conflicts-only view.
func (s *ContinuityService) Conflicts(ctx context.Context, userID uuid.UUID) ([]domain.ContinuityConflict, error) {
	registry, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.engine.Conflicts(ctx, registry), nil
}

// Merges returns advisory alias suggestions.
func (s *ContinuityService) Merges(ctx context.Context, userID uuid.UUID) ([]domain.MergeSuggestion, error) {
	registry, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.engine.Merges(ctx, registry), nil
}

// Report renders the human-readable continuity rollup.
func (s *ContinuityService) Report(ctx context.Context, userID uuid.UUID) (string, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return "", err
	}
	return RenderReport(state), nil
}

func (s *ContinuityService) snapshot(ctx context.Context, userID uuid.UUID) (*FactRegistry, error) {
	records, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildRegistry(records, s.logger)
}
