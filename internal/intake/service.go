package intake

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/safereport/backend/internal/lifecycle"
	"github.com/safereport/backend/internal/models"
)

// Submitter turns a completed draft into a persisted report.
type Submitter interface {
	CreateReport(ctx context.Context, draft models.Draft, actor lifecycle.ActorContext) (models.Report, error)
}

// Service exposes the wizard over stored drafts.
type Service struct {
	Orchestrator Orchestrator
	Drafts       *DraftStore
	Submitter    Submitter
	Logger       zerolog.Logger
}

func (s *Service) StartDraft(sector models.SectorID) (models.Draft, error) {
	d, err := s.Orchestrator.Start(sector)
	if err != nil {
		return models.Draft{}, err
	}
	d = s.Drafts.Put(d)
	s.Logger.Debug().Str("draft_id", d.ID).Str("sector", string(d.Sector)).Msg("draft started")
	return d, nil
}

func (s *Service) Get(id string) (models.Draft, error) {
	return s.Drafts.Get(id)
}

func (s *Service) AdvanceStep(id string, p StepPayload) (models.Draft, error) {
	d, err := s.Drafts.Get(id)
	if err != nil {
		return models.Draft{}, err
	}
	next, err := s.Orchestrator.Advance(d, p)
	if err != nil {
		return d, err
	}
	return s.Drafts.Put(next), nil
}

func (s *Service) Back(id string) (models.Draft, error) {
	d, err := s.Drafts.Get(id)
	if err != nil {
		return models.Draft{}, err
	}
	prev, err := s.Orchestrator.Back(d)
	if err != nil {
		return d, err
	}
	return s.Drafts.Put(prev), nil
}

func (s *Service) Abandon(id string) error {
	if !s.Drafts.Delete(id) {
		return ErrDraftNotFound
	}
	return nil
}

// SubmitReport claims the draft and hands it to the lifecycle manager. The
// draft is put back when the report cannot be created, so the reporter can
// fix it and retry.
func (s *Service) SubmitReport(ctx context.Context, id string, actor lifecycle.ActorContext) (models.Report, error) {
	d, err := s.Drafts.Take(id)
	if err != nil {
		return models.Report{}, err
	}
	r, err := s.Submitter.CreateReport(ctx, d, actor)
	if err != nil {
		s.Drafts.Put(d)
		return models.Report{}, err
	}
	s.Logger.Info().Str("draft_id", id).Str("case_id", r.CaseID).Msg("draft submitted")
	return r, nil
}
