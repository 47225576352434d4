package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"

	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/repository"
)

// companyService holds company use-case logic: validation + orchestration, no transport / SQL details.
type companyService struct {
	repo repository.CompanyRepository
	log  zerolog.Logger
}

func NewCompanyService(repo repository.CompanyRepository, logger zerolog.Logger) CompanyService {
	l := logger.With().Str("module", "service").Str("component", "company").Logger()
	return &companyService{repo: repo, log: l}
}

func (s *companyService) Create(ctx context.Context, in CreateCompanyInput) (model.Company, error) {
	start := time.Now()
	in.Name = strings.TrimSpace(in.Name)
	in.OwnerName = strings.TrimSpace(in.OwnerName)
	if err := validateStruct(in); err != nil {
		s.log.Debug().Str("name", in.Name).Interface("field_errors", FieldErrors(err)).Msg("company validation failed")
		return model.Company{}, err
	}

	bio := null.NewString(strings.TrimSpace(in.Bio), strings.TrimSpace(in.Bio) != "")
	out, err := s.repo.Create(ctx, model.Company{Name: in.Name, OwnerName: in.OwnerName, Bio: bio})
	if err != nil {
		// repository errors are already domain errors
		s.log.Error().Err(err).Str("name", in.Name).Msg("create company failed")
		return model.Company{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("company_id", out.ID).Msg("company created")
	return out, nil
}

func (s *companyService) List(ctx context.Context) ([]model.Company, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list companies failed")
		return nil, err
	}
	return out, nil
}

func (s *companyService) Info(ctx context.Context, p Principal) (model.Company, error) {
	if p.CompanyID <= 0 {
		return model.Company{}, ErrUnauthenticated
	}
	return s.repo.GetByID(ctx, p.CompanyID)
}

func (s *companyService) Delete(ctx context.Context, rawID string) (model.Company, error) {
	id, ok := parseID(rawID)
	if !ok {
		return model.Company{}, newInvalidInput([]FieldError{{Field: "companyId", Message: "must be > 0"}})
	}
	out, err := s.repo.Delete(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Error().Err(err).Int64("company_id", id).Msg("delete company failed")
		}
		return model.Company{}, err
	}
	s.log.Info().Int64("company_id", id).Msg("company deleted")
	return out, nil
}
