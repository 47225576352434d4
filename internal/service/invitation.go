package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/projecthub-service/internal/mail"
	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/repository"
)

// InvitationTTL is how long an invitation link stays usable.
const InvitationTTL = 24 * time.Hour

const invitationTokenBytes = 32

type invitationService struct {
	invitations repository.InvitationRepository
	companies   repository.CompanyRepository
	mailer      mail.Mailer
	frontendURL string
	now         func() time.Time
	newToken    func() (string, error)
	log         zerolog.Logger
}

func NewInvitationService(invitations repository.InvitationRepository, companies repository.CompanyRepository,
	mailer mail.Mailer, frontendURL string, logger zerolog.Logger) InvitationService {
	l := logger.With().Str("module", "service").Str("component", "invitation").Logger()
	return &invitationService{
		invitations: invitations,
		companies:   companies,
		mailer:      mailer,
		frontendURL: frontendURL,
		now:         time.Now,
		newToken:    randomToken,
		log:         l,
	}
}

func randomToken() (string, error) {
	b := make([]byte, invitationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Send stores a 24h invitation for the caller's company and mails the link. The
// invitation is kept when mailing fails so it can be resent.
func (s *invitationService) Send(ctx context.Context, p Principal, in SendInvitationInput) (SentInvitation, error) {
	if p.CompanyID <= 0 {
		return SentInvitation{}, notFound("User does not belong to a company or company id is not found", nil)
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	if err := validateStruct(in); err != nil {
		return SentInvitation{}, err
	}
	if in.Role == "" {
		in.Role = model.RoleMember
	}

	company, err := s.companies.GetByID(ctx, p.CompanyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SentInvitation{}, notFound("User does not belong to a company or company id is not found", err)
		}
		return SentInvitation{}, err
	}
	token, err := s.newToken()
	if err != nil {
		return SentInvitation{}, err
	}
	inv, err := s.invitations.Create(ctx, model.Invitation{
		CompanyID: company.ID,
		Email:     in.Email,
		Role:      in.Role,
		Token:     token,
		ExpiresAt: s.now().Add(InvitationTTL),
	})
	if err != nil {
		s.log.Error().Err(err).Int64("company_id", company.ID).Msg("create invitation failed")
		return SentInvitation{}, err
	}

	if err := s.mailer.Send(ctx, mail.InvitationMessage(inv.Email, company.Name, s.frontendURL, token)); err != nil {
		s.log.Error().Err(err).Int64("invitation_id", inv.ID).Msg("send invitation mail failed")
		return SentInvitation{}, badRequest("Invitation saved but the email could not be sent")
	}
	s.log.Info().Int64("invitation_id", inv.ID).Int64("company_id", company.ID).Msg("invitation sent")
	return SentInvitation{Email: inv.Email, Status: inv.Status, Company: company}, nil
}

// Verify returns the invitation behind token when it is still pending and unexpired.
// It does not consume it: the invited person's registration does.
func (s *invitationService) Verify(ctx context.Context, token string) (model.Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Invitation{}, notFound("please provide Invitation token", nil)
	}
	inv, err := s.invitations.GetPendingByToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Invitation{}, notFound("Invitation not found or expired", err)
		}
		return model.Invitation{}, err
	}
	return inv, nil
}
