package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/projecthub-service/internal/auth"
	"github.com/maxviazov/projecthub-service/internal/listing"
	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/repository"
	"github.com/maxviazov/projecthub-service/internal/session"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

// UserDeps are the collaborators of the user service.
type UserDeps struct {
	Users       repository.UserRepository
	Invitations repository.InvitationRepository
	Tx          repository.TxManager
	Tokens      *auth.Tokens
	Revoker     session.Revoker
	Listings    Listings
}

type userService struct {
	users       repository.UserRepository
	invitations repository.InvitationRepository
	tx          repository.TxManager
	tokens      *auth.Tokens
	revoker     session.Revoker
	listings    Listings
	now         func() time.Time
	log         zerolog.Logger
}

func NewUserService(deps UserDeps, logger zerolog.Logger) UserService {
	l := logger.With().Str("module", "service").Str("component", "user").Logger()
	revoker := deps.Revoker
	if revoker == nil {
		revoker = session.NoopRevoker{}
	}
	return &userService{
		users:       deps.Users,
		invitations: deps.Invitations,
		tx:          deps.Tx,
		tokens:      deps.Tokens,
		revoker:     revoker,
		listings:    deps.Listings,
		now:         time.Now,
		log:         l,
	}
}

func (s *userService) Authenticate(ctx context.Context, rawToken string) (Principal, error) {
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		// revocation store is down: refuse rather than accept a possibly logged-out token
		s.log.Error().Err(err).Msg("revocation check failed")
		return Principal{}, ErrUnauthenticated
	}
	if revoked {
		return Principal{}, ErrUnauthenticated
	}
	p := Principal{UserID: claims.UserID, CompanyID: claims.CompanyID, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		s.log.Error().Err(err).Msg("login lookup failed")
		return Session{}, err
	}
	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", u.ID).Msg("password check failed")
		return Session{}, ErrInvalidCredentials
	}
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	if u.CompanyID <= 0 {
		return Session{}, badRequest("User is not associated with a company")
	}
	u.PasswordHash = ""
	return s.issue(u)
}

func (s *userService) issue(u model.User) (Session, error) {
	token, exp, err := s.tokens.Issue(u.ID, u.CompanyID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// Logout revokes the token until its natural expiry. Unparseable tokens are ignored:
// clearing the cookie is all that is left to do.
func (s *userService) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.tokens.Parse(rawToken)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("revoke token failed")
		return err
	}
	s.log.Info().Int64("user_id", claims.UserID).Msg("user logged out")
	return nil
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if in.Role != model.RoleAdmin {
		return Session{}, badRequest("Admin user must be created in the company's initial setup.")
	}
	if in.CompanyID <= 0 {
		return Session{}, badRequest("Company ID is required to create a user.")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return Session{}, err
	}
	u, err := s.createUser(ctx, model.User{
		CompanyID: in.CompanyID,
		Name:      in.Name,
		Email:     in.Email,
		Role:      model.RoleAdmin,
		Skills:    in.Skills,
	}, in.Password)
	if err != nil {
		return Session{}, err
	}
	return s.issue(u)
}

// RegisterInvited creates the account of an invited person in the inviting company and
// consumes the invitation in the same transaction.
func (s *userService) RegisterInvited(ctx context.Context, in InvitedRegistration) (Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Token = strings.TrimSpace(in.Token)
	if err := validateStruct(in); err != nil {
		return Session{}, err
	}

	var created model.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.invitations.GetPendingByToken(ctx, in.Token, s.now())
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFound("Invitation not found or expired", err)
			}
			return err
		}
		role := inv.Role
		if !isValidRole(role) {
			role = model.RoleMember
		}
		created, err = s.createUser(ctx, model.User{
			CompanyID: inv.CompanyID,
			Name:      in.Name,
			Email:     strings.ToLower(inv.Email),
			Role:      role,
			Skills:    in.Skills,
		}, in.Password)
		if err != nil {
			return err
		}
		return s.invitations.MarkAccepted(ctx, inv.ID)
	})
	if err != nil {
		return Session{}, err
	}
	return s.issue(created)
}

func (s *userService) createUser(ctx context.Context, u model.User, password string) (model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.User{}, err
	}
	u.PasswordHash = hash
	if u.Skills == nil {
		u.Skills = []string{}
	}
	out, err := s.users.Create(ctx, u)
	if err != nil {
		s.log.Error().Err(err).Int64("company_id", u.CompanyID).Msg("create user failed")
		return model.User{}, err
	}
	s.log.Info().Int64("user_id", out.ID).Int64("company_id", out.CompanyID).Str("role", out.Role).Msg("user created")
	return out, nil
}

// CheckToken reports whether the cookie token is valid and its user still exists.
func (s *userService) CheckToken(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return unauthorized("No token provided expect string but got undefined")
	}
	p, err := s.Authenticate(ctx, rawToken)
	if err != nil {
		return unauthorized("")
	}
	if _, err := s.users.GetInCompany(ctx, p.CompanyID, p.UserID); err != nil {
		return err
	}
	return nil
}

func (s *userService) Me(ctx context.Context, p Principal) (model.User, error) {
	return s.users.GetByID(ctx, p.UserID)
}

func (s *userService) Create(ctx context.Context, p Principal, in CreateUserInput) (model.User, error) {
	if p.CompanyID <= 0 {
		return model.User{}, &Error{Kind: response.KindNotAuthenticated, Details: "please provide company ID"}
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	if err := validateStruct(in); err != nil {
		return model.User{}, err
	}
	if in.Role == "" {
		in.Role = model.RoleMember
	}
	return s.createUser(ctx, model.User{
		CompanyID: p.CompanyID,
		Name:      in.Name,
		Email:     in.Email,
		Role:      in.Role,
		Skills:    in.Skills,
	}, in.Password)
}

func (s *userService) Get(ctx context.Context, p Principal, rawID string) (model.User, error) {
	id, ok := parseID(rawID)
	if !ok {
		return model.User{}, newInvalidInput([]FieldError{{Field: "userId", Message: "must be > 0"}})
	}
	return s.users.GetInCompany(ctx, p.CompanyID, id)
}

func (s *userService) Update(ctx context.Context, p Principal, rawID string, patch model.UserPatch) (model.User, error) {
	id, ok := parseID(rawID)
	if !ok {
		return model.User{}, newInvalidInput([]FieldError{{Field: "userId", Message: "must be > 0"}})
	}
	patch.Name = trimPtr(patch.Name)
	patch.Email = trimPtr(patch.Email)
	var ferrs []FieldError
	if patch.Name != nil && *patch.Name == "" {
		ferrs = append(ferrs, FieldError{Field: "name", Message: "must not be empty"})
	}
	if patch.Email != nil {
		lower := strings.ToLower(*patch.Email)
		patch.Email = &lower
		if err := validate.Var(lower, "required,email"); err != nil {
			ferrs = append(ferrs, FieldError{Field: "email", Message: "must be a valid email"})
		}
	}
	if patch.Role != nil && !isValidRole(*patch.Role) {
		ferrs = append(ferrs, FieldError{Field: "role", Message: "must be one of ADMIN, MANAGER, MEMBER"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return model.User{}, err
	}
	out, err := s.users.Update(ctx, p.CompanyID, id, patch)
	if err != nil {
		return model.User{}, err
	}
	s.log.Info().Int64("user_id", id).Int64("by", p.UserID).Msg("user updated")
	return out, nil
}

func (s *userService) Delete(ctx context.Context, p Principal, rawID string) (model.User, error) {
	id, ok := parseID(rawID)
	if !ok {
		return model.User{}, newInvalidInput([]FieldError{{Field: "userId", Message: "must be > 0"}})
	}
	out, err := s.users.Delete(ctx, p.CompanyID, id)
	if err != nil {
		return model.User{}, err
	}
	s.log.Info().Int64("user_id", id).Int64("by", p.UserID).Msg("user deleted")
	return out, nil
}

// List pages through the caller's company users, optionally narrowed by a name search.
func (s *userService) List(ctx context.Context, p Principal, params PageParams, query string) response.Paginated[model.User] {
	req := newListingRequest("users", params, usersPageLimit, userSorting)
	req.Scope = []listing.Criterion{companyScope(p)}
	req.Filters = []listing.Criterion{listing.Search(repository.FieldName, query)}
	return runListing[model.User](withLogger(ctx, s.log), s.listings, s.users, req)
}
