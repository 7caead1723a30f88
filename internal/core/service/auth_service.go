package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

// AuthService implements login, registration and current-account lookup.
type AuthService struct {
	repo     ports.AccountRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	recorder ports.LoginRecorder
	logger   zerolog.Logger
	now      func() time.Time

	// compared against when the username is unknown so both failure paths
	// pay for one bcrypt comparison
	dummyDigest string
}

// NewAuthService wires the auth flow. recorder may be nil.
func NewAuthService(
	repo ports.AccountRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	recorder ports.LoginRecorder,
	logger zerolog.Logger,
) *AuthService {
	dummy, err := hasher.Hash("x-unknown-account-x")
	if err != nil {
		logger.Warn().Err(err).Msg("could not prepare dummy password digest")
	}
	return &AuthService{
		repo:        repo,
		hasher:      hasher,
		tokens:      tokens,
		recorder:    recorder,
		logger:      logger,
		now:         time.Now,
		dummyDigest: dummy,
	}
}

// Login verifies credentials and issues a session token. An unknown username,
// a wrong password and an inactive account all yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.hasher.Verify(password, s.dummyDigest)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) || !account.IsActive {
		return nil, domain.ErrInvalidCredentials
	}

	session, err := s.issue(account)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordLogin(account.ID, s.now().UTC())
	}

	s.logger.Info().Int64("account_id", account.ID).Msg("login succeeded")
	return session, nil
}

// Register creates an ordinary account and signs it in.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	if err := s.ensureFree(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.Account{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// a concurrent registration can still lose the race at the unique index
		if errors.Is(err, domain.ErrUsernameTaken) || errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	session, err := s.issue(created)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.Info().Int64("account_id", created.ID).Msg("account registered")
	return session, nil
}

// Me resolves the live account behind a verified token.
func (s *AuthService) Me(ctx context.Context, accountID int64) (*domain.Account, error) {
	return s.repo.FindByID(ctx, accountID)
}

// EnsureAdmin creates an administrator named username unless an account with
// that name already exists. Existing accounts are left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return errors.New("ensure admin: username and password are required")
	}

	_, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		s.logger.Info().Str("username", username).Msg("admin account already exists")
		return nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("ensure admin: hash password: %w", err)
	}

	now := s.now().UTC()
	if _, err := s.repo.Create(ctx, &domain.Account{
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	s.logger.Info().Str("username", username).Msg("admin account created")
	return nil
}

func (s *AuthService) ensureFree(ctx context.Context, username, email string) error {
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return fmt.Errorf("register: %w", err)
	}

	if email == "" {
		return nil
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

func (s *AuthService) issue(account *domain.Account) (*ports.Session, error) {
	token, expiresAt, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, err
	}
	return &ports.Session{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}
