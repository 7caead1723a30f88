package ports

import (
	"context"
	"time"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// RegisterInput carries the validated registration payload.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Session is the outcome of a successful login or registration.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *domain.Account
}

// TokenClaims is what a verified token asserts.
type TokenClaims struct {
	AccountID int64
	Role      domain.Role
	ExpiresAt time.Time
}

// TokenIssuer mints signed, time-bounded tokens.
type TokenIssuer interface {
	Issue(accountID int64, role domain.Role) (string, time.Time, error)
}

// TokenVerifier checks signature and expiry. Every failure is domain.ErrInvalidToken.
type TokenVerifier interface {
	Verify(token string) (*TokenClaims, error)
}

// PasswordHasher is a one-way salted hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// LoginRecorder receives successful logins for out-of-band bookkeeping.
type LoginRecorder interface {
	RecordLogin(accountID int64, at time.Time)
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (*Session, error)
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Me(ctx context.Context, accountID int64) (*domain.Account, error)
}

type AccountService interface {
	List(ctx context.Context) ([]*domain.Account, error)
}
