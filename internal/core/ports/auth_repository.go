package ports

import (
	"context"
	"time"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// AccountRepository is the credential store. Username and email lookups are
// case-insensitive; Create reports unique violations as domain.ErrUsernameTaken
// or domain.ErrEmailTaken.
type AccountRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}
