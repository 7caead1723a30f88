package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/folio/portfolio-api/internal/core/domain"
)

const accountColumns = `id, username, email, password_hash, first_name, last_name, role, is_active, last_login, created_at, updated_at`

// AccountRepository implements ports.AccountRepository. Username and email
// lookups compare lower-cased values, matching the unique indexes.
type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a         domain.Account
		email     sql.NullString
		role      string
		lastLogin sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Username, &email, &a.PasswordHash, &a.FirstName, &a.LastName,
		&role, &a.IsActive, &lastLogin, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Email = email.String
	a.Role = domain.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLogin = &t
	}
	return &a, nil
}

func (r *AccountRepository) findOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(username) = lower($1)`, username)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email)
}

// Create inserts the account. Unique index violations become
// domain.ErrUsernameTaken or domain.ErrEmailTaken.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	query :=
		`INSERT INTO accounts (username, email, password_hash, first_name, last_name, role, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`

	created := *account
	err := r.db.QueryRowContext(ctx, query,
		account.Username, nullString(account.Email), account.PasswordHash,
		account.FirstName, account.LastName, string(account.Role), account.IsActive,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if pgErr, ok := pgError(err); ok && pgErr.Code == pgUniqueViolation {
			switch pgErr.ConstraintName {
			case "accounts_email_lower_key":
				return nil, domain.ErrEmailTaken
			default:
				return nil, domain.ErrUsernameTaken
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &created, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *AccountRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE accounts SET last_login = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
