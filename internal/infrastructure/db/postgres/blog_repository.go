package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/folio/portfolio-api/internal/core/domain"
)

const blogSelect = `SELECT b.id, b.title, b.content, b.author_id, a.username, b.created_at, b.updated_at, t.id, t.name
	FROM blogs b
	JOIN accounts a ON a.id = b.author_id
	LEFT JOIN tags t ON t.blog_id = b.id`

// BlogRepository implements ports.BlogRepository.
type BlogRepository struct {
	db *sql.DB
}

func NewBlogRepository(db *sql.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

func (r *BlogRepository) List(ctx context.Context) ([]*domain.Blog, error) {
	return r.query(ctx, blogSelect+` ORDER BY b.created_at DESC, b.id DESC, t.id`)
}

func (r *BlogRepository) FindByID(ctx context.Context, id int64) (*domain.Blog, error) {
	blogs, err := r.query(ctx, blogSelect+` WHERE b.id = $1 ORDER BY t.id`, id)
	if err != nil {
		return nil, err
	}
	if len(blogs) == 0 {
		return nil, domain.ErrBlogNotFound
	}
	return blogs[0], nil
}

// query folds the blog x tag join back into one Blog per id, keeping row order.
func (r *BlogRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Blog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var (
		out  []*domain.Blog
		byID = map[int64]*domain.Blog{}
	)
	for rows.Next() {
		var (
			b       domain.Blog
			tagID   sql.NullInt64
			tagName sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Title, &b.Content, &b.AuthorID, &b.Author.Username,
			&b.CreatedAt, &b.UpdatedAt, &tagID, &tagName); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		blog, seen := byID[b.ID]
		if !seen {
			b.Tags = []domain.Tag{}
			blog = &b
			byID[b.ID] = blog
			out = append(out, blog)
		}
		if tagID.Valid {
			blog.Tags = append(blog.Tags, domain.Tag{ID: tagID.Int64, Name: tagName.String, BlogID: blog.ID})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// Create inserts the post and its tags in one transaction.
func (r *BlogRepository) Create(ctx context.Context, blog *domain.Blog, tags []string) (*domain.Blog, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := *blog
	err = tx.QueryRowContext(ctx,
		`WITH inserted AS (
		     INSERT INTO blogs (title, content, author_id)
		     VALUES ($1, $2, $3)
		     RETURNING id, author_id, created_at, updated_at
		 )
		 SELECT i.id, i.created_at, i.updated_at, a.username
		 FROM inserted i JOIN accounts a ON a.id = i.author_id`,
		blog.Title, blog.Content, blog.AuthorID,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt, &created.Author.Username)
	if err != nil {
		// the author vanished after the guard admitted the request
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUnauthorized
		}
		if pgErr, ok := pgError(err); ok && pgErr.Code == pgForeignKeyViolation {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	created.Tags = make([]domain.Tag, 0, len(tags))
	for _, name := range tags {
		tag := domain.Tag{Name: name, BlogID: created.ID}
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO tags (name, blog_id) VALUES ($1, $2) RETURNING id`, name, created.ID,
		).Scan(&tag.ID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		created.Tags = append(created.Tags, tag)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &created, nil
}
