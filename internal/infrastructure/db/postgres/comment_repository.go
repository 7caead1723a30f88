package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/folio/portfolio-api/internal/core/domain"
)

const commentSelect = `SELECT c.id, c.content, c.blog_id, c.author_id, a.username, c.created_at, c.updated_at
	FROM comments c
	JOIN accounts a ON a.id = c.author_id`

// CommentRepository implements ports.CommentRepository.
type CommentRepository struct {
	db DBTX
}

func NewCommentRepository(db DBTX) *CommentRepository {
	return &CommentRepository{db: db}
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	var c domain.Comment
	if err := row.Scan(&c.ID, &c.Content, &c.BlogID, &c.AuthorID, &c.Author.Username, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepository) ListByBlog(ctx context.Context, blogID int64) ([]*domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, commentSelect+` WHERE c.blog_id = $1 ORDER BY c.created_at, c.id`, blogID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id int64) (*domain.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	query :=
		`WITH inserted AS (
		     INSERT INTO comments (content, blog_id, author_id)
		     VALUES ($1, $2, $3)
		     RETURNING id, author_id, created_at, updated_at
		 )
		 SELECT i.id, i.created_at, i.updated_at, a.username
		 FROM inserted i JOIN accounts a ON a.id = i.author_id`

	created := *comment
	err := r.db.QueryRowContext(ctx, query, comment.Content, comment.BlogID, comment.AuthorID).
		Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt, &created.Author.Username)
	if err != nil {
		if pgErr, ok := pgError(err); ok && pgErr.Code == pgForeignKeyViolation {
			return nil, domain.ErrBlogNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &created, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}
