package ports

import (
	"context"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// BlogRepository persists blog posts and their tags.
type BlogRepository interface {
	// List returns every post newest first, with author and tags populated.
	List(ctx context.Context) ([]*domain.Blog, error)
	FindByID(ctx context.Context, id int64) (*domain.Blog, error)
	// Create inserts the post and one tag row per name in tags.
	Create(ctx context.Context, blog *domain.Blog, tags []string) (*domain.Blog, error)
}

// CommentRepository persists comments.
type CommentRepository interface {
	// ListByBlog returns the comments of a post oldest first.
	ListByBlog(ctx context.Context, blogID int64) ([]*domain.Comment, error)
	FindByID(ctx context.Context, id int64) (*domain.Comment, error)
	Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	Delete(ctx context.Context, id int64) error
}
