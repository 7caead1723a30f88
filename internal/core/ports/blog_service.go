package ports

import (
	"context"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// CreateBlogInput is the validated payload for a new post.
type CreateBlogInput struct {
	Title    string
	Content  string
	Tags     []string
	AuthorID int64
}

type BlogService interface {
	List(ctx context.Context) ([]*domain.Blog, error)
	// Get returns (nil, nil) when the post does not exist.
	Get(ctx context.Context, id int64) (*domain.Blog, error)
	Create(ctx context.Context, in CreateBlogInput) (*domain.Blog, error)
}

type CommentService interface {
	List(ctx context.Context, blogID int64) ([]*domain.Comment, error)
	Create(ctx context.Context, blogID int64, author domain.Principal, content string) (*domain.Comment, error)
	Delete(ctx context.Context, commentID int64, actor domain.Principal) error
}
