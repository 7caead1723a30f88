package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

type CommentService struct {
	comments ports.CommentRepository
	blogs    ports.BlogRepository
	logger   zerolog.Logger
}

func NewCommentService(comments ports.CommentRepository, blogs ports.BlogRepository, logger zerolog.Logger) *CommentService {
	return &CommentService{comments: comments, blogs: blogs, logger: logger}
}

func (s *CommentService) List(ctx context.Context, blogID int64) ([]*domain.Comment, error) {
	return s.comments.ListByBlog(ctx, blogID)
}

// Create attaches a comment by author to an existing post.
func (s *CommentService) Create(ctx context.Context, blogID int64, author domain.Principal, content string) (*domain.Comment, error) {
	if _, err := s.blogs.FindByID(ctx, blogID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.comments.Create(ctx, &domain.Comment{
		Content:   strings.TrimSpace(content),
		BlogID:    blogID,
		AuthorID:  author.AccountID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.logger.Info().Int64("comment_id", created.ID).Int64("blog_id", blogID).Msg("comment created")
	return created, nil
}

// Delete removes a comment when actor is its author or an admin.
func (s *CommentService) Delete(ctx context.Context, commentID int64, actor domain.Principal) error {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if !comment.CanBeDeletedBy(actor) {
		return domain.ErrForbidden
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	s.logger.Info().
		Int64("comment_id", commentID).
		Int64("actor_id", actor.AccountID).
		Str("actor_role", string(actor.Role)).
		Msg("comment deleted")
	return nil
}
