package service

import (
	"context"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

// MaxInlineImageBytes caps each base64 image embedded in post content.
const MaxInlineImageBytes = 5 * 1024 * 1024

var inlineImage = regexp.MustCompile(`<img[^>]+src="data:image/[^;]+;base64,([^"]+)"`)

type BlogService struct {
	repo   ports.BlogRepository
	logger zerolog.Logger
}

func NewBlogService(repo ports.BlogRepository, logger zerolog.Logger) *BlogService {
	return &BlogService{repo: repo, logger: logger}
}

func (s *BlogService) List(ctx context.Context) ([]*domain.Blog, error) {
	return s.repo.List(ctx)
}

// Get returns (nil, nil) for a missing post.
func (s *BlogService) Get(ctx context.Context, id int64) (*domain.Blog, error) {
	blog, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, domain.ErrBlogNotFound) {
		return nil, nil
	}
	return blog, err
}

// Create stores the post as submitted. Markup is not sanitized here; rendering
// clients are responsible for it.
func (s *BlogService) Create(ctx context.Context, in ports.CreateBlogInput) (*domain.Blog, error) {
	if err := checkInlineImages(in.Content); err != nil {
		return nil, err
	}

	blog, err := s.repo.Create(ctx, &domain.Blog{
		Title:    strings.TrimSpace(in.Title),
		Content:  in.Content,
		AuthorID: in.AuthorID,
	}, normalizeTags(in.Tags))
	if err != nil {
		s.logger.Error().Err(err).Int64("author_id", in.AuthorID).Msg("failed to create blog")
		return nil, err
	}

	s.logger.Info().Int64("blog_id", blog.ID).Int64("author_id", in.AuthorID).Msg("blog created")
	return blog, nil
}

func checkInlineImages(content string) error {
	for _, m := range inlineImage.FindAllStringSubmatch(content, -1) {
		if decodedSize(m[1]) > MaxInlineImageBytes {
			return domain.ErrImageTooLarge
		}
	}
	return nil
}

func decodedSize(b64 string) int {
	padding := len(b64) - len(strings.TrimRight(b64, "="))
	return base64.StdEncoding.DecodedLen(len(b64)) - padding
}

// normalizeTags trims names, drops empties and removes case-insensitive duplicates
// keeping the first spelling.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		name := strings.TrimSpace(t)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}
