package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

type stubCommentRepo struct {
	mu       sync.Mutex
	comments map[int64]*domain.Comment
	nextID   int64
}

func newStubCommentRepo() *stubCommentRepo {
	return &stubCommentRepo{comments: make(map[int64]*domain.Comment)}
}

func (r *stubCommentRepo) ListByBlog(_ context.Context, blogID int64) ([]*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Comment
	for _, c := range r.comments {
		if c.BlogID == blogID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *stubCommentRepo) FindByID(_ context.Context, id int64) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.comments[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCommentNotFound
}

func (r *stubCommentRepo) Create(_ context.Context, c *domain.Comment) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	r.comments[c.ID] = c
	return c, nil
}

func (r *stubCommentRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return domain.ErrCommentNotFound
	}
	delete(r.comments, id)
	return nil
}

func newCommentFixture(t *testing.T) (*CommentService, *stubCommentRepo, int64) {
	t.Helper()
	blogs := newStubBlogRepo()
	blog, err := NewBlogService(blogs, zerolog.Nop()).Create(context.Background(),
		ports.CreateBlogInput{Title: "t", Content: "c", AuthorID: 1})
	if err != nil {
		t.Fatalf("seed blog: %v", err)
	}
	comments := newStubCommentRepo()
	return NewCommentService(comments, blogs, zerolog.Nop()), comments, blog.ID
}

func TestCommentService_Create(t *testing.T) {
	svc, _, blogID := newCommentFixture(t)
	author := domain.Principal{AccountID: 5, Role: domain.RoleUser}

	c, err := svc.Create(context.Background(), blogID, author, "  nice post ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Content != "nice post" || c.AuthorID != 5 || c.BlogID != blogID {
		t.Fatalf("unexpected comment: %+v", c)
	}

	if _, err := svc.Create(context.Background(), 999, author, "x"); !errors.Is(err, domain.ErrBlogNotFound) {
		t.Fatalf("expected ErrBlogNotFound, got %v", err)
	}
}

func TestCommentService_Delete(t *testing.T) {
	author := domain.Principal{AccountID: 5, Role: domain.RoleUser}
	other := domain.Principal{AccountID: 6, Role: domain.RoleUser}
	moderator := domain.Principal{AccountID: 7, Role: domain.RoleModerator}
	admin := domain.Principal{AccountID: 8, Role: domain.RoleAdmin}

	tests := []struct {
		name    string
		actor   domain.Principal
		wantErr error
	}{
		{name: "author", actor: author},
		{name: "admin", actor: admin},
		{name: "other user", actor: other, wantErr: domain.ErrForbidden},
		{name: "moderator", actor: moderator, wantErr: domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, blogID := newCommentFixture(t)
			c, err := svc.Create(context.Background(), blogID, author, "hello")
			if err != nil {
				t.Fatalf("seed comment: %v", err)
			}

			err = svc.Delete(context.Background(), c.ID, tt.actor)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Delete: expected %v, got %v", tt.wantErr, err)
			}
			_, findErr := repo.FindByID(context.Background(), c.ID)
			stillThere := findErr == nil
			if stillThere != (tt.wantErr != nil) {
				t.Fatalf("comment presence mismatch after delete: still there = %v", stillThere)
			}
		})
	}
}

func TestCommentService_Delete_NotFound(t *testing.T) {
	svc, _, _ := newCommentFixture(t)
	err := svc.Delete(context.Background(), 404, domain.Principal{AccountID: 1, Role: domain.RoleAdmin})
	if !errors.Is(err, domain.ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got %v", err)
	}
}
