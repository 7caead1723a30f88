package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/folio/portfolio-api/internal/core/domain"
)

func counterResponse(name string, seq int64) bson.D {
	return bson.D{
		{Key: "ok", Value: 1},
		{Key: "value", Value: bson.D{{Key: "_id", Value: name}, {Key: "seq", Value: seq}}},
	}
}

func TestAccountRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mt.Run("find by username", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "portfolio.accounts", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int64(3)},
			{Key: "username", Value: "alice"},
			{Key: "password_hash", Value: "hash"},
			{Key: "role", Value: "MODERATOR"},
			{Key: "is_active", Value: true},
			{Key: "created_at", Value: created},
			{Key: "updated_at", Value: created},
		}))

		got, err := repo.FindByUsername(context.Background(), "ALICE")
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), got.ID)
		assert.Equal(mt, domain.RoleModerator, got.Role)
		assert.Empty(mt, got.Email)
		assert.Nil(mt, got.LastLogin)
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "portfolio.accounts", mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), 42)
		assert.ErrorIs(mt, err, domain.ErrAccountNotFound)
	})

	mt.Run("create assigns sequence id", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(counterResponse("accounts", 5), mtest.CreateSuccessResponse())

		got, err := repo.Create(context.Background(), &domain.Account{
			Username: "bob", PasswordHash: "hash", Role: domain.RoleUser, IsActive: true,
		})
		require.NoError(mt, err)
		assert.Equal(mt, int64(5), got.ID)
		assert.Equal(mt, "bob", got.Username)
		assert.False(mt, got.CreatedAt.IsZero())
	})

	mt.Run("duplicate username", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(counterResponse("accounts", 6), mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: portfolio.accounts index: accounts_username_ci dup key",
		}))

		_, err := repo.Create(context.Background(), &domain.Account{Username: "Bob", Role: domain.RoleUser})
		assert.ErrorIs(mt, err, domain.ErrUsernameTaken)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(counterResponse("accounts", 7), mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: portfolio.accounts index: accounts_email_ci dup key",
		}))

		_, err := repo.Create(context.Background(), &domain.Account{Username: "carol", Email: "C@x.io", Role: domain.RoleUser})
		assert.ErrorIs(mt, err, domain.ErrEmailTaken)
	})
}

func TestBlogRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewBlogRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "portfolio.blogs", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int64(2)},
			{Key: "title", Value: "Hello"},
			{Key: "content", Value: "<p>hi</p>"},
			{Key: "author_id", Value: int64(1)},
			{Key: "author_username", Value: "admin"},
			{Key: "tags", Value: bson.A{bson.D{{Key: "id", Value: int64(9)}, {Key: "name", Value: "go"}}}},
		}))

		got, err := repo.FindByID(context.Background(), 2)
		require.NoError(mt, err)
		assert.Equal(mt, "admin", got.Author.Username)
		require.Len(mt, got.Tags, 1)
		assert.Equal(mt, domain.Tag{ID: 9, Name: "go", BlogID: 2}, got.Tags[0])
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewBlogRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "portfolio.blogs", mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), 2)
		assert.ErrorIs(mt, err, domain.ErrBlogNotFound)
	})

	mt.Run("create by vanished author", func(mt *mtest.T) {
		repo := NewBlogRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "portfolio.accounts", mtest.FirstBatch))

		_, err := repo.Create(context.Background(), &domain.Blog{Title: "T", Content: "C", AuthorID: 9}, nil)
		assert.ErrorIs(mt, err, domain.ErrUnauthorized)
	})

	mt.Run("create", func(mt *mtest.T) {
		repo := NewBlogRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "portfolio.accounts", mtest.FirstBatch,
				bson.D{{Key: "_id", Value: int64(1)}, {Key: "username", Value: "admin"}}),
			counterResponse("blogs", 11),
			counterResponse("tags", 21),
			counterResponse("tags", 22),
			mtest.CreateSuccessResponse(),
		)

		got, err := repo.Create(context.Background(), &domain.Blog{Title: "T", Content: "C", AuthorID: 1}, []string{"go", "web"})
		require.NoError(mt, err)
		assert.Equal(mt, int64(11), got.ID)
		assert.Equal(mt, "admin", got.Author.Username)
		require.Len(mt, got.Tags, 2)
		assert.Equal(mt, int64(22), got.Tags[1].ID)
	})
}

func TestCommentRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create on missing blog", func(mt *mtest.T) {
		repo := NewCommentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "portfolio.blogs", mtest.FirstBatch))

		_, err := repo.Create(context.Background(), &domain.Comment{Content: "hi", BlogID: 99, AuthorID: 1})
		assert.ErrorIs(mt, err, domain.ErrBlogNotFound)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		repo := NewCommentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.Delete(context.Background(), 5)
		assert.ErrorIs(mt, err, domain.ErrCommentNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewCommentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.Delete(context.Background(), 5))
	})
}
