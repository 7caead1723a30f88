package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// CommentRepository implements ports.CommentRepository.
type CommentRepository struct {
	coll     *mongo.Collection
	blogs    *mongo.Collection
	accounts *AccountRepository
	ids      sequence
}

func NewCommentRepository(db *mongo.Database) *CommentRepository {
	return &CommentRepository{
		coll:     db.Collection(commentsCollection),
		blogs:    db.Collection(blogsCollection),
		accounts: NewAccountRepository(db),
		ids:      newSequence(db),
	}
}

type commentDoc struct {
	ID             int64     `bson:"_id"`
	Content        string    `bson:"content"`
	BlogID         int64     `bson:"blog_id"`
	AuthorID       int64     `bson:"author_id"`
	AuthorUsername string    `bson:"author_username"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func (d commentDoc) toDomain() *domain.Comment {
	return &domain.Comment{
		ID:        d.ID,
		Content:   d.Content,
		BlogID:    d.BlogID,
		AuthorID:  d.AuthorID,
		Author:    domain.AuthorRef{Username: d.AuthorUsername},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (r *CommentRepository) ListByBlog(ctx context.Context, blogID int64) ([]*domain.Comment, error) {
	cur, err := r.coll.Find(ctx, bson.M{"blog_id": blogID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}

	out := make([]*domain.Comment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id int64) (*domain.Comment, error) {
	var doc commentDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return doc.toDomain(), nil
}

// Create has no foreign keys to lean on, so the post is checked first.
func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	n, err := r.blogs.CountDocuments(ctx, bson.M{"_id": comment.BlogID}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("check blog: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrBlogNotFound
	}

	author, err := r.accounts.username(ctx, comment.AuthorID)
	if err != nil {
		return nil, err
	}
	id, err := r.ids.next(ctx, commentsCollection)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := commentDoc{
		ID:             id,
		Content:        comment.Content,
		BlogID:         comment.BlogID,
		AuthorID:       comment.AuthorID,
		AuthorUsername: author,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}
