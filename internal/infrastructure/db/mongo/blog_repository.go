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

// BlogRepository implements ports.BlogRepository. Tags are embedded in the
// post document.
type BlogRepository struct {
	coll     *mongo.Collection
	accounts *AccountRepository
	ids      sequence
}

func NewBlogRepository(db *mongo.Database) *BlogRepository {
	return &BlogRepository{
		coll:     db.Collection(blogsCollection),
		accounts: NewAccountRepository(db),
		ids:      newSequence(db),
	}
}

type tagDoc struct {
	ID   int64  `bson:"id"`
	Name string `bson:"name"`
}

type blogDoc struct {
	ID             int64     `bson:"_id"`
	Title          string    `bson:"title"`
	Content        string    `bson:"content"`
	AuthorID       int64     `bson:"author_id"`
	AuthorUsername string    `bson:"author_username"`
	Tags           []tagDoc  `bson:"tags"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func (d blogDoc) toDomain() *domain.Blog {
	tags := make([]domain.Tag, 0, len(d.Tags))
	for _, t := range d.Tags {
		tags = append(tags, domain.Tag{ID: t.ID, Name: t.Name, BlogID: d.ID})
	}
	return &domain.Blog{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		AuthorID:  d.AuthorID,
		Author:    domain.AuthorRef{Username: d.AuthorUsername},
		Tags:      tags,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (r *BlogRepository) List(ctx context.Context) ([]*domain.Blog, error) {
	cur, err := r.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	var docs []blogDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode blogs: %w", err)
	}

	out := make([]*domain.Blog, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *BlogRepository) FindByID(ctx context.Context, id int64) (*domain.Blog, error) {
	var doc blogDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBlogNotFound
		}
		return nil, fmt.Errorf("find blog: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *BlogRepository) Create(ctx context.Context, blog *domain.Blog, tags []string) (*domain.Blog, error) {
	author, err := r.accounts.username(ctx, blog.AuthorID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	id, err := r.ids.next(ctx, blogsCollection)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := blogDoc{
		ID:             id,
		Title:          blog.Title,
		Content:        blog.Content,
		AuthorID:       blog.AuthorID,
		AuthorUsername: author,
		Tags:           make([]tagDoc, 0, len(tags)),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, name := range tags {
		tagID, err := r.ids.next(ctx, "tags")
		if err != nil {
			return nil, err
		}
		doc.Tags = append(doc.Tags, tagDoc{ID: tagID, Name: name})
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert blog: %w", err)
	}
	return doc.toDomain(), nil
}
