package domain

import "time"

// AuthorRef is the public projection of an account attached to content.
type AuthorRef struct {
	Username string `json:"username"`
}

// Tag labels a blog post.
type Tag struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	BlogID int64  `json:"blogId"`
}

// Blog is a published post. Content is stored as the raw markup submitted by
// the author.
type Blog struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"authorId"`
	Author    AuthorRef `json:"author"`
	Tags      []Tag     `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment is a reader response attached to a blog post.
type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	BlogID    int64     `json:"blogId"`
	AuthorID  int64     `json:"authorId"`
	Author    AuthorRef `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CanBeDeletedBy reports whether p may remove the comment: its author or an admin.
func (c *Comment) CanBeDeletedBy(p Principal) bool {
	return p.IsAdmin() || c.AuthorID == p.AccountID
}
