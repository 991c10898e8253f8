package store

import (
	"time"

	"github.com/ibeckermayer/elongatd/internal/types"
)

// ThreadSummary is a stored thread reduced to what a listing needs
type ThreadSummary struct {
	ThreadID  string       `json:"thread_id"`
	Author    types.Author `json:"author"`
	CreatedAt time.Time    `json:"created_at"`
	PostCount int          `json:"post_count"`
	FirstPost types.Post   `json:"first_post"`
	UpdatedAt time.Time    `json:"updated_at"` // last save, including watch refreshes
}

// StoredBlog is a blog post with its row id and the usage of the call that
// produced it
type StoredBlog struct {
	ID    string         `json:"id"`
	Blog  types.BlogPost `json:"blog"`
	Usage types.Usage    `json:"usage"`
}
