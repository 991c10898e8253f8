package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ibeckermayer/elongatd/internal/types"
)

// SaveBlog stores the blog for a thread, replacing any earlier one. The
// thread must already be stored. Returns the blog's id.
func (s *Store) SaveBlog(ctx context.Context, b *types.BlogPost, usage types.Usage) (string, error) {
	media := b.Media
	if media == nil {
		media = types.MediaMap{}
	}
	mediaJSON, err := json.Marshal(media)
	if err != nil {
		return "", fmt.Errorf("failed to marshal media map: %w", err)
	}

	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = now()
	}

	id := uuid.NewString()
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO blogs (id, thread_id, title, summary, content, media,
			provider, model, input_tokens, output_tokens,
			input_cost_millicents, output_cost_millicents, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			content = excluded.content,
			media = excluded.media,
			provider = excluded.provider,
			model = excluded.model,
			input_tokens = excluded.input_tokens,
			output_tokens = excluded.output_tokens,
			input_cost_millicents = excluded.input_cost_millicents,
			output_cost_millicents = excluded.output_cost_millicents,
			created_at = excluded.created_at
		RETURNING id
	`, id, b.ThreadID, b.Title, b.Summary, b.Content, string(mediaJSON),
		usage.Provider, usage.Model, usage.InputTokens, usage.OutputTokens,
		usage.InputCostMillicents, usage.OutputCostMillicents, formatTime(createdAt)).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to save blog for thread %s: %w", b.ThreadID, err)
	}

	s.log.Debug().Str("thread_id", b.ThreadID).Str("blog_id", id).Msg("blog saved")
	return id, nil
}

// LoadBlog reads the blog stored for a thread
func (s *Store) LoadBlog(ctx context.Context, threadID string) (*StoredBlog, error) {
	var (
		out       StoredBlog
		mediaJSON string
		createdAt string
		provider  sql.NullString
		model     sql.NullString
		in, outT  sql.NullInt64
		inCost    sql.NullInt64
		outCost   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, summary, content, media, provider, model, input_tokens, output_tokens,
			input_cost_millicents, output_cost_millicents, created_at
		FROM blogs WHERE thread_id = ?
	`, threadID).Scan(&out.ID, &out.Blog.Title, &out.Blog.Summary, &out.Blog.Content, &mediaJSON,
		&provider, &model, &in, &outT, &inCost, &outCost, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blog for thread %s: %w", threadID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load blog for thread %s: %w", threadID, err)
	}

	out.Blog.ThreadID = threadID
	if err := json.Unmarshal([]byte(mediaJSON), &out.Blog.Media); err != nil {
		return nil, fmt.Errorf("failed to unmarshal media map of thread %s: %w", threadID, err)
	}
	if out.Blog.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	out.Usage = types.Usage{
		Provider:     provider.String,
		Model:        model.String,
		InputTokens:  in.Int64,
		OutputTokens: outT.Int64,

		InputCostMillicents:  inCost.Int64,
		OutputCostMillicents: outCost.Int64,
	}
	return &out, nil
}

// BlogExists checks if a blog is stored for the thread
func (s *Store) BlogExists(ctx context.Context, threadID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM blogs WHERE thread_id = ?)`, threadID).Scan(&exists)
	return exists, err
}
