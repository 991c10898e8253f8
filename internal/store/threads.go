package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/ibeckermayer/elongatd/internal/types"
)

// SaveThread inserts or replaces a thread and its posts. Posts are written
// with sequence equal to their index in t.Posts, which must already be in
// canonical order. Re-saving a thread refreshes metrics and keeps stored_at.
func (s *Store) SaveThread(ctx context.Context, t *types.Thread) error {
	if t == nil || len(t.Posts) == 0 {
		return fmt.Errorf("failed to save thread: no posts")
	}

	authorJSON, err := json.Marshal(t.Author)
	if err != nil {
		return fmt.Errorf("failed to marshal author: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	ts := formatTime(now())
	_, err = tx.ExecContext(ctx, `
		INSERT INTO threads (id, author_id, author_username, author, created_at, post_count, stored_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			author = excluded.author,
			author_username = excluded.author_username,
			created_at = excluded.created_at,
			post_count = excluded.post_count,
			updated_at = excluded.updated_at
	`, t.ThreadID, t.Author.ID, t.Author.Username, string(authorJSON),
		formatTime(t.CreatedAt), len(t.Posts), ts, ts)
	if err != nil {
		return fmt.Errorf("failed to upsert thread %s: %w", t.ThreadID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE thread_id = ?`, t.ThreadID); err != nil {
		return fmt.Errorf("failed to clear posts of thread %s: %w", t.ThreadID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (thread_id, id, sequence, text, created_at,
			replies, retweets, likes, views, bookmarks, attachments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare post insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range t.Posts {
		attachments := p.Attachments
		if attachments == nil {
			attachments = []types.Attachment{}
		}
		attachmentsJSON, err := json.Marshal(attachments)
		if err != nil {
			return fmt.Errorf("failed to marshal attachments of post %s: %w", p.ID, err)
		}
		_, err = stmt.ExecContext(ctx, t.ThreadID, p.ID, i, p.Text, formatTime(p.CreatedAt),
			counter(p.Metrics.Replies), counter(p.Metrics.Retweets), counter(p.Metrics.Likes),
			counter(p.Metrics.Views), counter(p.Metrics.Bookmarks), string(attachmentsJSON))
		if err != nil {
			return fmt.Errorf("failed to insert post %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit thread %s: %w", t.ThreadID, err)
	}

	s.log.Debug().Str("thread_id", t.ThreadID).Int("posts", len(t.Posts)).Msg("thread saved")
	return nil
}

// LoadThread reads a thread with its posts in stored sequence. total_metrics
// is recomputed from the posts rather than read back.
func (s *Store) LoadThread(ctx context.Context, id string) (*types.Thread, error) {
	var (
		authorJSON string
		createdAt  string
	)
	err := s.db.QueryRowContext(ctx, `SELECT author, created_at FROM threads WHERE id = ?`, id).
		Scan(&authorJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("thread %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", id, err)
	}

	t := &types.Thread{ThreadID: id}
	if err := json.Unmarshal([]byte(authorJSON), &t.Author); err != nil {
		return nil, fmt.Errorf("failed to unmarshal author of thread %s: %w", id, err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, created_at, replies, retweets, likes, views, bookmarks, attachments
		FROM posts
		WHERE thread_id = ?
		ORDER BY sequence ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts of thread %s: %w", id, err)
	}
	defer rows.Close()

	if t.Posts, err = scanPosts(rows); err != nil {
		return nil, fmt.Errorf("failed to scan posts of thread %s: %w", id, err)
	}
	t.RecomputeTotals()

	return t, nil
}

// ThreadExists checks if a thread id is stored
func (s *Store) ThreadExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM threads WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

// LatestThreads returns up to limit threads, most recently stored first, each
// with its opening post
func (s *Store) LatestThreads(ctx context.Context, limit int) ([]ThreadSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.author, t.created_at, t.post_count, t.updated_at,
			p.id, p.text, p.created_at, p.replies, p.retweets, p.likes, p.views, p.bookmarks, p.attachments
		FROM threads t
		JOIN posts p ON p.thread_id = t.id AND p.sequence = 0
		ORDER BY t.updated_at DESC, t.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest threads: %w", err)
	}
	defer rows.Close()

	var out []ThreadSummary
	for rows.Next() {
		var (
			sum                          ThreadSummary
			authorJSON, created, updated string
			r                            postRow
		)
		if err := rows.Scan(&sum.ThreadID, &authorJSON, &created, &sum.PostCount, &updated,
			&r.id, &r.text, &r.createdAt, &r.replies, &r.retweets, &r.likes, &r.views, &r.bookmarks, &r.attachments); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(authorJSON), &sum.Author); err != nil {
			return nil, fmt.Errorf("failed to unmarshal author of thread %s: %w", sum.ThreadID, err)
		}
		if sum.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if sum.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		if sum.FirstPost, err = r.post(); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteThread removes a thread, its posts and its blog
func (s *Store) DeleteThread(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete thread %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("thread %s: %w", id, ErrNotFound)
	}
	return nil
}

// counter converts a metric for an INTEGER column. SQLite integers are
// signed, so values past math.MaxInt64 are stored as math.MaxInt64.
func counter(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

type postRow struct {
	id, text, createdAt, attachments            string
	replies, retweets, likes, views, bookmarks int64
}

func (r postRow) post() (types.Post, error) {
	p := types.Post{
		ID:   r.id,
		Text: r.text,
		Metrics: types.Metrics{
			Replies:   uint64(r.replies),
			Retweets:  uint64(r.retweets),
			Likes:     uint64(r.likes),
			Views:     uint64(r.views),
			Bookmarks: uint64(r.bookmarks),
		},
	}
	var err error
	if p.CreatedAt, err = parseTime(r.createdAt); err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(r.attachments), &p.Attachments); err != nil {
		return p, fmt.Errorf("failed to unmarshal attachments of post %s: %w", r.id, err)
	}
	return p, nil
}

func scanPosts(rows *sql.Rows) ([]types.Post, error) {
	var posts []types.Post
	for rows.Next() {
		var r postRow
		if err := rows.Scan(&r.id, &r.text, &r.createdAt,
			&r.replies, &r.retweets, &r.likes, &r.views, &r.bookmarks, &r.attachments); err != nil {
			return nil, err
		}
		p, err := r.post()
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
