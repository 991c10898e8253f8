// Package importer replays captured payload files through the normalizer.
package importer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ibeckermayer/elongatd/internal/capture"
	"github.com/ibeckermayer/elongatd/internal/logger"
	"github.com/ibeckermayer/elongatd/internal/thread"
	"github.com/ibeckermayer/elongatd/internal/types"
)

// DefaultConcurrency is the number of files normalized at once
const DefaultConcurrency = 4

// Status is the outcome for one file
type Status string

const (
	StatusSaved   Status = "saved"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Sink persists an actionable thread
type Sink interface {
	Persist(ctx context.Context, t *types.Thread) error
}

// Result describes what happened to one payload file
type Result struct {
	Path     string `json:"path"`
	Status   Status `json:"status"`
	ThreadID string `json:"thread_id,omitempty"`
	Posts    int    `json:"posts"`
	Err      error  `json:"-"`
}

// MarshalJSON renders Err as its message
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(r)}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Importer normalizes payload files concurrently and persists the threads
type Importer struct {
	sink        Sink
	concurrency int
	log         zerolog.Logger
}

// New creates an importer. concurrency <= 0 uses DefaultConcurrency.
func New(sink Sink, concurrency int) *Importer {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Importer{sink: sink, concurrency: concurrency, log: logger.Named("importer")}
}

// Import processes paths and returns one result per path, in input order.
// Per-file failures are reported in the results; only cancellation aborts.
func (im *Importer) Import(ctx context.Context, paths []string) ([]Result, error) {
	results := make([]Result, len(paths))
	threads := make([]*types.Thread, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Result{Path: path}
			threads[i], results[i].Err = load(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Saves run in input order so later payloads of the same thread win
	for i := range results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		im.persist(ctx, &results[i], threads[i])
	}

	return results, nil
}

func load(path string) (*types.Thread, error) {
	payload, err := capture.LoadPayloadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := thread.Normalize(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", path, err)
	}
	return t, nil
}

func (im *Importer) persist(ctx context.Context, r *Result, t *types.Thread) {
	log := im.log.With().Str("path", r.Path).Logger()

	if r.Err != nil {
		r.Status = StatusFailed
		log.Warn().Err(r.Err).Msg("skipping payload")
		return
	}

	r.ThreadID = t.ThreadID
	r.Posts = len(t.Posts)

	if !thread.IsActionable(t) {
		r.Status = StatusSkipped
		log.Info().Str("thread_id", t.ThreadID).Int("posts", r.Posts).Msg("not a thread")
		return
	}

	if err := im.sink.Persist(ctx, t); err != nil {
		r.Status = StatusFailed
		r.Err = err
		log.Error().Err(err).Str("thread_id", t.ThreadID).Msg("failed to persist thread")
		return
	}

	r.Status = StatusSaved
	log.Info().Str("thread_id", t.ThreadID).Int("posts", r.Posts).Msg("imported thread")
}

// Counts tallies results by status
func Counts(results []Result) map[Status]int {
	counts := make(map[Status]int, 3)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}
