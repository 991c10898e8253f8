// Package app wires capture, normalization, persistence, rewriting and
// notification together.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pkg/browser"
	"github.com/rs/zerolog"

	"github.com/ibeckermayer/elongatd/internal/auth"
	"github.com/ibeckermayer/elongatd/internal/blogify"
	"github.com/ibeckermayer/elongatd/internal/capture"
	"github.com/ibeckermayer/elongatd/internal/config"
	"github.com/ibeckermayer/elongatd/internal/importer"
	"github.com/ibeckermayer/elongatd/internal/logger"
	"github.com/ibeckermayer/elongatd/internal/notifier"
	"github.com/ibeckermayer/elongatd/internal/render"
	"github.com/ibeckermayer/elongatd/internal/scheduler"
	"github.com/ibeckermayer/elongatd/internal/store"
	"github.com/ibeckermayer/elongatd/internal/thread"
	"github.com/ibeckermayer/elongatd/internal/types"
)

// ErrNotActionable is returned for threads with fewer than thread.MinThreadPosts posts
var ErrNotActionable = errors.New("not a thread")

// Capturer fetches the TweetDetail payload behind a status URL
type Capturer interface {
	Capture(ctx context.Context, statusURL string) (thread.RawPayload, error)
}

// Blogifier rewrites a thread into a blog post
type Blogifier interface {
	Blogify(ctx context.Context, t *types.Thread) (*types.BlogPost, types.Usage, error)
}

// Notifier announces newly detected threads
type Notifier interface {
	SendNotice(notice *render.Notice) error
}

// App holds the application state.
type App struct {
	mu          sync.RWMutex
	store       *store.Store    // immutable after creation
	cache       store.StepCache // immutable after creation
	authManager *auth.Manager   // nil in tests
	log         zerolog.Logger

	// Mutable fields - use getSnapshot() for concurrent access.
	config    *config.Config
	capturer  Capturer
	blogifier Blogifier
	notifier  Notifier
}

// snapshot holds fields that may be replaced by ReloadConfig.
type snapshot struct {
	config    *config.Config
	capturer  Capturer
	blogifier Blogifier
	notifier  Notifier
}

func (a *App) getSnapshot() snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return snapshot{
		config:    a.config,
		capturer:  a.capturer,
		blogifier: a.blogifier,
		notifier:  a.notifier,
	}
}

// Components are the replaceable collaborators of an App. Nil Blogifier or
// Notifier means the feature is disabled.
type Components struct {
	Capturer  Capturer
	Blogifier Blogifier
	Notifier  Notifier
}

// New creates a new App instance.
func New(cfg *config.Config, st *store.Store, cache store.StepCache, c Components) *App {
	return &App{
		config:    cfg,
		store:     st,
		cache:     cache,
		capturer:  c.Capturer,
		blogifier: c.Blogifier,
		notifier:  c.Notifier,
		log:       logger.Named("app"),
	}
}

// Open builds an App and all of its collaborators from cfg.
func Open(cfg *config.Config) (*App, error) {
	st, err := store.New(cfg.Store.DBPath)
	if err != nil {
		return nil, err
	}

	cacheDir, err := config.CacheDir()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to resolve cache dir: %w", err)
	}
	cache := store.NewStepCache(cacheDir)

	authManager := auth.NewManager(auth.NewCookieStore(cfg.Capture.CookieFile))

	a := New(cfg, st, cache, Components{})
	a.authManager = authManager

	components, err := a.buildComponents(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}
	a.capturer = components.Capturer
	a.blogifier = components.Blogifier
	a.notifier = components.Notifier

	return a, nil
}

// buildComponents creates the config-dependent collaborators
func (a *App) buildComponents(cfg *config.Config) (Components, error) {
	var c Components

	var session capture.Session
	if a.authManager != nil && a.authManager.IsAuthenticated() {
		session = a.authManager
	} else {
		a.log.Warn().Str("cookie_file", cfg.Capture.CookieFile).Msg("no valid X session cookies, capturing logged out")
	}
	c.Capturer = capture.New(cfg.Capture, session)

	b, err := blogify.New(cfg.Blogify, a.cache)
	switch {
	case errors.Is(err, blogify.ErrDisabled):
	case err != nil:
		return c, err
	default:
		c.Blogifier = b
	}

	n, err := notifier.NewFromConfig(cfg.Notify)
	switch {
	case errors.Is(err, notifier.ErrDisabled):
	case err != nil:
		return c, err
	default:
		c.Notifier = n
	}

	return c, nil
}

// Close releases the database
func (a *App) Close() error {
	return a.store.Close()
}

// Config returns the active configuration
func (a *App) Config() *config.Config {
	return a.getSnapshot().config
}

// Capture loads a status page, normalizes the intercepted payload and
// persists it when it is a thread.
func (a *App) Capture(ctx context.Context, statusURL string) (*types.Thread, error) {
	s := a.getSnapshot()

	payload, err := s.capturer.Capture(ctx, statusURL)
	if err != nil {
		return nil, fmt.Errorf("failed to capture %s: %w", statusURL, err)
	}

	if s.config.Store.CachePayloads {
		name := statusURL
		if id, err := capture.PostIDFromURL(statusURL); err == nil {
			name = id
		}
		if path, err := a.cache.SaveRawOutput(store.StepPayloads, name, ".json", payload); err != nil {
			a.log.Warn().Err(err).Msg("failed to cache payload")
		} else {
			a.log.Debug().Str("path", path).Msg("cached payload")
		}
	}

	return a.Ingest(ctx, payload)
}

// Ingest normalizes a payload and persists the thread it holds. A payload
// that is not a thread returns the normalized value with ErrNotActionable.
func (a *App) Ingest(ctx context.Context, payload thread.RawPayload) (*types.Thread, error) {
	t, err := thread.Normalize(payload)
	if err != nil {
		return nil, err
	}
	if !thread.IsActionable(t) {
		a.log.Info().Str("thread_id", t.ThreadID).Int("posts", len(t.Posts)).Msg("not a thread")
		return t, fmt.Errorf("%w: %d posts", ErrNotActionable, len(t.Posts))
	}
	if err := a.Persist(ctx, t); err != nil {
		return t, err
	}
	return t, nil
}

// Persist stores an actionable thread and announces it the first time it is
// seen. Notification and cache failures are logged, not returned.
func (a *App) Persist(ctx context.Context, t *types.Thread) error {
	if !thread.IsActionable(t) {
		return ErrNotActionable
	}
	s := a.getSnapshot()

	existed, err := a.store.ThreadExists(ctx, t.ThreadID)
	if err != nil {
		return err
	}
	if err := a.store.SaveThread(ctx, t); err != nil {
		return err
	}

	log := a.log.With().Str("thread_id", t.ThreadID).Logger()
	if existed {
		log.Info().Int("posts", len(t.Posts)).Msg("thread updated")
	} else {
		log.Info().Int("posts", len(t.Posts)).Str("author", t.Author.Username).Msg("thread detected")
	}

	if s.config.Store.CachePayloads {
		if _, err := store.SaveStepOutput(a.cache, store.StepThreads, t.ThreadID, t); err != nil {
			log.Warn().Err(err).Msg("failed to cache thread")
		}
	}

	if !existed && s.notifier != nil {
		if err := a.notify(s, t); err != nil {
			log.Error().Err(err).Msg("failed to send notice")
		}
	}

	return nil
}

func (a *App) notify(s snapshot, t *types.Thread) error {
	notice, err := render.BuildNotice(t, s.config.Notify.SiteURL)
	if err != nil {
		return err
	}
	return s.notifier.SendNotice(notice)
}

// Import replays payload files
func (a *App) Import(ctx context.Context, paths []string) ([]importer.Result, error) {
	return importer.New(a, importer.DefaultConcurrency).Import(ctx, paths)
}

// ImportCached replays every payload in the step cache
func (a *App) ImportCached(ctx context.Context) ([]importer.Result, error) {
	paths, err := a.cache.StepFiles(store.StepPayloads)
	if err != nil {
		return nil, err
	}
	return a.Import(ctx, paths)
}

// Thread loads a stored thread
func (a *App) Thread(ctx context.Context, id string) (*types.Thread, error) {
	return a.store.LoadThread(ctx, id)
}

// Existence reports what is stored for a thread id
type Existence struct {
	Thread bool `json:"thread"`
	Blog   bool `json:"blog"`
}

// Exists reports whether a thread and its blog are stored
func (a *App) Exists(ctx context.Context, id string) (Existence, error) {
	var e Existence
	var err error
	if e.Thread, err = a.store.ThreadExists(ctx, id); err != nil {
		return e, err
	}
	if e.Blog, err = a.store.BlogExists(ctx, id); err != nil {
		return e, err
	}
	return e, nil
}

// Latest lists the most recently stored threads
func (a *App) Latest(ctx context.Context, limit int) ([]store.ThreadSummary, error) {
	return a.store.LatestThreads(ctx, limit)
}

// Delete removes a thread and its blog
func (a *App) Delete(ctx context.Context, id string) error {
	return a.store.DeleteThread(ctx, id)
}

// Blogify rewrites a stored thread and stores the blog. Failures leave the
// stored thread untouched.
func (a *App) Blogify(ctx context.Context, id string) (*types.BlogPost, error) {
	s := a.getSnapshot()
	if s.blogifier == nil {
		return nil, blogify.ErrDisabled
	}

	t, err := a.store.LoadThread(ctx, id)
	if err != nil {
		return nil, err
	}
	if !thread.IsActionable(t) {
		return nil, ErrNotActionable
	}

	blog, usage, err := s.blogifier.Blogify(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to blogify %s: %w", id, err)
	}
	usage = s.config.Blogify.Pricing().Price(usage)

	blogID, err := a.store.SaveBlog(ctx, blog, usage)
	if err != nil {
		return nil, err
	}

	if s.config.Store.CachePayloads {
		if _, err := store.SaveStepOutput(a.cache, store.StepBlogs, id, blog); err != nil {
			a.log.Warn().Err(err).Str("thread_id", id).Msg("failed to cache blog")
		}
	}

	a.log.Info().
		Str("thread_id", id).
		Str("blog_id", blogID).
		Int64("tokens", usage.TotalTokens()).
		Int64("cost_millicents", usage.TotalCostMillicents()).
		Msg("blog saved")
	return blog, nil
}

// ExportKind selects the presentation form of an export
type ExportKind string

const (
	ExportThread ExportKind = "thread"
	ExportBlog   ExportKind = "blog"
)

// Export renders a stored thread or blog to Markdown in the exports cache
// and returns the file path.
func (a *App) Export(ctx context.Context, id string, kind ExportKind) (string, error) {
	var md string

	switch kind {
	case ExportThread:
		t, err := a.store.LoadThread(ctx, id)
		if err != nil {
			return "", err
		}
		if md, err = render.ThreadMarkdown(t); err != nil {
			return "", err
		}
	case ExportBlog:
		t, err := a.store.LoadThread(ctx, id)
		if err != nil {
			return "", err
		}
		b, err := a.store.LoadBlog(ctx, id)
		if err != nil {
			return "", err
		}
		md = render.BlogMarkdown(&b.Blog, t.Author)
	default:
		return "", fmt.Errorf("unknown export kind %q", kind)
	}

	path, err := a.cache.SaveTextOutput(store.StepExports, id+"-"+string(kind), md, ".md")
	if err != nil {
		return "", err
	}
	a.log.Info().Str("path", path).Msg("exported")
	return path, nil
}

// OpenLatestExport opens the most recent export with the system viewer
func (a *App) OpenLatestExport() error {
	path, err := a.cache.LatestStepFile(store.StepExports)
	if err != nil {
		return err
	}
	a.log.Info().Str("path", path).Msg("opening export")
	return browser.OpenFile(path)
}

// Watch re-captures every configured status URL. Each URL is independent;
// the joined error lists every failure.
func (a *App) Watch(ctx context.Context) error {
	s := a.getSnapshot()

	var errs []error
	for _, u := range s.config.Watch.StatusURLs {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := a.Capture(ctx, u)
		switch {
		case errors.Is(err, ErrNotActionable):
			a.log.Info().Str("url", u).Msg("watched post is not a thread")
		case err != nil:
			a.log.Error().Err(err).Str("url", u).Msg("watch capture failed")
			errs = append(errs, err)
		default:
			a.log.Info().Str("url", u).Str("thread_id", t.ThreadID).Msg("watched thread refreshed")
		}
	}
	return errors.Join(errs...)
}

// StartWatch schedules Watch on the configured interval and starts the
// scheduler. The caller stops it.
func (a *App) StartWatch() (*scheduler.Scheduler, error) {
	cfg := a.getSnapshot().config

	sched, err := scheduler.New(cfg.Watch.Timezone)
	if err != nil {
		return nil, err
	}
	if err := sched.AddWatchJob(cfg.Watch.IntervalHours, a.Watch); err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}

// ReloadConfig reloads the configuration from disk.
func (a *App) ReloadConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return a.ApplyConfig(cfg)
}

// ApplyConfig swaps in cfg and rebuilds the collaborators that depend on it.
func (a *App) ApplyConfig(cfg *config.Config) error {
	c, err := a.buildComponents(cfg)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.config = cfg
	a.capturer = c.Capturer
	a.blogifier = c.Blogifier
	a.notifier = c.Notifier
	a.mu.Unlock()

	a.log.Info().Msg("configuration reloaded")
	return nil
}
