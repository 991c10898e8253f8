// Package capture loads X status pages in a browser and intercepts the
// TweetDetail GraphQL response the page fetches for itself.
package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/ibeckermayer/elongatd/internal/browser"
	"github.com/ibeckermayer/elongatd/internal/config"
	"github.com/ibeckermayer/elongatd/internal/logger"
	"github.com/ibeckermayer/elongatd/internal/thread"
)

var (
	// ErrNoPayload means the page never produced a TweetDetail response
	ErrNoPayload = errors.New("no TweetDetail response captured")
	// ErrLoginRequired means X showed a login wall instead of the post
	ErrLoginRequired = errors.New("X requires login to view this post")
)

const loginPollInterval = 2 * time.Second

// Session supplies authentication to a capture browser. *auth.Manager
// implements it.
type Session interface {
	Inject() chromedp.Action
	Refresh() chromedp.Action
}

// Capturer handles intercepting thread payloads from X.com
type Capturer struct {
	headless bool
	timeout  time.Duration
	session  Session
	log      zerolog.Logger
}

// New creates a capturer. A nil session browses logged out.
func New(cfg config.CaptureConfig, session Session) *Capturer {
	return &Capturer{
		headless: cfg.Headless,
		timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
		session:  session,
		log:      logger.Named("capture"),
	}
}

// Capture opens statusURL and returns the TweetDetail body for its post
func (c *Capturer) Capture(ctx context.Context, statusURL string) (thread.RawPayload, error) {
	postID, err := PostIDFromURL(statusURL)
	if err != nil {
		return nil, err
	}

	browserCtx, cancel := browser.NewContext(ctx, c.headless)
	defer cancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, c.timeout)
	defer timeoutCancel()

	l := newListener(postID, func(id network.RequestID) ([]byte, error) {
		var body []byte
		err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			body, err = network.GetResponseBody(id).Do(ctx)
			return err
		}))
		return body, err
	}, c.log.With().Str("post_id", postID).Logger())
	chromedp.ListenTarget(browserCtx, l.handle)

	actions := []chromedp.Action{network.Enable()}
	if c.session != nil {
		actions = append(actions, c.session.Inject())
	}
	actions = append(actions, chromedp.Navigate(statusURL))

	c.log.Info().Str("url", statusURL).Msg("loading status page")
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", statusURL, err)
	}

	body, err := c.await(ctx, browserCtx, l)
	if err != nil {
		return nil, err
	}

	if c.session != nil {
		if err := chromedp.Run(browserCtx, c.session.Refresh()); err != nil {
			c.log.Warn().Err(err).Msg("failed to refresh session cookies")
		}
	}

	c.log.Info().Str("post_id", postID).Int("bytes", len(body)).Msg("captured TweetDetail")
	return thread.RawPayload(body), nil
}

// await waits for the listener while polling for a login wall
func (c *Capturer) await(ctx, browserCtx context.Context, l *listener) ([]byte, error) {
	ticker := time.NewTicker(loginPollInterval)
	defer ticker.Stop()

	for {
		select {
		case body := <-l.result:
			return body, nil

		case <-ticker.C:
			var walled bool
			if err := chromedp.Run(browserCtx, chromedp.Evaluate(loginWallJS, &walled)); err != nil {
				continue
			}
			if walled {
				return nil, ErrLoginRequired
			}

		case <-browserCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w within %s", ErrNoPayload, c.timeout)
		}
	}
}
