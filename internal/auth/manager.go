package auth

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/ibeckermayer/elongatd/internal/logger"
)

// Manager hands the stored X session to capture browsers and keeps it fresh
type Manager struct {
	cookieStore *CookieStore
	log         zerolog.Logger
}

// NewManager creates a new auth manager
func NewManager(cookieStore *CookieStore) *Manager {
	return &Manager{cookieStore: cookieStore, log: logger.Named("auth")}
}

// IsAuthenticated checks if we have valid stored credentials
func (m *Manager) IsAuthenticated() bool {
	return m.cookieStore.IsValid()
}

// Cookies returns the stored x.com cookies, or ErrNoSession
func (m *Manager) Cookies() ([]*network.Cookie, error) {
	if !m.cookieStore.IsValid() {
		return nil, fmt.Errorf("%w (expected %s)", ErrNoSession, m.cookieStore.Path())
	}
	return m.cookieStore.GetXCookies()
}

// Inject returns an action that sets the stored cookies in a browser
func (m *Manager) Inject() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := m.Cookies()
		if err != nil {
			return err
		}
		for _, c := range cookies {
			err := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HTTPOnly).
				WithSameSite(c.SameSite).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("failed to set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	})
}

// Refresh returns an action that saves the browser's current x.com cookies.
// X rotates ct0 during a session; saving after each capture keeps the stored
// session usable.
func (m *Manager) Refresh() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to read browser cookies: %w", err)
		}

		var xCookies []*network.Cookie
		hasAuth := false
		for _, c := range cookies {
			if !isXDomain(c.Domain) {
				continue
			}
			xCookies = append(xCookies, c)
			if c.Name == CookieAuthToken && c.Value != "" {
				hasAuth = true
			}
		}
		if !hasAuth {
			m.log.Warn().Msg("browser has no auth_token; keeping stored cookies")
			return nil
		}
		if err := m.cookieStore.Save(xCookies); err != nil {
			return fmt.Errorf("failed to save cookies: %w", err)
		}
		m.log.Debug().Int("cookies", len(xCookies)).Msg("session cookies refreshed")
		return nil
	})
}

// Logout clears stored credentials
func (m *Manager) Logout() error {
	return m.cookieStore.Clear()
}
