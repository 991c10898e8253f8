package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
)

// Cookies X requires for an authenticated TweetDetail request
const (
	CookieAuthToken = "auth_token"
	CookieCSRF      = "ct0"
)

// ErrNoSession is returned when no usable X session cookies are stored
var ErrNoSession = errors.New("no valid X session cookies")

// CookieStore handles storage of X.com session cookies
type CookieStore struct {
	path string
	now  func() time.Time
}

// StoredCookies represents the persisted cookie data
type StoredCookies struct {
	Cookies    []*network.Cookie `json:"cookies"`
	CapturedAt time.Time         `json:"captured_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// NewCookieStore creates a cookie store at the given path
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path, now: time.Now}
}

// Path returns the file the store reads and writes
func (cs *CookieStore) Path() string {
	return cs.path
}

// Save persists cookies to disk
// TODO: Encrypt cookies at rest
func (cs *CookieStore) Save(cookies []*network.Cookie) error {
	if err := os.MkdirAll(filepath.Dir(cs.path), 0700); err != nil {
		return err
	}

	stored := StoredCookies{
		Cookies:    cookies,
		CapturedAt: cs.now(),
		ExpiresAt:  earliestAuthExpiry(cookies),
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(cs.path, data, 0600)
}

// earliestAuthExpiry finds the earliest expiration among auth-related
// cookies. Session cookies (no expiry) are ignored.
func earliestAuthExpiry(cookies []*network.Cookie) time.Time {
	var earliest time.Time
	for _, c := range cookies {
		if c.Name != CookieAuthToken && c.Name != CookieCSRF {
			continue
		}
		if c.Session || c.Expires <= 0 {
			continue
		}
		exp := time.Unix(int64(c.Expires), 0).UTC()
		if earliest.IsZero() || exp.Before(earliest) {
			earliest = exp
		}
	}
	return earliest
}

// Load retrieves cookies from disk
func (cs *CookieStore) Load() (*StoredCookies, error) {
	data, err := os.ReadFile(cs.path)
	if err != nil {
		return nil, err
	}

	var stored StoredCookies
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse cookie file %s: %w", cs.path, err)
	}

	return &stored, nil
}

// IsValid checks if stored cookies are still valid
func (cs *CookieStore) IsValid() bool {
	stored, err := cs.Load()
	if err != nil {
		return false
	}

	if !stored.ExpiresAt.IsZero() && cs.now().After(stored.ExpiresAt) {
		return false
	}

	hasAuthToken := false
	hasCT0 := false
	for _, c := range stored.Cookies {
		switch c.Name {
		case CookieAuthToken:
			hasAuthToken = c.Value != ""
		case CookieCSRF:
			hasCT0 = c.Value != ""
		}
	}

	return hasAuthToken && hasCT0
}

// Clear removes stored cookies
func (cs *CookieStore) Clear() error {
	err := os.Remove(cs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// GetXCookies returns only the x.com related cookies for use in requests
func (cs *CookieStore) GetXCookies() ([]*network.Cookie, error) {
	stored, err := cs.Load()
	if err != nil {
		return nil, err
	}

	var xCookies []*network.Cookie
	for _, c := range stored.Cookies {
		if isXDomain(c.Domain) {
			xCookies = append(xCookies, c)
		}
	}

	return xCookies, nil
}

func isXDomain(domain string) bool {
	d := strings.TrimPrefix(domain, ".")
	return d == "x.com" || d == "twitter.com"
}
