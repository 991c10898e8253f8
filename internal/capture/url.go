package capture

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalidStatusURL is returned for URLs that do not name a post
var ErrInvalidStatusURL = errors.New("not a status url")

var statusPattern = regexp.MustCompile(`/status(?:es)?/(\d+)`)

// PostIDFromURL extracts the numeric post id following /status/. Anything
// after the id (/photo/1, /analytics, query strings) is ignored.
func PostIDFromURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidStatusURL, raw, err)
	}
	m := statusPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatusURL, raw)
	}
	return m[1], nil
}

// IsTweetDetailURL reports whether raw is a TweetDetail GraphQL request
func IsTweetDetailURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.Contains(u.Path, "/graphql/") && path.Base(u.Path) == "TweetDetail"
}

// FocalPostID returns the focalTweetId carried in a TweetDetail request's
// variables parameter, or "" when it cannot be read.
func FocalPostID(detailURL string) string {
	u, err := url.Parse(detailURL)
	if err != nil {
		return ""
	}
	return gjson.Get(u.Query().Get("variables"), "focalTweetId").String()
}
