package thread

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Upstream field fallbacks. Each chain tolerates one generation of schema drift.

// upstreamTimeLayout is the created_at format used by the legacy blocks
const upstreamTimeLayout = time.RubyDate

// ResolveVerified reports whether a user result carries a verified badge.
// is_blue_verified is checked first, then legacy.verified.
func ResolveVerified(user gjson.Result) bool {
	if user.Get("is_blue_verified").Bool() {
		return true
	}
	return user.Get("legacy.verified").Bool()
}

// ResolveText applies the long-form override: note text wins when non-empty
func ResolveText(noteText, fullText string) string {
	if noteText != "" {
		return noteText
	}
	return fullText
}

// postText reads the note and legacy text of a post result
func postText(post gjson.Result) string {
	return ResolveText(
		post.Get("note_tweet.note_tweet_results.result.text").String(),
		post.Get("legacy.full_text").String(),
	)
}

// ParseTimestamp parses an upstream created_at value. Unparseable or empty
// input yields the zero time rather than an error.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{upstreamTimeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// firstString returns the first non-empty string found at the given paths
func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// counter reads a non-negative counter; numbers and numeric strings are accepted
func counter(r gjson.Result, path string) uint64 {
	v := r.Get(path)
	switch v.Type {
	case gjson.Number:
		if v.Num < 0 {
			return 0
		}
		return v.Uint()
	case gjson.String:
		n, err := strconv.ParseUint(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// unwrapResult strips the visibility wrapper some results arrive in
func unwrapResult(r gjson.Result) gjson.Result {
	if r.Get("__typename").String() == "TweetWithVisibilityResults" {
		return r.Get("tweet")
	}
	return r
}

// postID returns rest_id, falling back to legacy.id_str
func postID(post gjson.Result) string {
	return firstString(post, "rest_id", "legacy.id_str")
}

// postAuthorID returns the id of the account that wrote a post result
func postAuthorID(post gjson.Result) string {
	return firstString(post,
		"core.user_results.result.rest_id",
		"legacy.user_id_str",
	)
}

var dimensionsPattern = regexp.MustCompile(`(?:^|/)(\d+)x(\d+)(?:/|$)`)

// DimensionsFromURL extracts a WIDTHxHEIGHT path segment from a media URL,
// e.g. .../vid/avc1/720x1280/abc.mp4
func DimensionsFromURL(raw string) (width, height int, ok bool) {
	path := raw
	if u, err := url.Parse(raw); err == nil {
		path = u.Path
	}
	m := dimensionsPattern.FindStringSubmatch(path)
	if m == nil {
		return 0, 0, false
	}
	w, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	h, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}
