package thread

import "github.com/ibeckermayer/elongatd/internal/types"

// MinThreadPosts is the smallest post count that counts as a thread
const MinThreadPosts = 3

// IsActionable reports whether a normalized thread is long enough to notify
// about, persist or rewrite. Shorter results are valid Normalize output but
// callers must not act on them.
func IsActionable(t *types.Thread) bool {
	return t != nil && len(t.Posts) >= MinThreadPosts
}
