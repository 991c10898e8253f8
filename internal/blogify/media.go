package blogify

import (
	"fmt"
	"math"

	"github.com/ibeckermayer/elongatd/internal/types"
)

// NumberedPost is a post with the media numbers assigned to its attachments
type NumberedPost struct {
	Post    types.Post
	Numbers []int // parallel to Post.Attachments
}

// NumberMedia assigns 1-based numbers to every attachment of the thread in
// post order, then attachment order within a post. Posts must be in the
// order the normalizer produced them.
func NumberMedia(posts []types.Post) ([]NumberedPost, types.MediaMap) {
	media := types.MediaMap{}
	numbered := make([]NumberedPost, len(posts))
	n := 0
	for i, p := range posts {
		numbered[i] = NumberedPost{Post: p, Numbers: make([]int, len(p.Attachments))}
		for j, a := range p.Attachments {
			n++
			media[n] = a
			numbered[i].Numbers[j] = n
		}
	}
	return numbered, media
}

// DescribeAttachment renders the bracketed line the model sees for media n
func DescribeAttachment(n int, a types.Attachment) string {
	switch a.Type {
	case types.AttachmentImage:
		return fmt.Sprintf("[Image:%d: %s]", n, orDefault(a.Description, "Visual content"))
	case types.AttachmentVideo:
		desc := orDefault(a.Description, "Video content")
		if a.DurationMs > 0 {
			desc += fmt.Sprintf(" (%ds)", int64(math.Round(float64(a.DurationMs)/1000)))
		}
		return fmt.Sprintf("[Video:%d: %s]", n, desc)
	case types.AttachmentLink:
		desc := orDefault(a.Title, a.URL)
		if a.Description != "" {
			desc += " - " + a.Description
		}
		return fmt.Sprintf("[Link:%d: %s]", n, desc)
	default:
		return ""
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
