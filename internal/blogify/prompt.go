package blogify

import (
	"strings"

	"github.com/ibeckermayer/elongatd/internal/types"
)

// SystemPrompt instructs the model to rewrite a thread as an article
const SystemPrompt = `You turn X threads into a single well-written blog post.

The thread arrives as the text of each post in order. Media attached to a post
follows it on its own line in square brackets with a number, for example
[Image:1: description], [Video:2: description (15s)] or
[Link:3: title - description].

Rewrite the thread as one flowing article in Markdown:
- Keep every fact and insight from the thread. Add nothing that is not there.
- Drop X conventions such as numbering ("1/"), hashtags used as filler and "thread below".
- Place each media item where it fits by writing {media:N} on its own line,
  using the same N as the input, and introduce it in the surrounding prose.

Respond with only a JSON object with these fields:
- "content": the article in Markdown with {media:N} placeholders
- "title": a concise, descriptive title
- "summary": a one-sentence summary`

// BuildPrompt renders the thread for the model and returns the media map its
// numbers refer to
func BuildPrompt(posts []types.Post) (string, types.MediaMap) {
	numbered, media := NumberMedia(posts)

	blocks := make([]string, 0, len(numbered))
	for _, np := range numbered {
		var sb strings.Builder
		sb.WriteString(np.Post.Text)
		for j, a := range np.Post.Attachments {
			if line := DescribeAttachment(np.Numbers[j], a); line != "" {
				sb.WriteString("\n")
				sb.WriteString(line)
			}
		}
		blocks = append(blocks, sb.String())
	}

	return strings.Join(blocks, "\n\n"), media
}
