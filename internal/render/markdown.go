// Package render turns stored threads and blogs into Markdown and email bodies.
package render

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ibeckermayer/elongatd/internal/types"
)

// PostURL links to a post on X
func PostURL(username, postID string) string {
	if username == "" {
		return "https://x.com/i/status/" + postID
	}
	return fmt.Sprintf("https://x.com/%s/status/%s", username, postID)
}

// Attachment renders one attachment as Markdown. Attachments without a URL
// render as nothing.
func Attachment(a types.Attachment) string {
	if a.URL == "" {
		return ""
	}
	switch a.Type {
	case types.AttachmentImage:
		return fmt.Sprintf("![%s](%s)", orDefault(a.Description, "Image"), a.URL)
	case types.AttachmentVideo:
		label := "Video"
		if a.DurationMs > 0 {
			label = fmt.Sprintf("Video (%s)", duration(a.DurationMs))
		}
		if a.ThumbnailURL != "" {
			return fmt.Sprintf("[![%s](%s)](%s)", label, a.ThumbnailURL, a.URL)
		}
		return fmt.Sprintf("[%s](%s)", label, a.URL)
	case types.AttachmentLink:
		out := fmt.Sprintf("> [%s](%s)", orDefault(a.Title, a.URL), a.URL)
		if a.Description != "" {
			out += "\n> " + a.Description
		}
		return out
	default:
		return ""
	}
}

var (
	mediaPlaceholder = regexp.MustCompile(`\{media:(\d+)\}`)
	mediaImage       = regexp.MustCompile(`!\[[^\]]*\]\(media:(\d+)\)`)
)

// ExpandMedia replaces {media:N} placeholders with the Markdown of media[N].
// Image syntax pointing at media:N is treated as the same placeholder.
// Placeholders with no renderable attachment are left as written.
func ExpandMedia(content string, media types.MediaMap) string {
	content = mediaImage.ReplaceAllString(content, "{media:$1}")
	return mediaPlaceholder.ReplaceAllStringFunc(content, func(ph string) string {
		n, err := strconv.Atoi(mediaPlaceholder.FindStringSubmatch(ph)[1])
		if err != nil {
			return ph
		}
		a, ok := media[n]
		if !ok {
			return ph
		}
		if md := Attachment(a); md != "" {
			return md
		}
		return ph
	})
}

func duration(ms int64) string {
	s := int64(math.Round(float64(ms) / 1000))
	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func count(n uint64) string {
	return humanize.Comma(int64(n))
}

var funcs = template.FuncMap{
	"attachment": Attachment,
	"count":      count,
	"postURL":    PostURL,
	"trim":       strings.TrimSpace,
	"date": func(t time.Time) string {
		return t.UTC().Format("Jan 2, 2006 15:04 MST")
	},
}

var threadTemplate = template.Must(template.New("thread").Funcs(funcs).Parse(`# Thread by {{.Author.Name}} (@{{.Author.Username}}){{if .Author.Verified}} ✓{{end}}

{{date .CreatedAt}} · {{len .Posts}} posts · {{count .TotalMetrics.Likes}} likes · {{count .TotalMetrics.Retweets}} reposts · {{count .TotalMetrics.Replies}} replies · {{count .TotalMetrics.Views}} views · {{count .TotalMetrics.Bookmarks}} bookmarks

[View on X]({{postURL .Author.Username .ThreadID}})
{{range $i, $p := .Posts}}
---

{{trim $p.Text}}
{{range $p.Attachments}}{{with attachment .}}
{{.}}
{{end}}{{end}}{{end}}`))

// ThreadMarkdown renders the raw thread: author header, totals, then each
// post with its attachments
func ThreadMarkdown(t *types.Thread) (string, error) {
	var buf bytes.Buffer
	if err := threadTemplate.Execute(&buf, t); err != nil {
		return "", fmt.Errorf("failed to render thread %s: %w", t.ThreadID, err)
	}
	return buf.String(), nil
}

// BlogMarkdown renders a blog post with its media expanded in place
func BlogMarkdown(b *types.BlogPost, author types.Author) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", b.Title)
	if b.Summary != "" {
		fmt.Fprintf(&sb, "_%s_\n\n", b.Summary)
	}
	if author.Username != "" {
		fmt.Fprintf(&sb, "Based on a thread by %s ([@%s](%s))\n\n",
			orDefault(author.Name, author.Username), author.Username, PostURL(author.Username, b.ThreadID))
	}
	sb.WriteString(ExpandMedia(b.Content, b.Media))
	sb.WriteString("\n")
	return sb.String()
}
