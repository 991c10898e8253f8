package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/ibeckermayer/elongatd/internal/types"
)

// Notice is a "thread detected" message ready for sending
type Notice struct {
	Subject   string
	HTMLBody  string
	PlainBody string
}

// noticeData is the template data structure
type noticeData struct {
	Author    types.Author
	PostCount int
	Opening   string
	Likes     string
	Views     string
	XURL      string
	SiteURL   string
}

var noticeTemplate = template.Must(template.New("notice").Parse(defaultNoticeTemplate))

// BuildNotice renders the notification for a newly stored thread. siteURL,
// when set, is where the stored copy can be read.
func BuildNotice(t *types.Thread, siteURL string) (*Notice, error) {
	if t == nil || len(t.Posts) == 0 {
		return nil, fmt.Errorf("no posts to include in notice")
	}

	data := noticeData{
		Author:    t.Author,
		PostCount: len(t.Posts),
		Opening:   truncate(strings.TrimSpace(t.Posts[0].Text), 280),
		Likes:     count(t.TotalMetrics.Likes),
		Views:     count(t.TotalMetrics.Views),
		XURL:      PostURL(t.Author.Username, t.ThreadID),
	}
	if siteURL != "" {
		data.SiteURL = strings.TrimRight(siteURL, "/") + "/post/" + t.ThreadID
	}

	var htmlBuf bytes.Buffer
	if err := noticeTemplate.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Notice{
		Subject:   fmt.Sprintf("Thread detected: @%s (%d posts)", t.Author.Username, len(t.Posts)),
		HTMLBody:  htmlBuf.String(),
		PlainBody: buildPlainText(data),
	}, nil
}

// truncate shortens s to at most maxLen runes
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func buildPlainText(data noticeData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Thread detected: %s (@%s), %d posts\n\n", data.Author.Name, data.Author.Username, data.PostCount)
	fmt.Fprintf(&buf, "%s\n\n", data.Opening)
	fmt.Fprintf(&buf, "%s likes · %s views\n", data.Likes, data.Views)
	fmt.Fprintf(&buf, "View on X: %s\n", data.XURL)
	if data.SiteURL != "" {
		fmt.Fprintf(&buf, "Read it: %s\n", data.SiteURL)
	}
	return buf.String()
}

const defaultNoticeTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Thread detected</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .container { background: white; border-radius: 8px; padding: 20px; }
        h1 { color: #1da1f2; font-size: 20px; margin-bottom: 5px; }
        .author { font-weight: bold; color: #333; }
        .handle { color: #666; }
        .content { margin: 12px 0; line-height: 1.4; }
        .metrics { color: #666; font-size: 13px; }
        .link { color: #1da1f2; text-decoration: none; margin-right: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Thread detected · {{.PostCount}} posts</h1>
        <div class="author">{{.Author.Name}} <span class="handle">@{{.Author.Username}}</span></div>
        <div class="content">{{.Opening}}</div>
        <div class="metrics">{{.Likes}} likes · {{.Views}} views</div>
        <p>
            <a href="{{.XURL}}" class="link">View on X →</a>
            {{if .SiteURL}}<a href="{{.SiteURL}}" class="link">Read it →</a>{{end}}
        </p>
    </div>
</body>
</html>`
