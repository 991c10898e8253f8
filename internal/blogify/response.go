package blogify

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Response is the JSON object the model must return
type Response struct {
	Content string `json:"content"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

var (
	fencedObject = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")
	bareObject   = regexp.MustCompile(`(?s)(\{.*\})`)
)

// extractJSON pulls the JSON object out of a reply that may wrap it in a
// Markdown fence or surround it with prose
func extractJSON(text string) string {
	if m := fencedObject.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	if m := bareObject.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return text
}

// ParseBlogResponse decodes the model's reply. content and title are required.
func ParseBlogResponse(text string) (Response, error) {
	var r Response
	if err := json.Unmarshal([]byte(extractJSON(text)), &r); err != nil {
		return r, fmt.Errorf("failed to parse blog JSON: %w (response was: %.500s)", err, text)
	}
	r.Content = strings.TrimSpace(r.Content)
	r.Title = strings.TrimSpace(r.Title)
	r.Summary = strings.TrimSpace(r.Summary)
	if r.Content == "" || r.Title == "" {
		return r, fmt.Errorf("blog response is missing content or title (response was: %.500s)", text)
	}
	return r, nil
}
