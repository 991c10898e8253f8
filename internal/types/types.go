package types

import (
	"math"
	"time"
)

// Author is the account that wrote a thread, taken from the root post
type Author struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Username        string    `json:"username"`
	ProfileImageURL string    `json:"profile_image_url"`
	Verified        bool      `json:"verified"`
	Description     string    `json:"description"`
	FollowersCount  uint64    `json:"followers_count"`
	FollowingCount  uint64    `json:"following_count"`
	Location        string    `json:"location"`
	CreatedAt       time.Time `json:"created_at"`
	URL             string    `json:"url"`
}

// Metrics holds engagement counters for a post or a whole thread
type Metrics struct {
	Replies   uint64 `json:"replies"`
	Retweets  uint64 `json:"retweets"`
	Likes     uint64 `json:"likes"`
	Views     uint64 `json:"views"`
	Bookmarks uint64 `json:"bookmarks"`
}

// Add returns the field-wise sum of m and o
func (m Metrics) Add(o Metrics) Metrics {
	return Metrics{
		Replies:   m.Replies + o.Replies,
		Retweets:  m.Retweets + o.Retweets,
		Likes:     m.Likes + o.Likes,
		Views:     m.Views + o.Views,
		Bookmarks: m.Bookmarks + o.Bookmarks,
	}
}

// SumMetrics adds up the metrics of every post
func SumMetrics(posts []Post) Metrics {
	var total Metrics
	for _, p := range posts {
		total = total.Add(p.Metrics)
	}
	return total
}

// AttachmentType tags the Attachment union
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentVideo AttachmentType = "video"
	AttachmentLink  AttachmentType = "link"
)

// Attachment is a media item or link preview attached to a post.
// Which optional fields are meaningful depends on Type.
type Attachment struct {
	Type AttachmentType `json:"type"`
	URL  string         `json:"url"`

	// image
	OriginalURL string `json:"original_url,omitempty"`

	// image and video; zero when unknown
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// video
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	DurationMs   int64  `json:"duration_ms,omitempty"`
	Bitrate      int64  `json:"bitrate,omitempty"`

	// link
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Post is a single entry of a thread
type Post struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	CreatedAt   time.Time    `json:"created_at"`
	Metrics     Metrics      `json:"metrics"`
	Attachments []Attachment `json:"attachments"`
}

// Thread is the canonical normalized form of a captured conversation.
// Posts are sorted ascending by CreatedAt and ThreadID/CreatedAt mirror Posts[0].
type Thread struct {
	Author       Author    `json:"author"`
	ThreadID     string    `json:"thread_id"`
	CreatedAt    time.Time `json:"created_at"`
	Posts        []Post    `json:"posts"`
	TotalMetrics Metrics   `json:"total_metrics"`
}

// RecomputeTotals re-derives TotalMetrics from Posts
func (t *Thread) RecomputeTotals() {
	t.TotalMetrics = SumMetrics(t.Posts)
}

// MediaMap maps the 1-based media number used in blog placeholders to its attachment
type MediaMap map[int]Attachment

// BlogPost is the rewritten article produced from a thread
type BlogPost struct {
	ThreadID  string    `json:"thread_id"`
	Content   string    `json:"content"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Media     MediaMap  `json:"media"`
	CreatedAt time.Time `json:"created_at"`
}

// Usage records token accounting for one rewrite call
type Usage struct {
	Provider             string `json:"provider"`
	Model                string `json:"model"`
	InputTokens          int64  `json:"input_tokens"`
	OutputTokens         int64  `json:"output_tokens"`
	InputCostMillicents  int64  `json:"input_cost_millicents"`
	OutputCostMillicents int64  `json:"output_cost_millicents"`
}

// TotalTokens returns input plus output tokens
func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// TotalCostMillicents returns input plus output cost
func (u Usage) TotalCostMillicents() int64 {
	return u.InputCostMillicents + u.OutputCostMillicents
}

// Pricing is a model's price in cents per million tokens
type Pricing struct {
	InputCentsPerMTok  float64
	OutputCentsPerMTok float64
}

// Price fills in the cost of u, each side rounded to the nearest millicent
func (p Pricing) Price(u Usage) Usage {
	u.InputCostMillicents = millicents(u.InputTokens, p.InputCentsPerMTok)
	u.OutputCostMillicents = millicents(u.OutputTokens, p.OutputCentsPerMTok)
	return u
}

func millicents(tokens int64, centsPerMTok float64) int64 {
	return int64(math.Round(float64(tokens) / 1_000_000 * centsPerMTok * 1000))
}
