package capture

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/ibeckermayer/elongatd/internal/thread"
)

// LoadPayloadFile reads a captured payload from disk. The file may hold the
// TweetDetail body itself, or a HAR export from browser devtools in which
// case the first TweetDetail response is used.
func LoadPayloadFile(path string) (thread.RawPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("payload %s is not valid JSON", path)
	}

	entries := gjson.GetBytes(data, "log.entries")
	if !entries.IsArray() {
		return thread.RawPayload(data), nil
	}

	body, err := payloadFromHAR(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to read HAR %s: %w", path, err)
	}
	return body, nil
}

func payloadFromHAR(entries gjson.Result) (thread.RawPayload, error) {
	for _, entry := range entries.Array() {
		if !IsTweetDetailURL(entry.Get("request.url").String()) {
			continue
		}
		content := entry.Get("response.content")
		text := content.Get("text").String()
		if text == "" {
			continue
		}
		if content.Get("encoding").String() == "base64" {
			decoded, err := base64.StdEncoding.DecodeString(text)
			if err != nil {
				return nil, fmt.Errorf("failed to decode response body: %w", err)
			}
			return thread.RawPayload(decoded), nil
		}
		return thread.RawPayload(text), nil
	}
	return nil, ErrNoPayload
}
