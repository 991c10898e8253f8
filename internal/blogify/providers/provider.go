// Package providers adapts LLM SDKs to a single completion call
package providers

import (
	"strings"

	"github.com/ibeckermayer/elongatd/internal/types"
)

// Request is one system+user completion
type Request struct {
	System    string
	Prompt    string
	MaxTokens int64
}

// Completion is the text a model returned and what it cost
type Completion struct {
	Text  string
	Usage types.Usage
}

const defaultMaxTokens = 4096

func maxTokens(n int64) int64 {
	if n <= 0 {
		return defaultMaxTokens
	}
	return n
}

func joinText(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, ""))
}
