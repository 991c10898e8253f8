package store

import (
	"time"
)

// LLMExchange represents a prompt/response pair for caching
type LLMExchange struct {
	Timestamp time.Time `json:"timestamp"`
	ThreadID  string    `json:"thread_id"`
	Provider  string    `json:"provider"` // "anthropic" or "openai"
	Model     string    `json:"model"`
	System    string    `json:"system,omitempty"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Error     string    `json:"error,omitempty"`
}

// SaveLLMExchange writes an exchange to the llm step directory.
// Returns the path to the saved file.
func (c StepCache) SaveLLMExchange(exchange LLMExchange) (string, error) {
	if exchange.Timestamp.IsZero() {
		exchange.Timestamp = now()
	}
	return SaveStepOutput(c, StepLLM, exchange.ThreadID, exchange)
}
