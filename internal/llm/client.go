// Package llm holds the shared OpenAI-compatible client construction plus
// the transient/permanent failure classification used by every remote call.
package llm

import (
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// NewClient builds an OpenAI-compatible API client. The key is read from the
// environment variable named by apiKeyEnv, never from config files.
func NewClient(baseURL, apiKeyEnv string, timeout time.Duration) (*openai.Client, error) {
	key := os.Getenv(apiKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", apiKeyEnv)
	}
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(cfg), nil
}
