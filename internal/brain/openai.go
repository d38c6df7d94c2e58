package brain

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stellarlinkco/onair/internal/config"
)

// openaiBackend speaks the OpenAI-compatible /chat/completions protocol,
// which also covers local servers exposing the same API.
type openaiBackend struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func newOpenAIBackend(cfg config.ProviderConfig) *openaiBackend {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" || base == config.DefaultOllamaURL {
		base = "https://api.openai.com/v1"
	}
	return &openaiBackend{
		baseURL: base,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

type openaiRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message Message `json:"message"`
		Delta   Message `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (b *openaiBackend) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	body, err := b.do(ctx, messages, opts, false)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var resp openaiResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("completion API: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (b *openaiBackend) ChatStream(ctx context.Context, messages []Message, opts Options) (<-chan string, <-chan error) {
	chunks := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		body, err := b.do(ctx, messages, opts, true)
		if err != nil {
			errs <- err
			return
		}
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}
			var resp openaiResponse
			if err := json.Unmarshal([]byte(payload), &resp); err != nil {
				errs <- fmt.Errorf("decode stream chunk: %w", err)
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if content := resp.Choices[0].Delta.Content; content != "" {
				select {
				case chunks <- content:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- fmt.Errorf("read completion stream: %w", err)
		}
	}()

	return chunks, errs
}

func (b *openaiBackend) do(ctx context.Context, messages []Message, opts Options, stream bool) (io.ReadCloser, error) {
	data, err := json.Marshal(openaiRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("completion API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp.Body, nil
}
