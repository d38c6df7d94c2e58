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
	"time"

	"github.com/stellarlinkco/onair/internal/config"
)

const requestTimeout = 60 * time.Second

// ollamaBackend speaks the ollama /api/chat protocol.
type ollamaBackend struct {
	baseURL string
	client  *http.Client
}

func newOllamaBackend(cfg config.ProviderConfig) *ollamaBackend {
	return &ollamaBackend{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
	}
}

type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

func (b *ollamaBackend) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	body, err := b.do(ctx, messages, opts, false)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var resp ollamaResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: %s", resp.Error)
	}
	return strings.TrimSpace(resp.Message.Content), nil
}

func (b *ollamaBackend) ChatStream(ctx context.Context, messages []Message, opts Options) (<-chan string, <-chan error) {
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

		// Streaming responses are newline-delimited JSON objects.
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var resp ollamaResponse
			if err := json.Unmarshal(line, &resp); err != nil {
				errs <- fmt.Errorf("decode ollama chunk: %w", err)
				return
			}
			if resp.Error != "" {
				errs <- fmt.Errorf("ollama: %s", resp.Error)
				return
			}
			if resp.Message.Content != "" {
				select {
				case chunks <- resp.Message.Content:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
			if resp.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- fmt.Errorf("read ollama stream: %w", err)
		}
	}()

	return chunks, errs
}

func (b *ollamaBackend) do(ctx context.Context, messages []Message, opts Options, stream bool) (io.ReadCloser, error) {
	reqBody := ollamaRequest{
		Model:    opts.Model,
		Messages: messages,
		Stream:   stream,
		Options: map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp.Body, nil
}
