package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"HealthAssist/pkg/logger"
)

// SystemPrompt frames every chat request sent upstream.
const SystemPrompt = "You are a helpful health assistant avatar. You help users track their health, steps, water intake, and medication. Be concise, friendly, and motivating."

var ErrUpstreamUnavailable = errors.New("llm upstream unavailable")

// CompletionStreamer opens a streamed chat completion and hands back the raw
// event-stream body.
type CompletionStreamer interface {
	StreamCompletion(ctx context.Context, message string) (io.ReadCloser, error)
}

type LLMConfig struct {
	Endpoint string
	Model    string
	APIKey   string
}

// LLMService talks to an OpenAI-compatible /chat/completions endpoint.
type LLMService struct {
	cfg    LLMConfig
	client *http.Client
	log    *logger.Logger
}

// NewLLMService uses http.DefaultClient when client is nil; no request
// timeout is imposed beyond the transport's own.
func NewLLMService(cfg LLMConfig, client *http.Client, log *logger.Logger) *LLMService {
	if client == nil {
		client = http.DefaultClient
	}
	return &LLMService{cfg: cfg, client: client, log: log.With("service", "LLMService")}
}

func (s *LLMService) StreamCompletion(ctx context.Context, message string) (io.ReadCloser, error) {
	reqBody := openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		Stream: true,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	s.log.Debug("opening completion stream", "endpoint", s.cfg.Endpoint, "model", s.cfg.Model)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, fmt.Errorf("%w: no response body", ErrUpstreamUnavailable)
	}
	return resp.Body, nil
}
