package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// DeepSeekClient implements Client over DeepSeek's OpenAI-compatible chat
// completions API.
type DeepSeekClient struct {
	client *openai.Client
	model  string
}

// NewDeepSeekClient constructs a client pointed at baseURL using the given
// API key and model. Callers typically obtain apiKey from
// config.Config.OpenAPIKey so the key never lives as a long-lived string.
func NewDeepSeekClient(apiKey, model, baseURL string) *DeepSeekClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &DeepSeekClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func buildRequest(model, systemPrompt, userPrompt string, params Params, stream bool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Stream: stream,
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}
	return req
}

// Complete implements Client.
func (d *DeepSeekClient) Complete(ctx context.Context, systemPrompt, userPrompt string, params Params) (string, error) {
	req := buildRequest(d.model, systemPrompt, userPrompt, params, false)

	resp, err := d.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("deepseek completion failed", "error", err)
		return "", fmt.Errorf("llm: deepseek completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: deepseek returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream implements Client. It always closes ch before returning.
func (d *DeepSeekClient) Stream(ctx context.Context, systemPrompt, userPrompt string, params Params, ch chan<- StreamChunk) error {
	defer close(ch)

	req := buildRequest(d.model, systemPrompt, userPrompt, params, true)

	stream, err := d.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		ch <- StreamChunk{Err: fmt.Errorf("llm: open deepseek stream: %w", err)}
		return err
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			ch <- StreamChunk{Done: true}
			return nil
		}
		if err != nil {
			wrapped := fmt.Errorf("llm: deepseek stream read: %w", err)
			ch <- StreamChunk{Err: wrapped}
			return wrapped
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		select {
		case ch <- StreamChunk{Content: delta}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
