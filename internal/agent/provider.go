package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"

	"github.com/emaadiliX/retail-operations-copilot/config"
)

// ToolHandler executes one tool call with raw JSON arguments.
type ToolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// Tool is a function exposed to the model during the research stage.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     ToolHandler
}

// Provider is the LLM capability the pipeline stages build on.
type Provider interface {
	// Complete runs a single structured completion and returns the raw
	// model output.
	Complete(ctx context.Context, instructions, prompt string) (string, error)
	// CompleteWithTools runs a counted tool-call loop. Exceeding maxRounds
	// returns ErrToolBudgetExhausted.
	CompleteWithTools(ctx context.Context, instructions, prompt string, tools []Tool, maxRounds int) (string, error)
}

// OpenAIProvider implements Provider over an OpenAI-compatible chat API.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *log.Logger
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider from config.
func NewOpenAIProvider(cfg config.LLMConfig) (*OpenAIProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		logger:      log.New(log.Writer(), "[LLM] ", log.LstdFlags),
	}, nil
}

// Complete runs one completion in JSON mode.
func (p *OpenAIProvider) Complete(ctx context.Context, instructions, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instructions},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteWithTools runs the tool loop: the model may call tools for up to
// maxRounds rounds; tool results are appended to the conversation and the
// loop ends when the model answers without tool calls.
func (p *OpenAIProvider) CompleteWithTools(ctx context.Context, instructions, prompt string, tools []Tool, maxRounds int) (string, error) {
	oaTools := make([]openai.Tool, len(tools))
	byName := make(map[string]Tool, len(tools))
	for i, t := range tools {
		oaTools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
		byName[t.Name] = t
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: instructions},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	for round := 0; round < maxRounds; round++ {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       p.model,
			Temperature: p.temperature,
			MaxTokens:   p.maxTokens,
			Messages:    messages,
			Tools:       oaTools,
		})
		if err != nil {
			return "", fmt.Errorf("chat completion (round %d): %w", round+1, err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("chat completion returned no choices (round %d)", round+1)
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		messages = append(messages, msg)
		for _, tc := range msg.ToolCalls {
			tool, ok := byName[tc.Function.Name]
			var output string
			if !ok {
				output = fmt.Sprintf("unknown tool %q", tc.Function.Name)
				p.logger.Printf("model requested unknown tool %q", tc.Function.Name)
			} else {
				output, err = tool.Handler(ctx, json.RawMessage(tc.Function.Arguments))
				if err != nil {
					return "", fmt.Errorf("tool %s: %w", tc.Function.Name, err)
				}
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    output,
				ToolCallID: tc.ID,
			})
		}
	}
	return "", fmt.Errorf("no final answer after %d rounds: %w", maxRounds, ErrToolBudgetExhausted)
}
