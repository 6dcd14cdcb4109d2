package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

type anthropicProvider struct {
	client anthropic.Client
	cfg    Config
	log    zerolog.Logger
}

func newAnthropicProvider(cfg Config, log zerolog.Logger) (*anthropicProvider, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := anthropic.NewClient(opts...)

	return &anthropicProvider{
		client: client,
		cfg:    cfg,
		log:    log.With().Str("provider", "claude").Logger(),
	}, nil
}

func (p *anthropicProvider) Name() string {
	return string(ProviderClaude)
}

func (p *anthropicProvider) buildParams(params GenerateParams) anthropic.MessageNewParams {
	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	messages := make([]anthropic.MessageParam, 0, len(params.Messages))
	for _, msg := range params.Messages {
		switch msg.Role {
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	out := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.cfg.Model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if params.SystemPrompt != "" {
		out.System = []anthropic.TextBlockParam{
			{Text: params.SystemPrompt},
		}
	}
	if params.Temperature > 0 {
		out.Temperature = anthropic.Float(params.Temperature)
	}
	return out
}

func (p *anthropicProvider) Generate(ctx context.Context, params GenerateParams) (string, error) {
	message, err := p.client.Messages.New(ctx, p.buildParams(params))
	if err != nil {
		return "", err
	}
	text := ""
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += textBlock.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}
	return text, nil
}

func (p *anthropicProvider) GenerateStream(ctx context.Context, params GenerateParams) (<-chan StreamEvent, error) {
	events := make(chan StreamEvent, 100)

	go func() {
		defer close(events)

		stream := p.client.Messages.NewStreaming(ctx, p.buildParams(params))

		finishReason := ""
		for stream.Next() {
			event := stream.Current()
			switch evt := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if delta, ok := evt.Delta.AsAny().(anthropic.TextDelta); ok {
					events <- StreamEvent{
						Type:  StreamEventDelta,
						Delta: delta.Text,
					}
				}
			case anthropic.MessageDeltaEvent:
				finishReason = string(evt.Delta.StopReason)
			}
		}

		if err := stream.Err(); err != nil {
			events <- StreamEvent{
				Type:  StreamEventError,
				Error: err,
			}
			return
		}
		events <- StreamEvent{
			Type:         StreamEventComplete,
			FinishReason: finishReason,
		}
	}()

	return events, nil
}
