package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"
	"go.mau.fi/util/random"
)

// openAICompatProvider talks to any backend that speaks the OpenAI chat
// completions protocol: OpenAI itself, DeepSeek, Ollama and LM Studio.
type openAICompatProvider struct {
	client openai.Client
	cfg    Config
	log    zerolog.Logger
}

func newOpenAICompatProvider(cfg Config, log zerolog.Logger) (*openAICompatProvider, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, option.WithMiddleware(makeRequestTraceMiddleware(log)))

	client := openai.NewClient(opts...)

	return &openAICompatProvider{
		client: client,
		cfg:    cfg,
		log:    log.With().Str("provider", string(cfg.Type)).Logger(),
	}, nil
}

func (p *openAICompatProvider) Name() string {
	return string(p.cfg.Type)
}

func (p *openAICompatProvider) buildParams(params GenerateParams) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(params.Messages)+1)
	if params.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(params.SystemPrompt))
	}
	for _, msg := range params.Messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	out := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.cfg.Model),
		Messages: messages,
	}
	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	out.MaxCompletionTokens = openai.Int(int64(maxTokens))
	if params.Temperature > 0 {
		out.Temperature = openai.Float(params.Temperature)
	}
	return out
}

func (p *openAICompatProvider) Generate(ctx context.Context, params GenerateParams) (string, error) {
	completion, err := p.client.Chat.Completions.New(ctx, p.buildParams(params))
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}

func (p *openAICompatProvider) GenerateStream(ctx context.Context, params GenerateParams) (<-chan StreamEvent, error) {
	events := make(chan StreamEvent, 100)

	go func() {
		defer close(events)

		stream := p.client.Chat.Completions.NewStreaming(ctx, p.buildParams(params))

		finishReason := ""
		for stream.Next() {
			chunk := stream.Current()
			for _, choice := range chunk.Choices {
				if choice.Delta.Content != "" {
					events <- StreamEvent{
						Type:  StreamEventDelta,
						Delta: choice.Delta.Content,
					}
				}
				if choice.FinishReason != "" {
					finishReason = choice.FinishReason
				}
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

func newOutboundRequestID() string {
	return "blr_" + random.String(12)
}

func makeRequestTraceMiddleware(log zerolog.Logger) option.Middleware {
	traceLog := log.With().Str("component", "llm_http").Logger()
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		start := time.Now()
		requestID := strings.TrimSpace(req.Header.Get("x-request-id"))
		if requestID == "" {
			requestID = newOutboundRequestID()
			req.Header.Set("x-request-id", requestID)
		}

		reqHost := ""
		reqPath := ""
		if req.URL != nil {
			reqHost = req.URL.Host
			reqPath = req.URL.Path
		}

		traceLog.Debug().
			Str("request_id", requestID).
			Str("request_method", req.Method).
			Str("request_host", reqHost).
			Str("request_path", reqPath).
			Msg("Outbound LLM request")

		resp, err := next(req)

		evt := traceLog.Debug().
			Str("request_id", requestID).
			Dur("duration", time.Since(start))
		if err != nil {
			evt.Err(err).Msg("Outbound LLM request failed")
			return resp, err
		}
		evt.Int("status", resp.StatusCode).Msg("Outbound LLM response")
		return resp, nil
	}
}
