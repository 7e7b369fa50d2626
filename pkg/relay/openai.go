package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/plumechat/plume/pkg/chat"
)

var _ Provider = (*OpenAI)(nil)

const (
	oaiFinishReasonStop          = "stop"
	oaiFinishReasonLength        = "length"
	oaiFinishReasonContentFilter = "content_filter"
)

// OpenAIConfig configures the OpenAI binding. BaseURL makes it work
// against any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	// APIKey is required; construction fails without it.
	APIKey string

	BaseURL string

	// Model is the default model, used when the request options name none.
	Model string
}

// OpenAI implements Provider using the OpenAI chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds an OpenAI provider. It fails fast with ErrNoCredential
// when the API key is absent.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("relay: openai: %w", ErrNoCredential)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAI{client: &client, model: cfg.Model}, nil
}

func (g *OpenAI) GenerateStream(ctx context.Context, req *Request) (Stream, error) {
	params, err := g.chatCompletion(req)
	if err != nil {
		return nil, err
	}
	b := NewBuilder(32)
	go func() {
		if err := oaiPull(b, g.client.Chat.Completions.NewStreaming(ctx, params)); err != nil {
			b.Abort(err)
		}
	}()
	return b.Stream(), nil
}

func (g *OpenAI) Generate(ctx context.Context, req *Request) (string, Usage, error) {
	params, err := g.chatCompletion(req)
	if err != nil {
		return "", Usage{}, err
	}
	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", Usage{}, &UpstreamError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", Usage{}, &UpstreamError{Provider: "openai", Err: errors.New("empty completion")}
	}
	choice := resp.Choices[0]
	usage := oaiConvUsage(&resp.Usage)
	if choice.Message.Refusal != "" {
		return "", usage, Blocked(usage, choice.Message.Refusal)
	}
	switch choice.FinishReason {
	case oaiFinishReasonStop:
	case oaiFinishReasonLength:
		return "", usage, Truncated(usage)
	case oaiFinishReasonContentFilter:
		return "", usage, Blocked(usage, "content filter")
	default:
		return "", usage, &UpstreamError{
			Provider: "openai",
			Err:      fmt.Errorf("unexpected finish reason: %s", choice.FinishReason),
		}
	}
	if choice.Message.Content == "" {
		return "", usage, &UpstreamError{Provider: "openai", Err: errors.New("empty completion")}
	}
	return choice.Message.Content, usage, nil
}

func (g *OpenAI) chatCompletion(req *Request) (openai.ChatCompletionNewParams, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, turn := range req.History {
		switch turn.Role {
		case chat.RoleUser:
			msgs = append(msgs, openai.UserMessage(turn.Text))
		case chat.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(turn.Text))
		default:
			return openai.ChatCompletionNewParams{}, fmt.Errorf("relay: openai: unexpected history role: %s", turn.Role)
		}
	}
	model := g.model
	if req.Options != nil && req.Options.Model != "" {
		model = req.Options.Model
	}
	params := openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    model,
	}
	if o := req.Options; o != nil {
		if o.Temperature > 0 {
			params.Temperature = param.NewOpt(float64(o.Temperature))
		}
		if o.TopP > 0 {
			params.TopP = param.NewOpt(float64(o.TopP))
		}
		if o.MaxOutputTokens > 0 {
			params.MaxCompletionTokens = param.NewOpt(int64(o.MaxOutputTokens))
		}
	}
	return params, nil
}

func oaiPull(b *Builder, stream *ssestream.Stream[openai.ChatCompletionChunk]) error {
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		sel := chunk.Choices[0]
		if s := sel.Delta.Content; s != "" {
			if err := b.Add(s); err != nil {
				return err
			}
		}
		if s := sel.Delta.Refusal; s != "" {
			return b.Blocked(oaiConvUsage(&chunk.Usage), s)
		}
		switch sel.FinishReason {
		case oaiFinishReasonStop:
			return b.Done(oaiConvUsage(&chunk.Usage))
		case oaiFinishReasonLength:
			return b.Truncated(oaiConvUsage(&chunk.Usage))
		case oaiFinishReasonContentFilter:
			return b.Blocked(oaiConvUsage(&chunk.Usage), "content filter")
		}
	}
	if err := stream.Err(); err != nil {
		return &UpstreamError{Provider: "openai", Err: err}
	}
	return &UpstreamError{
		Provider: "openai",
		Err:      errors.New("unexpected end of stream: no finish reason"),
	}
}

func oaiConvUsage(usage *openai.CompletionUsage) Usage {
	return Usage{
		PromptTokenCount:    usage.PromptTokens,
		GeneratedTokenCount: usage.CompletionTokens,
	}
}
