package relay

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"

	"github.com/plumechat/plume/pkg/chat"
)

var _ Provider = (*Gemini)(nil)

// GeminiConfig configures the Gemini binding.
type GeminiConfig struct {
	// APIKey is required; construction fails without it.
	APIKey string

	// Model is the default model, used when the request options name none.
	// Should not start with "models/".
	Model string
}

// Gemini implements Provider using the Google Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a Gemini provider. It fails fast with ErrNoCredential
// when the API key is absent.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("relay: gemini: %w", ErrNoCredential)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("relay: gemini client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

func (g *Gemini) GenerateStream(ctx context.Context, req *Request) (Stream, error) {
	cfg, contents, err := geminiConvRequest(req)
	if err != nil {
		return nil, err
	}
	b := NewBuilder(32)
	go func() {
		if err := geminiPull(b, g.client.Models.GenerateContentStream(ctx, g.resolveModel(req), contents, cfg)); err != nil {
			b.Abort(err)
		}
	}()
	return b.Stream(), nil
}

func (g *Gemini) Generate(ctx context.Context, req *Request) (string, Usage, error) {
	cfg, contents, err := geminiConvRequest(req)
	if err != nil {
		return "", Usage{}, err
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.resolveModel(req), contents, cfg)
	if err != nil {
		return "", Usage{}, &UpstreamError{Provider: "gemini", Err: geminiUnwrap(err)}
	}
	if len(resp.Candidates) == 0 {
		return "", Usage{}, &UpstreamError{Provider: "gemini", Err: errors.New("empty completion")}
	}
	cand := resp.Candidates[0]
	usage := geminiConvUsage(resp.UsageMetadata)
	switch cand.FinishReason {
	case genai.FinishReasonStop:
	case genai.FinishReasonMaxTokens:
		return "", usage, Truncated(usage)
	case genai.FinishReasonSafety:
		return "", usage, Blocked(usage, geminiRefusal(cand))
	default:
		return "", usage, &UpstreamError{
			Provider: "gemini",
			Err:      fmt.Errorf("unexpected finish reason: %s", cand.FinishReason),
		}
	}
	text := geminiText(cand)
	if text == "" {
		return "", usage, &UpstreamError{Provider: "gemini", Err: errors.New("empty completion")}
	}
	return text, usage, nil
}

func (g *Gemini) resolveModel(req *Request) string {
	if req.Options != nil && req.Options.Model != "" {
		return req.Options.Model
	}
	return g.model
}

func geminiPull(b *Builder, itr iter.Seq2[*genai.GenerateContentResponse, error]) error {
	for chunk, err := range itr {
		if err != nil {
			return &UpstreamError{Provider: "gemini", Err: geminiUnwrap(err)}
		}
		if len(chunk.Candidates) == 0 {
			continue
		}
		cand := chunk.Candidates[0]
		if text := geminiText(cand); text != "" {
			if err := b.Add(text); err != nil {
				return err
			}
		}
		switch cand.FinishReason {
		case genai.FinishReasonUnspecified, "":
			// mid-stream chunk
		case genai.FinishReasonStop:
			return b.Done(geminiConvUsage(chunk.UsageMetadata))
		case genai.FinishReasonMaxTokens:
			return b.Truncated(geminiConvUsage(chunk.UsageMetadata))
		case genai.FinishReasonSafety:
			return b.Blocked(geminiConvUsage(chunk.UsageMetadata), geminiRefusal(cand))
		default:
			return b.Unexpected(
				geminiConvUsage(chunk.UsageMetadata),
				fmt.Errorf("unexpected finish reason: %s", cand.FinishReason),
			)
		}
	}
	return &UpstreamError{
		Provider: "gemini",
		Err:      errors.New("unexpected end of stream: no finish reason"),
	}
}

// geminiConvRequest converts a relay request to Gemini config and
// contents. Consecutive same-role turns merge into one content because
// Gemini requires alternating roles.
func geminiConvRequest(req *Request) (*genai.GenerateContentConfig, []*genai.Content, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}
	if o := req.Options; o != nil {
		if o.MaxOutputTokens > 0 {
			cfg.MaxOutputTokens = int32(o.MaxOutputTokens)
		}
		if o.Temperature > 0 {
			t := o.Temperature
			cfg.Temperature = &t
		}
		if o.TopP > 0 {
			p := o.TopP
			cfg.TopP = &p
		}
	}

	var (
		contents []*genai.Content
		last     *genai.Content
	)
	for _, turn := range req.History {
		role := "user"
		if turn.Role == chat.RoleAssistant {
			role = "model"
		}
		part := genai.NewPartFromText(turn.Text)
		if last != nil && last.Role == role {
			last.Parts = append(last.Parts, part)
			continue
		}
		last = &genai.Content{Role: role, Parts: []*genai.Part{part}}
		contents = append(contents, last)
	}
	if len(contents) == 0 {
		return nil, nil, fmt.Errorf("relay: gemini: no contents")
	}
	return cfg, contents, nil
}

func geminiText(cand *genai.Candidate) string {
	if cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

func geminiRefusal(cand *genai.Candidate) string {
	var cats []string
	for _, sr := range cand.SafetyRatings {
		if sr.Blocked {
			cats = append(cats, string(sr.Category))
		}
	}
	return "blocked by " + strings.Join(cats, ", ")
}

func geminiUnwrap(err error) error {
	if e, ok := err.(*apierror.APIError); ok {
		return e.Unwrap()
	}
	return err
}

func geminiConvUsage(usage *genai.GenerateContentResponseUsageMetadata) Usage {
	if usage == nil {
		return Usage{}
	}
	return Usage{
		PromptTokenCount:        int64(usage.PromptTokenCount),
		CachedContentTokenCount: int64(usage.CachedContentTokenCount),
		GeneratedTokenCount:     int64(usage.CandidatesTokenCount),
	}
}
