// Package relay bridges a chat transcript to a hosted generative-text
// provider and exposes the reply as a pull-based stream of text fragments.
//
// Each call opens exactly one upstream request: no retry, no caching, no
// rate limiting. The consumer drives progress by calling Stream.Next;
// cancellation is the caller's responsibility (cancel the context or stop
// reading). Concurrent calls share no state.
package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/plumechat/plume/pkg/chat"
)

// ErrNoCredential is returned by provider constructors when the required
// API credential is absent. Fatal to that provider instance.
var ErrNoCredential = errors.New("relay: missing API credential")

// UpstreamError reports a failed provider call: network fault, malformed
// response, or empty completion.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("relay: upstream %s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Request is the provider-facing form of one generation call: the system
// instruction, the conversation history ending in the new user turn, and
// the generation options.
type Request struct {
	System  string
	History []*chat.Turn
	Options *chat.GenerationOptions
}

// Provider is the upstream text-generation capability the relay depends
// on. One concrete binding is selected by configuration.
type Provider interface {
	// GenerateStream opens one upstream request and returns the reply as
	// a finite, single-pass fragment stream.
	GenerateStream(ctx context.Context, req *Request) (Stream, error)

	// Generate performs the same request but waits for full completion
	// and returns the concatenated text.
	Generate(ctx context.Context, req *Request) (string, Usage, error)
}

// Relay validates transcripts and forwards them to a provider. It retains
// nothing between calls.
type Relay struct {
	provider Provider
}

func New(p Provider) *Relay {
	return &Relay{provider: p}
}

// OpenStream validates the transcript and opens one upstream streaming
// request. The returned stream is not restartable; calling OpenStream
// again issues a brand-new upstream request.
func (r *Relay) OpenStream(ctx context.Context, t chat.Transcript, opts *chat.GenerationOptions) (Stream, error) {
	if err := chat.Validate(t); err != nil {
		return nil, err
	}
	return r.provider.GenerateStream(ctx, buildRequest(t, opts))
}

// GenerateComplete validates the transcript and performs a single
// non-streaming upstream request, returning the full reply text.
func (r *Relay) GenerateComplete(ctx context.Context, t chat.Transcript, opts *chat.GenerationOptions) (string, error) {
	if err := chat.Validate(t); err != nil {
		return "", err
	}
	text, _, err := r.provider.Generate(ctx, buildRequest(t, opts))
	return text, err
}

// buildRequest partitions the transcript: the first system turn becomes
// the system instruction (falling back to Options.SystemInstruction), and
// the user/assistant turns become the history.
func buildRequest(t chat.Transcript, opts *chat.GenerationOptions) *Request {
	system := t.System()
	if system == "" && opts != nil {
		system = opts.SystemInstruction
	}
	return &Request{
		System:  system,
		History: t.History(),
		Options: opts,
	}
}

// Usage reports token accounting for one upstream call.
type Usage struct {
	// Number of tokens in the prompt, including any cached content.
	PromptTokenCount int64

	// Number of tokens served from cached content.
	CachedContentTokenCount int64

	// Number of tokens generated.
	GeneratedTokenCount int64
}

func (u Usage) String() string {
	b, _ := yaml.Marshal(map[string]map[string]any{
		"Usage": {
			"Prompt":    u.PromptTokenCount,
			"Cached":    u.CachedContentTokenCount,
			"Generated": u.GeneratedTokenCount,
		},
	})
	return string(b)
}
