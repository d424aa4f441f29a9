package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"adops-engine/backend/internal/config"
	infra "adops-engine/backend/internal/infra/model"
	creativesvc "adops-engine/backend/internal/service/creative"
)

type recordingCompleter struct {
	req      infra.CompletionRequest
	out      infra.Completion
	err      error
	deadline bool
}

func (r *recordingCompleter) Complete(ctx context.Context, req infra.CompletionRequest) (infra.Completion, error) {
	r.req = req
	_, r.deadline = ctx.Deadline()
	return r.out, r.err
}

func TestRouterAppliesDefaults(t *testing.T) {
	client := &recordingCompleter{out: infra.Completion{Text: "Headline: Hi", Usage: &infra.Usage{TotalTokens: 9}}}
	router := NewRouterWithClient("DeepSeek", "", 800, time.Second, client, nil)

	text, err := router.Generate(context.Background(), "prompt", creativesvc.GenerateOptions{Temperature: 0.9})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "Headline: Hi" {
		t.Fatalf("unexpected text %q", text)
	}
	if client.req.Model != "deepseek-chat" || client.req.MaxTokens != 800 || client.req.Temperature != 0.9 {
		t.Fatalf("defaults not applied: %+v", client.req)
	}
	if client.req.System == "" || client.req.Prompt != "prompt" {
		t.Fatalf("messages not built: %+v", client.req)
	}
	if !client.deadline {
		t.Fatalf("timeout should set a context deadline")
	}
}

func TestRouterOptionOverrides(t *testing.T) {
	client := &recordingCompleter{out: infra.Completion{Text: "x"}}
	router := NewRouterWithClient(ProviderOpenAI, "gpt-4o-mini", 800, 0, client, nil)
	if _, err := router.Generate(context.Background(), "p", creativesvc.GenerateOptions{Model: "gpt-4o", MaxTokens: 100}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if client.req.Model != "gpt-4o" || client.req.MaxTokens != 100 {
		t.Fatalf("options should override defaults: %+v", client.req)
	}
	if client.deadline {
		t.Fatalf("zero timeout should not add a deadline")
	}
}

func TestRouterErrors(t *testing.T) {
	unconfigured := NewRouterWithClient(ProviderDeepSeek, "", 0, 0, nil, nil)
	if _, err := unconfigured.Generate(context.Background(), "p", creativesvc.GenerateOptions{}); !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}

	upstream := errors.New("503")
	failing := NewRouterWithClient(ProviderDeepSeek, "", 0, 0, &recordingCompleter{err: upstream}, nil)
	if _, err := failing.Generate(context.Background(), "p", creativesvc.GenerateOptions{}); !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	empty := NewRouterWithClient(ProviderDeepSeek, "", 0, 0, &recordingCompleter{out: infra.Completion{Text: "  "}}, nil)
	if _, err := empty.Generate(context.Background(), "p", creativesvc.GenerateOptions{}); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestNewRouterFromConfig(t *testing.T) {
	if _, err := NewRouter(config.TextGenConfig{Provider: "claude-on-a-toaster"}, nil); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}

	for _, provider := range []string{ProviderDeepSeek, ProviderVolcengine, ProviderOpenAI} {
		router, err := NewRouter(config.TextGenConfig{Provider: provider, APIKey: "k", Timeout: time.Second}, nil)
		if err != nil {
			t.Fatalf("%s: %v", provider, err)
		}
		if router.client == nil || router.Model() != defaultModels[provider] {
			t.Fatalf("%s: unexpected router %+v", provider, router)
		}
	}

	keyless, err := NewRouter(config.TextGenConfig{Provider: ProviderDeepSeek}, nil)
	if err != nil || keyless.client != nil {
		t.Fatalf("missing api key should build a router without client")
	}
}
