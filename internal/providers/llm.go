package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/clipforge/clipforge/internal/log"
	"github.com/clipforge/clipforge/internal/pkg/httpclient"
	"github.com/clipforge/clipforge/internal/respcache"
	"github.com/clipforge/clipforge/internal/tracing"
)

// LLMScriptGenerator generates scripts through an OpenAI-compatible
// chat-completions API. Responses are memoized in the response cache, so
// regenerating a video for the same topic does not call the provider again.
type LLMScriptGenerator struct {
	cfg    ScriptConfig
	client *httpclient.Client
	cache  *respcache.Cache
}

var _ ScriptGenerator = (*LLMScriptGenerator)(nil)

// NewLLMScriptGenerator creates a generator on top of the shared HTTP client
// and response cache.
func NewLLMScriptGenerator(cfg ScriptConfig, client *httpclient.Client, cache *respcache.Cache) *LLMScriptGenerator {
	return &LLMScriptGenerator{
		cfg:    cfg,
		client: client,
		cache:  cache,
	}
}

// GenerateScript returns the narration script for the request, from cache
// when a previous call with the same parameters is still valid.
func (g *LLMScriptGenerator) GenerateScript(ctx context.Context, req ScriptRequest) (string, error) {
	ctx = tracing.EnsureTraceID(ctx)
	ctx = tracing.WithOperationName(ctx, "generate_script")

	prompt := g.buildPrompt(req)

	params := respcache.Params{
		Provider: "llm",
		Model:    g.cfg.Model,
		Prompt:   prompt,
		Extra: map[string]any{
			"temperature": g.cfg.Temperature,
		},
	}

	compute := func(ctx context.Context) ([]byte, error) {
		return g.complete(ctx, prompt)
	}

	// An unset CacheTTL keeps the cache's own default instead of pinning
	// entries forever.
	var (
		value []byte
		hit   bool
		err   error
	)

	if g.cfg.CacheTTL > 0 {
		value, hit, err = g.cache.GetOrComputeTTL(ctx, params, g.cfg.CacheTTL, compute)
	} else {
		value, hit, err = g.cache.GetOrCompute(ctx, params, compute)
	}
	if err != nil {
		return "", err
	}

	if hit {
		log.Debug(ctx, "script served from cache", log.String("topic", req.Topic))
	}

	return string(value), nil
}

// complete performs one chat-completions call and returns the message text.
func (g *LLMScriptGenerator) complete(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(map[string]any{
		"model":       g.cfg.Model,
		"temperature": g.cfg.Temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    strings.TrimSuffix(g.cfg.BaseURL, "/") + "/v1/chat/completions",
		Headers: http.Header{
			"Content-Type": {"application/json"},
		},
		Body: body,
		Auth: &httpclient.AuthConfig{
			Type:   httpclient.AuthTypeBearer,
			APIKey: g.cfg.APIKey,
		},
		Resource: g.cfg.Resource,
	})
	if err != nil {
		return nil, err
	}

	content := gjson.GetBytes(resp.Body, "choices.0.message.content")
	if !content.Exists() {
		return nil, fmt.Errorf("chat completion response has no content: %s", resp.Body)
	}

	script := strings.TrimSpace(content.String())
	if script == "" {
		return nil, fmt.Errorf("chat completion returned an empty script")
	}

	return []byte(script), nil
}

func (g *LLMScriptGenerator) buildPrompt(req ScriptRequest) string {
	var b strings.Builder

	sentences := req.Sentences
	if sentences <= 0 {
		sentences = 4
	}

	fmt.Fprintf(&b, "Write a narration script for a short vertical video about: %s.\n", req.Topic)
	fmt.Fprintf(&b, "Use at most %d sentences.\n", sentences)
	b.WriteString("Return only the spoken text, without scene directions, markdown or hashtags.\n")

	if req.Language != "" {
		fmt.Fprintf(&b, "Write the script in %s.\n", req.Language)
	}

	return b.String()
}
