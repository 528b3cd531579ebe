// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/James230kk/Abtkar/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*GeminiAdapter)(nil)

type GeminiAdapter struct {
	client            *genai.Client
	defaultModel      string
	maxOut            int
	systemInstruction string
	grounding         bool
}

// NewGeminiAdapter creates a Gemini adapter using the official SDK.
// When grounding is enabled the Google Search tool is attached to every
// request and web sources are forwarded as fragment metadata.
func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, defaultModel, systemInstruction string, maxOut int, grounding bool) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{
		client:            c,
		defaultModel:      defaultModel,
		maxOut:            maxOut,
		systemInstruction: systemInstruction,
		grounding:         grounding,
	}, nil
}

func (g *GeminiAdapter) ListModels(ctx context.Context) ([]string, error) {
	models := g.client.Models.All(ctx)
	var out []string
	for m := range models {
		if m.Name != "" {
			out = append(out, m.Name)
		}
	}
	if len(out) == 0 && g.defaultModel != "" {
		// Best-effort fallback to default
		out = []string{g.defaultModel}
	}
	return out, nil
}

func (g *GeminiAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	contents := toGenAIHistory(messages)
	resp, err := g.client.Models.CountTokens(ctx, modelOrDefault(model, g.defaultModel), contents, nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}

// ChatStream opens a chat with the prior turns as history and streams the
// reply for the last user message, fragment by fragment and in order.
func (g *GeminiAdapter) ChatStream(ctx context.Context, model string, messages []adapter.Message, onFragment adapter.OnFragment) (adapter.Usage, error) {
	if len(messages) == 0 {
		return adapter.Usage{}, errors.New("gemini: no messages")
	}
	last := messages[len(messages)-1]
	if strings.ToLower(last.Role) != "user" {
		return adapter.Usage{}, errors.New("gemini: last message must be from user")
	}
	history := toGenAIHistory(messages[:len(messages)-1])

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.maxOut),
	}
	if g.systemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: g.systemInstruction}},
		}
	}
	if g.grounding {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	chat, err := g.client.Chats.Create(ctx, modelOrDefault(model, g.defaultModel), cfg, history)
	if err != nil {
		return adapter.Usage{}, err
	}

	var usage adapter.Usage
	for resp, err := range chat.SendMessageStream(ctx, genai.Part{Text: last.Content}) {
		if err != nil {
			return usage, err
		}
		f := fragmentFromResponse(resp)
		if resp.UsageMetadata != nil {
			usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
			usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
			usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
		}
		if f.Text == "" && len(f.Grounding) == 0 {
			continue
		}
		if err := onFragment(f); err != nil {
			return usage, err
		}
	}
	return usage, nil
}

func fragmentFromResponse(resp *genai.GenerateContentResponse) adapter.Fragment {
	var f adapter.Fragment
	if resp == nil || len(resp.Candidates) == 0 {
		return f
	}
	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			f.Text += p.Text
		}
	}
	if cand.GroundingMetadata != nil {
		for _, c := range cand.GroundingMetadata.GroundingChunks {
			if c.Web != nil {
				f.Grounding = append(f.Grounding, adapter.GroundingSource{
					Title: c.Web.Title,
					URL:   c.Web.URI,
				})
			}
		}
	}
	return f
}

func toGenAIHistory(msgs []adapter.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		switch strings.ToLower(m.Role) {
		case "assistant", "model":
			role = genai.RoleModel
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return out
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
