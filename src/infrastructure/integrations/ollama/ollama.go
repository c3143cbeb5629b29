package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// Provider implements llm.Provider on top of the official Ollama API client.
// It is the local alternative to the OpenAI provider; no credential needed.
type Provider struct {
	client         *api.Client
	embeddingModel string
	chatModel      string
}

// NewProvider creates a Provider talking to the Ollama server at baseURL.
func NewProvider(baseURL, embeddingModel, chatModel string, httpClient *http.Client) (*Provider, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Provider{
		client:         api.NewClient(u, httpClient),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}, nil
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  p.embeddingModel,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	embedding32 := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		embedding32[i] = float32(v)
	}

	return embedding32, nil
}

func (p *Provider) Generate(ctx context.Context, system string, prompt string) (string, error) {
	stream := false
	var out strings.Builder

	err := p.client.Generate(ctx, &api.GenerateRequest{
		Model:  p.chatModel,
		System: system,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("no response received from Ollama")
	}

	return out.String(), nil
}
