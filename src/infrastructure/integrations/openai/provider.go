package openai

import (
	"context"
)

// Provider adapts Client to the pipeline's llm.Provider interface, binding
// the embedding and chat model names.
type Provider struct {
	client         *Client
	embeddingModel string
	chatModel      string
}

func NewProvider(client *Client, embeddingModel, chatModel string) *Provider {
	return &Provider{
		client:         client,
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	return p.client.GetEmbedding(ctx, p.embeddingModel, text)
}

func (p *Provider) Generate(ctx context.Context, system string, prompt string) (string, error) {
	return p.client.ChatCompletion(ctx, p.chatModel, system, prompt)
}
