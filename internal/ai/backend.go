package ai

import "context"

// Backend binds an OpenAI-compatible client to fixed chat and embedding
// configurations. It satisfies the app layer's GenerationBackend interface so
// the assistant service stays independent of provider wiring.
type Backend struct {
	client *OpenAICompatibleClient
	emb    EmbeddingConfig
	chat   ChatConfig
}

func NewBackend(client *OpenAICompatibleClient, emb EmbeddingConfig, chat ChatConfig) *Backend {
	if client == nil {
		client = NewOpenAICompatibleClient()
	}
	return &Backend{client: client, emb: emb, chat: chat}
}

func (b *Backend) Embed(ctx context.Context, text string) ([]float32, error) {
	return b.client.Embed(ctx, b.emb, text)
}

func (b *Backend) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return b.client.EmbedBatch(ctx, b.emb, texts)
}

func (b *Backend) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	return b.client.Complete(ctx, b.chat, messages)
}
