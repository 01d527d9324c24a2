package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mmotors/backoffice/internal/ai"
	"github.com/mmotors/backoffice/internal/model"
	"github.com/mmotors/backoffice/internal/repository"
)

type fakeBackend struct {
	fail   bool
	answer string
}

// embedStub gives texts about rentals and purchases orthogonal vectors so
// retrieval order is deterministic.
func embedStub(text string) []float32 {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "rental"):
		return []float32{1, 0}
	case strings.Contains(t, "purchase"):
		return []float32{0, 1}
	default:
		return []float32{0.7, 0.7}
	}
}

func (b *fakeBackend) Embed(_ context.Context, text string) ([]float32, error) {
	if b.fail {
		return nil, errors.New("backend down")
	}
	return embedStub(text), nil
}

func (b *fakeBackend) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if b.fail {
		return nil, errors.New("backend down")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = embedStub(text)
	}
	return out, nil
}

func (b *fakeBackend) Complete(_ context.Context, _ []ai.ChatMessage) (string, error) {
	if b.fail {
		return "", errors.New("backend down")
	}
	return b.answer, nil
}

type assistantEnv struct {
	svc       *AssistantService
	backend   *fakeBackend
	db        *gorm.DB
	knowledge *repository.KnowledgeRepository
	chat      *repository.ChatRepository
}

func newAssistantEnv(t *testing.T) *assistantEnv {
	t.Helper()
	db := newTestDB(t)

	env := &assistantEnv{
		backend:   &fakeBackend{answer: "Grounded answer."},
		db:        db,
		knowledge: repository.NewKnowledgeRepository(db),
		chat:      repository.NewChatRepository(db),
	}
	env.svc = NewAssistantService(env.knowledge, env.chat, env.backend, nil, AssistantConfig{
		ChunkSize:    1000,
		ChunkOverlap: 100,
		TopK:         3,
	})
	return env
}

func TestIngestDocument(t *testing.T) {
	env := newAssistantEnv(t)
	ctx := context.Background()

	_, err := env.svc.IngestDocument(ctx, IngestInput{Title: "", Content: "text"})
	require.ErrorIs(t, err, ErrInvalidInput)

	result, err := env.svc.IngestDocument(ctx, IngestInput{
		Title:    "Rental FAQ",
		Content:  strings.Repeat("x", 2500),
		Metadata: map[string]any{"lang": "en"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.ChunkCount)
	require.True(t, result.Document.EmbeddingStatus)
	require.Equal(t, "en", result.Document.MetadataMap()["lang"])

	chunks, err := env.knowledge.ListChunksByDocumentID(result.Document.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		require.Equal(t, i, chunk.ChunkIndex)
		require.Equal(t, "Rental FAQ", chunk.Source)
	}
}

func TestIngestRollsBackOnFailure(t *testing.T) {
	env := newAssistantEnv(t)
	ctx := context.Background()

	// make chunk persistence fail mid-transaction
	require.NoError(t, env.db.Migrator().DropTable(&model.DocumentChunk{}))

	result, err := env.svc.IngestDocument(ctx, IngestInput{Title: "Rental FAQ", Content: "Rental conditions."})
	require.ErrorIs(t, err, ErrIngestionFailed)
	require.Nil(t, result)

	// the document row must not survive the rollback
	docs, err := env.knowledge.ListDocuments()
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestKnowledgeReadsAdminOnly(t *testing.T) {
	env := newAssistantEnv(t)
	ctx := context.Background()

	result, err := env.svc.IngestDocument(ctx, IngestInput{Title: "Internal pricing notes", Content: "Confidential margins."})
	require.NoError(t, err)

	_, err = env.svc.ListDocuments(customer)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = env.svc.GetDocument(customer, result.Document.ID)
	require.ErrorIs(t, err, ErrForbidden)

	docs, err := env.svc.ListDocuments(admin)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	doc, err := env.svc.GetDocument(admin, result.Document.ID)
	require.NoError(t, err)
	require.Equal(t, "Internal pricing notes", doc.Title)
}

func TestChatSeedsWelcomeOnce(t *testing.T) {
	env := newAssistantEnv(t)
	ctx := context.Background()

	first, err := env.svc.Chat(ctx, ChatInput{Message: "hello", UserID: 1})
	require.NoError(t, err)
	require.NotEmpty(t, first.SessionToken)

	second, err := env.svc.Chat(ctx, ChatInput{Message: "hello again", SessionToken: first.SessionToken, UserID: 1})
	require.NoError(t, err)
	require.Equal(t, first.SessionToken, second.SessionToken)

	detail, err := env.svc.GetSession(ctx, first.SessionToken, 1)
	require.NoError(t, err)
	// one system welcome, then user/assistant pairs for each turn
	require.Len(t, detail.Messages, 5)
	require.Equal(t, "system", detail.Messages[0].Role)
	require.Equal(t, env.svc.cfg.WelcomeMessage, detail.Messages[0].Content)
	require.Equal(t, "user", detail.Messages[1].Role)
	require.Equal(t, "assistant", detail.Messages[2].Role)
}

func TestChatRetrievesRelevantSources(t *testing.T) {
	env := newAssistantEnv(t)
	ctx := context.Background()

	_, err := env.svc.IngestDocument(ctx, IngestInput{Title: "Rental FAQ", Content: "Long-term rental conditions and mileage limits."})
	require.NoError(t, err)
	_, err = env.svc.IngestDocument(ctx, IngestInput{Title: "Purchase Guide", Content: "How a purchase and trade-in works."})
	require.NoError(t, err)

	result, err := env.svc.Chat(ctx, ChatInput{Message: "What are the rental conditions?"})
	require.NoError(t, err)
	require.Equal(t, "Grounded answer.", result.Answer)
	require.Len(t, result.Sources, 2)
	require.Equal(t, "Rental FAQ", result.Sources[0].Title)
	require.Equal(t, 100.0, result.Sources[0].Relevance)
	require.Less(t, result.Sources[1].Relevance, result.Sources[0].Relevance)

	// the assistant message carries the source list in its metadata
	detail, err := env.svc.GetSession(ctx, result.SessionToken, 0)
	require.NoError(t, err)
	last := detail.Messages[len(detail.Messages)-1]
	require.Equal(t, "assistant", last.Role)
	require.Contains(t, last.MetadataMap(), "sources")
}

func TestChatDegradesWhenBackendDown(t *testing.T) {
	env := newAssistantEnv(t)
	ctx := context.Background()

	_, err := env.svc.IngestDocument(ctx, IngestInput{Title: "Rental FAQ", Content: "Rental conditions."})
	require.NoError(t, err)

	env.backend.fail = true
	result, err := env.svc.Chat(ctx, ChatInput{Message: "What are the rental conditions?"})
	require.NoError(t, err)
	require.Equal(t, env.svc.cfg.ApologyMessage, result.Answer)
	require.Empty(t, result.Sources)

	// the degraded turn is still persisted
	detail, err := env.svc.GetSession(ctx, result.SessionToken, 0)
	require.NoError(t, err)
	last := detail.Messages[len(detail.Messages)-1]
	require.Equal(t, env.svc.cfg.ApologyMessage, last.Content)
}

func TestChatValidation(t *testing.T) {
	env := newAssistantEnv(t)

	_, err := env.svc.Chat(context.Background(), ChatInput{Message: "   "})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetSessionScoping(t *testing.T) {
	env := newAssistantEnv(t)
	ctx := context.Background()

	result, err := env.svc.Chat(ctx, ChatInput{Message: "hello", UserID: 1})
	require.NoError(t, err)

	_, err = env.svc.GetSession(ctx, result.SessionToken, 2)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.GetSession(ctx, "no-such-token", 1)
	require.ErrorIs(t, err, ErrNotFound)

	sessions, err := env.svc.ListSessions(1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	_, err = env.svc.ListSessions(0)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteDocument(t *testing.T) {
	env := newAssistantEnv(t)
	ctx := context.Background()

	result, err := env.svc.IngestDocument(ctx, IngestInput{Title: "Rental FAQ", Content: "Rental conditions."})
	require.NoError(t, err)

	require.ErrorIs(t, env.svc.DeleteDocument(customer, result.Document.ID), ErrForbidden)
	require.NoError(t, env.svc.DeleteDocument(admin, result.Document.ID))

	_, err = env.svc.GetDocument(admin, result.Document.ID)
	require.ErrorIs(t, err, ErrNotFound)

	chunks, err := env.knowledge.ListAllChunks()
	require.NoError(t, err)
	require.Empty(t, chunks)
}
