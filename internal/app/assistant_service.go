package app

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmotors/backoffice/internal/ai"
	"github.com/mmotors/backoffice/internal/model"
	"github.com/mmotors/backoffice/internal/pkg/textsplit"
	"github.com/mmotors/backoffice/internal/repository"
)

const (
	defaultTopK    = 3
	embedBatchSize = 10 // embedding APIs often limit batch size

	assistantSystemPrompt = "You are a virtual assistant for M-Motors, a specialist in selling and " +
		"renting used vehicles. You provide accurate information about services, purchase and " +
		"rental procedures. Answer politely and professionally, based only on the provided " +
		"context. If the context does not contain enough information, say so. Do not make up facts."

	noContextChunk = "No specific information found. Use general information about M-Motors: a used " +
		"vehicle specialist offering trade-in, financing, test drives and long-term rental with " +
		"purchase option."
)

// GenerationBackend is the embedding/generation collaborator. It is the
// pipeline's only network dependency and must be treated as optionally
// unavailable: every call may fail and the chat flow degrades instead of
// propagating.
type GenerationBackend interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// ChatHistoryCache is an optional read-through cache for session transcripts.
type ChatHistoryCache interface {
	GetMessages(ctx context.Context, token string) ([]model.ChatMessage, bool, error)
	SetMessages(ctx context.Context, token string, messages []model.ChatMessage) error
	Invalidate(ctx context.Context, token string) error
}

// AssistantConfig tunes chunking and retrieval.
type AssistantConfig struct {
	ChunkSize      int
	ChunkOverlap   int
	TopK           int
	WelcomeMessage string
	ApologyMessage string
}

// AssistantService is the retrieval-augmented chat pipeline: document
// ingestion, session resolution, retrieval and grounded answer generation.
// It is constructed once at startup and injected into handlers.
type AssistantService struct {
	knowledgeRepo *repository.KnowledgeRepository
	chatRepo      *repository.ChatRepository
	backend       GenerationBackend
	history       ChatHistoryCache
	cfg           AssistantConfig
}

func NewAssistantService(
	knowledgeRepo *repository.KnowledgeRepository,
	chatRepo *repository.ChatRepository,
	backend GenerationBackend,
	history ChatHistoryCache,
	cfg AssistantConfig,
) *AssistantService {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = textsplit.DefaultWindow
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = textsplit.DefaultOverlap
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	if cfg.WelcomeMessage == "" {
		cfg.WelcomeMessage = "Welcome to M-Motors. How can I help you today?"
	}
	if cfg.ApologyMessage == "" {
		cfg.ApologyMessage = "I am sorry, the answer generation service is currently unavailable. " +
			"Please try again later or contact support."
	}
	return &AssistantService{
		knowledgeRepo: knowledgeRepo,
		chatRepo:      chatRepo,
		backend:       backend,
		history:       history,
		cfg:           cfg,
	}
}

type IngestInput struct {
	Title    string
	Content  string
	Metadata map[string]any
}

type IngestResult struct {
	Document   model.KnowledgeDocument `json:"document"`
	ChunkCount int                     `json:"chunk_count"`
}

// IngestDocument persists a knowledge document and its chunks atomically.
// A partial failure rolls the whole ingestion back.
func (s *AssistantService) IngestDocument(ctx context.Context, input IngestInput) (*IngestResult, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, ErrInvalidInput
	}

	pieces := textsplit.Split(content, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if len(pieces) == 0 {
		return nil, ErrInvalidInput
	}

	doc := &model.KnowledgeDocument{Title: title, Content: content}
	doc.SetMetadata(input.Metadata)

	chunks := make([]model.DocumentChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = model.DocumentChunk{
			Content:    piece,
			Source:     title,
			ChunkIndex: i,
		}
	}

	if err := s.knowledgeRepo.CreateDocumentWithChunks(doc, chunks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIngestionFailed, err)
	}
	return &IngestResult{Document: *doc, ChunkCount: len(chunks)}, nil
}

// ListDocuments returns the knowledge base contents. Admin-only: the raw
// corpus is internal material, only the retrieved excerpts reach chat users.
func (s *AssistantService) ListDocuments(actor Actor) ([]model.KnowledgeDocument, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	return s.knowledgeRepo.ListDocuments()
}

func (s *AssistantService) GetDocument(actor Actor, id uint) (*model.KnowledgeDocument, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	if id == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.knowledgeRepo.GetDocumentByID(id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

// DeleteDocument removes a knowledge document and its chunks. Admin-only.
func (s *AssistantService) DeleteDocument(actor Actor, id uint) error {
	if _, err := s.GetDocument(actor, id); err != nil {
		return err
	}
	return s.knowledgeRepo.DeleteDocument(id)
}

type ChatInput struct {
	Message      string
	SessionToken string
	UserID       uint // 0 = guest
}

// Source describes one retrieved chunk backing an answer. Relevance is a
// display-oriented 0-100 transform of the retrieval distance.
type Source struct {
	Title     string  `json:"title"`
	Relevance float64 `json:"relevance"`
}

type ChatResult struct {
	SessionToken string   `json:"session_token"`
	Answer       string   `json:"answer"`
	Sources      []Source `json:"sources"`
}

// Chat runs one turn of the assistant conversation. Retrieval or generation
// failures degrade to a canned apology with no sources; the flow never
// hard-fails on a backend outage.
func (s *AssistantService) Chat(ctx context.Context, input ChatInput) (*ChatResult, error) {
	question := strings.TrimSpace(input.Message)
	if question == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.resolveSession(ctx, strings.TrimSpace(input.SessionToken), input.UserID)
	if err != nil {
		return nil, err
	}
	s.invalidateHistory(ctx, session.Token)

	userMessage := &model.ChatMessage{
		SessionID: session.ID,
		Role:      "user",
		Content:   question,
	}
	if err := s.chatRepo.CreateMessage(userMessage); err != nil {
		return nil, err
	}

	retrieved, retrieveErr := s.retrieve(ctx, question)
	if retrieveErr != nil {
		log.Printf("chunk retrieval degraded: %v", retrieveErr)
	}

	var (
		sources      []Source
		contextTexts []string
	)
	if len(retrieved) > 0 {
		for _, r := range retrieved {
			contextTexts = append(contextTexts, r.chunk.Content)
			sources = append(sources, Source{
				Title:     r.chunk.Source,
				Relevance: relevanceScore(r.distance),
			})
		}
	} else {
		contextTexts = []string{noContextChunk}
	}

	answer := s.generate(ctx, contextTexts, question)
	if answer == "" {
		answer = s.cfg.ApologyMessage
		sources = nil
	}

	assistantMessage := &model.ChatMessage{
		SessionID: session.ID,
		Role:      "assistant",
		Content:   answer,
	}
	assistantMessage.SetMetadata(map[string]any{"sources": sources})
	if err := s.chatRepo.CreateMessage(assistantMessage); err != nil {
		return nil, err
	}

	if sources == nil {
		sources = []Source{}
	}
	return &ChatResult{
		SessionToken: session.Token,
		Answer:       answer,
		Sources:      sources,
	}, nil
}

// ListSessions returns the user's chat sessions, most recently active first.
func (s *AssistantService) ListSessions(userID uint) ([]model.ChatSession, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.chatRepo.ListSessionsByUser(userID)
}

type SessionDetail struct {
	Session  model.ChatSession   `json:"session"`
	Messages []model.ChatMessage `json:"messages"`
}

// GetSession resolves a session by token with its transcript. Sessions bound
// to another user read as absent; guest sessions are open to the token holder.
func (s *AssistantService) GetSession(ctx context.Context, token string, userID uint) (*SessionDetail, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidInput
	}
	session, err := s.chatRepo.GetSessionByToken(token)
	if err != nil {
		return nil, err
	}
	if session == nil || (session.UserID != 0 && session.UserID != userID) {
		return nil, ErrNotFound
	}

	if s.history != nil {
		if cached, hit, cacheErr := s.history.GetMessages(ctx, token); cacheErr == nil && hit {
			return &SessionDetail{Session: *session, Messages: cached}, nil
		}
	}

	messages, err := s.chatRepo.ListMessages(session.ID)
	if err != nil {
		return nil, err
	}
	if s.history != nil {
		if err := s.history.SetMessages(ctx, token, messages); err != nil {
			log.Printf("cache session history failed: %v", err)
		}
	}
	return &SessionDetail{Session: *session, Messages: messages}, nil
}

// resolveSession reuses the session behind the token, refreshing its
// last-activity timestamp, or creates a fresh one seeded with the system
// welcome message. A create collision on the unique token column falls back
// to the winning row.
func (s *AssistantService) resolveSession(ctx context.Context, token string, userID uint) (*model.ChatSession, error) {
	if token != "" {
		session, err := s.chatRepo.GetSessionByToken(token)
		if err != nil {
			return nil, err
		}
		if session != nil {
			if err := s.chatRepo.TouchSession(session.ID, time.Now()); err != nil {
				return nil, err
			}
			return session, nil
		}
	}

	session := &model.ChatSession{
		UserID:       userID,
		Token:        uuid.NewString(),
		LastActivity: time.Now(),
	}
	if err := s.chatRepo.CreateSession(session); err != nil {
		if existing, lookupErr := s.chatRepo.GetSessionByToken(session.Token); lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}

	welcome := &model.ChatMessage{
		SessionID: session.ID,
		Role:      "system",
		Content:   s.cfg.WelcomeMessage,
	}
	if err := s.chatRepo.CreateMessage(welcome); err != nil {
		return nil, err
	}
	return session, nil
}

type retrievedChunk struct {
	chunk    model.DocumentChunk
	distance float64
}

// retrieve embeds the corpus and the query, builds an ephemeral cosine index
// and returns the top-K nearest chunks. The index is rebuilt per query: the
// corpus is a small internal knowledge base and this avoids stale-index
// invalidation.
func (s *AssistantService) retrieve(ctx context.Context, query string) ([]retrievedChunk, error) {
	chunks, err := s.knowledgeRepo.ListAllChunks()
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	queryVec, err := s.backend.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}
		batch, err := s.backend.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		vectors = append(vectors, batch...)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: embedding count mismatch", ErrBackendUnavailable)
	}

	scored := make([]retrievedChunk, len(chunks))
	for i := range chunks {
		scored[i] = retrievedChunk{
			chunk:    chunks[i],
			distance: cosineDistance(queryVec, vectors[i]),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].distance < scored[j].distance
	})

	k := s.cfg.TopK
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// generate composes the grounded prompt and asks the backend for one answer.
// Empty string signals failure; the caller substitutes the apology.
func (s *AssistantService) generate(ctx context.Context, contextTexts []string, question string) string {
	var b strings.Builder
	b.WriteString("Context:\n---\n")
	b.WriteString(strings.Join(contextTexts, "\n---\n"))
	b.WriteString("\n---\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")

	answer, err := s.backend.Complete(ctx, []ai.ChatMessage{
		{Role: "system", Content: assistantSystemPrompt},
		{Role: "user", Content: b.String()},
	})
	if err != nil {
		log.Printf("answer generation degraded: %v", err)
		return ""
	}
	return strings.TrimSpace(answer)
}

func (s *AssistantService) invalidateHistory(ctx context.Context, token string) {
	if s.history == nil {
		return
	}
	if err := s.history.Invalidate(ctx, token); err != nil {
		log.Printf("invalidate session history failed: %v", err)
	}
}

// cosineDistance returns 1 - cosine similarity, so that 0 means identical
// direction. Mismatched or zero vectors read as maximally distant.
func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// relevanceScore maps a distance to a display percentage, rounded to two
// decimals and clamped to [0, 100].
func relevanceScore(distance float64) float64 {
	score := (1 - distance) * 100
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return math.Round(score*100) / 100
}
