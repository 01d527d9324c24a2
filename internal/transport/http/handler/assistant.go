package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mmotors/backoffice/internal/app"
	"github.com/mmotors/backoffice/internal/pkg/pdfextract"
	"github.com/mmotors/backoffice/internal/transport/http/middleware"
	"github.com/mmotors/backoffice/internal/transport/http/response"
)

const maxUploadBytes = 10 << 20

// AssistantHandler serves the chat endpoints plus the knowledge base
// administration.
type AssistantHandler struct {
	assistantService *app.AssistantService
}

func NewAssistantHandler(assistantService *app.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

type ChatRequest struct {
	Message      string `json:"message" binding:"required"`
	SessionToken string `json:"session_token"`
}

// Chat handles one assistant turn. Anonymous callers get a guest session
// bound only to the returned token.
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	var userID uint
	if actor, ok := middleware.Actor(c); ok {
		userID = actor.ID
	}

	result, err := h.assistantService.Chat(c.Request.Context(), app.ChatInput{
		Message:      req.Message,
		SessionToken: req.SessionToken,
		UserID:       userID,
	})
	if err != nil {
		response.FromError(c, err, "chat failed")
		return
	}
	response.OK(c, result)
}

func (h *AssistantHandler) ListSessions(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	sessions, err := h.assistantService.ListSessions(actor.ID)
	if err != nil {
		response.FromError(c, err, "list sessions failed")
		return
	}
	response.OK(c, sessions)
}

func (h *AssistantHandler) GetSession(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	token := c.Param("token")

	detail, err := h.assistantService.GetSession(c.Request.Context(), token, actor.ID)
	if err != nil {
		response.FromError(c, err, "fetch session failed")
		return
	}
	response.OK(c, detail)
}

type IngestDocumentRequest struct {
	Title    string         `json:"title" binding:"required"`
	Content  string         `json:"content" binding:"required"`
	Metadata map[string]any `json:"metadata"`
}

func (h *AssistantHandler) IngestDocument(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	if !actor.IsAdmin {
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "admin only")
		return
	}

	var req IngestDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.assistantService.IngestDocument(c.Request.Context(), app.IngestInput{
		Title:    req.Title,
		Content:  req.Content,
		Metadata: req.Metadata,
	})
	if err != nil {
		response.FromError(c, err, "ingest document failed")
		return
	}
	response.OK(c, result)
}

// UploadPDF extracts plain text from an uploaded PDF and ingests it under
// the given title (defaulting to the file name).
func (h *AssistantHandler) UploadPDF(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	if !actor.IsAdmin {
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "admin only")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file field")
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only pdf files are accepted")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unreadable file")
		return
	}
	defer file.Close()

	text, err := pdfextract.ExtractText(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "pdf extraction failed")
		return
	}
	if strings.TrimSpace(text) == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "pdf has no extractable text")
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = fileHeader.Filename
	}

	result, err := h.assistantService.IngestDocument(c.Request.Context(), app.IngestInput{
		Title:    title,
		Content:  text,
		Metadata: map[string]any{"source_file": fileHeader.Filename},
	})
	if err != nil {
		response.FromError(c, err, "ingest document failed")
		return
	}
	response.OK(c, result)
}

func (h *AssistantHandler) ListDocuments(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	docs, err := h.assistantService.ListDocuments(actor)
	if err != nil {
		response.FromError(c, err, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *AssistantHandler) GetDocument(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	doc, err := h.assistantService.GetDocument(actor, id)
	if err != nil {
		response.FromError(c, err, "fetch document failed")
		return
	}
	response.OK(c, doc)
}

func (h *AssistantHandler) DeleteDocument(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.assistantService.DeleteDocument(actor, id); err != nil {
		response.FromError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted": id})
}
