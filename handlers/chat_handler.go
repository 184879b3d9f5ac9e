package handlers

import (
	"net/http"
	"strconv"

	"compliance-backend/models"
	"compliance-backend/repository"
	"compliance-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ChatHandler handles HTTP requests for document Q&A and chat history
type ChatHandler struct {
	chat *service.ChatService
	repo *repository.ChatRepository // nil when no database is configured
}

// NewChatHandler creates a new chat handler. A nil repository disables
// history persistence but leaves /chat itself functional.
func NewChatHandler(chat *service.ChatService, repo *repository.ChatRepository) *ChatHandler {
	return &ChatHandler{chat: chat, repo: repo}
}

// Ask handles POST /chat
func (h *ChatHandler) Ask(c *gin.Context) {
	session := sessionID(c)

	query := c.PostForm("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_QUERY",
				"message": "query is required",
			},
		})
		return
	}
	useKB, _ := strconv.ParseBool(c.DefaultPostForm("use_kb", "false"))

	var history []*models.ChatMessage
	var chatSessionID uuid.UUID
	persist := false

	if idStr := c.PostForm("chat_session_id"); idStr != "" && h.repo != nil {
		id, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_CHAT_SESSION_ID",
					"message": "Invalid chat_session_id format",
				},
			})
			return
		}
		if _, err := h.repo.GetSession(c.Request.Context(), session, id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CHAT_SESSION_NOT_FOUND",
					"message": "Chat session not found",
				},
			})
			return
		}
		history, err = h.repo.ListMessages(c.Request.Context(), id)
		if err != nil {
			log.Warn().Err(err).Msg("failed to load chat history")
		}
		chatSessionID = id
		persist = true
	}

	answer, err := h.chat.Answer(c.Request.Context(), session, query, useKB, history)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CHAT_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	if persist {
		for _, m := range []*models.ChatMessage{
			{ChatSessionID: chatSessionID, Role: "user", Content: query},
			{ChatSessionID: chatSessionID, Role: "assistant", Content: answer},
		} {
			if err := h.repo.AddMessage(c.Request.Context(), m); err != nil {
				log.Warn().Err(err).Msg("failed to persist chat message")
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"answer": answer,
		},
	})
}

// CreateSession handles POST /chat/sessions
func (h *ChatHandler) CreateSession(c *gin.Context) {
	if h.repo == nil {
		h.historyUnavailable(c)
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_TITLE",
				"message": "title is required",
			},
		})
		return
	}

	chatSession := &models.ChatSession{
		SessionKey: sessionID(c),
		Title:      req.Title,
	}
	if err := h.repo.CreateSession(c.Request.Context(), chatSession); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    chatSession,
	})
}

// ListSessions handles GET /chat/sessions
func (h *ChatHandler) ListSessions(c *gin.Context) {
	if h.repo == nil {
		h.historyUnavailable(c)
		return
	}

	sessions, err := h.repo.ListSessions(c.Request.Context(), sessionID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    sessions,
	})
}

// AddMessage handles POST /chat/sessions/:id/messages
func (h *ChatHandler) AddMessage(c *gin.Context) {
	if h.repo == nil {
		h.historyUnavailable(c)
		return
	}

	chatSession, ok := h.resolveSession(c)
	if !ok {
		return
	}

	var req struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_CONTENT",
				"message": "content is required",
			},
		})
		return
	}
	if req.Role != "user" && req.Role != "assistant" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ROLE",
				"message": "role must be 'user' or 'assistant'",
			},
		})
		return
	}

	message := &models.ChatMessage{
		ChatSessionID: chatSession.ID,
		Role:          req.Role,
		Content:       req.Content,
	}
	if err := h.repo.AddMessage(c.Request.Context(), message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}

// ListMessages handles GET /chat/sessions/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	if h.repo == nil {
		h.historyUnavailable(c)
		return
	}

	chatSession, ok := h.resolveSession(c)
	if !ok {
		return
	}

	messages, err := h.repo.ListMessages(c.Request.Context(), chatSession.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// resolveSession parses the :id param and loads the chat session scoped
// to the caller's session key. Writes the error response on failure.
func (h *ChatHandler) resolveSession(c *gin.Context) (*models.ChatSession, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid chat session ID format",
			},
		})
		return nil, false
	}

	chatSession, err := h.repo.GetSession(c.Request.Context(), sessionID(c), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Chat session not found",
			},
		})
		return nil, false
	}
	return chatSession, true
}

func (h *ChatHandler) historyUnavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "HISTORY_UNAVAILABLE",
			"message": "Chat history requires a database connection",
		},
	})
}
