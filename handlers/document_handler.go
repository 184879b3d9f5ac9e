package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"compliance-backend/models"
	"compliance-backend/service"
	"compliance-backend/storage"
	"compliance-backend/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// DocumentHandler handles HTTP requests for document operations
type DocumentHandler struct {
	store       *store.SessionStore
	ingestion   *service.IngestionService
	storage     storage.Storage
	maxFileSize int64
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(sessionStore *store.SessionStore, ingestion *service.IngestionService, fileStorage storage.Storage) *DocumentHandler {
	return &DocumentHandler{
		store:       sessionStore,
		ingestion:   ingestion,
		storage:     fileStorage,
		maxFileSize: 10 * 1024 * 1024, // 10MB
	}
}

// Upload handles POST /upload
func (h *DocumentHandler) Upload(c *gin.Context) {
	session := sessionID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize),
			},
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".txt" && ext != ".md" && ext != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "Only plain-text documents are accepted (.txt, .md)",
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_OPEN_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_READ_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	fileType := models.FileType(c.PostForm("file_type"))
	version := c.PostForm("version")
	namespace := c.PostForm("namespace")

	result, err := h.ingestion.Ingest(c.Request.Context(), session, fileHeader.Filename, fileType, version, string(data), namespace)
	if err != nil {
		status := http.StatusInternalServerError
		code := "INGESTION_FAILED"
		if err == service.ErrInvalidFileType {
			status = http.StatusBadRequest
			code = "INVALID_DOCUMENT_TYPE"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	// Raw bytes are kept for later download; a storage failure does not
	// undo the ingestion.
	if _, err := h.storage.Save(c.Request.Context(), session, result.Document.ID, fileHeader.Filename, bytes.NewReader(data)); err != nil {
		log.Warn().Err(err).Int("doc_id", result.Document.ID).Msg("failed to store raw document")
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"document":     result.Document,
			"clause_count": result.ClauseCount,
		},
	})
}

// List handles GET /documents
func (h *DocumentHandler) List(c *gin.Context) {
	docs := h.store.ListDocuments(sessionID(c))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    docs,
	})
}

// Download handles GET /documents/:id/download
func (h *DocumentHandler) Download(c *gin.Context) {
	session := sessionID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid document ID format",
			},
		})
		return
	}

	doc := h.store.GetDocument(session, id)
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Document not found",
			},
		})
		return
	}

	reader, err := h.storage.Open(c.Request.Context(), storage.DocumentPath(session, doc.ID, doc.Filename))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_NOT_FOUND",
				"message": "Stored document content is unavailable",
			},
		})
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Header("Content-Type", "text/plain")
	if _, err := io.Copy(c.Writer, reader); err != nil {
		log.Warn().Err(err).Int("doc_id", doc.ID).Msg("document download interrupted")
	}
}

// Delete handles DELETE /documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	session := sessionID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid document ID format",
			},
		})
		return
	}

	doc := h.store.GetDocument(session, id)
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Document not found",
			},
		})
		return
	}

	h.store.DeleteDocument(session, id)
	if err := h.storage.Delete(c.Request.Context(), storage.DocumentPath(session, doc.ID, doc.Filename)); err != nil {
		log.Warn().Err(err).Int("doc_id", doc.ID).Msg("failed to delete stored document")
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"deleted": id,
		},
	})
}

// UpdateType handles PATCH /documents/:id/type
func (h *DocumentHandler) UpdateType(c *gin.Context) {
	session := sessionID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid document ID format",
			},
		})
		return
	}

	fileType := models.FileType(c.PostForm("file_type"))
	if fileType != models.FileTypeRegulation && fileType != models.FileTypeCustomer {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_DOCUMENT_TYPE",
				"message": "file_type must be 'regulation' or 'customer'",
			},
		})
		return
	}

	if !h.store.UpdateDocumentType(session, id, fileType) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Document not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.store.GetDocument(session, id),
	})
}

// Reset handles POST /reset
func (h *DocumentHandler) Reset(c *gin.Context) {
	session := sessionID(c)
	h.ingestion.Reset(c.Request.Context(), session)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"session_id": session,
		},
	})
}
