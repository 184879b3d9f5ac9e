package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"compliance-backend/service"
	"compliance-backend/store"

	"github.com/gin-gonic/gin"
)

// AssessmentHandler handles HTTP requests for compliance assessments
type AssessmentHandler struct {
	store      *store.SessionStore
	assessment *service.AssessmentService
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(sessionStore *store.SessionStore, assessment *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{store: sessionStore, assessment: assessment}
}

// Assess handles POST /assess
func (h *AssessmentHandler) Assess(c *gin.Context) {
	session := sessionID(c)

	customerDocID, err := strconv.Atoi(c.PostForm("customer_doc_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_CUSTOMER_DOC_ID",
				"message": "customer_doc_id must be an integer",
			},
		})
		return
	}

	regulationDocID, err := strconv.Atoi(c.PostForm("regulation_doc_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REGULATION_DOC_ID",
				"message": "regulation_doc_id must be an integer",
			},
		})
		return
	}

	useKB, _ := strconv.ParseBool(c.DefaultPostForm("use_kb", "false"))

	result, err := h.assessment.Assess(c.Request.Context(), session, service.AssessRequest{
		CustomerDocID:   customerDocID,
		RegulationDocID: regulationDocID,
		UseKB:           useKB,
	})
	if err != nil {
		status := http.StatusInternalServerError
		code := "ASSESSMENT_FAILED"
		switch {
		case errors.Is(err, service.ErrDocumentNotFound):
			status = http.StatusNotFound
			code = "DOCUMENT_NOT_FOUND"
		case errors.Is(err, service.ErrNoCustomerClauses):
			status = http.StatusBadRequest
			code = "NO_CUSTOMER_CLAUSES"
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

	c.JSON(http.StatusOK, result)
}

// Graph handles GET /graph/:assessment_id
func (h *AssessmentHandler) Graph(c *gin.Context) {
	session := sessionID(c)

	assessmentID, err := strconv.Atoi(c.Param("assessment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ASSESSMENT_ID",
				"message": "Invalid assessment ID format",
			},
		})
		return
	}

	graph, err := service.BuildGraph(h.store, session, assessmentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Assessment not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, graph)
}
