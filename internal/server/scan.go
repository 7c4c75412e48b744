package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"myfinance-backend/internal/scanner"
)

// scanReceipt forwards the uploaded image to the OCR backend and answers
// with an expense draft. A missing upload fails the request; unparseable
// fields in the extraction degrade to null instead.
func (s *Server) scanReceipt(c *gin.Context) {
	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No receipt file uploaded"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if s.extractor == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errNoExtractor.Error()})
		return
	}

	extraction, err := s.extractor.Extract(c.Request.Context(), image)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	draft := scanner.BuildDraft(extraction)
	draft.Message = "Expense created. Please confirm to add it."
	c.JSON(http.StatusOK, draft)
}

var errNoExtractor = errors.New("receipt scanner is not configured")
