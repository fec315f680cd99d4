package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thereceipt/quickreceipt/internal/export"
	"github.com/thereceipt/quickreceipt/internal/shell"
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
)

// maxDraftSize bounds uploaded drafts; logos are inline so drafts can be large
const maxDraftSize = 8 << 20

func (s *Server) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.shell.Settings())
}

func (s *Server) handlePutSettings(c *gin.Context) {
	var req receiptformat.CompanySettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.shell.UpdateSettings(c.Request.Context(), req); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.shell.Settings())
}

func (s *Server) handleUploadLogo(c *gin.Context) {
	file, err := c.FormFile("logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "logo file is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer f.Close()

	if err := s.shell.SetLogo(c.Request.Context(), f); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.shell.Settings())
}

func (s *Server) handleDeleteLogo(c *gin.Context) {
	if err := s.shell.ClearLogo(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.shell.Settings())
}

func (s *Server) handleGetTransaction(c *gin.Context) {
	c.JSON(http.StatusOK, s.shell.Transaction())
}

func (s *Server) handlePutTransaction(c *gin.Context) {
	var req receiptformat.TransactionDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.shell.UpdateTransaction(req); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.shell.Transaction())
}

func (s *Server) handleGetItems(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": s.shell.Items(), "total": s.shell.Snapshot().Total})
}

func (s *Server) handleAddItem(c *gin.Context) {
	c.JSON(http.StatusCreated, s.shell.AddItem())
}

// handlePatchItem applies raw form values; numbers may arrive as JSON
// numbers or as the strings typed into the field.
func (s *Server) handlePatchItem(c *gin.Context) {
	id := c.Param("id")

	var req map[string]json.RawMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, field := range []string{shell.FieldDescription, shell.FieldQuantity, shell.FieldUnitPrice} {
		raw, ok := req[field]
		if !ok {
			continue
		}
		delete(req, field)

		if err := s.shell.SetItemField(id, field, rawValue(raw)); err != nil {
			s.fail(c, err)
			return
		}
	}
	for field := range req {
		s.fail(c, fmt.Errorf("%w: unknown field %q", shell.ErrInvalidInput, field))
		return
	}

	for _, it := range s.shell.Items() {
		if it.ID == id {
			c.JSON(http.StatusOK, it)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
}

func rawValue(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return string(raw)
}

func (s *Server) handleDeleteItem(c *gin.Context) {
	if err := s.shell.RemoveItem(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleItemsWorkbook(c *gin.Context) {
	data, err := export.ItemsWorkbook(s.shell.Items(), s.shell.Transaction().Currency)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="items.xlsx"`)
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (s *Server) handleGetDraft(c *gin.Context) {
	c.JSON(http.StatusOK, s.shell.Draft())
}

func (s *Server) handlePostDraft(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDraftSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := receiptformat.Parse(body)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.shell.Import(c.Request.Context(), draft); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.shell.Snapshot())
}
