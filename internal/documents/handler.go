package documents

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"document-ingest/internal/shared/server/respond"
)

// Handler serves read-only lookups of processed records.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents/:id", h.get)
}

func (h *Handler) get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "document id is required")
		return
	}

	rec, err := h.Repo.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "document not found")
		return
	}
	if err != nil {
		respond.Internal(c, "failed to fetch document", err)
		return
	}

	respond.JSON(c, http.StatusOK, rec)
}
