package api

import (
	"net/http"

	"github.com/okian/stampcard/internal/domain/model"
)

// CatalogHandler lists the selectable stamps.
type CatalogHandler struct{}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// HandleCatalog handles GET /stamps.
func (h *CatalogHandler) HandleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.Catalog)
}
