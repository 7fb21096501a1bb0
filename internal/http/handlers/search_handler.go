// Product search handler.
//
// This file exposes free-text product discovery:
//   - GET /search?q=...&limit=...   (resolve a query to known barcodes)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/provelab/go-demand-backend/internal/services"
	"github.com/provelab/go-demand-backend/internal/utils"
)

// SearchResponse wraps the ranked matches for a product query.
type SearchResponse struct {
	Query   string           `json:"query"`
	Matches []services.Match `json:"matches"`
}

// SearchProducts godoc
// @ID          searchProducts
// @Summary     Search known products by free text
// @Description Ranks demand records by similarity between the query and the
// @Description record's name, brand, and category. Useful for clients that
// @Description have a description but no barcode.
// @Tags        Demand
// @Produce     json
//
// @Param       q      query  string  true  "Free-text query"  example(spf 50 sunscreen)
// @Param       limit  query  int     false "Maximum matches"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.SearchResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing query"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /search [get]
func (h *Handlers) SearchProducts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}

	limit := utils.AtoiDefault(c.Query("limit"), 0)
	if limit > 100 {
		limit = 100
	}

	matches, err := h.searchSvc.Search(c.Request.Context(), q, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, SearchResponse{Query: q, Matches: matches})
}
