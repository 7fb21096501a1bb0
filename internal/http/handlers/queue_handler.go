// Queue HTTP handlers.
//
// This file exposes the ranked testing queue:
//   - GET /queue    (ranked, paginated, ETag support)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/provelab/go-demand-backend/internal/services"
)

// QueueResponse wraps a page of the ranked queue and pagination information.
type QueueResponse struct {
	Queue      []services.QueueEntry `json:"queue"`
	Pagination Pagination            `json:"pagination"`
}

// ListQueue godoc
// @ID          listQueue
// @Summary     List the testing queue (paginated)
// @Description Returns the ranked queue of non-terminal demand records, highest
// @Description velocity first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Queue
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"queue:3:x\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.QueueResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue [get]
func (h *Handlers) ListQueue(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, stamp, err := h.queueSvc.Version(ctx); err == nil {
		etag := fmt.Sprintf(`W/"queue:%d:%d:%d:%s"`, page, pageSize, count, stamp)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	entries, total, err := h.queueSvc.List(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, QueueResponse{
		Queue:      entries,
		Pagination: paginationFor(page, pageSize, int64(total)),
	})
}
