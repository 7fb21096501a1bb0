// Demand HTTP handlers.
//
// This file exposes REST endpoints for demand records:
//   - POST /events                           (apply a demand signal)
//   - GET  /demand/{barcode}                 (public demand summary)
//   - GET  /demand/{barcode}/contributors    (contributor ledger, paginated)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/provelab/go-demand-backend/internal/domain"
	"github.com/provelab/go-demand-backend/internal/http/middleware"
	"github.com/provelab/go-demand-backend/internal/services"
	"github.com/provelab/go-demand-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// DemandService defines demand signal application and read operations
// consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DemandService interface {
	// ApplyEvent applies one demand signal and returns the updated summary.
	ApplyEvent(ctx context.Context, ev services.Event) (*services.Summary, error)
	// Get returns the public summary for a barcode.
	Get(ctx context.Context, barcode string) (*services.Summary, error)
	// Contributors returns a ledger page and the ledger size for a barcode.
	Contributors(ctx context.Context, barcode string, page, pageSize int) ([]domain.Contributor, int64, error)
}

// QueueService defines ranked testing queue reads.
type QueueService interface {
	// List returns one page of the ranked queue plus the full queue length.
	List(ctx context.Context, page, pageSize int) ([]services.QueueEntry, int, error)
	// Version returns a cheap fingerprint of the queue for caching.
	Version(ctx context.Context) (int64, string, error)
}

// BoostService defines administrative category boost management.
type BoostService interface {
	List(ctx context.Context) ([]domain.CategoryBoost, error)
	Get(ctx context.Context, id string) (*domain.CategoryBoost, error)
	Create(ctx context.Context, b *domain.CategoryBoost) error
	Update(ctx context.Context, b *domain.CategoryBoost) error
	Deactivate(ctx context.Context, id string) error
}

// SearchService resolves free-text product queries to known barcodes.
type SearchService interface {
	Search(ctx context.Context, query string, limit int) ([]services.Match, error)
}

// LifecycleService defines intake pipeline moves and administrative
// corrections.
type LifecycleService interface {
	Advance(ctx context.Context, barcode, target, linkedProductID string) (*services.Summary, error)
	Override(ctx context.Context, barcode, target, actor, reason string) (*services.Summary, error)
	CorrectWeight(ctx context.Context, barcode string, newTotal float64, actor, reason string) (*services.Summary, error)
	Overrides(ctx context.Context, barcode string) ([]domain.StatusOverride, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for demand, queue, boosts, and lifecycle.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	demandSvc DemandService
	queueSvc  QueueService
	boostSvc  BoostService
	lcSvc     LifecycleService
	searchSvc SearchService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(demandSvc DemandService, queueSvc QueueService, boostSvc BoostService, lcSvc LifecycleService, searchSvc SearchService) *Handlers {
	return &Handlers{demandSvc: demandSvc, queueSvc: queueSvc, boostSvc: boostSvc, lcSvc: lcSvc, searchSvc: searchSvc}
}

// voterKey extracts the anonymized voter key resolved by the VoterIdentity
// middleware, falling back to the raw header (tests use it). Empty means the
// client sent no identity.
func voterKey(c *gin.Context) string {
	if vk, ok := middleware.VoterKey(c); ok {
		return vk
	}
	if c != nil && c.Request != nil {
		return strings.TrimSpace(c.GetHeader(middleware.HeaderVoterKey))
	}
	return ""
}

// idempotencyKey extracts the client Idempotency-Key stashed by the validator
// middleware, falling back to the raw header. Empty means the client opted out
// of safe retries.
func idempotencyKey(c *gin.Context) string {
	if k, ok := middleware.GetIdempotencyKey(c); ok {
		return k
	}
	if c != nil && c.Request != nil {
		return strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
	}
	return ""
}

//
// DTOs
//

// PostEventRequest is the JSON payload for applying a demand signal.
type PostEventRequest struct {
	// Barcode identifies the product (EAN/UPC as scanned).
	Barcode string `json:"barcode" binding:"required" example:"4006381333931"`
	// EventType is one of: search, scan, member_scan, photo_contribution.
	EventType string `json:"event_type" binding:"required" example:"scan"`
	// SubmissionID deduplicates photo contribution retries; required for
	// photo_contribution events.
	SubmissionID string `json:"submission_id,omitempty" example:"sub-7f3a"`

	// Optional catalog metadata, backfilled onto the record when absent.
	ProductName string `json:"product_name,omitempty" example:"Daily Sunscreen SPF50"`
	Brand       string `json:"brand,omitempty"        example:"Solaire"`
	Category    string `json:"category,omitempty"     example:"sunscreen"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ContributorsResponse wraps a ledger page and pagination information.
type ContributorsResponse struct {
	Contributors []domain.Contributor `json:"contributors"`
	Pagination   Pagination           `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	return utils.ClampPage(page, pageSize, maxPageSize)
}

// paginationFor builds the standard pagination envelope.
func paginationFor(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// PostEvent godoc
// @ID          postEvent
// @Summary     Apply a demand signal
// @Description Records a search, scan, member scan, or photo contribution for a product
// @Description barcode and returns the updated demand summary. A record is created on
// @Description first use.
// @Tags        Demand
// @Accept      json
// @Produce     json
//
// @Param       X-Voter-Key      header  string  true   "Anonymized voter key"  example(device-7f3a)
// @Param       Idempotency-Key  header  string  false  "Client retry key; replays return the prior result"
// @Param       body             body    handlers.PostEventRequest  true  "Demand signal payload"
//
// @Success     200  {object}  services.Summary
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Concurrent update conflict; retry"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /events [post]
func (h *Handlers) PostEvent(c *gin.Context) {
	var req PostEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	sum, err := h.demandSvc.ApplyEvent(c.Request.Context(), services.Event{
		Barcode:        strings.TrimSpace(req.Barcode),
		Type:           strings.TrimSpace(req.EventType),
		VoterKey:       voterKey(c),
		SubmissionID:   strings.TrimSpace(req.SubmissionID),
		IdempotencyKey: idempotencyKey(c),
		ProductName:    strings.TrimSpace(req.ProductName),
		Brand:          strings.TrimSpace(req.Brand),
		Category:       strings.TrimSpace(req.Category),
		ImageURL:       strings.TrimSpace(req.ImageURL),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEventType):
			fail(c, http.StatusBadRequest, ErrCodeInvalidEventType, err.Error())
		case errors.Is(err, services.ErrMissingVoterKey),
			errors.Is(err, services.ErrMissingBarcode),
			errors.Is(err, services.ErrMissingSubmissionID):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrConcurrencyConflict):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, sum)
}

// GetDemand godoc
// @ID          getDemand
// @Summary     Get the demand summary for a barcode
// @Description Returns the public demand summary: weighted total, funding progress,
// @Description lifecycle status, urgency tier, and velocity statistics.
// @Tags        Demand
// @Produce     json
//
// @Param       barcode  path  string  true  "Product barcode"  example(4006381333931)
//
// @Success     200  {object}  services.Summary
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown barcode"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /demand/{barcode} [get]
func (h *Handlers) GetDemand(c *gin.Context) {
	barcode := strings.TrimSpace(c.Param("barcode"))
	sum, err := h.demandSvc.Get(c.Request.Context(), barcode)
	if err != nil {
		if errors.Is(err, services.ErrUnknownBarcode) {
			fail(c, http.StatusNotFound, ErrCodeUnknownBarcode, "no demand recorded for this barcode")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, sum)
}

// ListContributors godoc
// @ID          listContributors
// @Summary     List a record's contributors (paginated)
// @Description Returns the contributor ledger in arrival order; the entry with
// @Description sequence_number 1 is the record's first scout.
// @Tags        Demand
// @Produce     json
//
// @Param       barcode    path   string  true  "Product barcode"  example(4006381333931)
// @Param       page       query  int     false "Page number"      minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"   minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ContributorsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown barcode"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /demand/{barcode}/contributors [get]
func (h *Handlers) ListContributors(c *gin.Context) {
	barcode := strings.TrimSpace(c.Param("barcode"))
	page, pageSize := clampPagination(c)

	items, total, err := h.demandSvc.Contributors(c.Request.Context(), barcode, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrUnknownBarcode) {
			fail(c, http.StatusNotFound, ErrCodeUnknownBarcode, "no demand recorded for this barcode")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, ContributorsResponse{
		Contributors: items,
		Pagination:   paginationFor(page, pageSize, total),
	})
}
