// Lifecycle HTTP handlers (admin surface).
//
// This file exposes the testing intake pipeline and its escape hatches:
//   - POST /admin/demand/{barcode}/advance    (move one step forward)
//   - POST /admin/demand/{barcode}/override   (force a status, audited)
//   - POST /admin/demand/{barcode}/weight     (correct the weighted total, audited)
//   - GET  /admin/demand/{barcode}/overrides  (audit trail)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/provelab/go-demand-backend/internal/services"
)

// AdvanceRequest is the JSON payload for advancing a record one lifecycle step.
type AdvanceRequest struct {
	// Target must be the next status in the pipeline.
	Target string `json:"target" binding:"required" example:"queued"`
	// LinkedProductID records the published test result when advancing to
	// complete.
	LinkedProductID string `json:"linked_product_id,omitempty" example:"prod-789"`
}

// OverrideRequest is the JSON payload for an audited status override.
type OverrideRequest struct {
	Target string `json:"target" binding:"required" example:"collecting_votes"`
	Actor  string `json:"actor"  binding:"required" example:"ops@provelab"`
	Reason string `json:"reason" binding:"required" example:"fraudulent scans removed"`
}

// CorrectWeightRequest is the JSON payload for an audited weight correction.
type CorrectWeightRequest struct {
	WeightedTotal *float64 `json:"weighted_total" binding:"required" example:"850"`
	Actor         string   `json:"actor"  binding:"required" example:"ops@provelab"`
	Reason        string   `json:"reason" binding:"required" example:"duplicate device purge"`
}

// failLifecycle maps lifecycle service errors onto the standard envelope.
func failLifecycle(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnknownBarcode):
		fail(c, http.StatusNotFound, ErrCodeUnknownBarcode, "no demand recorded for this barcode")
	case errors.Is(err, services.ErrUnknownStatus),
		errors.Is(err, services.ErrInvalidWeightCorrection):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		fail(c, http.StatusConflict, ErrCodeInvalidTransition, err.Error())
	case errors.Is(err, services.ErrConcurrencyConflict):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// AdvanceStatus godoc
// @ID          advanceStatus
// @Summary     Advance a record one lifecycle step
// @Description Moves threshold_reached to queued, queued to testing, or testing to
// @Description complete. Skips and backward moves are rejected; use the override
// @Description endpoint for those.
// @Tags        Lifecycle
// @Accept      json
// @Produce     json
// @Param       barcode  path  string                  true  "Product barcode"
// @Param       body     body  handlers.AdvanceRequest true  "Advance payload"
// @Success     200  {object}  services.Summary
// @Failure     400  {object}  handlers.ErrorResponse "Unknown status"
// @Failure     404  {object}  handlers.ErrorResponse "Unknown barcode"
// @Failure     409  {object}  handlers.ErrorResponse "Invalid transition"
// @Router      /admin/demand/{barcode}/advance [post]
func (h *Handlers) AdvanceStatus(c *gin.Context) {
	var req AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	sum, err := h.lcSvc.Advance(c.Request.Context(),
		strings.TrimSpace(c.Param("barcode")),
		strings.TrimSpace(req.Target),
		strings.TrimSpace(req.LinkedProductID),
	)
	if err != nil {
		failLifecycle(c, err)
		return
	}
	ok(c, http.StatusOK, sum)
}

// OverrideStatus godoc
// @ID          overrideStatus
// @Summary     Force a record into a lifecycle status
// @Description Audited administrative override; may move backward or skip steps.
// @Tags        Lifecycle
// @Accept      json
// @Produce     json
// @Param       barcode  path  string                   true  "Product barcode"
// @Param       body     body  handlers.OverrideRequest true  "Override payload"
// @Success     200  {object}  services.Summary
// @Failure     400  {object}  handlers.ErrorResponse "Unknown status"
// @Failure     404  {object}  handlers.ErrorResponse "Unknown barcode"
// @Router      /admin/demand/{barcode}/override [post]
func (h *Handlers) OverrideStatus(c *gin.Context) {
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "target, actor, and reason are required")
		return
	}

	sum, err := h.lcSvc.Override(c.Request.Context(),
		strings.TrimSpace(c.Param("barcode")),
		strings.TrimSpace(req.Target),
		strings.TrimSpace(req.Actor),
		strings.TrimSpace(req.Reason),
	)
	if err != nil {
		failLifecycle(c, err)
		return
	}
	ok(c, http.StatusOK, sum)
}

// CorrectWeight godoc
// @ID          correctWeight
// @Summary     Correct a record's weighted total
// @Description Audited administrative correction for abuse cleanups and migrations.
// @Description Derived views (progress, velocity, urgency) are recomputed.
// @Tags        Lifecycle
// @Accept      json
// @Produce     json
// @Param       barcode  path  string                        true  "Product barcode"
// @Param       body     body  handlers.CorrectWeightRequest true  "Correction payload"
// @Success     200  {object}  services.Summary
// @Failure     400  {object}  handlers.ErrorResponse "Invalid correction"
// @Failure     404  {object}  handlers.ErrorResponse "Unknown barcode"
// @Router      /admin/demand/{barcode}/weight [post]
func (h *Handlers) CorrectWeight(c *gin.Context) {
	var req CorrectWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.WeightedTotal == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "weighted_total, actor, and reason are required")
		return
	}

	sum, err := h.lcSvc.CorrectWeight(c.Request.Context(),
		strings.TrimSpace(c.Param("barcode")),
		*req.WeightedTotal,
		strings.TrimSpace(req.Actor),
		strings.TrimSpace(req.Reason),
	)
	if err != nil {
		failLifecycle(c, err)
		return
	}
	ok(c, http.StatusOK, sum)
}

// ListOverrides godoc
// @ID          listOverrides
// @Summary     List a record's override audit trail
// @Tags        Lifecycle
// @Produce     json
// @Param       barcode  path  string  true  "Product barcode"
// @Success     200  {array}   domain.StatusOverride
// @Failure     404  {object}  handlers.ErrorResponse "Unknown barcode"
// @Router      /admin/demand/{barcode}/overrides [get]
func (h *Handlers) ListOverrides(c *gin.Context) {
	trail, err := h.lcSvc.Overrides(c.Request.Context(), strings.TrimSpace(c.Param("barcode")))
	if err != nil {
		failLifecycle(c, err)
		return
	}
	ok(c, http.StatusOK, trail)
}
