// Category boost HTTP handlers (admin surface).
//
// This file exposes CRUD endpoints for category boost campaigns:
//   - GET    /admin/boosts          (list all campaigns)
//   - POST   /admin/boosts          (create)
//   - GET    /admin/boosts/{id}     (fetch one)
//   - PUT    /admin/boosts/{id}     (update)
//   - DELETE /admin/boosts/{id}     (deactivate, keeps history)
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/provelab/go-demand-backend/internal/domain"
	"github.com/provelab/go-demand-backend/internal/services"
)

// BoostRequest is the JSON payload for creating or updating a boost campaign.
type BoostRequest struct {
	// CategoryLabel names the boosted category; it also matches product text
	// exactly (case-folded).
	CategoryLabel string `json:"category_label" binding:"required" example:"sunscreen"`
	// Keywords is a comma-separated list matched as substrings of the
	// product's name, brand, and category.
	Keywords string `json:"keywords" example:"sunscreen,spf,sun lotion"`
	// Multiplier scales base event weights; allowed range 1-10.
	Multiplier float64 `json:"multiplier" binding:"required" example:"4"`
	// IsActive toggles the campaign without deleting it.
	IsActive *bool `json:"is_active,omitempty"`
	// StartsAt / EndsAt bound the campaign window; both optional.
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

func (r *BoostRequest) apply(b *domain.CategoryBoost) {
	b.CategoryLabel = strings.TrimSpace(r.CategoryLabel)
	b.Keywords = strings.TrimSpace(r.Keywords)
	b.Multiplier = r.Multiplier
	b.IsActive = true
	if r.IsActive != nil {
		b.IsActive = *r.IsActive
	}
	b.StartsAt = r.StartsAt
	b.EndsAt = r.EndsAt
}

// failBoost maps boost service errors onto the standard error envelope.
func failBoost(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrBoostNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "boost not found")
	case errors.Is(err, services.ErrInvalidMultiplier),
		errors.Is(err, services.ErrInvalidBoostWindow),
		errors.Is(err, services.ErrMissingBoostLabel):
		fail(c, http.StatusBadRequest, ErrCodeInvalidBoost, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// ListBoosts godoc
// @ID          listBoosts
// @Summary     List boost campaigns
// @Description Returns every boost campaign, active or not.
// @Tags        Boosts
// @Produce     json
// @Success     200  {array}   domain.CategoryBoost
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /admin/boosts [get]
func (h *Handlers) ListBoosts(c *gin.Context) {
	boosts, err := h.boostSvc.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, boosts)
}

// GetBoost godoc
// @ID          getBoost
// @Summary     Get one boost campaign
// @Tags        Boosts
// @Produce     json
// @Param       id  path  string  true  "Boost ID (UUID)"  format(uuid)
// @Success     200  {object}  domain.CategoryBoost
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Router      /admin/boosts/{id} [get]
func (h *Handlers) GetBoost(c *gin.Context) {
	b, err := h.boostSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failBoost(c, err)
		return
	}
	ok(c, http.StatusOK, b)
}

// CreateBoost godoc
// @ID          createBoost
// @Summary     Create a boost campaign
// @Description Creates a category boost. Multiplier must be between 1 and 10; an
// @Description optional time window bounds the campaign.
// @Tags        Boosts
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.BoostRequest  true  "Boost payload"
// @Success     201  {object}  domain.CategoryBoost
// @Failure     400  {object}  handlers.ErrorResponse "Invalid boost"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /admin/boosts [post]
func (h *Handlers) CreateBoost(c *gin.Context) {
	var req BoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	b := &domain.CategoryBoost{ID: uuid.NewString()}
	req.apply(b)
	if err := h.boostSvc.Create(c.Request.Context(), b); err != nil {
		failBoost(c, err)
		return
	}
	ok(c, http.StatusCreated, b)
}

// UpdateBoost godoc
// @ID          updateBoost
// @Summary     Update a boost campaign
// @Tags        Boosts
// @Accept      json
// @Produce     json
// @Param       id    path  string                 true  "Boost ID (UUID)"  format(uuid)
// @Param       body  body  handlers.BoostRequest  true  "Boost payload"
// @Success     200  {object}  domain.CategoryBoost
// @Failure     400  {object}  handlers.ErrorResponse "Invalid boost"
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Router      /admin/boosts/{id} [put]
func (h *Handlers) UpdateBoost(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "boost id must be a UUID")
		return
	}

	var req BoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	b := &domain.CategoryBoost{ID: id}
	req.apply(b)
	if err := h.boostSvc.Update(c.Request.Context(), b); err != nil {
		failBoost(c, err)
		return
	}
	ok(c, http.StatusOK, b)
}

// DeactivateBoost godoc
// @ID          deactivateBoost
// @Summary     Deactivate a boost campaign
// @Description Retires the campaign without deleting its history.
// @Tags        Boosts
// @Param       id  path  string  true  "Boost ID (UUID)"  format(uuid)
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Router      /admin/boosts/{id} [delete]
func (h *Handlers) DeactivateBoost(c *gin.Context) {
	if err := h.boostSvc.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		failBoost(c, err)
		return
	}
	noContent(c)
}
