package coupon

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomatopickles404/shop-api/internal/common"
	"github.com/tomatopickles404/shop-api/internal/pricing"
)

// Handler exposes coupon administration endpoints.
type Handler struct {
	Svc *Service
}

// List handles GET /api/v1/coupons.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	coupons, err := h.Svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": coupons})
}

// Create handles POST /api/v1/coupons.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	var input pricing.Coupon
	if err := common.DecodeJSON(r, &input); err != nil {
		common.WriteError(w, err)
		return
	}
	created, err := h.Svc.Add(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Delete handles DELETE /api/v1/coupons/{code}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.WriteError(w, common.NotFound("COUPON_NOT_FOUND", "coupon not found", err))
	case errors.Is(err, ErrDuplicateCode):
		common.WriteError(w, common.Conflict("CONFLICT", "coupon code already exists", err))
	case errors.Is(err, ErrInvalidInput):
		common.WriteError(w, common.BadRequest(err.Error(), err, nil))
	default:
		common.WriteError(w, err)
	}
}
