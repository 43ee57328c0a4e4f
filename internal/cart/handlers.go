package cart

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomatopickles404/shop-api/internal/catalog"
	"github.com/tomatopickles404/shop-api/internal/common"
	"github.com/tomatopickles404/shop-api/internal/coupon"
	"github.com/tomatopickles404/shop-api/internal/obs"
	"github.com/tomatopickles404/shop-api/internal/pricing"
)

// Handler exposes cart endpoints.
type Handler struct {
	Svc *Service
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type selectCouponRequest struct {
	Code string `json:"code"`
}

// Get handles GET /api/v1/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	snap, err := h.Svc.Items(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}

// AddItem handles POST /api/v1/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var req addItemRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if req.ProductID == "" {
		common.WriteError(w, common.BadRequest("productId is required", nil, nil))
		return
	}
	snap, err := h.Svc.AddItem(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}

// UpdateItem handles PATCH /api/v1/cart/items/{productID}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var req updateQuantityRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	snap, err := h.Svc.UpdateQuantity(r.Context(), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productID}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	snap, err := h.Svc.RemoveItem(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}

// Totals handles GET /api/v1/cart/totals.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	totals, err := h.Svc.Totals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if obs.CartQuotesTotal != nil {
		obs.CartQuotesTotal.Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": totals})
}

// RemainingStock handles GET /api/v1/cart/stock/{productID}.
func (h *Handler) RemainingStock(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	remaining, err := h.Svc.RemainingStock(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]int{"remainingStock": remaining}})
}

// SelectCoupon handles POST /api/v1/cart/coupon.
func (h *Handler) SelectCoupon(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var req selectCouponRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	selected, err := h.Svc.SelectCoupon(r.Context(), req.Code)
	if err != nil {
		if obs.CouponSelectionsTotal != nil {
			obs.CouponSelectionsTotal.WithLabelValues(selectionResult(err)).Inc()
		}
		writeError(w, err)
		return
	}
	if obs.CouponSelectionsTotal != nil {
		obs.CouponSelectionsTotal.WithLabelValues("applied").Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": selected})
}

// ClearCoupon handles DELETE /api/v1/cart/coupon.
func (h *Handler) ClearCoupon(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	if err := h.Svc.ClearCoupon(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Complete handles POST /api/v1/cart/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	orderNumber, totals, err := h.Svc.CompleteOrder(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if obs.OrdersCompletedTotal != nil {
		obs.OrdersCompletedTotal.Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"orderNumber": orderNumber,
		"totals":      totals,
	}})
}

func selectionResult(err error) string {
	switch {
	case errors.Is(err, pricing.ErrPercentageUnderMinTotal):
		return "under_min_total"
	case errors.Is(err, coupon.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	var stockErr *pricing.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		if obs.StockRejectionsTotal != nil {
			obs.StockRejectionsTotal.Inc()
		}
		common.WriteError(w, common.Unprocessable("INSUFFICIENT_STOCK", "requested quantity exceeds stock", err,
			map[string]any{"maxStock": stockErr.MaxStock}))
	case errors.Is(err, pricing.ErrPercentageUnderMinTotal):
		common.WriteError(w, common.Unprocessable("PERCENTAGE_UNDER_MIN_TOTAL", "percentage coupon requires a minimum discounted subtotal", err,
			map[string]any{"minSubtotal": pricing.PercentageCouponMinSubtotal}))
	case errors.Is(err, catalog.ErrNotFound):
		common.WriteError(w, common.NotFound("PRODUCT_NOT_FOUND", "product not found", err))
	case errors.Is(err, coupon.ErrNotFound):
		common.WriteError(w, common.NotFound("COUPON_NOT_FOUND", "coupon not found", err))
	case errors.Is(err, ErrItemNotFound):
		common.WriteError(w, common.NotFound("CART_ITEM_NOT_FOUND", "cart item not found", err))
	default:
		common.WriteError(w, err)
	}
}
