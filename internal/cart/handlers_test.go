package cart_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/tomatopickles404/shop-api/internal/cart"
	"github.com/tomatopickles404/shop-api/internal/catalog"
	"github.com/tomatopickles404/shop-api/internal/coupon"
	"github.com/tomatopickles404/shop-api/internal/pricing"
	"github.com/tomatopickles404/shop-api/internal/store"
)

type snapshotResponse struct {
	Data cart.Snapshot `json:"data"`
}

type totalsResponse struct {
	Data pricing.Totals `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
}

func newHandler(t *testing.T) *cart.Handler {
	t.Helper()
	mem := store.NewMemory()
	catalogSvc := &catalog.Service{Store: mem}
	couponSvc := &coupon.Service{Store: mem}
	_, err := catalogSvc.Seed(context.Background(), true)
	require.NoError(t, err)
	_, err = couponSvc.Seed(context.Background(), true)
	require.NoError(t, err)
	return &cart.Handler{Svc: &cart.Service{
		Store:    mem,
		Catalog:  catalogSvc,
		Coupons:  couponSvc,
		NewOrder: func() string { return "ORD-fixed" },
	}}
}

func addItem(t *testing.T, handler *cart.Handler, productID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"productId":"`+productID+`"}`))
	rec := httptest.NewRecorder()
	handler.AddItem(rec, req)
	return rec
}

func setQuantity(t *testing.T, handler *cart.Handler, productID string, quantity int) *httptest.ResponseRecorder {
	t.Helper()
	body := strings.NewReader(`{"quantity":` + itoa(quantity) + `}`)
	req := withURLParam(httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/"+productID, body), "productID", productID)
	rec := httptest.NewRecorder()
	handler.UpdateItem(rec, req)
	return rec
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestCartHandlersFlow(t *testing.T) {
	handler := newHandler(t)

	t.Run("empty cart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		rec := httptest.NewRecorder()
		handler.Get(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp snapshotResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Empty(t, resp.Data.Items)
		require.Zero(t, resp.Data.TotalItemCount)
	})

	t.Run("add item", func(t *testing.T) {
		rec := addItem(t, handler, "p1")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp snapshotResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Items, 1)
		require.Equal(t, 1, resp.Data.Items[0].Quantity)
	})

	t.Run("add unknown product", func(t *testing.T) {
		rec := addItem(t, handler, "missing")
		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "PRODUCT_NOT_FOUND", resp.Error.Code)
	})

	t.Run("add without product id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		handler.AddItem(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("quantity over stock reports max", func(t *testing.T) {
		rec := setQuantity(t, handler, "p1", 99)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "INSUFFICIENT_STOCK", resp.Error.Code)
		require.EqualValues(t, 20, resp.Error.Details["maxStock"])
	})

	t.Run("totals reflect quantity discounts", func(t *testing.T) {
		rec := setQuantity(t, handler, "p1", 10)
		require.Equal(t, http.StatusOK, rec.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/totals", nil)
		trec := httptest.NewRecorder()
		handler.Totals(trec, req)
		require.Equal(t, http.StatusOK, trec.Code)

		var resp totalsResponse
		require.NoError(t, json.Unmarshal(trec.Body.Bytes(), &resp))
		require.Equal(t, pricing.Money(100000), resp.Data.TotalBeforeDiscount)
		require.Equal(t, pricing.Money(85000), resp.Data.TotalAfterDiscount)
	})

	t.Run("remaining stock", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/cart/stock/p1", nil), "productID", "p1")
		rec := httptest.NewRecorder()
		handler.RemainingStock(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data struct {
				RemainingStock int `json:"remainingStock"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 10, resp.Data.RemainingStock)
	})

	t.Run("select coupon", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/coupon", strings.NewReader(`{"code":"PERCENT10"}`))
		rec := httptest.NewRecorder()
		handler.SelectCoupon(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		treq := httptest.NewRequest(http.MethodGet, "/api/v1/cart/totals", nil)
		trec := httptest.NewRecorder()
		handler.Totals(trec, treq)

		var resp totalsResponse
		require.NoError(t, json.Unmarshal(trec.Body.Bytes(), &resp))
		require.Equal(t, pricing.Money(76500), resp.Data.TotalAfterDiscount)
	})

	t.Run("clear coupon", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/coupon", nil)
		rec := httptest.NewRecorder()
		handler.ClearCoupon(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("complete order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/complete", nil)
		rec := httptest.NewRecorder()
		handler.Complete(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data struct {
				OrderNumber string         `json:"orderNumber"`
				Totals      pricing.Totals `json:"totals"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "ORD-fixed", resp.Data.OrderNumber)
		require.Equal(t, pricing.Money(85000), resp.Data.Totals.TotalAfterDiscount)

		greq := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		grec := httptest.NewRecorder()
		handler.Get(grec, greq)
		var snap snapshotResponse
		require.NoError(t, json.Unmarshal(grec.Body.Bytes(), &snap))
		require.Empty(t, snap.Data.Items)
	})
}

func TestSelectUnknownCouponCode(t *testing.T) {
	handler := newHandler(t)

	rec := addItem(t, handler, "p1")
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/coupon", strings.NewReader(`{"code":"NOPE"}`))
	crec := httptest.NewRecorder()
	handler.SelectCoupon(crec, req)
	require.Equal(t, http.StatusNotFound, crec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(crec.Body.Bytes(), &resp))
	require.Equal(t, "COUPON_NOT_FOUND", resp.Error.Code)
}

func TestUpdateMissingCartItem(t *testing.T) {
	handler := newHandler(t)

	rec := setQuantity(t, handler, "p1", 3)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "CART_ITEM_NOT_FOUND", resp.Error.Code)
}

func TestPercentageCouponUnderFloorRejected(t *testing.T) {
	mem := store.NewMemory()
	catalogSvc := &catalog.Service{Store: mem}
	couponSvc := &coupon.Service{Store: mem}
	ctx := context.Background()
	cheap, err := catalogSvc.Add(ctx, catalog.ProductInput{Name: "Sticker", Price: 900, Stock: 5})
	require.NoError(t, err)
	_, err = couponSvc.Seed(ctx, true)
	require.NoError(t, err)
	handler := &cart.Handler{Svc: &cart.Service{Store: mem, Catalog: catalogSvc, Coupons: couponSvc}}

	rec := addItem(t, handler, cheap.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/coupon", strings.NewReader(`{"code":"PERCENT10"}`))
	rec = httptest.NewRecorder()
	handler.SelectCoupon(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "PERCENTAGE_UNDER_MIN_TOTAL", resp.Error.Code)
	require.EqualValues(t, pricing.PercentageCouponMinSubtotal, resp.Error.Details["minSubtotal"])
}
