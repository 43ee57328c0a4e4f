package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/tomatopickles404/shop-api/internal/catalog"
	"github.com/tomatopickles404/shop-api/internal/pricing"
	"github.com/tomatopickles404/shop-api/internal/store"
)

type productsResponse struct {
	Data []pricing.Product `json:"data"`
}

type productResponse struct {
	Data pricing.Product `json:"data"`
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

func TestCatalogHandlers(t *testing.T) {
	svc := &catalog.Service{Store: store.NewMemory()}
	_, err := svc.Seed(context.Background(), true)
	require.NoError(t, err)
	handler := &catalog.Handler{Svc: svc}

	t.Run("list products", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 3)
		require.Equal(t, "p1", resp.Data[0].ID)
	})

	t.Run("get product", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/p2", nil), "id", "p2")
		rec := httptest.NewRecorder()
		handler.Get(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp productResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, pricing.Money(20000), resp.Data.Price)
	})

	t.Run("get missing product", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/nope", nil), "id", "nope")
		rec := httptest.NewRecorder()
		handler.Get(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "PRODUCT_NOT_FOUND", resp.Error.Code)
	})

	t.Run("create product", func(t *testing.T) {
		body := `{"name":"Poster","price":15000,"stock":8,"discounts":[{"quantity":10,"rate":0.1}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Create(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp productResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Data.ID)
		require.Equal(t, "Poster", resp.Data.Name)
		require.Len(t, resp.Data.Tiers, 1)
	})

	t.Run("create rejects invalid payload", func(t *testing.T) {
		body := `{"name":"","price":-5,"stock":1}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Create(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "BAD_REQUEST", resp.Error.Code)
	})

	t.Run("update product", func(t *testing.T) {
		body := `{"name":"Item 1 v2","price":11000,"stock":5}`
		req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/v1/products/p1", strings.NewReader(body)), "id", "p1")
		rec := httptest.NewRecorder()
		handler.Update(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp productResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Item 1 v2", resp.Data.Name)
		require.Equal(t, 5, resp.Data.Stock)
	})

	t.Run("delete product", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/products/p3", nil), "id", "p3")
		rec := httptest.NewRecorder()
		handler.Delete(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)

		again := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/products/p3", nil), "id", "p3")
		rec = httptest.NewRecorder()
		handler.Delete(rec, again)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
