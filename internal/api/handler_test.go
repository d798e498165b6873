package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/oolio-pos-terminal/internal/domain/catalog"
	"github.com/xenking/oolio-pos-terminal/internal/domain/customer"
	"github.com/xenking/oolio-pos-terminal/internal/domain/parked"
	"github.com/xenking/oolio-pos-terminal/internal/domain/payment"
	"github.com/xenking/oolio-pos-terminal/internal/domain/pricing"
	"github.com/xenking/oolio-pos-terminal/internal/domain/sale"
	"github.com/xenking/oolio-pos-terminal/internal/repository"
	"github.com/xenking/oolio-pos-terminal/internal/scan"
	"github.com/xenking/oolio-pos-terminal/internal/terminal"
)

type mockCatalog struct {
	products map[string]*catalog.Product
	variants map[string][]catalog.Variant
}

func (m *mockCatalog) GetProductByID(_ context.Context, id string) (*catalog.Product, error) {
	if p, ok := m.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, catalog.ErrNotFound
}

func (m *mockCatalog) GetProductByBarcode(_ context.Context, barcode string) (*catalog.Product, error) {
	for _, p := range m.products {
		if p.Barcode == barcode {
			cp := *p
			return &cp, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (m *mockCatalog) SearchFirstActive(_ context.Context, _ string) (*catalog.Product, error) {
	return nil, catalog.ErrNotFound
}

func (m *mockCatalog) GetVariantByBarcode(_ context.Context, _ string) (*catalog.Variant, error) {
	return nil, catalog.ErrNotFound
}

func (m *mockCatalog) GetVariantsForProduct(_ context.Context, productID string) ([]catalog.Variant, error) {
	return m.variants[productID], nil
}

type mockCustomers struct {
	customer *customer.Customer
}

func (m *mockCustomers) GetByPhone(_ context.Context, phone string) (*customer.Customer, error) {
	if m.customer != nil && m.customer.Phone == phone {
		cp := *m.customer
		return &cp, nil
	}
	return nil, customer.ErrNotFound
}

func (m *mockCustomers) RedeemPoints(_ context.Context, _ string, points int) (decimal.Decimal, error) {
	if m.customer == nil || points > m.customer.Points {
		return decimal.Zero, repository.ErrInsufficientPoints
	}
	return decimal.RequireFromString("0.01").Mul(decimal.NewFromInt(int64(points))), nil
}

type mockSales struct {
	createCalls int
}

func (m *mockSales) Create(_ context.Context, s *sale.Sale) (string, error) {
	m.createCalls++
	return s.ID, nil
}

type memParkedRepo struct {
	sales map[string]parked.Sale
}

func (r *memParkedRepo) Create(_ context.Context, s *parked.Sale) error {
	r.sales[s.ID] = *s
	return nil
}

func (r *memParkedRepo) List(_ context.Context) ([]parked.Sale, error) {
	out := make([]parked.Sale, 0, len(r.sales))
	for _, s := range r.sales {
		out = append(out, s)
	}
	return out, nil
}

func (r *memParkedRepo) Get(_ context.Context, id string) (*parked.Sale, error) {
	if s, ok := r.sales[id]; ok {
		return &s, nil
	}
	return nil, repository.ErrParkedSaleNotFound
}

func (r *memParkedRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.sales[id]; !ok {
		return repository.ErrParkedSaleNotFound
	}
	delete(r.sales, id)
	return nil
}

type testAPI struct {
	mux   *http.ServeMux
	sales *mockSales
}

func newTestAPI() *testAPI {
	cat := &mockCatalog{
		products: map[string]*catalog.Product{
			"prod-espresso": {
				ID:      "prod-espresso",
				Name:    "Espresso",
				Barcode: "4006381333931",
				Price:   decimal.RequireFromString("3.50"),
				TaxRate: decimal.RequireFromString("10"),
				Stock:   500,
				Active:  true,
			},
			"prod-croissant": {
				ID:      "prod-croissant",
				Name:    "Butter Croissant",
				Price:   decimal.RequireFromString("2.80"),
				TaxRate: decimal.RequireFromString("10"),
				Stock:   1,
				Active:  true,
			},
		},
	}
	customers := &mockCustomers{
		customer: &customer.Customer{ID: "cust-1", Name: "Ada Lovell", Phone: "+15550100", Points: 320},
	}
	sales := &mockSales{}
	parkedRepo := &memParkedRepo{sales: make(map[string]parked.Sale)}

	engine := pricing.NewEngine(2)
	parkedMgr := parked.NewManager(parkedRepo, engine)
	registry := terminal.NewRegistry(terminal.Deps{
		Resolver:  scan.NewResolver(cat),
		Catalog:   cat,
		Customers: customers,
		Sales:     sales,
		Parked:    parkedMgr,
		Engine:    engine,
		Processor: payment.NewProcessor(payment.DefaultConfig("USD")),
	})

	mux := http.NewServeMux()
	NewHandler(registry, parkedMgr).Register(mux)
	return &testAPI{mux: mux, sales: sales}
}

func (a *testAPI) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("{}")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Body.String(), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func (a *testAPI) newSession(t *testing.T) string {
	t.Helper()
	rec, body := a.do(t, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestAPI_SessionLifecycle(t *testing.T) {
	a := newTestAPI()
	id := a.newSession(t)

	rec, body := a.do(t, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, body["session_id"])
	assert.Equal(t, "0", body["total"])

	rec, _ = a.do(t, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, body = a.do(t, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, float64(http.StatusNotFound), body["code"])
}

func TestAPI_ScanAndTotals(t *testing.T) {
	a := newTestAPI()
	id := a.newSession(t)

	rec, body := a.do(t, http.MethodPost, "/api/sessions/"+id+"/scan", `{"input":"4006381333931"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	lines := body["lines"].([]any)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	assert.Equal(t, "prod-espresso", line["product_id"])
	assert.Equal(t, "3.5", line["unit_price"])
	assert.Equal(t, "10", line["tax_rate"], "tax_rate is a percentage string, not an amount")
	assert.Equal(t, "3.5", body["subtotal"])
	assert.Equal(t, "0.35", body["tax"])
	assert.Equal(t, "3.85", body["total"])
}

func TestAPI_Scan_NoMatch(t *testing.T) {
	a := newTestAPI()
	id := a.newSession(t)

	rec, body := a.do(t, http.MethodPost, "/api/sessions/"+id+"/scan", `{"input":"nothing here"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no product matches the scanned code", body["message"])
}

func TestAPI_AddItem_StockConflict(t *testing.T) {
	a := newTestAPI()
	id := a.newSession(t)

	rec, _ := a.do(t, http.MethodPost, "/api/sessions/"+id+"/items", `{"product_id":"prod-croissant"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := a.do(t, http.MethodPost, "/api/sessions/"+id+"/items", `{"product_id":"prod-croissant"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, body["message"], "insufficient stock")
}

func TestAPI_UpdateAndRemove(t *testing.T) {
	a := newTestAPI()
	id := a.newSession(t)

	rec, _ := a.do(t, http.MethodPost, "/api/sessions/"+id+"/items", `{"product_id":"prod-espresso"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := a.do(t, http.MethodPut, "/api/sessions/"+id+"/items", `{"product_id":"prod-espresso","quantity":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	line := body["lines"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(3), line["quantity"])

	rec, body = a.do(t, http.MethodDelete, "/api/sessions/"+id+"/items?product_id=prod-espresso", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["lines"])
}

func TestAPI_BadRequestBody(t *testing.T) {
	a := newTestAPI()
	id := a.newSession(t)

	rec, body := a.do(t, http.MethodPost, "/api/sessions/"+id+"/scan", `{"input":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, float64(http.StatusBadRequest), body["code"])
}

func TestAPI_Customer(t *testing.T) {
	a := newTestAPI()
	id := a.newSession(t)

	rec, body := a.do(t, http.MethodPost, "/api/sessions/"+id+"/customer", `{"phone":"+15550100"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cust-1", body["id"])
	assert.Equal(t, float64(320), body["points"])

	rec, _ = a.do(t, http.MethodPost, "/api/sessions/"+id+"/customer", `{"phone":"+10000000"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_Redeem(t *testing.T) {
	a := newTestAPI()
	id := a.newSession(t)

	// No customer attached yet.
	rec, _ := a.do(t, http.MethodPost, "/api/sessions/"+id+"/redeem", `{"points":100}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = a.do(t, http.MethodPost, "/api/sessions/"+id+"/customer", `{"phone":"+15550100"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := a.do(t, http.MethodPost, "/api/sessions/"+id+"/redeem", `{"points":100}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", body["discount"])
}

func TestAPI_CheckoutCash(t *testing.T) {
	a := newTestAPI()
	id := a.newSession(t)

	rec, _ := a.do(t, http.MethodPost, "/api/sessions/"+id+"/items", `{"product_id":"prod-espresso"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// 3.85 due; short cash is a payment validation failure.
	rec, body := a.do(t, http.MethodPost, "/api/sessions/"+id+"/checkout", `{"method":"CASH","cash_received":"1.00"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["message"], "insufficient cash")

	rec, body = a.do(t, http.MethodPost, "/api/sessions/"+id+"/checkout", `{"method":"CASH","cash_received":"5.00"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CASH", body["method"])
	assert.Equal(t, "3.85", body["total"])
	assert.Equal(t, "1.15", body["change"])
	assert.NotEmpty(t, body["receipt_id"])
	assert.Equal(t, 1, a.sales.createCalls)

	// The cart is gone, so a second checkout has nothing to finalize.
	rec, _ = a.do(t, http.MethodPost, "/api/sessions/"+id+"/checkout", `{"method":"CARD"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAPI_CheckoutSplit(t *testing.T) {
	a := newTestAPI()
	id := a.newSession(t)

	rec, _ := a.do(t, http.MethodPost, "/api/sessions/"+id+"/items", `{"product_id":"prod-espresso"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := a.do(t, http.MethodGet, "/api/sessions/"+id+"/splits", "")
	require.Equal(t, http.StatusOK, rec.Code)
	seed := body["splits"].([]any)[0].(map[string]any)
	assert.Equal(t, "CASH", seed["method"])
	assert.Equal(t, "3.85", seed["amount"])

	payload := `{"method":"MIXED","splits":[{"method":"CASH","amount":"2.00"},{"method":"CARD","amount":"1.85"}]}`
	rec, body = a.do(t, http.MethodPost, "/api/sessions/"+id+"/checkout", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MIXED", body["method"])
	assert.Len(t, body["splits"], 2)
}

func TestAPI_Checkout_UnknownMethod(t *testing.T) {
	a := newTestAPI()
	id := a.newSession(t)

	rec, _ := a.do(t, http.MethodPost, "/api/sessions/"+id+"/items", `{"product_id":"prod-espresso"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := a.do(t, http.MethodPost, "/api/sessions/"+id+"/checkout", `{"method":"BARTER"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "unknown payment method")
}

func TestAPI_ParkAndResume(t *testing.T) {
	a := newTestAPI()
	id := a.newSession(t)

	rec, _ := a.do(t, http.MethodPost, "/api/sessions/"+id+"/items", `{"product_id":"prod-espresso"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := a.do(t, http.MethodPost, "/api/sessions/"+id+"/park", `{"notes":"phone call"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	parkedID := body["id"].(string)
	assert.Equal(t, "phone call", body["notes"])
	assert.Equal(t, float64(1), body["line_count"])
	assert.Equal(t, false, body["expired"])

	rec2 := httptest.NewRecorder()
	a.mux.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/api/parked", nil))
	require.Equal(t, http.StatusOK, rec2.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, parkedID, listed[0]["id"])

	rec, body = a.do(t, http.MethodPost, "/api/sessions/"+id+"/resume", `{"parked_id":"`+parkedID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["lines"], 1)
	assert.Equal(t, "3.85", body["total"])

	// Resuming consumed the parked sale.
	rec, _ = a.do(t, http.MethodPost, "/api/sessions/"+id+"/resume", `{"parked_id":"`+parkedID+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "cart no longer empty")
}

func TestAPI_DeleteParked(t *testing.T) {
	a := newTestAPI()
	id := a.newSession(t)

	rec, _ := a.do(t, http.MethodPost, "/api/sessions/"+id+"/items", `{"product_id":"prod-espresso"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body := a.do(t, http.MethodPost, "/api/sessions/"+id+"/park", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	parkedID := body["id"].(string)

	rec, _ = a.do(t, http.MethodDelete, "/api/parked/"+parkedID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = a.do(t, http.MethodDelete, "/api/parked/"+parkedID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
