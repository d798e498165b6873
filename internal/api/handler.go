// Package api exposes the terminal engine over a small JSON HTTP surface.
// Handlers are thin: decode, delegate to the session, encode. All sale
// semantics live in the terminal and domain packages.
package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/oolio-pos-terminal/internal/domain/cart"
	"github.com/xenking/oolio-pos-terminal/internal/domain/catalog"
	"github.com/xenking/oolio-pos-terminal/internal/domain/customer"
	"github.com/xenking/oolio-pos-terminal/internal/domain/parked"
	"github.com/xenking/oolio-pos-terminal/internal/domain/payment"
	"github.com/xenking/oolio-pos-terminal/internal/repository"
	"github.com/xenking/oolio-pos-terminal/internal/scan"
	"github.com/xenking/oolio-pos-terminal/internal/terminal"
)

// Handler serves the terminal API.
type Handler struct {
	sessions *terminal.Registry
	parked   *parked.Manager
}

// NewHandler constructs a Handler over the session registry and the
// parked-sale manager.
func NewHandler(sessions *terminal.Registry, parkedMgr *parked.Manager) *Handler {
	return &Handler{sessions: sessions, parked: parkedMgr}
}

// Register attaches all routes to the mux under /api.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.createSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.getSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.closeSession)

	mux.HandleFunc("POST /api/sessions/{id}/scan", h.scanItem)
	mux.HandleFunc("POST /api/sessions/{id}/items", h.addItem)
	mux.HandleFunc("PUT /api/sessions/{id}/items", h.updateQuantity)
	mux.HandleFunc("DELETE /api/sessions/{id}/items", h.removeItem)
	mux.HandleFunc("POST /api/sessions/{id}/clear", h.clearCart)

	mux.HandleFunc("POST /api/sessions/{id}/customer", h.attachCustomer)
	mux.HandleFunc("POST /api/sessions/{id}/redeem", h.redeemPoints)

	mux.HandleFunc("GET /api/sessions/{id}/splits", h.seedSplits)
	mux.HandleFunc("POST /api/sessions/{id}/checkout", h.checkout)

	mux.HandleFunc("POST /api/sessions/{id}/park", h.parkSale)
	mux.HandleFunc("POST /api/sessions/{id}/resume", h.resumeSale)
	mux.HandleFunc("GET /api/parked", h.listParked)
	mux.HandleFunc("DELETE /api/parked/{id}", h.deleteParked)
}

// session loads the session named in the request path, writing a 404 when it
// does not exist.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*terminal.Session, bool) {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return s, true
}

// writeError maps domain errors onto HTTP statuses with a {code, message}
// body. Unmapped errors become 500 with a generic message; the real cause is
// already wrapped and logged by the middleware.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	msg := "internal error"

	var (
		stockErr   *cart.StockError
		paymentErr *payment.ValidationError
	)
	switch {
	case errors.As(err, &stockErr):
		code, msg = http.StatusConflict, stockErr.Error()
	case errors.As(err, &paymentErr):
		code, msg = http.StatusUnprocessableEntity, paymentErr.Error()
	case errors.Is(err, terminal.ErrSessionNotFound),
		errors.Is(err, repository.ErrParkedSaleNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound):
		code, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, scan.ErrNoMatch):
		// Not-found on scan is a normal branch surfaced as a user message.
		code, msg = http.StatusNotFound, "no product matches the scanned code"
	case errors.Is(err, terminal.ErrOperationInProgress):
		code, msg = http.StatusConflict, err.Error()
	case errors.Is(err, terminal.ErrEmptyCart),
		errors.Is(err, terminal.ErrCartNotEmpty),
		errors.Is(err, terminal.ErrNoCustomer),
		errors.Is(err, parked.ErrEmptyCart),
		errors.Is(err, repository.ErrInsufficientPoints):
		code, msg = http.StatusUnprocessableEntity, err.Error()
	}

	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("message")
	e.Str(msg)
	e.ObjEnd()
	writeJSON(w, code, e)
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
