package api

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/oolio-pos-terminal/internal/domain/cart"
	"github.com/xenking/oolio-pos-terminal/internal/terminal"
)

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()

	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("id")
	e.Str(s.ID)
	e.ObjEnd()
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeTotals(w, s)
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Close(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) scanItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := decodeScanRequest(r)
	if err != nil {
		h.writeBadRequest(w, err)
		return
	}

	if _, err := s.Scan(r.Context(), req.Input); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeTotals(w, s)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := decodeItemRequest(r)
	if err != nil {
		h.writeBadRequest(w, err)
		return
	}

	if _, err := s.AddItem(r.Context(), req.ProductID, req.VariantID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeTotals(w, s)
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := decodeItemRequest(r)
	if err != nil {
		h.writeBadRequest(w, err)
		return
	}

	key := cart.Key{ProductID: req.ProductID, VariantID: req.VariantID}
	if _, err := s.UpdateQuantity(r.Context(), key, req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeTotals(w, s)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	key := cart.Key{
		ProductID: r.URL.Query().Get("product_id"),
		VariantID: r.URL.Query().Get("variant_id"),
	}
	if _, err := s.RemoveItem(key); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeTotals(w, s)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Clear(); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeTotals(w, s)
}

func (h *Handler) attachCustomer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := decodeCustomerRequest(r)
	if err != nil {
		h.writeBadRequest(w, err)
		return
	}

	c, err := s.AttachCustomer(r.Context(), req.Phone)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeCustomer(e, c)
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) redeemPoints(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := decodeRedeemRequest(r)
	if err != nil {
		h.writeBadRequest(w, err)
		return
	}

	discount, err := s.RedeemPoints(r.Context(), req.Points)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ObjStart()
	encodeDecimal(e, "discount", discount)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) writeTotals(w http.ResponseWriter, s *terminal.Session) {
	e := &jx.Encoder{}
	encodeTotals(e, s, s.Totals())
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, err error) {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("code")
	e.Int(http.StatusBadRequest)
	e.FieldStart("message")
	e.Str(err.Error())
	e.ObjEnd()
	writeJSON(w, http.StatusBadRequest, e)
}
