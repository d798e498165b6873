package api

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/oolio-pos-terminal/internal/domain/payment"
	"github.com/xenking/oolio-pos-terminal/internal/terminal"
)

func (h *Handler) seedSplits(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("splits")
	encodeSplits(e, s.SeedSplits())
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := decodeCheckoutRequest(r)
	if err != nil {
		h.writeBadRequest(w, err)
		return
	}

	var receipt *terminal.Receipt
	switch payment.Method(req.Method) {
	case payment.MethodCash:
		receipt, err = s.CheckoutCash(r.Context(), req.CashReceived)
	case payment.MethodCard:
		receipt, err = s.CheckoutCard(r.Context())
	case payment.MethodMixed:
		receipt, err = s.CheckoutSplit(r.Context(), req.Splits)
	default:
		h.writeBadRequest(w, errors.Errorf("unknown payment method %q", req.Method))
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeReceipt(e, receipt)
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) parkSale(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := decodeParkRequest(r)
	if err != nil {
		h.writeBadRequest(w, err)
		return
	}

	ps, err := s.Park(r.Context(), req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeParkedSale(e, *ps, time.Now())
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) resumeSale(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := decodeResumeRequest(r)
	if err != nil {
		h.writeBadRequest(w, err)
		return
	}

	if _, err := s.Resume(r.Context(), req.ParkedID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeTotals(w, s)
}

func (h *Handler) listParked(w http.ResponseWriter, r *http.Request) {
	sales, err := h.parked.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	now := time.Now()
	e := &jx.Encoder{}
	e.ArrStart()
	for _, ps := range sales {
		encodeParkedSale(e, ps, now)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) deleteParked(w http.ResponseWriter, r *http.Request) {
	if err := h.parked.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
