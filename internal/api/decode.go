package api

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos-terminal/internal/domain/payment"
)

// maxBodySize bounds request bodies; terminal requests are tiny.
const maxBodySize = 1 << 16

func decodeBody(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	d := jx.DecodeBytes(data)
	if err := d.Obj(fn); err != nil {
		return errors.Wrap(err, "decode body")
	}
	return nil
}

type scanRequest struct {
	Input string
}

func decodeScanRequest(r *http.Request) (req scanRequest, err error) {
	err = decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "input":
			req.Input, err = d.Str()
			return err
		default:
			return d.Skip()
		}
	})
	return req, err
}

type itemRequest struct {
	ProductID string
	VariantID string
	Quantity  int
}

func decodeItemRequest(r *http.Request) (req itemRequest, err error) {
	err = decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			req.ProductID, err = d.Str()
		case "variant_id":
			req.VariantID, err = d.Str()
		case "quantity":
			req.Quantity, err = d.Int()
		default:
			return d.Skip()
		}
		return err
	})
	return req, err
}

type customerRequest struct {
	Phone string
}

func decodeCustomerRequest(r *http.Request) (req customerRequest, err error) {
	err = decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "phone":
			req.Phone, err = d.Str()
			return err
		default:
			return d.Skip()
		}
	})
	return req, err
}

type redeemRequest struct {
	Points int
}

func decodeRedeemRequest(r *http.Request) (req redeemRequest, err error) {
	err = decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "points":
			req.Points, err = d.Int()
			return err
		default:
			return d.Skip()
		}
	})
	return req, err
}

type checkoutRequest struct {
	Method       string
	CashReceived string
	Splits       []payment.Split
}

func decodeCheckoutRequest(r *http.Request) (req checkoutRequest, err error) {
	err = decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "method":
			req.Method, err = d.Str()
			return err
		case "cash_received":
			req.CashReceived, err = d.Str()
			return err
		case "splits":
			return d.Arr(func(d *jx.Decoder) error {
				split, err := decodeSplit(d)
				if err != nil {
					return err
				}
				req.Splits = append(req.Splits, split)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	return req, err
}

func decodeSplit(d *jx.Decoder) (s payment.Split, err error) {
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "method":
			m, err := d.Str()
			if err != nil {
				return err
			}
			s.Method = payment.Method(m)
			return nil
		case "amount":
			var err error
			s.Amount, err = decodeAmount(d)
			return err
		default:
			return d.Skip()
		}
	})
	return s, err
}

// decodeAmount accepts a monetary value as either a JSON string ("12.50",
// preferred) or a bare number.
func decodeAmount(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Zero, errors.New("amount must be a string or number")
	}
}

type parkRequest struct {
	Notes string
}

func decodeParkRequest(r *http.Request) (req parkRequest, err error) {
	err = decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "notes":
			req.Notes, err = d.Str()
			return err
		default:
			return d.Skip()
		}
	})
	return req, err
}

type resumeRequest struct {
	ParkedID string
}

func decodeResumeRequest(r *http.Request) (req resumeRequest, err error) {
	err = decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "parked_id":
			req.ParkedID, err = d.Str()
			return err
		default:
			return d.Skip()
		}
	})
	return req, err
}
