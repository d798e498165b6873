package api

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos-terminal/internal/domain/customer"
	"github.com/xenking/oolio-pos-terminal/internal/domain/parked"
	"github.com/xenking/oolio-pos-terminal/internal/domain/payment"
	"github.com/xenking/oolio-pos-terminal/internal/terminal"
)

// Decimal values (money and tax rates) are encoded as JSON strings: the front
// end formats them and must never round-trip them through floats.

func encodeDecimal(e *jx.Encoder, field string, d decimal.Decimal) {
	e.FieldStart(field)
	e.Str(d.String())
}

func encodeTotals(e *jx.Encoder, s *terminal.Session, t terminal.Totals) {
	c := s.Cart()

	e.ObjStart()
	e.FieldStart("session_id")
	e.Str(s.ID)

	e.FieldStart("lines")
	e.ArrStart()
	for _, lt := range t.Lines {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(lt.ProductID)
		if lt.VariantID != "" {
			e.FieldStart("variant_id")
			e.Str(lt.VariantID)
			e.FieldStart("variant_name")
			e.Str(lt.VariantName)
		}
		e.FieldStart("name")
		e.Str(lt.Name)
		if lt.SKU != "" {
			e.FieldStart("sku")
			e.Str(lt.SKU)
		}
		if lt.Barcode != "" {
			e.FieldStart("barcode")
			e.Str(lt.Barcode)
		}
		e.FieldStart("quantity")
		e.Int(lt.Quantity)
		e.FieldStart("available")
		e.Int(lt.Available)
		encodeDecimal(e, "unit_price", lt.UnitPrice)
		encodeDecimal(e, "tax_rate", lt.TaxRate)
		encodeDecimal(e, "subtotal", lt.Subtotal)
		encodeDecimal(e, "tax", lt.Tax)
		encodeDecimal(e, "discount", lt.Discount)
		e.ObjEnd()
	}
	e.ArrEnd()

	encodeDecimal(e, "subtotal", t.Subtotal)
	encodeDecimal(e, "tax", t.Tax)
	encodeDecimal(e, "discount", t.Discount)
	encodeDecimal(e, "total", t.Total)

	if c.CustomerID != "" {
		e.FieldStart("customer_id")
		e.Str(c.CustomerID)
	}
	e.ObjEnd()
}

func encodeReceipt(e *jx.Encoder, r *terminal.Receipt) {
	e.ObjStart()
	e.FieldStart("receipt_id")
	e.Str(r.ReceiptID)
	e.FieldStart("method")
	e.Str(string(r.Sale.Method))
	encodeDecimal(e, "subtotal", r.Sale.Subtotal)
	encodeDecimal(e, "tax", r.Sale.Tax)
	encodeDecimal(e, "discount", r.Sale.Discount)
	encodeDecimal(e, "total", r.Sale.Total)
	encodeDecimal(e, "change", r.Change)
	if len(r.Sale.Splits) > 0 {
		e.FieldStart("splits")
		encodeSplits(e, r.Sale.Splits)
	}
	e.ObjEnd()
}

func encodeSplits(e *jx.Encoder, splits []payment.Split) {
	e.ArrStart()
	for _, s := range splits {
		e.ObjStart()
		e.FieldStart("method")
		e.Str(string(s.Method))
		encodeDecimal(e, "amount", s.Amount)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeParkedSale(e *jx.Encoder, s parked.Sale, now time.Time) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(s.ID)
	e.FieldStart("notes")
	e.Str(s.Notes)
	e.FieldStart("line_count")
	e.Int(len(s.Lines))
	encodeDecimal(e, "subtotal", s.Subtotal)
	encodeDecimal(e, "tax", s.Tax)
	encodeDecimal(e, "discount", s.Discount)
	if s.CustomerID != "" {
		e.FieldStart("customer_id")
		e.Str(s.CustomerID)
	}
	e.FieldStart("parked_at")
	e.Str(s.ParkedAt.Format(time.RFC3339))
	e.FieldStart("expires_at")
	e.Str(s.ExpiresAt.Format(time.RFC3339))
	// Display-only: an expired parked sale is still resumable.
	e.FieldStart("expired")
	e.Bool(s.Expired(now))
	e.ObjEnd()
}

func encodeCustomer(e *jx.Encoder, c *customer.Customer) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("phone")
	e.Str(c.Phone)
	e.FieldStart("points")
	e.Int(c.Points)
	e.ObjEnd()
}
