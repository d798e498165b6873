// Package payment validates and finalizes a payment attempt against a
// computed payable total. An attempt moves Idle -> Validating -> Finalized or
// Rejected; rejections are reported as *ValidationError with a specific
// reason and never mutate the cart, so the cashier can correct and retry.
package payment

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Method enumerates the supported payment methods.
type Method string

const (
	MethodCash        Method = "CASH"
	MethodCard        Method = "CARD"
	MethodWallet      Method = "WALLET"
	MethodStoreCredit Method = "STORE_CREDIT"
	// MethodMixed marks a sale settled by multiple splits. It is never a
	// valid split method itself.
	MethodMixed Method = "MIXED"
)

// Split is one slice of a multi-method payment.
type Split struct {
	Method Method
	Amount decimal.Decimal
}

// ValidationError is a rejected payment attempt. The reason is specific
// enough to show to the cashier as-is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "payment rejected: " + e.Reason
}

func rejectf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Result is a finalized payment: the settled method, the validated splits
// (for MIXED), and change due for cash.
type Result struct {
	Method Method
	Splits []Split
	Change decimal.Decimal
}
