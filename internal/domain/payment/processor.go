package payment

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Config is injected per terminal: enabled methods, split ceiling, and the
// currency's minor-unit exponent used for the split-sum tolerance.
type Config struct {
	Currency          string
	EnabledMethods    []Method
	MaxSplits         int
	MinorUnitExponent int32
}

// DefaultConfig enables all four concrete methods with up to four splits.
func DefaultConfig(currency string) Config {
	return Config{
		Currency:          currency,
		EnabledMethods:    []Method{MethodCash, MethodCard, MethodWallet, MethodStoreCredit},
		MaxSplits:         4,
		MinorUnitExponent: 2,
	}
}

// Processor validates payment attempts. It holds no mutable state; every
// Confirm call is an independent attempt.
type Processor struct {
	cfg Config
	// epsilon is half the currency minor unit: split sums within it of the
	// payable total are treated as exact.
	epsilon decimal.Decimal
}

// NewProcessor builds a Processor from the given config.
func NewProcessor(cfg Config) *Processor {
	if cfg.MaxSplits <= 0 {
		cfg.MaxSplits = 4
	}
	return &Processor{
		cfg:     cfg,
		epsilon: decimal.New(5, -cfg.MinorUnitExponent-1),
	}
}

// SeedSplits returns the initial split list shown to the cashier: one split
// covering the full payable amount, using the first enabled method so the
// seed always passes validation unchanged.
func (p *Processor) SeedSplits(total decimal.Decimal) []Split {
	method := MethodCash
	if len(p.cfg.EnabledMethods) > 0 {
		method = p.cfg.EnabledMethods[0]
	}
	return []Split{{Method: method, Amount: total}}
}

// ConfirmCash validates a cash payment. cashReceived is the raw operator
// input; missing, unparseable, or negative values are rejected, as is any
// amount below the payable total.
func (p *Processor) ConfirmCash(total decimal.Decimal, cashReceived string) (*Result, error) {
	if err := p.methodEnabled(MethodCash); err != nil {
		return nil, err
	}
	if cashReceived == "" {
		return nil, rejectf("cash received is required")
	}
	received, err := decimal.NewFromString(cashReceived)
	if err != nil || received.IsNegative() {
		return nil, rejectf("cash received %q is not a non-negative number", cashReceived)
	}
	if received.LessThan(total) {
		return nil, rejectf("insufficient cash: received %s, total %s", received, total)
	}
	return &Result{
		Method: MethodCash,
		Change: received.Sub(total),
	}, nil
}

// ConfirmCard validates a card payment. The card terminal collects the exact
// amount, so no operator input is validated here.
func (p *Processor) ConfirmCard(total decimal.Decimal) (*Result, error) {
	if err := p.methodEnabled(MethodCard); err != nil {
		return nil, err
	}
	return &Result{Method: MethodCard}, nil
}

// ConfirmSplit validates a multi-method payment. All rules must pass:
// 1-MaxSplits splits, no duplicate methods, every amount positive, and the
// amounts summing to the payable total within half a minor unit (neither
// under- nor over-payment is accepted).
func (p *Processor) ConfirmSplit(total decimal.Decimal, splits []Split) (*Result, error) {
	if len(splits) == 0 {
		return nil, rejectf("at least one payment split is required")
	}
	if len(splits) > p.cfg.MaxSplits {
		return nil, rejectf("at most %d payment splits are allowed, got %d", p.cfg.MaxSplits, len(splits))
	}

	seen := make(map[Method]struct{}, len(splits))
	sum := decimal.Zero
	for _, s := range splits {
		if s.Method == MethodMixed {
			return nil, rejectf("MIXED is not a valid split method")
		}
		if err := p.methodEnabled(s.Method); err != nil {
			return nil, err
		}
		if _, dup := seen[s.Method]; dup {
			return nil, rejectf("duplicate payment method %s", s.Method)
		}
		seen[s.Method] = struct{}{}

		if !s.Amount.IsPositive() {
			return nil, rejectf("split amount for %s must be positive, got %s", s.Method, s.Amount)
		}
		sum = sum.Add(s.Amount)
	}

	diff := sum.Sub(total)
	switch {
	case diff.Abs().LessThan(p.epsilon):
		// exact within tolerance
	case diff.IsNegative():
		return nil, rejectf("splits underpay the total: %s of %s", sum, total)
	default:
		return nil, rejectf("splits overpay the total: %s of %s", sum, total)
	}

	return &Result{
		Method: MethodMixed,
		Splits: slices.Clone(splits),
	}, nil
}

func (p *Processor) methodEnabled(m Method) error {
	if slices.Contains(p.cfg.EnabledMethods, m) {
		return nil
	}
	return rejectf("payment method %s is not enabled", m)
}
