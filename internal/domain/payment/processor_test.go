package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newProcessor() *Processor {
	return NewProcessor(DefaultConfig("USD"))
}

func requireRejected(t *testing.T, err error, contains string) {
	t.Helper()
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, contains)
}

func TestConfirmCash(t *testing.T) {
	p := newProcessor()
	total := dec("15.50")

	t.Run("exact", func(t *testing.T) {
		res, err := p.ConfirmCash(total, "15.50")
		require.NoError(t, err)
		assert.Equal(t, MethodCash, res.Method)
		assert.True(t, res.Change.IsZero())
	})

	t.Run("change due", func(t *testing.T) {
		res, err := p.ConfirmCash(total, "20.00")
		require.NoError(t, err)
		assert.True(t, res.Change.Equal(dec("4.50")), "got %s", res.Change)
	})

	t.Run("missing amount", func(t *testing.T) {
		_, err := p.ConfirmCash(total, "")
		requireRejected(t, err, "cash received is required")
	})

	t.Run("unparseable amount", func(t *testing.T) {
		_, err := p.ConfirmCash(total, "twenty")
		requireRejected(t, err, "not a non-negative number")
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := p.ConfirmCash(total, "-5.00")
		requireRejected(t, err, "not a non-negative number")
	})

	t.Run("insufficient", func(t *testing.T) {
		_, err := p.ConfirmCash(total, "15.49")
		requireRejected(t, err, "insufficient cash")
	})
}

func TestConfirmCard(t *testing.T) {
	p := newProcessor()

	res, err := p.ConfirmCard(dec("10.00"))
	require.NoError(t, err)
	assert.Equal(t, MethodCard, res.Method)
	assert.True(t, res.Change.IsZero())
}

func TestConfirmCard_Disabled(t *testing.T) {
	cfg := DefaultConfig("USD")
	cfg.EnabledMethods = []Method{MethodCash}
	p := NewProcessor(cfg)

	_, err := p.ConfirmCard(dec("10.00"))
	requireRejected(t, err, "not enabled")
}

func TestConfirmSplit(t *testing.T) {
	p := newProcessor()
	total := dec("30.00")

	t.Run("two methods settle exactly", func(t *testing.T) {
		res, err := p.ConfirmSplit(total, []Split{
			{Method: MethodCash, Amount: dec("10.00")},
			{Method: MethodCard, Amount: dec("20.00")},
		})
		require.NoError(t, err)
		assert.Equal(t, MethodMixed, res.Method)
		require.Len(t, res.Splits, 2)
	})

	t.Run("four methods allowed", func(t *testing.T) {
		_, err := p.ConfirmSplit(total, []Split{
			{Method: MethodCash, Amount: dec("7.50")},
			{Method: MethodCard, Amount: dec("7.50")},
			{Method: MethodWallet, Amount: dec("7.50")},
			{Method: MethodStoreCredit, Amount: dec("7.50")},
		})
		require.NoError(t, err)
	})

	t.Run("no splits", func(t *testing.T) {
		_, err := p.ConfirmSplit(total, nil)
		requireRejected(t, err, "at least one payment split")
	})

	t.Run("mixed is not a split method", func(t *testing.T) {
		_, err := p.ConfirmSplit(total, []Split{
			{Method: MethodMixed, Amount: total},
		})
		requireRejected(t, err, "MIXED is not a valid split method")
	})

	t.Run("duplicate method", func(t *testing.T) {
		_, err := p.ConfirmSplit(total, []Split{
			{Method: MethodCash, Amount: dec("10.00")},
			{Method: MethodCash, Amount: dec("20.00")},
		})
		requireRejected(t, err, "duplicate payment method CASH")
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := p.ConfirmSplit(total, []Split{
			{Method: MethodCash, Amount: dec("30.00")},
			{Method: MethodCard, Amount: decimal.Zero},
		})
		requireRejected(t, err, "must be positive")
	})

	t.Run("underpayment", func(t *testing.T) {
		_, err := p.ConfirmSplit(total, []Split{
			{Method: MethodCash, Amount: dec("10.00")},
			{Method: MethodCard, Amount: dec("19.00")},
		})
		requireRejected(t, err, "underpay")
	})

	t.Run("overpayment", func(t *testing.T) {
		_, err := p.ConfirmSplit(total, []Split{
			{Method: MethodCash, Amount: dec("10.00")},
			{Method: MethodCard, Amount: dec("21.00")},
		})
		requireRejected(t, err, "overpay")
	})

	t.Run("sub-epsilon difference passes", func(t *testing.T) {
		// Half a cent is the tolerance boundary; 0.004 under is accepted.
		_, err := p.ConfirmSplit(total, []Split{
			{Method: MethodCash, Amount: dec("10.00")},
			{Method: MethodCard, Amount: dec("19.996")},
		})
		require.NoError(t, err)
	})

	t.Run("half-cent difference is rejected", func(t *testing.T) {
		_, err := p.ConfirmSplit(total, []Split{
			{Method: MethodCash, Amount: dec("10.00")},
			{Method: MethodCard, Amount: dec("19.995")},
		})
		requireRejected(t, err, "underpay")
	})
}

func TestConfirmSplit_MaxSplits(t *testing.T) {
	cfg := DefaultConfig("USD")
	cfg.EnabledMethods = append(cfg.EnabledMethods, "VOUCHER")
	p := NewProcessor(cfg)

	_, err := p.ConfirmSplit(dec("50.00"), []Split{
		{Method: MethodCash, Amount: dec("10.00")},
		{Method: MethodCard, Amount: dec("10.00")},
		{Method: MethodWallet, Amount: dec("10.00")},
		{Method: MethodStoreCredit, Amount: dec("10.00")},
		{Method: "VOUCHER", Amount: dec("10.00")},
	})
	requireRejected(t, err, "at most 4 payment splits")
}

func TestSeedSplits(t *testing.T) {
	p := newProcessor()

	splits := p.SeedSplits(dec("42.00"))
	require.Len(t, splits, 1)
	assert.Equal(t, MethodCash, splits[0].Method)
	assert.True(t, splits[0].Amount.Equal(dec("42.00")))
}

func TestSeedSplits_CashDisabled(t *testing.T) {
	cfg := DefaultConfig("USD")
	cfg.EnabledMethods = []Method{MethodCard, MethodWallet}
	p := NewProcessor(cfg)

	splits := p.SeedSplits(dec("42.00"))
	require.Len(t, splits, 1)
	assert.Equal(t, MethodCard, splits[0].Method, "seed uses the first enabled method")

	// The untouched seed settles the total.
	_, err := p.ConfirmSplit(dec("42.00"), splits)
	require.NoError(t, err)
}
