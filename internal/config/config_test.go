package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yanarios/sistema-kiosco/internal/model"
)

func TestTenderMappingFlattensBuckets(t *testing.T) {
	cfg := &Config{
		TenderCash:    []string{model.PayCash},
		TenderDebit:   []string{model.PayCardDebit, model.PayWallet},
		TenderCredit:  []string{model.PayCardCredit},
		TenderVoucher: []string{model.PayStoreCredit},
	}
	m := cfg.TenderMapping()
	assert.Equal(t, model.TenderCash, m[model.PayCash])
	assert.Equal(t, model.TenderDebit, m[model.PayWallet])
	assert.Equal(t, model.TenderCredit, m[model.PayCardCredit])
	assert.Equal(t, model.TenderVoucher, m[model.PayStoreCredit])
}

func TestToleranceFallsBackOnGarbage(t *testing.T) {
	cfg := &Config{VarianceTolerance: "not-a-number"}
	assert.True(t, cfg.Tolerance().Equal(decimal.NewFromInt(1)))

	cfg = &Config{VarianceTolerance: "0.50"}
	assert.True(t, cfg.Tolerance().Equal(decimal.RequireFromString("0.50")))
}

func TestDefaultTenderMappingCoversEveryMethod(t *testing.T) {
	m := DefaultTenderMapping()
	for _, method := range []string{
		model.PayCash, model.PayCardDebit, model.PayCardCredit,
		model.PayWallet, model.PayStoreCredit,
	} {
		assert.Contains(t, m, method)
	}
}
