package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanarios/sistema-kiosco/internal/apierror"
	"github.com/yanarios/sistema-kiosco/internal/dto"
	"github.com/yanarios/sistema-kiosco/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type saleFixture struct {
	svc       *SaleService
	products  *stubProductRepo
	sales     *stubSaleRepo
	sessions  *stubSessionRepo
	customers *stubCustomerRepo
	stockLog  *stubStockLogRepo
	session   *model.CashSession
	userID    uuid.UUID
}

func newSaleFixture(t *testing.T, withSession bool, products ...*model.Product) *saleFixture {
	t.Helper()
	f := &saleFixture{
		products:  newStubProductRepo(products...),
		sales:     newStubSaleRepo(),
		sessions:  newStubSessionRepo(),
		customers: newStubCustomerRepo(),
		stockLog:  newStubStockLogRepo(),
		userID:    uuid.New(),
	}
	if withSession {
		f.session = &model.CashSession{
			UserID:       f.userID,
			OpeningFloat: dec("100.00"),
			Open:         true,
			OpenedAt:     time.Now(),
		}
		require.NoError(t, f.sessions.CreateSessionTx(nil, f.session))
	}
	f.svc = NewSaleService(f.sales, f.products, f.sessions, f.customers, f.stockLog, nil)
	return f
}

func TestProcessSale_TotalEqualsSumOfSubtotals(t *testing.T) {
	coffee := &model.Product{Code: "C1", Name: "Coffee", SaleUnit: model.SaleUnitDiscrete,
		SalePrice: dec("2.50"), StockActual: dec("10"), Active: true}
	soda := &model.Product{Code: "S1", Name: "Soda", SaleUnit: model.SaleUnitDiscrete,
		SalePrice: dec("1.75"), StockActual: dec("20"), Active: true}
	f := newSaleFixture(t, true, coffee, soda)

	resp, err := f.svc.ProcessSale(context.Background(), f.userID, dto.ProcessSaleRequest{
		Items: []dto.SaleItemRequest{
			{ProductID: coffee.ID.String(), Quantity: dec("3")},
			{ProductID: soda.ID.String(), Quantity: dec("2")},
		},
		PaymentMethod: model.PayCash,
	})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, line := range resp.Lines {
		sum = sum.Add(line.Subtotal)
	}
	assert.True(t, resp.Total.Equal(sum), "total %s != sum of subtotals %s", resp.Total, sum)
	assert.True(t, resp.Total.Equal(dec("11.00")))

	// Stock decremented under the same commit.
	assert.True(t, f.products.stock(coffee.ID).Equal(dec("7")))
	assert.True(t, f.products.stock(soda.ID).Equal(dec("18")))

	// Each line logged in the stock audit trail.
	assert.Len(t, f.stockLog.byType(model.StockMoveSale), 2)
}

func TestProcessSale_WeighableExactDecimal(t *testing.T) {
	cheese := &model.Product{Code: "W1", Name: "Cheese", SaleUnit: model.SaleUnitWeighable,
		SalePrice: dec("10.00"), StockActual: dec("5.000"), Active: true}
	f := newSaleFixture(t, true, cheese)

	resp, err := f.svc.ProcessSale(context.Background(), f.userID, dto.ProcessSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: cheese.ID.String(), Quantity: dec("0.5")}},
		PaymentMethod: model.PayCash,
	})
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(dec("5.00")), "0.5 kg at 10.00 must be exactly 5.00, got %s", resp.Total)
	assert.True(t, f.products.stock(cheese.ID).Equal(dec("4.500")))
}

func TestProcessSale_NoFloatDrift(t *testing.T) {
	// 1000 units at 0.10 must be exactly 100.00.
	candy := &model.Product{Code: "D1", Name: "Candy", SaleUnit: model.SaleUnitDiscrete,
		SalePrice: dec("0.10"), StockActual: dec("1000"), Active: true}
	f := newSaleFixture(t, true, candy)

	resp, err := f.svc.ProcessSale(context.Background(), f.userID, dto.ProcessSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: candy.ID.String(), Quantity: dec("1000")}},
		PaymentMethod: model.PayCash,
	})
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(dec("100.00")), "got %s", resp.Total)
}

func TestProcessSale_InsufficientStockLeavesNothingBehind(t *testing.T) {
	coffee := &model.Product{Code: "C1", Name: "Coffee", SaleUnit: model.SaleUnitDiscrete,
		SalePrice: dec("2.50"), StockActual: dec("10"), Active: true}
	soda := &model.Product{Code: "S1", Name: "Soda", SaleUnit: model.SaleUnitDiscrete,
		SalePrice: dec("1.75"), StockActual: dec("1"), Active: true}
	f := newSaleFixture(t, true, coffee, soda)

	_, err := f.svc.ProcessSale(context.Background(), f.userID, dto.ProcessSaleRequest{
		Items: []dto.SaleItemRequest{
			{ProductID: coffee.ID.String(), Quantity: dec("3")},
			{ProductID: soda.ID.String(), Quantity: dec("2")},
		},
		PaymentMethod: model.PayCash,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindInsufficientStock, apierror.KindOf(err))
	assert.Contains(t, err.Error(), "Soda")
	assert.Contains(t, err.Error(), "1")

	// Nothing committed: stock untouched, no sale, no audit entries.
	assert.True(t, f.products.stock(coffee.ID).Equal(dec("10")))
	assert.True(t, f.products.stock(soda.ID).Equal(dec("1")))
	sales, total, _ := f.sales.List(context.Background(), dto.SaleFilter{Status: "all"})
	assert.Empty(t, sales)
	assert.Zero(t, total)
	assert.Empty(t, f.stockLog.byType(model.StockMoveSale))
}

func TestProcessSale_NoOpenSession(t *testing.T) {
	coffee := &model.Product{Code: "C1", Name: "Coffee", SaleUnit: model.SaleUnitDiscrete,
		SalePrice: dec("2.50"), StockActual: dec("10"), Active: true}
	f := newSaleFixture(t, false, coffee)

	_, err := f.svc.ProcessSale(context.Background(), f.userID, dto.ProcessSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: coffee.ID.String(), Quantity: dec("1")}},
		PaymentMethod: model.PayCash,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindNoOpenSession, apierror.KindOf(err))
}

func TestProcessSale_DiscreteRejectsFractionalQuantity(t *testing.T) {
	coffee := &model.Product{Code: "C1", Name: "Coffee", SaleUnit: model.SaleUnitDiscrete,
		SalePrice: dec("2.50"), StockActual: dec("10"), Active: true}
	f := newSaleFixture(t, true, coffee)

	_, err := f.svc.ProcessSale(context.Background(), f.userID, dto.ProcessSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: coffee.ID.String(), Quantity: dec("1.5")}},
		PaymentMethod: model.PayCash,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestProcessSale_MergesDuplicateItems(t *testing.T) {
	coffee := &model.Product{Code: "C1", Name: "Coffee", SaleUnit: model.SaleUnitDiscrete,
		SalePrice: dec("2.00"), StockActual: dec("10"), Active: true}
	f := newSaleFixture(t, true, coffee)

	resp, err := f.svc.ProcessSale(context.Background(), f.userID, dto.ProcessSaleRequest{
		Items: []dto.SaleItemRequest{
			{ProductID: coffee.ID.String(), Quantity: dec("2")},
			{ProductID: coffee.ID.String(), Quantity: dec("3")},
		},
		PaymentMethod: model.PayCash,
	})
	require.NoError(t, err)
	require.Len(t, resp.Lines, 1)
	assert.True(t, resp.Lines[0].Quantity.Equal(dec("5")))
	assert.True(t, f.products.stock(coffee.ID).Equal(dec("5")))
}

func TestProcessSale_StoreCreditRequiresCustomerAndTracksDebt(t *testing.T) {
	coffee := &model.Product{Code: "C1", Name: "Coffee", SaleUnit: model.SaleUnitDiscrete,
		SalePrice: dec("4.00"), StockActual: dec("10"), Active: true}
	f := newSaleFixture(t, true, coffee)

	// Without a customer: rejected.
	_, err := f.svc.ProcessSale(context.Background(), f.userID, dto.ProcessSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: coffee.ID.String(), Quantity: dec("1")}},
		PaymentMethod: model.PayStoreCredit,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))

	// With a customer: debt grows by the sale total.
	customer := &model.Customer{Name: "Ana"}
	require.NoError(t, f.customers.Create(context.Background(), customer))
	customerID := customer.ID.String()

	_, err = f.svc.ProcessSale(context.Background(), f.userID, dto.ProcessSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: coffee.ID.String(), Quantity: dec("2")}},
		PaymentMethod: model.PayStoreCredit,
		CustomerID:    &customerID,
	})
	require.NoError(t, err)

	got, err := f.customers.FindByID(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentDebt.Equal(dec("8.00")))
}

func TestVoidSale_RestoresStockExactly(t *testing.T) {
	cheese := &model.Product{Code: "W1", Name: "Cheese", SaleUnit: model.SaleUnitWeighable,
		SalePrice: dec("10.00"), StockActual: dec("5.000"), Active: true}
	f := newSaleFixture(t, true, cheese)

	resp, err := f.svc.ProcessSale(context.Background(), f.userID, dto.ProcessSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: cheese.ID.String(), Quantity: dec("1.250")}},
		PaymentMethod: model.PayCash,
	})
	require.NoError(t, err)
	require.True(t, f.products.stock(cheese.ID).Equal(dec("3.750")))

	saleID := uuid.MustParse(resp.ID)
	voided, err := f.svc.VoidSale(context.Background(), model.RoleSupervisor, saleID)
	require.NoError(t, err)
	assert.True(t, voided.Voided)

	// Round trip: stock back exactly where it started.
	assert.True(t, f.products.stock(cheese.ID).Equal(dec("5.000")))
	assert.Len(t, f.stockLog.byType(model.StockMoveVoidRestore), 1)

	// The sale still exists, flagged voided.
	kept, err := f.sales.FindByID(context.Background(), saleID)
	require.NoError(t, err)
	assert.True(t, kept.Voided)
}

func TestVoidSale_TwiceFailsWithoutDoubleRestock(t *testing.T) {
	coffee := &model.Product{Code: "C1", Name: "Coffee", SaleUnit: model.SaleUnitDiscrete,
		SalePrice: dec("2.00"), StockActual: dec("10"), Active: true}
	f := newSaleFixture(t, true, coffee)

	resp, err := f.svc.ProcessSale(context.Background(), f.userID, dto.ProcessSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: coffee.ID.String(), Quantity: dec("4")}},
		PaymentMethod: model.PayCash,
	})
	require.NoError(t, err)
	saleID := uuid.MustParse(resp.ID)

	_, err = f.svc.VoidSale(context.Background(), model.RoleAdmin, saleID)
	require.NoError(t, err)
	require.True(t, f.products.stock(coffee.ID).Equal(dec("10")))

	_, err = f.svc.VoidSale(context.Background(), model.RoleAdmin, saleID)
	require.Error(t, err)
	assert.Equal(t, apierror.KindAlreadyVoided, apierror.KindOf(err))
	assert.True(t, f.products.stock(coffee.ID).Equal(dec("10")), "stock must not be restored twice")
}

func TestVoidSale_CashierDenied(t *testing.T) {
	f := newSaleFixture(t, true)
	_, err := f.svc.VoidSale(context.Background(), model.RoleCashier, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apierror.KindPermissionDenied, apierror.KindOf(err))
}

func TestVoidSale_StoreCreditRestoresDebt(t *testing.T) {
	coffee := &model.Product{Code: "C1", Name: "Coffee", SaleUnit: model.SaleUnitDiscrete,
		SalePrice: dec("3.00"), StockActual: dec("10"), Active: true}
	f := newSaleFixture(t, true, coffee)

	customer := &model.Customer{Name: "Ana"}
	require.NoError(t, f.customers.Create(context.Background(), customer))
	customerID := customer.ID.String()

	resp, err := f.svc.ProcessSale(context.Background(), f.userID, dto.ProcessSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: coffee.ID.String(), Quantity: dec("2")}},
		PaymentMethod: model.PayStoreCredit,
		CustomerID:    &customerID,
	})
	require.NoError(t, err)

	_, err = f.svc.VoidSale(context.Background(), model.RoleSupervisor, uuid.MustParse(resp.ID))
	require.NoError(t, err)

	got, _ := f.customers.FindByID(context.Background(), customer.ID)
	assert.True(t, got.CurrentDebt.IsZero(), "debt must return to zero, got %s", got.CurrentDebt)
}

func TestProcessSale_PriceSnapshotSurvivesPriceChange(t *testing.T) {
	coffee := &model.Product{Code: "C1", Name: "Coffee", SaleUnit: model.SaleUnitDiscrete,
		SalePrice: dec("2.00"), StockActual: dec("10"), Active: true}
	f := newSaleFixture(t, true, coffee)

	resp, err := f.svc.ProcessSale(context.Background(), f.userID, dto.ProcessSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: coffee.ID.String(), Quantity: dec("1")}},
		PaymentMethod: model.PayCash,
	})
	require.NoError(t, err)

	// Reprice the catalog after the sale.
	p, _ := f.products.FindByID(context.Background(), coffee.ID)
	p.SalePrice = dec("9.99")
	require.NoError(t, f.products.Update(context.Background(), p))

	kept, err := f.sales.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.True(t, kept.Lines[0].UnitPrice.Equal(dec("2.00")), "line keeps the price at sale time")
	assert.True(t, kept.Total.Equal(dec("2.00")))
}
