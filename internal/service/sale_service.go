package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yanarios/sistema-kiosco/internal/apierror"
	"github.com/yanarios/sistema-kiosco/internal/dto"
	"github.com/yanarios/sistema-kiosco/internal/model"
	"github.com/yanarios/sistema-kiosco/internal/repository"
)

// ReceiptQueue enqueues post-commit receipt generation. Implemented by the
// Redis-backed worker dispatcher; nil disables receipts (tests, seeders).
type ReceiptQueue interface {
	EnqueueReceipt(ctx context.Context, saleID uuid.UUID, email *string) error
}

// SaleService implements sale registration and reversal. Both operations are
// all-or-nothing: a single transaction covers stock, sale rows and customer
// debt, with row locks serializing concurrent access to shared products.
type SaleService struct {
	sales     repository.SaleRepository
	products  repository.ProductRepository
	sessions  repository.SessionRepository
	customers repository.CustomerRepository
	stockLog  repository.StockMovementRepository
	receipts  ReceiptQueue
}

func NewSaleService(
	sales repository.SaleRepository,
	products repository.ProductRepository,
	sessions repository.SessionRepository,
	customers repository.CustomerRepository,
	stockLog repository.StockMovementRepository,
	receipts ReceiptQueue,
) *SaleService {
	return &SaleService{
		sales:     sales,
		products:  products,
		sessions:  sessions,
		customers: customers,
		stockLog:  stockLog,
		receipts:  receipts,
	}
}

// resolvedItem is a sale item after pre-flight resolution, quantities merged
// per product.
type resolvedItem struct {
	productID uuid.UUID
	quantity  decimal.Decimal
}

// ProcessSale registers a sale against the open session.
//
// Pre-flight checks (open session, product existence, stock, quantity rules)
// run outside the transaction so obvious failures never open one. Inside the
// transaction every product row is locked and stock re-verified, so two
// concurrent sales of the last unit cannot both commit.
func (s *SaleService) ProcessSale(ctx context.Context, userID uuid.UUID, req dto.ProcessSaleRequest) (*dto.SaleResponse, error) {
	items, err := s.mergeItems(req.Items)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NoOpenSession()
		}
		return nil, apierror.Transient(err)
	}

	// Store-credit sales must name the customer whose debt they increase.
	var customerID *uuid.UUID
	if req.CustomerID != nil {
		id, perr := uuid.Parse(*req.CustomerID)
		if perr != nil {
			return nil, apierror.Validation("customer_id", "malformed id")
		}
		if _, err := s.customers.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierror.NotFound("customer", *req.CustomerID)
			}
			return nil, apierror.Transient(err)
		}
		customerID = &id
	}
	if req.PaymentMethod == model.PayStoreCredit && customerID == nil {
		return nil, apierror.Validation("customer_id", "required for store-credit sales")
	}

	// Pre-flight product resolution. Failing here costs no transaction.
	for _, it := range items {
		p, err := s.products.FindByID(ctx, it.productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierror.NotFound("product", it.productID.String())
			}
			return nil, apierror.Transient(err)
		}
		if err := checkSaleQuantity(p, it.quantity); err != nil {
			return nil, err
		}
		if p.StockActual.LessThan(it.quantity) {
			return nil, apierror.InsufficientStock(p.Name, p.StockActual)
		}
	}

	var sale *model.Sale
	err = repository.RunTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		// Re-verify under lock: the session may have closed between the
		// pre-flight read and here.
		locked, err := s.sessions.FindByIDForUpdateTx(tx, session.ID)
		if err != nil {
			return apierror.Transient(err)
		}
		if !locked.Open {
			return apierror.SessionClosed()
		}

		sale = &model.Sale{
			SessionID:     session.ID,
			UserID:        userID,
			CustomerID:    customerID,
			PaymentMethod: req.PaymentMethod,
			Total:         decimal.Zero,
		}

		for _, it := range items {
			p, err := s.products.FindByIDForUpdateTx(tx, it.productID)
			if err != nil {
				return apierror.Transient(err)
			}
			if p.StockActual.LessThan(it.quantity) {
				return apierror.InsufficientStock(p.Name, p.StockActual)
			}

			// Price snapshot: later catalog changes never touch this line.
			subtotal := p.SalePrice.Mul(it.quantity).Round(2)
			sale.Lines = append(sale.Lines, model.SaleLine{
				ProductID: p.ID,
				Quantity:  it.quantity,
				UnitPrice: p.SalePrice,
				Subtotal:  subtotal,
			})
			sale.Total = sale.Total.Add(subtotal)

			if err := s.products.AddStockTx(tx, p.ID, it.quantity.Neg()); err != nil {
				return apierror.Transient(err)
			}
			if err := s.stockLog.CreateTx(tx, &model.StockMovement{
				ProductID:   p.ID,
				Type:        model.StockMoveSale,
				Quantity:    it.quantity.Neg(),
				StockBefore: p.StockActual,
				StockAfter:  p.StockActual.Sub(it.quantity),
			}); err != nil {
				return apierror.Transient(err)
			}
		}

		if err := s.sales.CreateTx(tx, sale); err != nil {
			return apierror.Transient(err)
		}

		if req.PaymentMethod == model.PayStoreCredit {
			if err := s.customers.AddDebtTx(tx, *customerID, sale.Total); err != nil {
				return apierror.Transient(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("method", sale.PaymentMethod).
		Str("total", sale.Total.String()).
		Int("lines", len(sale.Lines)).
		Msg("sale registered")

	if s.receipts != nil {
		if err := s.receipts.EnqueueReceipt(ctx, sale.ID, req.CustomerEmail); err != nil {
			// The sale is committed; a receipt is best-effort.
			log.Warn().Err(err).Str("sale_id", sale.ID.String()).Msg("receipt enqueue failed")
		}
	}

	resp := saleToResponse(sale, s.productNames(ctx, sale))
	return &resp, nil
}

// VoidSale reverses a committed sale: marks it voided and restores every
// line's stock. The sale row is never deleted. Requires a privileged role.
func (s *SaleService) VoidSale(ctx context.Context, role string, saleID uuid.UUID) (*dto.SaleResponse, error) {
	if role != model.RoleSupervisor && role != model.RoleAdmin {
		return nil, apierror.PermissionDenied()
	}

	var sale *model.Sale
	err := repository.RunTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		// The lock makes a concurrent double-void serialize: the second
		// caller observes voided = true and fails without touching stock.
		locked, err := s.sales.FindByIDForUpdateTx(tx, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("sale", saleID.String())
			}
			return apierror.Transient(err)
		}
		if locked.Voided {
			return apierror.AlreadyVoided()
		}

		lines, err := s.sales.FindLinesTx(tx, saleID)
		if err != nil {
			return apierror.Transient(err)
		}
		for _, line := range lines {
			p, err := s.products.FindByIDForUpdateTx(tx, line.ProductID)
			if err != nil {
				return apierror.Transient(err)
			}
			if err := s.products.AddStockTx(tx, line.ProductID, line.Quantity); err != nil {
				return apierror.Transient(err)
			}
			if err := s.stockLog.CreateTx(tx, &model.StockMovement{
				ProductID:   line.ProductID,
				Type:        model.StockMoveVoidRestore,
				Quantity:    line.Quantity,
				StockBefore: p.StockActual,
				StockAfter:  p.StockActual.Add(line.Quantity),
				ReferenceID: &saleID,
			}); err != nil {
				return apierror.Transient(err)
			}
		}

		if err := s.sales.SetVoidedTx(tx, saleID); err != nil {
			return apierror.Transient(err)
		}

		// Undo the debt a store-credit sale added.
		if locked.PaymentMethod == model.PayStoreCredit && locked.CustomerID != nil {
			if err := s.customers.AddDebtTx(tx, *locked.CustomerID, locked.Total.Neg()); err != nil {
				return apierror.Transient(err)
			}
		}

		locked.Voided = true
		locked.Lines = lines
		sale = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("sale_id", saleID.String()).Msg("sale voided, stock restored")

	resp := saleToResponse(sale, s.productNames(ctx, sale))
	return &resp, nil
}

func (s *SaleService) GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("sale", id.String())
		}
		return nil, apierror.Transient(err)
	}
	resp := saleToResponse(sale, nil)
	return &resp, nil
}

func (s *SaleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, apierror.Transient(err)
	}
	out := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		out = append(out, saleToResponse(&sales[i], nil))
	}
	return &dto.SaleListResponse{Data: out, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// mergeItems validates raw items and merges duplicate product lines.
func (s *SaleService) mergeItems(raw []dto.SaleItemRequest) ([]resolvedItem, error) {
	merged := make([]resolvedItem, 0, len(raw))
	index := make(map[uuid.UUID]int, len(raw))
	for _, item := range raw {
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, apierror.Validation("product_id", "malformed id")
		}
		if !item.Quantity.IsPositive() {
			return nil, apierror.Validation("quantity", "must be positive")
		}
		if pos, ok := index[id]; ok {
			merged[pos].quantity = merged[pos].quantity.Add(item.Quantity)
			continue
		}
		index[id] = len(merged)
		merged = append(merged, resolvedItem{productID: id, quantity: item.Quantity})
	}
	return merged, nil
}

// checkSaleQuantity enforces per-unit-kind quantity rules.
func checkSaleQuantity(p *model.Product, q decimal.Decimal) error {
	if !p.Active {
		return apierror.Validation("product_id", "product "+p.Code+" is inactive")
	}
	if p.SaleUnit == model.SaleUnitDiscrete && !q.IsInteger() {
		return apierror.Validation("quantity", "product "+p.Code+" is sold by whole units")
	}
	return nil
}

// productNames resolves the line product names for the response. Lines carry
// preloaded products after FindByID but not after a fresh create.
func (s *SaleService) productNames(ctx context.Context, sale *model.Sale) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(sale.Lines))
	for _, line := range sale.Lines {
		if line.Product != nil {
			names[line.ProductID] = line.Product.Name
			continue
		}
		if p, err := s.products.FindByID(ctx, line.ProductID); err == nil {
			names[line.ProductID] = p.Name
		}
	}
	return names
}

func saleToResponse(sale *model.Sale, names map[uuid.UUID]string) dto.SaleResponse {
	lines := make([]dto.SaleLineResponse, 0, len(sale.Lines))
	for _, l := range sale.Lines {
		name := ""
		if l.Product != nil {
			name = l.Product.Name
		} else if names != nil {
			name = names[l.ProductID]
		}
		lines = append(lines, dto.SaleLineResponse{
			Product:   name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return dto.SaleResponse{
		ID:            sale.ID.String(),
		SessionID:     sale.SessionID.String(),
		PaymentMethod: sale.PaymentMethod,
		Total:         sale.Total,
		Voided:        sale.Voided,
		Lines:         lines,
		CreatedAt:     sale.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
