package service

// In-memory repository stubs. DB() returns nil, so repository.RunTx invokes
// the transaction body directly and services can be exercised without a
// database. The session stub reproduces the partial unique index on open
// sessions by returning gorm.ErrDuplicatedKey from CreateSessionTx.

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yanarios/sistema-kiosco/internal/dto"
	"github.com/yanarios/sistema-kiosco/internal/model"
)

// ─── products ────────────────────────────────────────────────────────────────

type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo(products ...*model.Product) *stubProductRepo {
	r := &stubProductRepo{products: map[uuid.UUID]*model.Product{}}
	for _, p := range products {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.products[p.ID] = p
	}
	return r
}

func (r *stubProductRepo) get(id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	return r.CreateTx(nil, p)
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	return r.get(id)
}

func (r *stubProductRepo) FindByCode(_ context.Context, code string) (*model.Product, error) {
	return r.FindByCodeTx(nil, code)
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) ListActive(_ context.Context) ([]model.Product, error) {
	all, _, _ := r.List(nil, dto.ProductFilter{})
	out := all[:0]
	for _, p := range all {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) ListLowStock(_ context.Context) ([]model.Product, error) {
	all, _, _ := r.List(nil, dto.ProductFilter{})
	var out []model.Product
	for _, p := range all {
		if p.Active && p.StockActual.LessThanOrEqual(p.StockMinimum) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	return r.UpdateTx(nil, p)
}

func (r *stubProductRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Active = false
	}
	return nil
}

func (r *stubProductRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Active = true
	}
	return nil
}

func (r *stubProductRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return r.get(id)
}

func (r *stubProductRepo) FindByCodeTx(_ *gorm.DB, code string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) CreateTx(_ *gorm.DB, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) UpdateTx(_ *gorm.DB, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) AddStockTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.StockActual = p.StockActual.Add(delta)
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

func (r *stubProductRepo) stock(id uuid.UUID) decimal.Decimal {
	p, _ := r.get(id)
	return p.StockActual
}

// ─── sessions ────────────────────────────────────────────────────────────────

type stubSessionRepo struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*model.CashSession
	movements []model.CashMovement
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: map[uuid.UUID]*model.CashSession{}}
}

func (r *stubSessionRepo) openLocked() *model.CashSession {
	for _, s := range r.sessions {
		if s.Open {
			return s
		}
	}
	return nil
}

func (r *stubSessionRepo) FindOpen(_ context.Context) (*model.CashSession, error) {
	return r.FindOpenTx(nil)
}

func (r *stubSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	for _, m := range r.movements {
		if m.SessionID == id {
			cp.Movements = append(cp.Movements, m)
		}
	}
	return &cp, nil
}

func (r *stubSessionRepo) ListSessions(_ context.Context, _, _ int) ([]model.CashSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.CashSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSessionRepo) UpdateAuditNote(_ context.Context, id uuid.UUID, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.AuditNote = &note
	}
	return nil
}

func (r *stubSessionRepo) CreateMovement(_ context.Context, m *model.CashMovement) error {
	return r.CreateMovementTx(nil, m)
}

func (r *stubSessionRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubSessionRepo) CreateSessionTx(_ *gorm.DB, s *model.CashSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// The partial unique index rejects a second open row.
	if s.Open && r.openLocked() != nil {
		return gorm.ErrDuplicatedKey
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *stubSessionRepo) FindOpenTx(_ *gorm.DB) (*model.CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.openLocked(); s != nil {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSessionRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	return r.FindByID(nil, id)
}

func (r *stubSessionRepo) UpdateSessionTx(_ *gorm.DB, s *model.CashSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	cp.Movements = nil
	r.sessions[s.ID] = &cp
	return nil
}

func (r *stubSessionRepo) CreateMovementTx(_ *gorm.DB, m *model.CashMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubSessionRepo) SumMovementsTx(_ *gorm.DB, sessionID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, out := decimal.Zero, decimal.Zero
	for _, m := range r.movements {
		if m.SessionID != sessionID {
			continue
		}
		if m.Direction == model.MovementIn {
			in = in.Add(m.Amount)
		} else {
			out = out.Add(m.Amount)
		}
	}
	return in, out, nil
}

func (r *stubSessionRepo) DB() *gorm.DB { return nil }

// ─── sales ───────────────────────────────────────────────────────────────────

type stubSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]*model.Sale
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: map[uuid.UUID]*model.Sale{}}
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	return r.FindByIDForUpdateTx(nil, id)
}

func (r *stubSaleRepo) List(_ context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for _, s := range r.sales {
		switch filter.Status {
		case "voided":
			if !s.Voided {
				continue
			}
		case "all":
		default:
			if s.Voided {
				continue
			}
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Lines {
		if s.Lines[i].ID == uuid.Nil {
			s.Lines[i].ID = uuid.New()
		}
		s.Lines[i].SaleID = s.ID
	}
	cp := *s
	cp.Lines = append([]model.SaleLine(nil), s.Lines...)
	r.sales[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	cp.Lines = append([]model.SaleLine(nil), s.Lines...)
	return &cp, nil
}

func (r *stubSaleRepo) FindLinesTx(_ *gorm.DB, saleID uuid.UUID) ([]model.SaleLine, error) {
	s, err := r.FindByIDForUpdateTx(nil, saleID)
	if err != nil {
		return nil, err
	}
	return s.Lines, nil
}

func (r *stubSaleRepo) SetVoidedTx(_ *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Voided = true
	return nil
}

func (r *stubSaleRepo) SumByMethodTx(_ *gorm.DB, sessionID uuid.UUID) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := map[string]decimal.Decimal{}
	for _, s := range r.sales {
		if s.SessionID != sessionID || s.Voided {
			continue
		}
		sums[s.PaymentMethod] = sums[s.PaymentMethod].Add(s.Total)
	}
	return sums, nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

// ─── customers ───────────────────────────────────────────────────────────────

type stubCustomerRepo struct {
	mu        sync.Mutex
	customers map[uuid.UUID]*model.Customer
}

func newStubCustomerRepo(customers ...*model.Customer) *stubCustomerRepo {
	r := &stubCustomerRepo{customers: map[uuid.UUID]*model.Customer{}}
	for _, c := range customers {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		r.customers[c.ID] = c
	}
	return r
}

func (r *stubCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCustomerRepo) List(_ context.Context) ([]model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubCustomerRepo) Update(_ context.Context, c *model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *stubCustomerRepo) AddDebtTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.CurrentDebt = c.CurrentDebt.Add(delta)
	return nil
}

// ─── stock movements ─────────────────────────────────────────────────────────

type stubStockLogRepo struct {
	mu      sync.Mutex
	entries []model.StockMovement
}

func newStubStockLogRepo() *stubStockLogRepo { return &stubStockLogRepo{} }

func (r *stubStockLogRepo) Create(_ context.Context, m *model.StockMovement) error {
	return r.CreateTx(nil, m)
}

func (r *stubStockLogRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.entries = append(r.entries, *m)
	return nil
}

func (r *stubStockLogRepo) ListByProduct(_ context.Context, productID uuid.UUID, _ int) ([]model.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.entries {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubStockLogRepo) List(_ context.Context, _, _ int) ([]model.StockMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.StockMovement(nil), r.entries...), int64(len(r.entries)), nil
}

func (r *stubStockLogRepo) byType(t string) []model.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.entries {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// ─── categories ──────────────────────────────────────────────────────────────

type stubCategoryRepo struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*model.Category
}

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{categories: map[uuid.UUID]*model.Category{}}
}

func (r *stubCategoryRepo) Create(_ context.Context, c *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCategoryRepo) FindByName(_ context.Context, name string) (*model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCategoryRepo) List(_ context.Context) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubCategoryRepo) Update(_ context.Context, c *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *stubCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.categories, id)
	return nil
}

func (r *stubCategoryRepo) GetOrCreateTx(_ *gorm.DB, name string) (*model.Category, error) {
	if c, err := r.FindByName(nil, name); err == nil {
		return c, nil
	}
	c := &model.Category{Name: name}
	if err := r.Create(nil, c); err != nil {
		return nil, err
	}
	return c, nil
}
