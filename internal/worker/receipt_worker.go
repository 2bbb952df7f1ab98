package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yanarios/sistema-kiosco/internal/infra"
	"github.com/yanarios/sistema-kiosco/internal/repository"
)

// ReceiptProcessor renders the PDF for a committed sale and optionally mails
// it. SMTP sits behind a circuit breaker: a dead mail server fails jobs fast
// instead of stalling the pool.
type ReceiptProcessor struct {
	sales    repository.SaleRepository
	renderer *infra.ReceiptRenderer
	mailer   *infra.Mailer
	breaker  *infra.CircuitBreaker
	store    string
}

func NewReceiptProcessor(
	sales repository.SaleRepository,
	renderer *infra.ReceiptRenderer,
	mailer *infra.Mailer,
	breaker *infra.CircuitBreaker,
	storeName string,
) *ReceiptProcessor {
	return &ReceiptProcessor{
		sales:    sales,
		renderer: renderer,
		mailer:   mailer,
		breaker:  breaker,
		store:    storeName,
	}
}

func (p *ReceiptProcessor) Process(ctx context.Context, job ReceiptJob) error {
	saleID, err := uuid.Parse(job.SaleID)
	if err != nil {
		// Unparseable ids never become valid; log and drop.
		log.Error().Str("sale_id", job.SaleID).Msg("receipt job with malformed sale id")
		return nil
	}

	sale, err := p.sales.FindByID(ctx, saleID)
	if err != nil {
		return fmt.Errorf("load sale: %w", err)
	}

	path, err := p.renderer.Render(sale)
	if err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	log.Debug().Str("sale_id", job.SaleID).Str("path", path).Msg("receipt rendered")

	if job.Email == nil || !p.mailer.Configured() {
		return nil
	}
	err = p.breaker.Call(func() error {
		return p.mailer.SendReceipt(*job.Email,
			p.store+" receipt",
			fmt.Sprintf("Thank you for your purchase. Total: %s", sale.Total.StringFixed(2)),
			path)
	})
	if err != nil {
		return fmt.Errorf("send receipt mail: %w", err)
	}
	log.Info().Str("sale_id", job.SaleID).Str("to", *job.Email).Msg("receipt mailed")
	return nil
}
