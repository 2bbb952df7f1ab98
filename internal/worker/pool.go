// Package worker runs post-commit background jobs (receipt rendering and
// mailing) off a Redis list queue, so the sale endpoint never waits on PDF
// or SMTP latency.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	receiptQueueKey = "kiosco:jobs:receipts"
	receiptDLQKey   = "kiosco:jobs:receipts:dead"
	maxAttempts     = 3
	popTimeout      = 5 * time.Second
)

// ReceiptJob is the payload serialized onto the queue.
type ReceiptJob struct {
	SaleID   string  `json:"sale_id"`
	Email    *string `json:"email,omitempty"`
	Attempts int     `json:"attempts"`
}

// Processor handles one dequeued job.
type Processor interface {
	Process(ctx context.Context, job ReceiptJob) error
}

// Dispatcher enqueues jobs and runs the consuming worker pool.
type Dispatcher struct {
	rdb       *redis.Client
	processor Processor
	poolSize  int
	wg        sync.WaitGroup
}

func NewDispatcher(rdb *redis.Client, processor Processor, poolSize int) *Dispatcher {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Dispatcher{rdb: rdb, processor: processor, poolSize: poolSize}
}

// EnqueueReceipt pushes a receipt job. Satisfies service.ReceiptQueue.
func (d *Dispatcher) EnqueueReceipt(ctx context.Context, saleID uuid.UUID, email *string) error {
	return d.push(ctx, ReceiptJob{SaleID: saleID.String(), Email: email})
}

func (d *Dispatcher) push(ctx context.Context, job ReceiptJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, receiptQueueKey, payload).Err()
}

// Start launches the worker pool. Workers drain until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.poolSize; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	log.Info().Int("pool_size", d.poolSize).Msg("receipt worker pool started")
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := d.rdb.BRPop(ctx, popTimeout, receiptQueueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Warn().Err(err).Int("worker", id).Msg("queue pop failed")
			time.Sleep(time.Second)
			continue
		}
		// BRPop returns [key, value].
		if len(res) != 2 {
			continue
		}

		var job ReceiptJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			log.Error().Err(err).Str("payload", res[1]).Msg("dropping undecodable job")
			continue
		}
		d.handle(ctx, job)
	}
}

func (d *Dispatcher) handle(ctx context.Context, job ReceiptJob) {
	err := d.processor.Process(ctx, job)
	if err == nil {
		return
	}

	job.Attempts++
	if job.Attempts < maxAttempts {
		log.Warn().Err(err).Str("sale_id", job.SaleID).Int("attempt", job.Attempts).
			Msg("receipt job failed, requeueing")
		if perr := d.push(ctx, job); perr != nil {
			log.Error().Err(perr).Str("sale_id", job.SaleID).Msg("requeue failed")
		}
		return
	}

	log.Error().Err(err).Str("sale_id", job.SaleID).Msg("receipt job exhausted retries, sending to DLQ")
	payload, _ := json.Marshal(job)
	if derr := d.rdb.LPush(ctx, receiptDLQKey, payload).Err(); derr != nil {
		log.Error().Err(derr).Str("sale_id", job.SaleID).Msg("DLQ push failed")
	}
}

// DeadJobs returns up to limit jobs currently parked in the DLQ.
func (d *Dispatcher) DeadJobs(ctx context.Context, limit int64) ([]ReceiptJob, error) {
	raw, err := d.rdb.LRange(ctx, receiptDLQKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	jobs := make([]ReceiptJob, 0, len(raw))
	for _, payload := range raw {
		var job ReceiptJob
		if json.Unmarshal([]byte(payload), &job) == nil {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// RetryDeadJobs moves every DLQ entry back onto the main queue with a reset
// attempt counter.
func (d *Dispatcher) RetryDeadJobs(ctx context.Context) (int, error) {
	moved := 0
	for {
		payload, err := d.rdb.RPop(ctx, receiptDLQKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return moved, nil
			}
			return moved, err
		}
		var job ReceiptJob
		if json.Unmarshal([]byte(payload), &job) != nil {
			continue
		}
		job.Attempts = 0
		if err := d.push(ctx, job); err != nil {
			return moved, err
		}
		moved++
	}
}
