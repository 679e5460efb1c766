package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueCloseReport = "jobs:close_report"

	// maxAttempts bounds re-enqueues before a job lands in the DLQ.
	maxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// CloseReportPayload identifies the closed session to summarize.
type CloseReportPayload struct {
	SessionID string `json:"session_id"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueCloseReport pushes an end-of-session summary job to Redis.
func (d *Dispatcher) EnqueueCloseReport(ctx context.Context, sessionID uuid.UUID) error {
	return d.enqueue(ctx, QueueCloseReport, "close_report", CloseReportPayload{SessionID: sessionID.String()}, 0)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}, attempts int) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data, Attempts: attempts}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Handlers holds the processors wired at the composition root.
type Handlers struct {
	CloseReport *CloseReportWorker
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *Handlers, numWorkers int) {
	dispatcher := NewDispatcher(rdb)
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, dispatcher, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, dispatcher *Dispatcher, handlers *Handlers, id int) {
	queues := []string{QueueCloseReport}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, dispatcher, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, dispatcher *Dispatcher, handlers *Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	var err error
	switch job.Type {
	case "close_report":
		var payload CloseReportPayload
		if err = json.Unmarshal(job.Payload, &payload); err == nil {
			err = handlers.CloseReport.Process(ctx, payload)
		}
	default:
		log.Warn().Str("type", job.Type).Msg("unknown job type, dropping")
		return
	}

	if err == nil {
		log.Info().Str("type", job.Type).Msg("job processed")
		return
	}

	attempts := job.Attempts + 1
	if attempts >= maxAttempts {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), attempts)
		return
	}
	log.Warn().Err(err).Int("attempts", attempts).Str("type", job.Type).Msg("job failed, re-enqueueing")
	var payload interface{}
	_ = json.Unmarshal(job.Payload, &payload)
	if enqErr := dispatcher.enqueue(ctx, queue, job.Type, payload, attempts); enqErr != nil {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, enqErr.Error(), attempts)
	}
}
