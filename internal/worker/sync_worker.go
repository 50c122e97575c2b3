package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pawnest/internal/database"
	"pawnest/internal/models"

	"github.com/rs/zerolog"
)

// SheetsClient is the slice of the Sheets service the worker needs.
type SheetsClient interface {
	AppendBooking(ctx context.Context, booking *models.Booking) error
}

// SyncWorker drains the sqlite sync queue into Google Sheets. Enqueue is
// durable (a row in sync_queue), so booking flows never block on, or fail
// because of, Sheets availability.
type SyncWorker struct {
	db           *database.DB
	sheets       SheetsClient
	retryPolicy  RetryPolicy
	pollInterval time.Duration
	batchSize    int
	logger       *zerolog.Logger
}

func NewSyncWorker(db *database.DB, sheets SheetsClient, retry RetryPolicy, logger *zerolog.Logger) *SyncWorker {
	return &SyncWorker{
		db:           db,
		sheets:       sheets,
		retryPolicy:  retry.normalized(),
		pollInterval: 15 * time.Second,
		batchSize:    20,
		logger:       logger,
	}
}

// EnqueueTask persists a sync task for later processing.
func (w *SyncWorker) EnqueueTask(ctx context.Context, taskType string, booking *models.Booking) error {
	payload, err := json.Marshal(booking)
	if err != nil {
		return fmt.Errorf("failed to marshal sync payload: %w", err)
	}

	task := &models.SyncTask{
		TaskType:  taskType,
		BookingID: booking.ID,
		Payload:   string(payload),
		Status:    "pending",
	}
	return w.db.CreateSyncTask(ctx, task)
}

// Run polls the queue until the context is cancelled.
func (w *SyncWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

func (w *SyncWorker) processBatch(ctx context.Context) {
	tasks, err := w.db.GetPendingSyncTasks(ctx, w.batchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to load sync tasks")
		return
	}

	for _, task := range tasks {
		w.processTask(ctx, task)
	}
}

func (w *SyncWorker) processTask(ctx context.Context, task models.SyncTask) {
	err := w.apply(ctx, task)
	if err == nil {
		if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark sync task completed")
		}
		return
	}

	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Str("booking_id", task.BookingID).Msg("sync task failed permanently")
		if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "failed", err.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark sync task failed")
		}
		return
	}

	nextRetry := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	w.logger.Warn().Err(err).Int64("task_id", task.ID).Int("attempt", attempt).Time("next_retry", nextRetry).Msg("sync task retry scheduled")
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "retry", err.Error(), &nextRetry); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to schedule sync task retry")
	}
}

func (w *SyncWorker) apply(ctx context.Context, task models.SyncTask) error {
	if w.sheets == nil {
		return nil
	}

	var booking models.Booking
	if err := json.Unmarshal([]byte(task.Payload), &booking); err != nil {
		return fmt.Errorf("failed to unmarshal sync payload: %w", err)
	}

	return w.sheets.AppendBooking(ctx, &booking)
}
