package service

import (
	"context"

	"pawnest/internal/events"
	"pawnest/internal/metrics"
	"pawnest/internal/models"
)

// UpdateApproval applies a manager decision to the approval state machine.
// It is deliberately independent of the payment lifecycle: a booking can be
// accepted while its payment is still pending.
func (s *PaymentService) UpdateApproval(ctx context.Context, id, status string, actorID, note *string) error {
	// Validation happens before any store access.
	if !models.ValidBookingStatus(status) {
		return ErrInvalidStatus
	}

	if _, err := s.store.GetBooking(ctx, id); err != nil {
		return err
	}

	if err := s.store.UpdateApproval(ctx, id, status, actorID, note); err != nil {
		return err
	}

	booking, err := s.store.GetBooking(ctx, id)
	if err == nil {
		changedBy := ""
		if actorID != nil {
			changedBy = *actorID
		}
		s.publishEvent(events.EventBookingStatusChange, booking, changedBy)
		s.enqueueSync(ctx, TaskUpsert, booking)
	}

	metrics.IncStatusUpdate(status)
	s.logger.Info().Str("booking_id", id).Str("booking_status", status).Msg("booking status updated")

	return nil
}
