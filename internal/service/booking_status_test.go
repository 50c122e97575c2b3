package service

import (
	"context"
	"testing"

	"pawnest/internal/database"
	"pawnest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateApproval(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	t.Run("Accepted", func(t *testing.T) {
		booking := createPendingBooking(t, db)

		actor := "manager-7"
		note := "room 3 reserved"
		require.NoError(t, svc.UpdateApproval(ctx, booking.ID, models.BookingAccepted, &actor, &note))

		got, err := db.GetBooking(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingAccepted, got.BookingStatus)
		assert.NotNil(t, got.AcceptedAt)
		assert.NotNil(t, got.StatusUpdatedAt)
		require.NotNil(t, got.StatusUpdatedBy)
		assert.Equal(t, "manager-7", *got.StatusUpdatedBy)
		// The payment lifecycle is untouched by approval decisions.
		assert.Equal(t, models.PaymentPending, got.PaymentStatus)
	})

	t.Run("InvalidStatusRejectedBeforeStore", func(t *testing.T) {
		booking := createPendingBooking(t, db)

		err := svc.UpdateApproval(ctx, booking.ID, "approved-ish", nil, nil)
		assert.ErrorIs(t, err, ErrInvalidStatus)

		got, err := db.GetBooking(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingPending, got.BookingStatus)
	})

	t.Run("NotFound", func(t *testing.T) {
		err := svc.UpdateApproval(ctx, "no-such-booking", models.BookingAccepted, nil, nil)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("CancelledAfterAccepted", func(t *testing.T) {
		booking := createPendingBooking(t, db)

		require.NoError(t, svc.UpdateApproval(ctx, booking.ID, models.BookingAccepted, nil, nil))
		require.NoError(t, svc.UpdateApproval(ctx, booking.ID, models.BookingCancelled, nil, nil))

		got, err := db.GetBooking(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, got.BookingStatus)
		// Accepted stamp remains as history.
		assert.NotNil(t, got.AcceptedAt)
	})
}
