package service

import (
	"context"
	"errors"
	"time"

	"pawnest/internal/database"
	"pawnest/internal/domain"
	"pawnest/internal/events"
	"pawnest/internal/metrics"
	"pawnest/internal/models"
	"pawnest/internal/paymob"

	"github.com/rs/zerolog"
)

const (
	TaskUpsert  = "upsert"
	TaskPayment = "payment"
)

// PaymentService owns the booking payment lifecycle: session creation,
// webhook reconciliation and the approval state machine.
type PaymentService struct {
	store      domain.BookingStore
	provider   domain.PaymentProvider
	cache      domain.CorrelationCache
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	logger     *zerolog.Logger
}

func NewPaymentService(
	store domain.BookingStore,
	provider domain.PaymentProvider,
	cache domain.CorrelationCache,
	eventBus domain.EventPublisher,
	syncWorker domain.SyncWorker,
	logger *zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		store:      store,
		provider:   provider,
		cache:      cache,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		logger:     logger,
	}
}

// CreateSession persists a pending booking and opens a hosted-payment
// session for it. The booking id is the merchant order id sent to the
// provider; that equality is what lets webhooks find the booking later.
//
// The sequence is not transactional: any provider failure leaves the
// booking pending with whatever was recorded so far, for manual
// reconciliation.
func (s *PaymentService) CreateSession(ctx context.Context, req CreateSessionRequest) (string, error) {
	if err := s.validate(req); err != nil {
		return "", err
	}

	amount := req.Amount
	booking := &models.Booking{
		UserID:    req.UserID,
		ShelterID: req.ShelterID,
		Amount:    &amount,
		Currency:  models.DefaultCurrency,
		Customer:  req.UserData.customer(),
	}
	flatten(req.BookingData, booking)

	if err := s.store.CreateBooking(ctx, booking); err != nil {
		metrics.IncSession("store_error")
		return "", err
	}

	token, err := s.provider.Authenticate(ctx)
	if err != nil {
		metrics.IncSession("auth_error")
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("provider auth failed, booking left pending")
		return "", err
	}

	orderID, err := s.provider.CreateOrder(ctx, token, req.Amount, booking.ID)
	if err != nil {
		metrics.IncSession("order_error")
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("provider order failed, booking left pending")
		return "", err
	}

	// Best effort: a failure here only degrades the webhook fallback path.
	if err := s.store.SetProviderOrder(ctx, booking.ID, orderID); err != nil {
		s.logger.Warn().Err(err).Str("booking_id", booking.ID).Int64("order_id", orderID).Msg("failed to attach provider order id")
	}
	if s.cache != nil {
		if err := s.cache.RememberOrder(ctx, orderID, booking.ID); err != nil {
			s.logger.Warn().Err(err).Int64("order_id", orderID).Msg("failed to cache order correlation")
		}
	}

	paymentToken, err := s.provider.GeneratePaymentKey(ctx, token, req.Amount, orderID, booking.Customer)
	if err != nil {
		metrics.IncSession("token_error")
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("payment key failed, booking left pending")
		return "", err
	}

	booking.ProviderOrderID = &orderID
	s.publishEvent(events.EventSessionCreated, booking, "")
	s.enqueueSync(ctx, TaskUpsert, booking)

	metrics.IncSession("ok")
	s.logger.Info().
		Str("booking_id", booking.ID).
		Int64("order_id", orderID).
		Float64("amount", req.Amount).
		Msg("payment session created")

	return s.provider.IframeURL(paymentToken), nil
}

// HandleCallback reconciles an asynchronous provider notification with a
// booking. The merge it applies is idempotent by construction: redelivery
// rewrites the same fields with the same values.
func (s *PaymentService) HandleCallback(ctx context.Context, payload []byte) error {
	result := paymob.ParseCallback(payload)

	booking, err := s.resolveBooking(ctx, result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			metrics.IncWebhook("unresolved")
			s.logger.Warn().
				Str("merchant_order_id", result.MerchantOrderID).
				Int64("order_id", result.ProviderOrderID).
				Msg("webhook: booking not found, event dropped")
			return ErrUnresolvedWebhook
		}
		metrics.IncWebhook("store_error")
		return err
	}

	update := models.PaymentResult{
		Success: result.Success,
		Amount:  result.Amount(),
	}
	if result.TransactionID != "" {
		txID := result.TransactionID
		update.TransactionID = &txID
	}
	if result.ProviderOrderID != 0 {
		orderID := result.ProviderOrderID
		update.ProviderOrderID = &orderID
	}
	if result.Success {
		now := time.Now().UTC()
		update.PaidAt = &now
	}

	if err := s.store.ApplyPaymentResult(ctx, booking.ID, update); err != nil {
		metrics.IncWebhook("store_error")
		return err
	}

	booking.Amount = update.Amount
	booking.TransactionID = update.TransactionID
	booking.ProviderOrderID = update.ProviderOrderID
	eventType := events.EventPaymentFailed
	outcome := models.PaymentFailed
	if result.Success {
		eventType = events.EventPaymentPaid
		outcome = models.PaymentPaid
	}
	booking.PaymentStatus = outcome
	s.publishEvent(eventType, booking, "")
	s.enqueueSync(ctx, TaskPayment, booking)

	metrics.IncWebhook(outcome)
	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("payment_status", outcome).
		Str("transaction_id", result.TransactionID).
		Msg("webhook reconciled")

	return nil
}

// resolveBooking is the two-step resolution strategy: by merchant order id
// first (it equals the booking id), then by the stored provider order id.
func (s *PaymentService) resolveBooking(ctx context.Context, result paymob.CallbackResult) (*models.Booking, error) {
	if result.MerchantOrderID != "" {
		booking, err := s.store.GetBooking(ctx, result.MerchantOrderID)
		if err == nil {
			return booking, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
	}

	if result.ProviderOrderID == 0 {
		return nil, database.ErrNotFound
	}

	if s.cache != nil {
		bookingID, err := s.cache.LookupOrder(ctx, result.ProviderOrderID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("order_id", result.ProviderOrderID).Msg("correlation cache lookup failed")
		} else if bookingID != "" {
			booking, err := s.store.GetBooking(ctx, bookingID)
			if err == nil {
				s.logger.Info().Str("booking_id", bookingID).Msg("webhook resolved via correlation cache")
				return booking, nil
			}
			if !errors.Is(err, database.ErrNotFound) {
				return nil, err
			}
		}
	}

	booking, err := s.store.FindByProviderOrder(ctx, result.ProviderOrderID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("booking_id", booking.ID).
		Int64("order_id", result.ProviderOrderID).
		Msg("webhook resolved via provider order id fallback")
	return booking, nil
}

func (s *PaymentService) validate(req CreateSessionRequest) error {
	if req.UserID == "" || req.ShelterID == "" || req.Amount <= 0 {
		return ErrInvalidRequest
	}
	if s.store.HasShelters() {
		if _, ok := s.store.GetShelter(req.ShelterID); !ok {
			return ErrUnknownShelter
		}
	}
	return nil
}

func (s *PaymentService) publishEvent(eventType string, booking *models.Booking, changedBy string) {
	if s.eventBus == nil {
		return
	}

	payload := events.PaymentEventPayload{
		BookingID:     booking.ID,
		UserID:        booking.UserID,
		ShelterID:     booking.ShelterID,
		Amount:        booking.Amount,
		Currency:      booking.Currency,
		PaymentStatus: booking.PaymentStatus,
		BookingStatus: booking.BookingStatus,
		ChangedBy:     changedBy,
	}
	if booking.TransactionID != nil {
		payload.TransactionID = *booking.TransactionID
	}
	if booking.ProviderOrderID != nil {
		payload.ProviderOrderID = *booking.ProviderOrderID
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *PaymentService) enqueueSync(ctx context.Context, taskType string, booking *models.Booking) {
	if s.syncWorker == nil {
		return
	}

	if err := s.syncWorker.EnqueueTask(ctx, taskType, booking); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Str("task", taskType).Msg("sync enqueue error")
	}
}
