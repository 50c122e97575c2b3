package notification

import (
	"encoding/json"
	"fmt"
	"strings"

	"pawnest/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier pushes payment and approval events to the manager chats.
// With an empty bot token the notifier is disabled and all sends are no-ops.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
	logger  *zerolog.Logger
}

func NewTelegramNotifier(botToken string, chatIDs []int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	n := &TelegramNotifier{chatIDs: chatIDs, logger: logger}
	if strings.TrimSpace(botToken) == "" {
		return n, nil
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	n.bot = bot
	return n, nil
}

// Enabled reports whether the notifier can actually deliver messages.
func (n *TelegramNotifier) Enabled() bool {
	return n != nil && n.bot != nil && len(n.chatIDs) > 0
}

// Register подписывает нотификатор на события платежей
func (n *TelegramNotifier) Register(bus *events.EventBus) {
	if bus == nil {
		return
	}

	bus.Subscribe(events.EventPaymentPaid, n.handlePaymentEvent("✅ Payment received"))
	bus.Subscribe(events.EventPaymentFailed, n.handlePaymentEvent("❌ Payment failed"))
	bus.Subscribe(events.EventBookingStatusChange, n.handleStatusEvent)
}

func (n *TelegramNotifier) handlePaymentEvent(title string) events.EventHandler {
	return func(event *events.Event) error {
		payload, err := decodePayload(event)
		if err != nil {
			return err
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s\n\n", title)
		fmt.Fprintf(&b, "Booking: %s\n", payload.BookingID)
		fmt.Fprintf(&b, "Shelter: %s\n", payload.ShelterID)
		if payload.Amount != nil {
			fmt.Fprintf(&b, "Amount: %.2f %s\n", *payload.Amount, payload.Currency)
		}
		if payload.TransactionID != "" {
			fmt.Fprintf(&b, "Transaction: %s\n", payload.TransactionID)
		}
		if payload.ProviderOrderID != 0 {
			fmt.Fprintf(&b, "Provider order: %d\n", payload.ProviderOrderID)
		}

		n.broadcast(b.String())
		return nil
	}
}

func (n *TelegramNotifier) handleStatusEvent(event *events.Event) error {
	payload, err := decodePayload(event)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Booking %s is now %s\n", payload.BookingID, payload.BookingStatus)
	if payload.ChangedBy != "" {
		fmt.Fprintf(&b, "Changed by: %s\n", payload.ChangedBy)
	}

	n.broadcast(b.String())
	return nil
}

func (n *TelegramNotifier) broadcast(text string) {
	if !n.Enabled() {
		return
	}

	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send telegram notification")
		}
	}
}

func decodePayload(event *events.Event) (*events.PaymentEventPayload, error) {
	var payload events.PaymentEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode event payload: %w", err)
	}
	return &payload, nil
}
