package conversation

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/thaiminh0911/telefilm-bot/src/entities"
	"github.com/thaiminh0911/telefilm-bot/src/metrics"
)

type Outcome int

const (
	// OutcomeUnknown means the payment was not issued by this process or was
	// already confirmed.
	OutcomeUnknown Outcome = iota
	OutcomeApproved
	OutcomeDeclined
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApproved:
		return "approved"
	case OutcomeDeclined:
		return "declined"
	default:
		return "unknown"
	}
}

const (
	TriggerReturnURL = "return_url"
	TriggerCheck     = "check"
)

// Confirm executes an issued payment the payer has approved and tells the
// owning chat the result. Each payment is executed at most once; on a
// transport error it stays pending and the error is returned.
func (f *Flow) Confirm(ctx context.Context, paymentID, payerID, trigger string) (Outcome, error) {
	issued, ok := f.issued.Take(paymentID)
	if !ok {
		return OutcomeUnknown, nil
	}

	result, err := f.payments.ExecutePayment(ctx, paymentID, payerID)
	if err != nil {
		f.issued.Restore(issued)
		metrics.PaymentsExecutedTotal.WithLabelValues(trigger, "error").Inc()
		return OutcomeUnknown, fmt.Errorf("execute payment %s: %w", paymentID, err)
	}

	if !result.Approved {
		metrics.PaymentsExecutedTotal.WithLabelValues(trigger, "declined").Inc()
		f.logger.Info("payment declined", "payment_id", paymentID, "chat_id", issued.ChatID, "username", issued.Username, "state", result.State)
		f.sendText(issued.ChatID, declinedText(issued))
		return OutcomeDeclined, nil
	}

	metrics.PaymentsExecutedTotal.WithLabelValues(trigger, "approved").Inc()
	f.logger.Info("payment approved", "payment_id", paymentID, "chat_id", issued.ChatID, "username", issued.Username, "purpose", issued.Purpose)

	msg := tgbotapi.NewMessage(issued.ChatID, confirmedText(issued))
	if issued.Purpose == entities.PurposePackage {
		msg.ReplyMarkup = appKeyboard(buttonWatch, f.appURL)
	}
	f.send(issued.ChatID, msg)
	return OutcomeApproved, nil
}

// checkPayment re-checks the chat's latest pending payment and confirms it
// once PayPal reports a payer.
func (f *Flow) checkPayment(ctx context.Context, chatID int64) {
	issued, ok := f.issued.Latest(chatID)
	if !ok {
		f.sendText(chatID, msgNoPending)
		return
	}

	status, err := f.payments.LookupPayment(ctx, issued.PaymentID)
	if err != nil {
		f.logger.Warn("lookup payment", "error", err, "chat_id", chatID, "payment_id", issued.PaymentID)
		f.sendText(chatID, msgCheckFailed)
		return
	}
	if status.PayerID == "" {
		f.sendText(chatID, msgNotPaidYet)
		return
	}

	outcome, err := f.Confirm(ctx, issued.PaymentID, status.PayerID, TriggerCheck)
	if err != nil {
		f.logger.Warn("confirm payment", "error", err, "chat_id", chatID, "payment_id", issued.PaymentID)
		f.sendText(chatID, msgCheckFailed)
		return
	}
	if outcome == OutcomeUnknown {
		// Confirmed concurrently through the return URL.
		f.sendText(chatID, msgNoPending)
	}
}
