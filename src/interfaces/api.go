package interfaces

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/thaiminh0911/telefilm-bot/src/entities"
)

type PaymentProvider interface {
	CreatePayment(ctx context.Context, req entities.PaymentRequest) (*entities.PaymentRecord, error)
	ExecutePayment(ctx context.Context, paymentID, payerID string) (entities.ExecutionResult, error)
	LookupPayment(ctx context.Context, paymentID string) (*entities.PaymentStatus, error)
}

type RateProvider interface {
	GetRate(ctx context.Context) (decimal.Decimal, error)
}

// Sender is the part of the Telegram API the conversation needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}
