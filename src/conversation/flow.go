// Package conversation implements the bot's commands, inline callbacks and
// the per-chat input collection for custom donations and package
// registration.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/thaiminh0911/telefilm-bot/src/amount"
	"github.com/thaiminh0911/telefilm-bot/src/entities"
	"github.com/thaiminh0911/telefilm-bot/src/interfaces"
	"github.com/thaiminh0911/telefilm-bot/src/metrics"
)

const (
	flowPreset  = "preset"
	flowCustom  = "custom"
	flowPackage = "package"
)

type Options struct {
	AppURL string
	// PackageTable is the price table photo sent on /register; nil skips it.
	PackageTable tgbotapi.RequestFileData
	// IsAllowed gates every update by sender id; nil allows everyone.
	IsAllowed func(userID int64) bool
}

type Flow struct {
	sender   interfaces.Sender
	payments interfaces.PaymentProvider
	rates    interfaces.RateProvider
	logger   *slog.Logger

	states *StateStore
	issued *PaymentRegistry

	appURL       string
	packageTable tgbotapi.RequestFileData
	isAllowed    func(int64) bool
}

func New(
	sender interfaces.Sender,
	payments interfaces.PaymentProvider,
	rates interfaces.RateProvider,
	issued *PaymentRegistry,
	logger *slog.Logger,
	opts Options,
) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	if issued == nil {
		issued = NewPaymentRegistry(0)
	}
	isAllowed := opts.IsAllowed
	if isAllowed == nil {
		isAllowed = func(int64) bool { return true }
	}

	return &Flow{
		sender:       sender,
		payments:     payments,
		rates:        rates,
		logger:       logger,
		states:       NewStateStore(),
		issued:       issued,
		appURL:       opts.AppURL,
		packageTable: opts.PackageTable,
		isAllowed:    isAllowed,
	}
}

// State exposes the pending step of a chat.
func (f *Flow) State(chatID int64) Step {
	return f.states.Get(chatID)
}

func (f *Flow) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		f.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		metrics.UpdatesTotal.WithLabelValues("callback").Inc()
		f.handleCallback(ctx, update.CallbackQuery)
	default:
		metrics.UpdatesTotal.WithLabelValues("other").Inc()
	}
}

func (f *Flow) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil || message.From == nil {
		return
	}
	chatID := message.Chat.ID
	user := chatUser(message.From)

	if !f.isAllowed(user.ID) {
		f.logger.Info("user is not allowed to use this bot", "user_id", user.ID)
		f.sendText(chatID, msgNotAuthorized)
		return
	}

	if message.IsCommand() {
		metrics.UpdatesTotal.WithLabelValues("command").Inc()
		// A new command abandons whatever input the chat was asked for.
		f.states.Clear(chatID)
		f.handleCommand(ctx, chatID, user, message.Command())
		return
	}

	metrics.UpdatesTotal.WithLabelValues("text").Inc()
	switch f.states.Get(chatID) {
	case StepAwaitingCustomAmount:
		f.handleCustomAmount(ctx, chatID, user, message.Text)
	case StepAwaitingPackageChoice:
		f.handlePackageChoice(ctx, chatID, user, message.Text)
	default:
		f.sendText(chatID, msgHelp)
	}
}

func (f *Flow) handleCommand(ctx context.Context, chatID int64, user entities.ChatUser, command string) {
	switch command {
	case "start", "openapp":
		msg := tgbotapi.NewMessage(chatID, welcomeText(user.FirstName))
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.ReplyMarkup = appKeyboard(buttonWatch, f.appURL)
		f.send(chatID, msg)
	case "info":
		f.sendText(chatID, msgInfo)
	case "donate":
		msg := tgbotapi.NewMessage(chatID, msgDonatePrompt)
		msg.ReplyMarkup = donateKeyboard()
		f.send(chatID, msg)
	case "register":
		if f.packageTable != nil {
			f.send(chatID, tgbotapi.NewPhoto(chatID, f.packageTable))
		}
		f.sendText(chatID, msgPackagePrompt)
		f.states.Set(chatID, StepAwaitingPackageChoice)
	case "check_payment":
		f.checkPayment(ctx, chatID)
	default:
		f.sendText(chatID, msgHelp)
	}
}

func (f *Flow) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}
	user := chatUser(cb.From)
	chatID := user.ID
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
	}

	if !f.isAllowed(user.ID) {
		f.answer(cb, msgNotAuthorized)
		return
	}
	f.answer(cb, "")

	choice, ok := strings.CutPrefix(cb.Data, callbackPrefixDonate)
	if !ok {
		f.logger.Debug("ignoring unknown callback", "chat_id", chatID, "data", cb.Data)
		return
	}

	if choice == donateCustom {
		f.sendText(chatID, msgCustomPrompt)
		f.states.Set(chatID, StepAwaitingCustomAmount)
		return
	}

	preset, ok := parsePreset(choice)
	if !ok {
		f.logger.Debug("ignoring unknown donation preset", "chat_id", chatID, "data", cb.Data)
		return
	}
	f.states.Clear(chatID)
	f.createPayment(ctx, chatID, flowPreset, entities.PaymentRequest{
		Amount:      preset,
		Currency:    entities.CurrencyUSD,
		Description: donationDescription(user.Handle(), preset),
	}, entities.IssuedPayment{Username: user.Username, Purpose: entities.PurposeDonation}, donationApprovalText(preset))
}

func (f *Flow) handleCustomAmount(ctx context.Context, chatID int64, user entities.ChatUser, text string) {
	in, err := amount.Parse(text)
	if err != nil {
		switch {
		case errors.Is(err, amount.ErrBelowMinimum) && in.Currency == entities.CurrencyVND:
			f.sendText(chatID, msgBelowMinVND)
		case errors.Is(err, amount.ErrBelowMinimum):
			f.sendText(chatID, msgBelowMinUSD)
		default:
			f.sendText(chatID, msgInvalidFormat)
		}
		return
	}

	rate := decimal.Zero
	if in.NeedsRate() {
		rate, err = f.rates.GetRate(ctx)
		if err != nil {
			f.logger.Warn("get exchange rate", "error", err, "chat_id", chatID)
			f.sendText(chatID, msgRateUnavailable)
			return
		}
	}

	usd, err := in.Settle(rate)
	if err != nil {
		f.logger.Warn("settle custom amount", "error", err, "chat_id", chatID, "rate", rate.String())
		f.sendText(chatID, msgRateUnavailable)
		return
	}

	f.states.Clear(chatID)
	f.createPayment(ctx, chatID, flowCustom, entities.PaymentRequest{
		Amount:      usd,
		Currency:    entities.CurrencyUSD,
		Description: donationDescription(user.Handle(), usd),
	}, entities.IssuedPayment{Username: user.Username, Purpose: entities.PurposeDonation}, donationApprovalText(usd))
}

func (f *Flow) handlePackageChoice(ctx context.Context, chatID int64, user entities.ChatUser, text string) {
	f.logger.Info("package selected", "chat_id", chatID, "username", user.Username, "package", text)

	pkg, ok := entities.LookupPackage(text)
	if !ok {
		f.sendText(chatID, msgInvalidPackage)
		return
	}

	f.states.Clear(chatID)
	f.createPayment(ctx, chatID, flowPackage, entities.PaymentRequest{
		Amount:      pkg.Price,
		Currency:    entities.CurrencyUSD,
		Description: packageDescription(user.Handle(), pkg.Code),
	}, entities.IssuedPayment{Username: user.Username, Purpose: entities.PurposePackage, Package: pkg.Code}, packageApprovalText(pkg.Code))
}

// createPayment creates the remote payment and replies with its approval
// link, or with the uniform failure message.
func (f *Flow) createPayment(ctx context.Context, chatID int64, flow string, req entities.PaymentRequest, issued entities.IssuedPayment, text string) {
	record, err := f.payments.CreatePayment(ctx, req)
	if err != nil {
		metrics.PaymentsCreatedTotal.WithLabelValues(flow, "failed").Inc()
		f.logger.Warn("create payment", "error", err, "chat_id", chatID, "flow", flow, "amount", req.Total())
		f.sendText(chatID, msgPaymentFailed)
		return
	}
	metrics.PaymentsCreatedTotal.WithLabelValues(flow, "ok").Inc()
	f.logger.Info("payment created", "chat_id", chatID, "flow", flow, "payment_id", record.ID, "amount", req.Total())

	issued.PaymentID = record.ID
	issued.ChatID = chatID
	issued.Amount = req.Amount
	f.issued.Add(issued)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = linkKeyboard(buttonPay, record.ApprovalURL)
	f.send(chatID, msg)
}

func (f *Flow) sendText(chatID int64, text string) {
	f.send(chatID, tgbotapi.NewMessage(chatID, text))
}

func (f *Flow) send(chatID int64, c tgbotapi.Chattable) {
	if _, err := f.sender.Send(c); err != nil {
		f.logger.Warn("send message", "error", err, "chat_id", chatID)
	}
}

func (f *Flow) answer(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := f.sender.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		f.logger.Debug("answer callback", "error", err, "callback_id", cb.ID)
	}
}

func parsePreset(choice string) (decimal.Decimal, bool) {
	n, err := strconv.ParseInt(choice, 10, 64)
	if err != nil {
		return decimal.Zero, false
	}
	for _, preset := range presetDonations {
		if preset == n {
			return decimal.NewFromInt(n), true
		}
	}
	return decimal.Zero, false
}

func chatUser(u *tgbotapi.User) entities.ChatUser {
	return entities.ChatUser{ID: u.ID, Username: u.UserName, FirstName: u.FirstName}
}
