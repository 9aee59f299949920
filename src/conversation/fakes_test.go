package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/thaiminh0911/telefilm-bot/src/entities"
	"github.com/thaiminh0911/telefilm-bot/src/logger"
)

const (
	testChatID   int64 = 7
	testAppURL         = "https://telefilm-dapp.glide.page"
	approvalBase       = "https://www.sandbox.paypal.com/checkout?token="
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c)
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *fakeSender) messages() []tgbotapi.MessageConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range s.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (s *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := s.messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func (s *fakeSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
	s.requests = nil
}

type fakePayments struct {
	mu        sync.Mutex
	created   []entities.PaymentRequest
	executed  []string
	createErr error
	execErr   error
	approved  bool
	payerID   string
	lookupErr error
}

func (p *fakePayments) CreatePayment(_ context.Context, req entities.PaymentRequest) (*entities.PaymentRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, req)
	if p.createErr != nil {
		return nil, p.createErr
	}
	id := fmt.Sprintf("PAY-%d", len(p.created))
	return &entities.PaymentRecord{ID: id, State: "created", ApprovalURL: approvalBase + id}, nil
}

func (p *fakePayments) ExecutePayment(_ context.Context, paymentID, payerID string) (entities.ExecutionResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.executed = append(p.executed, paymentID+"/"+payerID)
	if p.execErr != nil {
		return entities.ExecutionResult{}, p.execErr
	}
	if !p.approved {
		return entities.ExecutionResult{State: "failed"}, nil
	}
	return entities.ExecutionResult{Approved: true, State: "approved"}, nil
}

func (p *fakePayments) LookupPayment(_ context.Context, paymentID string) (*entities.PaymentStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lookupErr != nil {
		return nil, p.lookupErr
	}
	return &entities.PaymentStatus{ID: paymentID, State: "created", PayerID: p.payerID}, nil
}

type fakeRates struct {
	rate  decimal.Decimal
	err   error
	calls int
}

func (r *fakeRates) GetRate(context.Context) (decimal.Decimal, error) {
	r.calls++
	return r.rate, r.err
}

var errGateway = errors.New("gateway said no")

type harness struct {
	flow     *Flow
	sender   *fakeSender
	payments *fakePayments
	rates    *fakeRates
	issued   *PaymentRegistry
}

func newHarness() *harness {
	h := &harness{
		sender:   &fakeSender{},
		payments: &fakePayments{approved: true},
		rates:    &fakeRates{rate: decimal.NewFromInt(24000)},
		issued:   NewPaymentRegistry(0),
	}
	h.flow = New(h.sender, h.payments, h.rates, h.issued, logger.Discard(), Options{
		AppURL:       testAppURL,
		PackageTable: tgbotapi.FilePath("pkg_table.jpg"),
	})
	return h
}

var testUser = &tgbotapi.User{ID: testChatID, UserName: "alice", FirstName: "Alice"}

func (h *harness) command(cmd string) {
	text := "/" + cmd
	h.flow.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      testUser,
		Chat:      &tgbotapi.Chat{ID: testChatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}})
}

func (h *harness) text(text string) {
	h.flow.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 2,
		From:      testUser,
		Chat:      &tgbotapi.Chat{ID: testChatID},
		Text:      text,
	}})
}

func (h *harness) press(data string) {
	h.flow.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-" + data,
		From:    testUser,
		Message: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: testChatID}},
		Data:    data,
	}})
}

func buttons(t *testing.T, msg tgbotapi.MessageConfig) []tgbotapi.InlineKeyboardButton {
	t.Helper()
	if msg.ReplyMarkup == nil {
		return nil
	}
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "reply markup is %T", msg.ReplyMarkup)
	var out []tgbotapi.InlineKeyboardButton
	for _, row := range markup.InlineKeyboard {
		out = append(out, row...)
	}
	return out
}

// appButton returns the single mini-app button of msg and checks it goes out
// on the wire as a web_app button.
func appButton(t *testing.T, msg tgbotapi.MessageConfig) webAppButton {
	t.Helper()
	markup, ok := msg.ReplyMarkup.(webAppKeyboard)
	require.True(t, ok, "reply markup is %T", msg.ReplyMarkup)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 1)

	raw, err := json.Marshal(msg.ReplyMarkup)
	require.NoError(t, err)
	var wire struct {
		InlineKeyboard [][]map[string]any `json:"inline_keyboard"`
	}
	require.NoError(t, json.Unmarshal(raw, &wire))
	btn := wire.InlineKeyboard[0][0]
	require.Contains(t, btn, "web_app")
	require.NotContains(t, btn, "url")

	return markup.InlineKeyboard[0][0]
}
