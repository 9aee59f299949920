package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thaiminh0911/telefilm-bot/src/conversation"
	"github.com/thaiminh0911/telefilm-bot/src/entities"
	"github.com/thaiminh0911/telefilm-bot/src/logger"
)

type fakeConfirmer struct {
	outcome conversation.Outcome
	err     error
	calls   []string
}

func (f *fakeConfirmer) Confirm(_ context.Context, paymentID, payerID, trigger string) (conversation.Outcome, error) {
	f.calls = append(f.calls, paymentID+"/"+payerID+"/"+trigger)
	return f.outcome, f.err
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestExecuteApproved(t *testing.T) {
	c := &fakeConfirmer{outcome: conversation.OutcomeApproved}
	rec := get(t, NewRouter(c, logger.Discard()), "/payment/execute?paymentId=PAY-1&token=EC-1&PayerID=PAYER-9")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pageApproved, rec.Body.String())
	assert.Equal(t, []string{"PAY-1/PAYER-9/return_url"}, c.calls)
}

func TestExecuteOutcomes(t *testing.T) {
	cases := []struct {
		name   string
		c      *fakeConfirmer
		status int
		body   string
	}{
		{"declined", &fakeConfirmer{outcome: conversation.OutcomeDeclined}, http.StatusOK, pageDeclined},
		{"unknown", &fakeConfirmer{outcome: conversation.OutcomeUnknown}, http.StatusNotFound, pageUnknown},
		{"error", &fakeConfirmer{err: errors.New("timeout")}, http.StatusBadGateway, pageError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, NewRouter(tc.c, logger.Discard()), "/payment/execute?paymentId=PAY-1&PayerID=PAYER-9")
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.body, rec.Body.String())
		})
	}
}

func TestExecuteMissingParams(t *testing.T) {
	c := &fakeConfirmer{}
	rec := get(t, NewRouter(c, logger.Discard()), "/payment/execute?paymentId=PAY-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, c.calls)
}

func TestCancelAndHealth(t *testing.T) {
	router := NewRouter(&fakeConfirmer{}, logger.Discard())

	rec := get(t, router, "/payment/cancel?token=EC-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pageCanceled, rec.Body.String())

	rec = get(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

type recordingSender struct {
	sent []tgbotapi.MessageConfig
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent = append(s.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (s *recordingSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type approvingPayments struct {
	executed int
}

func (p *approvingPayments) CreatePayment(context.Context, entities.PaymentRequest) (*entities.PaymentRecord, error) {
	return &entities.PaymentRecord{ID: "PAY-1", State: "created", ApprovalURL: "https://paypal.test/approve"}, nil
}

func (p *approvingPayments) ExecutePayment(context.Context, string, string) (entities.ExecutionResult, error) {
	p.executed++
	return entities.ExecutionResult{Approved: true, State: "approved"}, nil
}

func (p *approvingPayments) LookupPayment(_ context.Context, id string) (*entities.PaymentStatus, error) {
	return &entities.PaymentStatus{ID: id, State: "created"}, nil
}

func TestReturnURLConfirmsPackageInChat(t *testing.T) {
	sender := &recordingSender{}
	payments := &approvingPayments{}
	flow := conversation.New(sender, payments, nil, conversation.NewPaymentRegistry(0), logger.Discard(), conversation.Options{AppURL: "https://app.test"})

	user := &tgbotapi.User{ID: 5, UserName: "carol"}
	chat := &tgbotapi.Chat{ID: 5}
	flow.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		From: user, Chat: chat, Text: "/register",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len("/register")}},
	}})
	flow.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{From: user, Chat: chat, Text: "ME2"}})
	require.Zero(t, payments.executed)

	router := NewRouter(flow, logger.Discard())
	rec := get(t, router, "/payment/execute?paymentId=PAY-1&token=EC-1&PayerID=PAYER-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, payments.executed)

	last := sender.sent[len(sender.sent)-1]
	assert.Equal(t, int64(5), last.ChatID)
	assert.Contains(t, last.Text, "ME2")

	rec = get(t, router, "/payment/execute?paymentId=PAY-1&token=EC-1&PayerID=PAYER-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, payments.executed)
}
