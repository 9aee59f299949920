package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thaiminh0911/telefilm-bot/src/entities"
	"github.com/thaiminh0911/telefilm-bot/src/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrPaymentNotCreated = errors.New("payment not created")

const (
	PayPalSandboxURL = "https://api-m.sandbox.paypal.com"
	PayPalLiveURL    = "https://api-m.paypal.com"
)

// PayPalBaseURL maps the configured mode to the REST API host.
func PayPalBaseURL(mode string) string {
	if strings.EqualFold(mode, "live") {
		return PayPalLiveURL
	}
	return PayPalSandboxURL
}

type PayPalProvider struct {
	BaseURL    string
	ReturnURL  string
	CancelURL  string
	HTTPClient *http.Client // authorized; attaches the bearer token
}

// NewPayPalProvider builds a provider whose client fetches and refreshes the
// OAuth2 token from {baseURL}/v1/oauth2/token. base, if non-nil, is the
// transport client used for both the token and API calls.
func NewPayPalProvider(
	baseURL string,
	clientID string,
	clientSecret string,
	returnURL string,
	cancelURL string,
	base *http.Client,
) *PayPalProvider {
	ctx := context.Background()
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}

	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     strings.TrimRight(baseURL, "/") + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	client := cc.Client(ctx)
	if base != nil {
		client.Timeout = base.Timeout
	}

	return &PayPalProvider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ReturnURL:  returnURL,
		CancelURL:  cancelURL,
		HTTPClient: client,
	}
}

type paypalAmount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type paypalTransaction struct {
	Amount      paypalAmount `json:"amount"`
	Description string       `json:"description"`
}

type paypalPaymentRequest struct {
	Intent string `json:"intent"`
	Payer  struct {
		PaymentMethod string `json:"payment_method"`
	} `json:"payer"`
	Transactions []paypalTransaction `json:"transactions"`
	RedirectURLs struct {
		ReturnURL string `json:"return_url"`
		CancelURL string `json:"cancel_url"`
	} `json:"redirect_urls"`
}

type paypalLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type paypalPayment struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Payer struct {
		PayerInfo struct {
			PayerID string `json:"payer_id"`
		} `json:"payer_info"`
	} `json:"payer"`
	Links []paypalLink `json:"links"`
}

func (pp *PayPalProvider) CreatePayment(ctx context.Context, req entities.PaymentRequest) (*entities.PaymentRecord, error) {
	body := paypalPaymentRequest{
		Intent: "sale",
		Transactions: []paypalTransaction{{
			Amount: paypalAmount{
				Total:    req.Total(),
				Currency: string(req.Currency),
			},
			Description: req.Description,
		}},
	}
	body.Payer.PaymentMethod = "paypal"
	body.RedirectURLs.ReturnURL = pp.ReturnURL
	body.RedirectURLs.CancelURL = pp.CancelURL

	var payment paypalPayment
	status, err := pp.do(ctx, "create", http.MethodPost, "/v1/payments/payment", body, &payment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentNotCreated, err)
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrPaymentNotCreated, status)
	}

	approval := ""
	for _, link := range payment.Links {
		if link.Rel == "approval_url" {
			approval = link.Href
			break
		}
	}
	if payment.ID == "" || approval == "" {
		return nil, fmt.Errorf("%w: response has no id or approval link", ErrPaymentNotCreated)
	}

	return &entities.PaymentRecord{
		ID:          payment.ID,
		State:       payment.State,
		ApprovalURL: approval,
	}, nil
}

// ExecutePayment reports a provider decline (a 400 or 422 business error such
// as INSTRUMENT_DECLINED) as Approved=false with a nil error. Any other
// failure is returned as an error so the payment can be executed again.
func (pp *PayPalProvider) ExecutePayment(ctx context.Context, paymentID, payerID string) (entities.ExecutionResult, error) {
	body := struct {
		PayerID string `json:"payer_id"`
	}{PayerID: payerID}

	var payment paypalPayment
	path := fmt.Sprintf("/v1/payments/payment/%s/execute", paymentID)
	status, err := pp.do(ctx, "execute", http.MethodPost, path, body, &payment)
	if err != nil {
		return entities.ExecutionResult{}, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return entities.ExecutionResult{State: payment.State}, nil
	default:
		return entities.ExecutionResult{}, fmt.Errorf("unexpected status code: %d", status)
	}

	return entities.ExecutionResult{
		Approved: payment.State == "approved",
		State:    payment.State,
	}, nil
}

func (pp *PayPalProvider) LookupPayment(ctx context.Context, paymentID string) (*entities.PaymentStatus, error) {
	var payment paypalPayment
	path := fmt.Sprintf("/v1/payments/payment/%s", paymentID)
	status, err := pp.do(ctx, "lookup", http.MethodGet, path, nil, &payment)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", status)
	}

	return &entities.PaymentStatus{
		ID:      payment.ID,
		State:   payment.State,
		PayerID: payment.Payer.PayerInfo.PayerID,
	}, nil
}

// do sends the request and decodes a 2xx body into out. Non-2xx statuses are
// returned without error so callers can tell declines from transport failures.
func (pp *PayPalProvider) do(ctx context.Context, endpoint, method, path string, in, out any) (int, error) {
	start := time.Now()
	defer func() {
		metrics.PayPalRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, pp.BaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost {
		httpReq.Header.Set("PayPal-Request-Id", uuid.NewString())
	}

	resp, err := pp.HTTPClient.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}
