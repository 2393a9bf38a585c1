package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the provider's REST API with the shop's POS key.
type Client struct {
	baseURL    string
	posKey     string
	payee      string
	httpClient *http.Client
}

func NewClient(baseURL, posKey, payeeEmail string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		posKey:     posKey,
		payee:      payeeEmail,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type providerError struct {
	ErrorCode   string `json:"ErrorCode"`
	Title       string `json:"Title"`
	Description string `json:"Description"`
}

type stateResponse struct {
	PaymentID    string `json:"PaymentId"`
	Status       string `json:"Status"`
	Transactions []struct {
		POSTransactionID string `json:"POSTransactionId"`
		Status           string `json:"Status"`
	} `json:"Transactions"`
	Errors []providerError `json:"Errors"`
}

// PaymentState fetches the current status of a payment and its first
// transaction carrying our order id.
func (c *Client) PaymentState(ctx context.Context, paymentID string) (Notification, error) {
	if c.posKey == "" {
		return Notification{}, errors.New("payment: POS key not configured")
	}
	q := url.Values{}
	q.Set("POSKey", c.posKey)
	q.Set("PaymentId", paymentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/Payment/GetPaymentState?"+q.Encode(), nil)
	if err != nil {
		return Notification{}, err
	}

	var resp stateResponse
	if err := c.do(req, &resp); err != nil {
		return Notification{}, fmt.Errorf("payment state %s: %w", paymentID, err)
	}
	if len(resp.Errors) > 0 {
		return Notification{}, fmt.Errorf("payment state %s: %s", paymentID, resp.Errors[0].Title)
	}

	n := Notification{PaymentID: resp.PaymentID, PaymentStatus: resp.Status}
	for _, tx := range resp.Transactions {
		if tx.POSTransactionID != "" {
			n.TransactionID = tx.POSTransactionID
			n.TransactionStatus = tx.Status
			break
		}
	}
	return n, nil
}

// LineItem is one row of the payment's itemised receipt.
type LineItem struct {
	Name      string
	SKU       string
	Quantity  int
	UnitPrice int64
}

// StartRequest describes the payment to open for an order.
type StartRequest struct {
	OrderID     string
	OrderNumber string
	Email       string
	TotalHuf    int64
	Items       []LineItem
	RedirectURL string
	CallbackURL string
}

// Started is the provider's answer to a new payment.
type Started struct {
	PaymentID  string `json:"payment_id"`
	GatewayURL string `json:"gateway_url"`
	Status     string `json:"status"`
}

type startItem struct {
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Quantity    int    `json:"Quantity"`
	Unit        string `json:"Unit"`
	UnitPrice   int64  `json:"UnitPrice"`
	ItemTotal   int64  `json:"ItemTotal"`
	SKU         string `json:"SKU,omitempty"`
}

type startTransaction struct {
	POSTransactionID string      `json:"POSTransactionId"`
	Payee            string      `json:"Payee"`
	Total            int64       `json:"Total"`
	Items            []startItem `json:"Items"`
}

type startPayload struct {
	POSKey           string             `json:"POSKey"`
	PaymentType      string             `json:"PaymentType"`
	GuestCheckOut    bool               `json:"GuestCheckOut"`
	FundingSources   []string           `json:"FundingSources"`
	PaymentRequestID string             `json:"PaymentRequestId"`
	PayerHint        string             `json:"PayerHint,omitempty"`
	RedirectURL      string             `json:"RedirectUrl"`
	CallbackURL      string             `json:"CallbackUrl"`
	Locale           string             `json:"Locale"`
	Currency         string             `json:"Currency"`
	Transactions     []startTransaction `json:"Transactions"`
}

type startResponse struct {
	PaymentID  string          `json:"PaymentId"`
	GatewayURL string          `json:"GatewayUrl"`
	Status     string          `json:"Status"`
	Errors     []providerError `json:"Errors"`
}

// Start opens an immediate HUF payment for an order. The order id travels as
// POSTransactionId so callbacks can be matched back to it.
func (c *Client) Start(ctx context.Context, r StartRequest) (*Started, error) {
	if c.posKey == "" {
		return nil, errors.New("payment: POS key not configured")
	}
	items := make([]startItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, startItem{
			Name:        it.Name,
			Description: it.Name,
			Quantity:    it.Quantity,
			Unit:        "db",
			UnitPrice:   it.UnitPrice,
			ItemTotal:   it.UnitPrice * int64(it.Quantity),
			SKU:         it.SKU,
		})
	}
	payload := startPayload{
		POSKey:           c.posKey,
		PaymentType:      "Immediate",
		GuestCheckOut:    true,
		FundingSources:   []string{"All"},
		PaymentRequestID: r.OrderNumber,
		PayerHint:        r.Email,
		RedirectURL:      r.RedirectURL,
		CallbackURL:      r.CallbackURL,
		Locale:           "hu-HU",
		Currency:         "HUF",
		Transactions: []startTransaction{{
			POSTransactionID: r.OrderID,
			Payee:            c.payee,
			Total:            r.TotalHuf,
			Items:            items,
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/Payment/Start", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp startResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("start payment for %s: %w", r.OrderID, err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("start payment for %s: %s", r.OrderID, resp.Errors[0].Title)
	}
	return &Started{PaymentID: resp.PaymentID, GatewayURL: resp.GatewayURL, Status: resp.Status}, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("provider returned %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode provider response (%d): %w", resp.StatusCode, err)
	}
	return nil
}
