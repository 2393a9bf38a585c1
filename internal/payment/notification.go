// Package payment talks to the card payment provider and makes sense of
// its asynchronous notifications.
package payment

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Notification is what a provider callback tells us, after parsing.
// TransactionID is our order id, sent to the provider as POSTransactionId.
type Notification struct {
	PaymentID         string `json:"payment_id,omitempty"`
	PaymentStatus     string `json:"payment_status,omitempty"`
	TransactionID     string `json:"transaction_id,omitempty"`
	TransactionStatus string `json:"transaction_status,omitempty"`
}

// OrderID is the order the notification is about, or "".
func (n Notification) OrderID() string {
	return n.TransactionID
}

// HasStatus reports whether any status was delivered.
func (n Notification) HasStatus() bool {
	return n.PaymentStatus != "" || n.TransactionStatus != ""
}

// Outcome is how a notification moves an order.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeCanceled
	OutcomeAmbiguous
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCanceled:
		return "canceled"
	case OutcomeAmbiguous:
		return "ambiguous"
	}
	return "none"
}

// Classify looks at both the payment and the transaction status.
// Either one being "succeeded" or "completed" is enough for success.
func Classify(n Notification) Outcome {
	statuses := []string{
		strings.ToLower(strings.TrimSpace(n.PaymentStatus)),
		strings.ToLower(strings.TrimSpace(n.TransactionStatus)),
	}
	for _, s := range statuses {
		if s == "succeeded" || s == "completed" {
			return OutcomeSuccess
		}
	}
	for _, s := range statuses {
		if s == "canceled" || s == "cancelled" || s == "expired" {
			return OutcomeCanceled
		}
	}
	if n.HasStatus() {
		return OutcomeAmbiguous
	}
	return OutcomeNone
}

// ParseBody reads a callback body as JSON, then as a URL-encoded form.
// Anything else, including an empty body, yields an empty Notification.
func ParseBody(body []byte) Notification {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return Notification{}
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(trimmed), &doc); err == nil {
		return fromJSON(doc)
	}

	form, err := url.ParseQuery(trimmed)
	if err != nil {
		return Notification{}
	}
	return fromForm(form)
}

// MergeQuery fills fields the body did not carry from the query string.
// It never overrides a value that is already set.
func MergeQuery(n Notification, q url.Values) Notification {
	fromQuery := fromForm(q)
	if n.PaymentID == "" {
		n.PaymentID = fromQuery.PaymentID
	}
	if n.PaymentStatus == "" {
		n.PaymentStatus = fromQuery.PaymentStatus
	}
	if n.TransactionID == "" {
		n.TransactionID = fromQuery.TransactionID
	}
	if n.TransactionStatus == "" {
		n.TransactionStatus = fromQuery.TransactionStatus
	}
	return n
}

// StateLookup asks the provider for the current state of a payment.
type StateLookup interface {
	PaymentState(ctx context.Context, paymentID string) (Notification, error)
}

// Complete fills gaps in n from the provider when a payment id is known but
// the order id or every status is missing. A failed lookup leaves n as is.
func Complete(ctx context.Context, n Notification, lookup StateLookup) Notification {
	if n.PaymentID == "" || lookup == nil {
		return n
	}
	if n.TransactionID != "" && n.HasStatus() {
		return n
	}

	state, err := lookup.PaymentState(ctx, n.PaymentID)
	if err != nil {
		zap.L().Warn("payment state lookup failed",
			zap.String("payment_id", n.PaymentID), zap.Error(err))
		return n
	}
	if n.TransactionID == "" {
		n.TransactionID = state.TransactionID
	}
	if n.PaymentStatus == "" {
		n.PaymentStatus = state.PaymentStatus
	}
	if n.TransactionStatus == "" {
		n.TransactionStatus = state.TransactionStatus
	}
	return n
}

// normalize lower-cases a key and drops everything but letters and digits,
// so "POSTransactionId", "posTransactionId" and "Transactions[0][POSTransactionId]"
// compare by their letters.
func normalize(key string) string {
	var b strings.Builder
	for _, r := range key {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func fromJSON(doc map[string]any) Notification {
	var n Notification
	for k, v := range doc {
		switch normalize(k) {
		case "paymentid":
			n.PaymentID = str(v)
		case "status", "paymentstatus":
			n.PaymentStatus = str(v)
		case "postransactionid":
			n.TransactionID = str(v)
		case "transactionstatus":
			n.TransactionStatus = str(v)
		case "transactions":
			txs, _ := v.([]any)
			for _, raw := range txs {
				tx, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				id, status := transactionFields(tx)
				if id == "" && status == "" {
					continue
				}
				if n.TransactionID == "" {
					n.TransactionID = id
				}
				if n.TransactionStatus == "" {
					n.TransactionStatus = status
				}
				break
			}
		}
	}
	return n
}

func transactionFields(tx map[string]any) (id, status string) {
	for k, v := range tx {
		switch normalize(k) {
		case "postransactionid":
			id = str(v)
		case "status":
			status = str(v)
		}
	}
	return id, status
}

func fromForm(form url.Values) Notification {
	var n Notification
	for k, vals := range form {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		v := strings.TrimSpace(vals[0])
		key := normalize(k)
		switch {
		case key == "paymentid":
			n.PaymentID = v
		case key == "status" || key == "paymentstatus":
			n.PaymentStatus = v
		case strings.HasSuffix(key, "postransactionid"):
			n.TransactionID = v
		case key == "transactionstatus" || (strings.HasPrefix(key, "transactions") && strings.HasSuffix(key, "status")):
			n.TransactionStatus = v
		}
	}
	return n
}

func str(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}
