// Package analytics reports completed purchases to the ads platform's
// server-side conversions endpoint.
package analytics

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Purchase is one paid order as the ads platform sees it.
type Purchase struct {
	OrderID  string
	Email    string
	Phone    string
	TotalHuf int64
	PaidAt   time.Time
}

// Tracker sends purchase conversions. A Tracker without an endpoint is
// disabled and Purchase returns nil.
type Tracker struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

func NewTracker(endpoint, accessToken string, timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Tracker{endpoint: endpoint, token: accessToken, httpClient: &http.Client{Timeout: timeout}}
}

func (t *Tracker) Enabled() bool {
	return t != nil && t.endpoint != ""
}

type userData struct {
	Email []string `json:"em,omitempty"`
	Phone []string `json:"ph,omitempty"`
}

type customData struct {
	Currency string `json:"currency"`
	Value    int64  `json:"value"`
}

type event struct {
	EventName    string     `json:"event_name"`
	EventTime    int64      `json:"event_time"`
	EventID      string     `json:"event_id"`
	ActionSource string     `json:"action_source"`
	UserData     userData   `json:"user_data"`
	CustomData   customData `json:"custom_data"`
}

// Purchase posts a single Purchase event. The order id doubles as the event
// id so the platform can drop duplicates.
func (t *Tracker) Purchase(ctx context.Context, p Purchase) error {
	if !t.Enabled() {
		return nil
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now()
	}

	ev := event{
		EventName:    "Purchase",
		EventTime:    p.PaidAt.Unix(),
		EventID:      p.OrderID,
		ActionSource: "website",
		CustomData:   customData{Currency: "HUF", Value: p.TotalHuf},
	}
	if h := hashed(strings.ToLower(p.Email)); h != "" {
		ev.UserData.Email = []string{h}
	}
	if h := hashed(digits(p.Phone)); h != "" {
		ev.UserData.Phone = []string{h}
	}

	body, err := json.Marshal(map[string]any{"data": []event{ev}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send purchase %s: %w", p.OrderID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("send purchase %s: status %d", p.OrderID, resp.StatusCode)
	}
	return nil
}

// hashed is the normalised SHA-256 the platform expects for user data.
func hashed(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
