// Package pi integrates the Pi Network identity and payment services: the
// platform SDK bridge that drives payment callbacks, the app-server
// approval endpoints, and the state machine that turns the callback soup
// into a flow with a guaranteed terminal state.
package pi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/purplemusic/purplemusic/domain"
)

// PaymentData describes the payment being created.
type PaymentData struct {
	Amount   float64 `json:"amount"`
	Memo     string  `json:"memo"`
	Metadata any     `json:"metadata,omitempty"`
}

// Callbacks receives the payment lifecycle from the platform bridge. Any
// of them may never fire; the flow's deadline covers abandonment.
type Callbacks struct {
	OnReadyForServerApproval   func(paymentID string)
	OnReadyForServerCompletion func(paymentID, txid string)
	OnCancel                   func()
	OnError                    func(err error)
}

// Starter hands a payment to the platform bridge, which drives the
// callbacks as the user walks through the wallet dialog.
type Starter func(data PaymentData, cb Callbacks) error

// AuthResult is the identity service's answer to an authentication.
type AuthResult struct {
	User        domain.User `json:"user"`
	AccessToken string      `json:"access_token"`
}

// Client calls the app server's identity and payment endpoints.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Authenticate exchanges the requested scopes for a profile and token.
// Unlike search, identity failures are real errors: the caller decides
// whether to fall back to the cached profile.
func (c *Client) Authenticate(ctx context.Context, scopes []string) (AuthResult, error) {
	var res AuthResult
	err := c.post(ctx, "/api/auth", map[string]any{"scopes": scopes}, &res)
	if err != nil {
		return AuthResult{}, errors.Wrap(err, "authenticate")
	}
	if res.User.UID == "" {
		return AuthResult{}, errors.New("authenticate: empty profile")
	}
	return res, nil
}

// Approve tells the app server a payment is ready for server approval.
func (c *Client) Approve(ctx context.Context, paymentID string) error {
	err := c.post(ctx, "/api/payments/approve", map[string]string{"payment_id": paymentID}, nil)
	return errors.Wrap(err, "approve payment")
}

// Complete tells the app server the blockchain transaction went through.
func (c *Client) Complete(ctx context.Context, paymentID, txid string) error {
	body := map[string]string{"payment_id": paymentID, "txid": txid}
	err := c.post(ctx, "/api/payments/complete", body, nil)
	return errors.Wrap(err, "complete payment")
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
