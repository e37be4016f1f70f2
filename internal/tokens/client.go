package tokens

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/auroralife/aurora-backend/pkg/config"
	pkgerrors "github.com/auroralife/aurora-backend/pkg/errors"
)

const (
	tokensPath            = "/tokens"
	clientIDHeader        = "X-Client-Id"
	defaultRetryWait      = 250 * time.Millisecond
	responseBodyReadLimit = 4096
)

var errServerRequired = errors.New("payment token server is required")

// CardDetails carries the raw card fields sent to the provider. They are never
// persisted; only the returned token id is stored.
type CardDetails struct {
	Number      string `json:"number"`
	ExpiryYear  int    `json:"expiry-year"`
	ExpiryMonth int    `json:"expiry-month"`
	CVV         string `json:"cvv"`
}

// BillingAddress mirrors the provider's address field names.
type BillingAddress struct {
	FirstName  string `json:"first-name"`
	LastName   string `json:"last-name"`
	Street     string `json:"street"`
	StreetCont string `json:"street-cont"`
	City       string `json:"city"`
	Zip        string `json:"zip"`
	State      string `json:"state"`
	StateAbbr  string `json:"state-abbr"`
	CountryISO string `json:"country-iso"`
	Phone      string `json:"phone"`
}

// TokenRequest is the payload for one tokenization call.
type TokenRequest struct {
	UserID          string         `json:"user-id"`
	PaymentMethodID string         `json:"payment-method-id"`
	CreditCard      CardDetails    `json:"creditcard"`
	BillingAddress  BillingAddress `json:"billing-address"`
}

type tokenResponse struct {
	Response struct {
		PaymentTokenID string `json:"payment-token-id"`
		Message        string `json:"message"`
	} `json:"response"`
}

// Client talks to the external payment tokenization endpoint.
type Client struct {
	httpClient  *http.Client
	server      string
	clientID    string
	maxAttempts int
	retryWait   time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryWait overrides the pause between retry attempts.
func WithRetryWait(wait time.Duration) Option {
	return func(c *Client) {
		if wait >= 0 {
			c.retryWait = wait
		}
	}
}

// NewClient builds a tokenization client from configuration.
func NewClient(cfg config.PaymentTokensConfig, opts ...Option) (*Client, error) {
	server := strings.TrimRight(strings.TrimSpace(cfg.Server), "/")
	if server == "" {
		return nil, errServerRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		server:      server,
		clientID:    strings.TrimSpace(cfg.ClientID),
		maxAttempts: maxAttempts,
		retryWait:   defaultRetryWait,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// CreateToken requests a payment token for the given card. Timeout-class
// failures are retried up to the configured attempt budget; authoritative
// rejections (non-2xx, malformed body) abort immediately. The returned error
// always carries CREATE_PAYMENT_TOKEN_FAILED unless a more specific code was
// already attached.
func (c *Client) CreateToken(ctx context.Context, req TokenRequest) (string, error) {
	var tokenID string

	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewConstant(nonZero(c.retryWait)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		id, err := c.postToken(ctx, req)
		if err != nil {
			if isTimeout(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		tokenID = id
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return "", typed
		}
		return "", pkgerrors.Wrap(pkgerrors.CodePaymentTokenFailed, err, "create payment token")
	}
	return tokenID, nil
}

func (c *Client) postToken(ctx context.Context, req TokenRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode token request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server+tokensPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.clientID != "" {
		httpReq.Header.Set(clientIDHeader, c.clientID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("post token request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	var decoded tokenResponse
	if resp.StatusCode != http.StatusOK {
		message := fmt.Sprintf("token provider returned status %d", resp.StatusCode)
		if jsonErr := json.Unmarshal(payload, &decoded); jsonErr == nil && decoded.Response.Message != "" {
			message = decoded.Response.Message
		}
		return "", pkgerrors.New(pkgerrors.CodePaymentTokenFailed, message)
	}

	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodePaymentTokenFailed, err, "decode token response")
	}
	if decoded.Response.PaymentTokenID == "" {
		return "", pkgerrors.New(pkgerrors.CodePaymentTokenFailed, "token response missing payment-token-id")
	}
	return decoded.Response.PaymentTokenID, nil
}

// isTimeout classifies connect/socket timeouts; authoritative provider
// rejections never satisfy it.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func nonZero(wait time.Duration) time.Duration {
	if wait <= 0 {
		return time.Nanosecond
	}
	return wait
}
