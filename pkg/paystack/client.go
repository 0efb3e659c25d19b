package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/padimart/padimart-backend/pkg/config"
	"github.com/padimart/padimart-backend/pkg/logger"
	"github.com/padimart/padimart-backend/pkg/types"
)

const defaultBaseURL = "https://api.paystack.co"

// GatewayError is returned for any non-2xx gateway response.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("paystack: status %d: %s", e.StatusCode, e.Message)
}

// Client calls the Paystack transfer API. Amounts cross the wire in kobo
// (minor units), so every major-unit amount is multiplied by 100.
type Client struct {
	httpClient   *http.Client
	secretKey    string
	baseURL      string
	maxRetries   uint64
	logg         *logger.Logger
	newReference func() string
}

// NewClient builds a Paystack client from config.
func NewClient(cfg config.PaystackConfig, logg *logger.Logger) (*Client, error) {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return nil, fmt.Errorf("paystack secret key is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		secretKey:    secret,
		baseURL:      baseURL,
		maxRetries:   uint64(retries),
		logg:         logg,
		newReference: func() string { return "pm_trf_" + uuid.NewString() },
	}, nil
}

type recipientRequest struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Currency      string `json:"currency"`
}

type recipientResponse struct {
	Status bool `json:"status"`
	Data   struct {
		RecipientCode string `json:"recipient_code"`
	} `json:"data"`
	Message string `json:"message"`
}

// CreateRecipient registers a payout destination and returns its token.
func (c *Client) CreateRecipient(ctx context.Context, account types.BankAccount) (string, error) {
	payload := recipientRequest{
		Type:          "nuban",
		Name:          account.AccountName,
		AccountNumber: account.AccountNumber,
		BankCode:      account.BankCode,
		Currency:      "NGN",
	}

	var resp recipientResponse
	if err := c.post(ctx, "/transferrecipient", payload, &resp); err != nil {
		return "", err
	}
	if resp.Data.RecipientCode == "" {
		return "", &GatewayError{StatusCode: http.StatusOK, Message: "missing recipient code in response"}
	}
	return resp.Data.RecipientCode, nil
}

type transferRequest struct {
	Source    string `json:"source"`
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
}

type transferResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Reference    string `json:"reference"`
		TransferCode string `json:"transfer_code"`
	} `json:"data"`
	Message string `json:"message"`
}

// Transfer moves amount (major units) to the recipient and returns the
// transfer reference. Each logical transfer carries one client-generated
// reference, reused verbatim across retries, so the gateway deduplicates a
// replayed POST whose first attempt landed but timed out on the way back.
func (c *Client) Transfer(ctx context.Context, recipient string, amount float64, memo string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("transfer amount must be positive")
	}
	payload := transferRequest{
		Source:    "balance",
		Amount:    int64(math.Round(amount * 100)),
		Recipient: recipient,
		Reason:    memo,
		Reference: c.newReference(),
	}

	var resp transferResponse
	if err := c.post(ctx, "/transfer", payload, &resp); err != nil {
		return "", err
	}
	reference := resp.Data.Reference
	if reference == "" {
		reference = payload.Reference
	}
	return reference, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Network failures are worth retrying; transfer payloads carry
			// a client reference the gateway deduplicates on.
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}

		if resp.StatusCode >= 500 {
			return retry.RetryableError(&GatewayError{
				StatusCode: resp.StatusCode,
				Message:    gatewayMessage(raw),
			})
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &GatewayError{
				StatusCode: resp.StatusCode,
				Message:    gatewayMessage(raw),
			}
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

func gatewayMessage(raw []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
