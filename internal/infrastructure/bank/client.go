package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/grantflow/backend/internal/domain/payment"
	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/grantflow/backend/internal/infrastructure/config"
)

// Client talks to the external bank service over HTTP. It implements
// payment.Gateway.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	logger     *zap.Logger
}

// NewClient creates a bank API client from configuration
func NewClient(cfg config.BankConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		maxRetries: cfg.MaxRetries,
		logger:     logger.Named("bank"),
	}
}

type depositRequest struct {
	Amount     float64 `json:"amount"`
	CardNumber string  `json:"card_number"`
}

type transferRequest struct {
	Amount      float64 `json:"amount"`
	FromCard    string  `json:"from_card"`
	ToCard      string  `json:"to_card"`
	Description string  `json:"description,omitempty"`
}

type transactionResponse struct {
	TransactionID string    `json:"transaction_id"`
	Type          string    `json:"type"`
	Amount        float64   `json:"amount"`
	CardNumber    string    `json:"card_number"`
	Timestamp     time.Time `json:"timestamp"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
}

type balanceResponse struct {
	CardNumber string  `json:"card_number"`
	Balance    float64 `json:"balance"`
	Currency   string  `json:"currency"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Deposit credits an account, creating it at the bank if needed
func (c *Client) Deposit(ctx context.Context, cardNumber string, amount decimal.Decimal, reference string) (*payment.Transaction, error) {
	body := depositRequest{Amount: amount.InexactFloat64(), CardNumber: cardNumber}

	var resp transactionResponse
	if err := c.post(ctx, "/deposit", body, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug("deposit executed",
		zap.String("transaction_id", resp.TransactionID),
		zap.String("reference", reference))
	return toTransaction(resp), nil
}

// Transfer moves funds between two accounts
func (c *Client) Transfer(ctx context.Context, fromCard, toCard string, amount decimal.Decimal, reference string) (*payment.Transaction, error) {
	body := transferRequest{
		Amount:      amount.InexactFloat64(),
		FromCard:    fromCard,
		ToCard:      toCard,
		Description: reference,
	}

	var resp transactionResponse
	if err := c.post(ctx, "/transfer", body, &resp); err != nil {
		return nil, err
	}
	return toTransaction(resp), nil
}

// GetBalance returns the current balance of an account
func (c *Client) GetBalance(ctx context.Context, cardNumber string) (*payment.Balance, error) {
	var resp balanceResponse
	if err := c.get(ctx, "/balance/"+url.PathEscape(cardNumber), &resp); err != nil {
		return nil, err
	}
	return &payment.Balance{
		CardNumber: resp.CardNumber,
		Balance:    decimal.NewFromFloat(resp.Balance),
		Currency:   resp.Currency,
	}, nil
}

// GetTransactions returns the transaction history of an account
func (c *Client) GetTransactions(ctx context.Context, cardNumber string) ([]payment.Transaction, error) {
	var resp []transactionResponse
	if err := c.get(ctx, "/transactions/"+url.PathEscape(cardNumber), &resp); err != nil {
		return nil, err
	}

	transactions := make([]payment.Transaction, 0, len(resp))
	for _, tx := range resp {
		transactions = append(transactions, *toTransaction(tx))
	}
	return transactions, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, payload, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// do executes a request with retries on transport errors. HTTP errors
// from the bank are not retried.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("bank request failed",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		return c.decode(resp, out)
	}
	c.logger.Error("bank unreachable", zap.String("path", path), zap.Error(lastErr))
	return payment.ErrBankUnavailable
}

func (c *Client) decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return payment.ErrBankUnavailable
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var bankErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&bankErr); err != nil || bankErr.Detail == "" {
			return shared.NewDomainError("BANK_REJECTED", fmt.Sprintf("Bank returned status %d", resp.StatusCode))
		}
		return shared.NewDomainError("BANK_REJECTED", bankErr.Detail)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode bank response: %w", err)
	}
	return nil
}

func toTransaction(resp transactionResponse) *payment.Transaction {
	return &payment.Transaction{
		TransactionID: resp.TransactionID,
		Status:        resp.Status,
		Amount:        decimal.NewFromFloat(resp.Amount),
		Type:          payment.TransactionType(resp.Type),
		Timestamp:     resp.Timestamp,
	}
}
