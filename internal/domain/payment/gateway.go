package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grantflow/backend/internal/domain/shared"
)

// TransactionType classifies a bank transaction
type TransactionType string

const (
	TransactionDeposit  TransactionType = "deposit"
	TransactionTransfer TransactionType = "transfer"
	TransactionPayment  TransactionType = "payment"
)

// Transaction is the bank's record of a money movement
type Transaction struct {
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Type          TransactionType `json:"type"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Succeeded reports whether the bank accepted the transaction
func (t *Transaction) Succeeded() bool {
	switch t.Status {
	case "completed", "success", "deposited":
		return true
	}
	return false
}

// Balance is an account balance snapshot
type Balance struct {
	CardNumber string          `json:"card_number"`
	Balance    decimal.Decimal `json:"balance"`
	Currency   string          `json:"currency"`
}

// Gateway is the port to the external bank API. Implementations live in
// infrastructure; the process entry point constructs one and passes it in
// explicitly.
type Gateway interface {
	Deposit(ctx context.Context, cardNumber string, amount decimal.Decimal, reference string) (*Transaction, error)
	Transfer(ctx context.Context, fromCard, toCard string, amount decimal.Decimal, reference string) (*Transaction, error)
	GetBalance(ctx context.Context, cardNumber string) (*Balance, error)
	GetTransactions(ctx context.Context, cardNumber string) ([]Transaction, error)
}

// Upstream failures surfaced by gateway implementations
var (
	ErrBankUnavailable   = shared.NewDomainError("BANK_UNAVAILABLE", "Bank API is unavailable")
	ErrInsufficientFunds = shared.NewDomainError("INSUFFICIENT_FUNDS", "Insufficient funds on the account")
)
