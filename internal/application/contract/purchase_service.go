package contract

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/grantflow/backend/internal/domain/contract"
	"github.com/grantflow/backend/internal/domain/payment"
)

// PurchaseService validates purchases against the active payment
// contracts and settles approved ones through the bank gateway.
type PurchaseService struct {
	contractRepo contract.Repository
	gateway      payment.Gateway
	logger       *zap.Logger
	now          func() time.Time
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(contractRepo contract.Repository, gateway payment.Gateway, logger *zap.Logger) *PurchaseService {
	return &PurchaseService{
		contractRepo: contractRepo,
		gateway:      gateway,
		logger:       logger,
		now:          time.Now,
	}
}

// CheckPurchase runs the basic amount validation plus every active
// contract covering the purchase card. The first failing rule decides
// the outcome; every executed rule is listed either way.
func (s *PurchaseService) CheckPurchase(ctx context.Context, purchase contract.PurchaseInfo) (*contract.RuleCheck, error) {
	check := contract.BasicPurchaseCheck(purchase)
	if !check.Allowed {
		return &check, nil
	}

	active, err := s.contractRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load contracts: %w", err)
	}

	now := s.now()
	for i := range active {
		c := &active[i]
		applies, err := c.AppliesTo(purchase.CardNumber)
		if err != nil {
			s.logger.Warn("skipping contract with unreadable parameters",
				zap.String("contract_id", c.GetID().String()),
				zap.Error(err))
			continue
		}
		if !applies {
			continue
		}

		check.RulesChecked = append(check.RulesChecked, c.Name)
		result, err := c.Execute(purchase, now)
		if err != nil {
			return nil, fmt.Errorf("failed to execute contract %s: %w", c.GetID(), err)
		}
		if !result.Allowed {
			check.Allowed = false
			check.Reason = result.Reason
			check.Details[c.Name] = result.Details
			return &check, nil
		}
	}
	return &check, nil
}

// PurchaseResult reports the outcome of a processed purchase
type PurchaseResult struct {
	Allowed       bool                 `json:"allowed"`
	Reason        string               `json:"reason,omitempty"`
	RulesChecked  []string             `json:"rules_checked"`
	TransactionID string               `json:"transaction_id,omitempty"`
	Transaction   *payment.Transaction `json:"transaction,omitempty"`
}

// ProcessPurchase validates the purchase and, when allowed, checks the
// card balance and transfers the amount to the merchant settlement
// account.
func (s *PurchaseService) ProcessPurchase(ctx context.Context, purchase contract.PurchaseInfo) (*PurchaseResult, error) {
	check, err := s.CheckPurchase(ctx, purchase)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		return &PurchaseResult{Allowed: false, Reason: check.Reason, RulesChecked: check.RulesChecked}, nil
	}
	return s.settle(ctx, purchase, check.RulesChecked)
}

// ProcessPurchaseWithContract validates the purchase against one specific
// contract instead of the full active set, then settles it.
func (s *PurchaseService) ProcessPurchaseWithContract(ctx context.Context, contractID uuid.UUID, purchase contract.PurchaseInfo) (*PurchaseResult, error) {
	check := contract.BasicPurchaseCheck(purchase)
	if !check.Allowed {
		return &PurchaseResult{Allowed: false, Reason: check.Reason, RulesChecked: check.RulesChecked}, nil
	}

	c, err := s.contractRepo.FindByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if c == nil {
		return nil, contract.ErrContractNotFound
	}

	check.RulesChecked = append(check.RulesChecked, c.Name)
	result, err := c.Execute(purchase, s.now())
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		return &PurchaseResult{Allowed: false, Reason: result.Reason, RulesChecked: check.RulesChecked}, nil
	}
	return s.settle(ctx, purchase, check.RulesChecked)
}

// settle checks the card balance and transfers the purchase amount to the
// merchant settlement account.
func (s *PurchaseService) settle(ctx context.Context, purchase contract.PurchaseInfo, rulesChecked []string) (*PurchaseResult, error) {
	balance, err := s.gateway.GetBalance(ctx, purchase.CardNumber)
	if err != nil {
		s.logger.Error("balance check failed",
			zap.String("card_number", purchase.CardNumber),
			zap.Error(err))
		return nil, err
	}
	if balance.Balance.LessThan(purchase.Cost) {
		return &PurchaseResult{
			Allowed:      false,
			Reason:       fmt.Sprintf("Insufficient funds. Balance: %s, Required: %s", balance.Balance.String(), purchase.Cost.String()),
			RulesChecked: rulesChecked,
		}, nil
	}

	merchantAccount := fmt.Sprintf("MERCHANT_%s", purchase.MerchantID)
	reference := fmt.Sprintf("Purchase at %s", purchase.MerchantID)

	tx, err := s.gateway.Transfer(ctx, purchase.CardNumber, merchantAccount, purchase.Cost, reference)
	if err != nil {
		s.logger.Error("purchase settlement failed",
			zap.String("merchant_id", purchase.MerchantID),
			zap.Error(err))
		return nil, err
	}
	if !tx.Succeeded() {
		return &PurchaseResult{
			Allowed:      false,
			Reason:       fmt.Sprintf("Bank rejected the transfer: %s", tx.Status),
			RulesChecked: rulesChecked,
			Transaction:  tx,
		}, nil
	}

	s.logger.Info("purchase settled",
		zap.String("merchant_id", purchase.MerchantID),
		zap.String("amount", purchase.Cost.String()),
		zap.String("bank_transaction", tx.TransactionID))

	return &PurchaseResult{
		Allowed:       true,
		RulesChecked:  rulesChecked,
		TransactionID: tx.TransactionID,
		Transaction:   tx,
	}, nil
}

// Deposit moves funds onto a card through the bank
func (s *PurchaseService) Deposit(ctx context.Context, cardNumber string, amount decimal.Decimal, reference string) (*payment.Transaction, error) {
	return s.gateway.Deposit(ctx, cardNumber, amount, reference)
}

// Transfer moves funds between two cards through the bank
func (s *PurchaseService) Transfer(ctx context.Context, fromCard, toCard string, amount decimal.Decimal, reference string) (*payment.Transaction, error) {
	return s.gateway.Transfer(ctx, fromCard, toCard, amount, reference)
}

// GetBalance returns a card balance from the bank
func (s *PurchaseService) GetBalance(ctx context.Context, cardNumber string) (*payment.Balance, error) {
	return s.gateway.GetBalance(ctx, cardNumber)
}

// GetTransactions returns the bank transaction history of a card
func (s *PurchaseService) GetTransactions(ctx context.Context, cardNumber string) ([]payment.Transaction, error) {
	return s.gateway.GetTransactions(ctx, cardNumber)
}
