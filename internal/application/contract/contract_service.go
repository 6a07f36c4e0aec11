package contract

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grantflow/backend/internal/domain/contract"
	"github.com/grantflow/backend/internal/domain/shared"
)

// ContractService manages payment contracts and runs individual
// contract evaluations.
type ContractService struct {
	contractRepo contract.Repository
	logger       *zap.Logger
	now          func() time.Time
}

// NewContractService creates a new ContractService
func NewContractService(contractRepo contract.Repository, logger *zap.Logger) *ContractService {
	return &ContractService{
		contractRepo: contractRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateContractRequest carries the fields of a new payment contract
type CreateContractRequest struct {
	Name         string
	ContractType contract.ContractType
	Parameters   map[string]any
	Description  string
}

// CreateContract validates and stores a new payment contract
func (s *ContractService) CreateContract(ctx context.Context, req CreateContractRequest) (*contract.PaymentContract, error) {
	c, err := contract.NewPaymentContract(req.Name, req.ContractType, req.Parameters, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.contractRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}

	s.logger.Info("payment contract created",
		zap.String("contract_id", c.GetID().String()),
		zap.String("contract_type", string(c.ContractType)))
	return c, nil
}

// GetContract returns a contract by id
func (s *ContractService) GetContract(ctx context.Context, id uuid.UUID) (*contract.PaymentContract, error) {
	c, err := s.contractRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if c == nil {
		return nil, contract.ErrContractNotFound
	}
	return c, nil
}

// ListContracts returns all contracts
func (s *ContractService) ListContracts(ctx context.Context, filter shared.Filter) ([]contract.PaymentContract, error) {
	contracts, err := s.contractRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return contracts, nil
}

// DeleteContract removes a contract
func (s *ContractService) DeleteContract(ctx context.Context, id uuid.UUID) error {
	c, err := s.contractRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load contract: %w", err)
	}
	if c == nil {
		return contract.ErrContractNotFound
	}
	if err := s.contractRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}

	s.logger.Info("payment contract deleted", zap.String("contract_id", id.String()))
	return nil
}

// ExecuteContract runs one contract against a purchase context
func (s *ContractService) ExecuteContract(ctx context.Context, id uuid.UUID, purchase contract.PurchaseInfo) (*contract.Evaluation, error) {
	c, err := s.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}
	result, err := c.Execute(purchase, s.now())
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ContractsForCard returns the active contracts covering a card
func (s *ContractService) ContractsForCard(ctx context.Context, cardNumber string) ([]contract.PaymentContract, error) {
	active, err := s.contractRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load contracts: %w", err)
	}

	matched := make([]contract.PaymentContract, 0, len(active))
	for i := range active {
		applies, err := active[i].AppliesTo(cardNumber)
		if err != nil {
			s.logger.Warn("skipping contract with unreadable parameters",
				zap.String("contract_id", active[i].GetID().String()),
				zap.Error(err))
			continue
		}
		if applies {
			matched = append(matched, active[i])
		}
	}
	return matched, nil
}
