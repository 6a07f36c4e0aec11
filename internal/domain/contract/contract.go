package contract

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/grantflow/backend/internal/domain/shared"
)

// ContractStatus is the lifecycle status of a payment contract
type ContractStatus string

const (
	StatusActive   ContractStatus = "active"
	StatusInactive ContractStatus = "inactive"
)

// ErrContractNotFound reports an unknown contract id
var ErrContractNotFound = shared.NewDomainError("CONTRACT_NOT_FOUND", "Contract not found")

// ParameterSet is the stored shape of contract parameters: a JSON object
// validated at write time by ParseParams and opaque to the database.
type ParameterSet map[string]any

// Value implements driver.Valuer for JSON column storage
func (p ParameterSet) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSON column storage
func (p *ParameterSet) Scan(value any) error {
	if value == nil {
		*p = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	}
	return fmt.Errorf("unsupported type %T for ParameterSet", value)
}

// PaymentContract is a named, parameterized rule set evaluated against a
// purchase context. Contracts are not structurally bound to grant stages;
// the binding is the contract-gated convention on requirements.
type PaymentContract struct {
	shared.BaseAggregateRoot
	Name         string         `gorm:"type:varchar(255);not null"`
	ContractType ContractType   `gorm:"type:varchar(30);not null;index"`
	Parameters   ParameterSet   `gorm:"type:jsonb;not null"`
	Description  string         `gorm:"type:varchar(500)"`
	Status       ContractStatus `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (PaymentContract) TableName() string {
	return "payment_contracts"
}

// NewPaymentContract validates the raw parameters against the contract
// type and stores the normalized set (defaults applied)
func NewPaymentContract(name string, contractType ContractType, rawParams map[string]any, description string) (*PaymentContract, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Contract name cannot be empty")
	}
	params, err := ParseParams(contractType, rawParams)
	if err != nil {
		return nil, err
	}

	return &PaymentContract{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		ContractType:      contractType,
		Parameters:        params.Map(),
		Description:       description,
		Status:            StatusActive,
	}, nil
}

// Params parses the stored parameter set back into its typed variant
func (c *PaymentContract) Params() (Params, error) {
	return ParseParams(c.ContractType, c.Parameters)
}

// AppliesTo reports whether the contract covers the given card
func (c *PaymentContract) AppliesTo(cardNumber string) (bool, error) {
	params, err := c.Params()
	if err != nil {
		return false, err
	}
	return params.Applies(cardNumber), nil
}

// Execute evaluates the contract against a purchase. A contract that does
// not apply to the purchase card is transparently skipped: it reports
// allowed with a not-applicable reason rather than blocking.
func (c *PaymentContract) Execute(purchase PurchaseInfo, now time.Time) (Evaluation, error) {
	params, err := c.Params()
	if err != nil {
		return Evaluation{}, err
	}
	if !params.Applies(purchase.CardNumber) {
		return Evaluation{
			Allowed: true,
			Reason:  fmt.Sprintf("Card %s not in applicable cards list", purchase.CardNumber),
			Details: map[string]any{"applicable": false},
		}, nil
	}
	return params.Evaluate(purchase, now), nil
}

// Map returns the normalized parameter set for storage
func (p MCCLimitParams) Map() ParameterSet {
	return ParameterSet{
		"applicable_cards": p.ApplicableCards,
		"allowed_mcc":      p.AllowedMCC,
		"blocked_mcc":      p.BlockedMCC,
	}
}

// Map returns the normalized parameter set for storage
func (p MerchantBlockParams) Map() ParameterSet {
	return ParameterSet{
		"applicable_cards":  p.ApplicableCards,
		"blocked_merchants": p.BlockedMerchants,
	}
}

// Map returns the normalized parameter set for storage
func (p AmountLimitParams) Map() ParameterSet {
	return ParameterSet{
		"applicable_cards": p.ApplicableCards,
		"max_amount":       p.MaxAmount.String(),
	}
}

// Map returns the normalized parameter set for storage
func (p TimeRestrictionParams) Map() ParameterSet {
	return ParameterSet{
		"applicable_cards": p.ApplicableCards,
		"restricted_hours": p.RestrictedHours,
	}
}

// Map returns the normalized parameter set for storage
func (p CardRestrictionParams) Map() ParameterSet {
	return ParameterSet{
		"applicable_cards": p.ApplicableCards,
		"allowed_cards":    p.AllowedCards,
		"blocked_cards":    p.BlockedCards,
	}
}

// Repository persists payment contracts. Finders return (nil, nil) when
// nothing matches.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentContract, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]PaymentContract, error)
	FindActive(ctx context.Context) ([]PaymentContract, error)
	Create(ctx context.Context, contract *PaymentContract) error
	Delete(ctx context.Context, id uuid.UUID) error
}
