package contract

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PurchaseInfo is the context a contract evaluates against
type PurchaseInfo struct {
	MCC        string          `json:"mcc"`
	Cost       decimal.Decimal `json:"cost"`
	MerchantID string          `json:"merchant_id"`
	CardNumber string          `json:"card_number"`
}

// MaxPurchaseAmount is the absolute ceiling applied to every purchase,
// independent of any contract.
var MaxPurchaseAmount = decimal.NewFromInt(1000000)

// RuleCheck is the result of the basic upstream purchase validation
type RuleCheck struct {
	Allowed      bool           `json:"allowed"`
	Reason       string         `json:"reason,omitempty"`
	RulesChecked []string       `json:"rules_checked"`
	Details      map[string]any `json:"details,omitempty"`
}

// BasicPurchaseCheck validates the purchase amount: it must be positive
// and below the absolute ceiling. Contract-specific rules run separately.
func BasicPurchaseCheck(purchase PurchaseInfo) RuleCheck {
	check := RuleCheck{
		RulesChecked: []string{"Amount validation"},
		Details:      map[string]any{},
	}

	switch {
	case purchase.Cost.LessThanOrEqual(decimal.Zero):
		check.Details["amount_check"] = "Amount must be positive"
	case purchase.Cost.GreaterThan(MaxPurchaseAmount):
		check.Details["amount_check"] = fmt.Sprintf("Amount %s exceeds maximum limit", purchase.Cost)
	default:
		check.Allowed = true
		check.Details["amount_check"] = fmt.Sprintf("Amount %s is valid", purchase.Cost)
	}

	if !check.Allowed {
		check.Reason = "Basic validation failed"
	}
	return check
}
