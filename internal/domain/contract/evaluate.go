package contract

import (
	"fmt"
	"time"
)

// Evaluation is the outcome of running a contract against a purchase.
// Details echo the parameters and the observed value for audit purposes.
type Evaluation struct {
	Allowed bool           `json:"allowed"`
	Reason  string         `json:"reason"`
	Details map[string]any `json:"details,omitempty"`
}

func allow(reason string) Evaluation {
	return Evaluation{Allowed: true, Reason: reason}
}

func deny(reason string, details map[string]any) Evaluation {
	return Evaluation{Allowed: false, Reason: reason, Details: details}
}

// Evaluate checks the purchase MCC against the allowed and blocked lists
func (p MCCLimitParams) Evaluate(purchase PurchaseInfo, _ time.Time) Evaluation {
	if len(p.AllowedMCC) > 0 && !containsString(p.AllowedMCC, purchase.MCC) {
		return deny(
			fmt.Sprintf("MCC %s not in allowed list", purchase.MCC),
			map[string]any{"allowed_mcc": p.AllowedMCC, "current_mcc": purchase.MCC},
		)
	}
	if containsString(p.BlockedMCC, purchase.MCC) {
		return deny(
			fmt.Sprintf("MCC %s is blocked", purchase.MCC),
			map[string]any{"blocked_mcc": p.BlockedMCC, "current_mcc": purchase.MCC},
		)
	}
	return allow("MCC check passed")
}

// Evaluate blocks purchases at blacklisted merchants
func (p MerchantBlockParams) Evaluate(purchase PurchaseInfo, _ time.Time) Evaluation {
	if containsString(p.BlockedMerchants, purchase.MerchantID) {
		return deny(
			fmt.Sprintf("Merchant %s is blocked", purchase.MerchantID),
			map[string]any{"blocked_merchants": p.BlockedMerchants, "current_merchant": purchase.MerchantID},
		)
	}
	return allow("Merchant check passed")
}

// Evaluate caps the purchase cost at the configured maximum
func (p AmountLimitParams) Evaluate(purchase PurchaseInfo, _ time.Time) Evaluation {
	if purchase.Cost.GreaterThan(p.MaxAmount) {
		return deny(
			fmt.Sprintf("Amount %s exceeds limit %s", purchase.Cost, p.MaxAmount),
			map[string]any{"max_amount": p.MaxAmount, "current_amount": purchase.Cost},
		)
	}
	return allow("Amount check passed")
}

// Evaluate blocks purchases during restricted hours. The hour is taken
// from the supplied clock, not from the purchase.
func (p TimeRestrictionParams) Evaluate(_ PurchaseInfo, now time.Time) Evaluation {
	currentHour := now.Hour()
	for _, hour := range p.RestrictedHours {
		if hour == currentHour {
			return deny(
				fmt.Sprintf("Transactions not allowed at hour %d:00", currentHour),
				map[string]any{"restricted_hours": p.RestrictedHours, "current_hour": currentHour},
			)
		}
	}
	return allow("Time check passed")
}

// Evaluate checks the purchase card against the allowed and blocked lists
func (p CardRestrictionParams) Evaluate(purchase PurchaseInfo, _ time.Time) Evaluation {
	if len(p.AllowedCards) > 0 && !containsString(p.AllowedCards, purchase.CardNumber) {
		return deny(
			fmt.Sprintf("Card %s not in allowed list", purchase.CardNumber),
			map[string]any{"allowed_cards": p.AllowedCards, "current_card": purchase.CardNumber},
		)
	}
	if containsString(p.BlockedCards, purchase.CardNumber) {
		return deny(
			fmt.Sprintf("Card %s is blocked", purchase.CardNumber),
			map[string]any{"blocked_cards": p.BlockedCards, "current_card": purchase.CardNumber},
		)
	}
	return allow("Card check passed")
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
