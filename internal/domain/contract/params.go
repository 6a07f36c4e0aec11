package contract

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grantflow/backend/internal/domain/shared"
)

// ContractType is the closed set of payment contract kinds. Adding a kind
// means extending ParseParams and the evaluation switch; the compiler and
// the UnknownContractType branch keep the set in sync.
type ContractType string

const (
	TypeMCCLimit        ContractType = "mcc_limit"
	TypeMerchantBlock   ContractType = "merchant_block"
	TypeAmountLimit     ContractType = "amount_limit"
	TypeTimeRestriction ContractType = "time_restriction"
	TypeCardRestriction ContractType = "card_restriction"
)

// IsValid returns true for a known contract type
func (t ContractType) IsValid() bool {
	switch t {
	case TypeMCCLimit, TypeMerchantBlock, TypeAmountLimit, TypeTimeRestriction, TypeCardRestriction:
		return true
	}
	return false
}

// NewUnknownContractTypeError reports an unrecognized contract type
func NewUnknownContractTypeError(t ContractType) *shared.DomainError {
	return shared.NewDomainError("UNKNOWN_CONTRACT_TYPE", fmt.Sprintf("Unknown contract type: %s", t))
}

func newParamsError(message string) *shared.DomainError {
	return shared.NewDomainError("INVALID_CONTRACT_PARAMS", message)
}

// Params is the tagged-variant interface over the five contract kinds.
// Validation happens in ParseParams; evaluation is a total function over
// (params, purchase, now).
type Params interface {
	ContractType() ContractType
	// Applies reports whether the contract covers the given card
	Applies(cardNumber string) bool
	// Evaluate decides whether a purchase passes this contract. The clock
	// is passed in so evaluation stays pure.
	Evaluate(purchase PurchaseInfo, now time.Time) Evaluation
	// Map returns the normalized parameter set for storage
	Map() ParameterSet
}

// Applicability is the card scope shared by every contract type.
// "all" covers every card.
type Applicability struct {
	ApplicableCards []string `json:"applicable_cards"`
}

// Applies returns true if the scope contains "all" or the literal card
func (a Applicability) Applies(cardNumber string) bool {
	for _, card := range a.ApplicableCards {
		if card == "all" || card == cardNumber {
			return true
		}
	}
	return false
}

// MCCLimitParams restricts purchases by merchant category code
type MCCLimitParams struct {
	Applicability
	AllowedMCC []string `json:"allowed_mcc"`
	BlockedMCC []string `json:"blocked_mcc"`
}

func (MCCLimitParams) ContractType() ContractType { return TypeMCCLimit }

// MerchantBlockParams blocks purchases at specific merchants
type MerchantBlockParams struct {
	Applicability
	BlockedMerchants []string `json:"blocked_merchants"`
}

func (MerchantBlockParams) ContractType() ContractType { return TypeMerchantBlock }

// AmountLimitParams caps the purchase amount
type AmountLimitParams struct {
	Applicability
	MaxAmount decimal.Decimal `json:"max_amount"`
}

func (AmountLimitParams) ContractType() ContractType { return TypeAmountLimit }

// TimeRestrictionParams blocks purchases during specific hours of the day
type TimeRestrictionParams struct {
	Applicability
	RestrictedHours []int `json:"restricted_hours"`
}

func (TimeRestrictionParams) ContractType() ContractType { return TypeTimeRestriction }

// CardRestrictionParams restricts purchases to specific cards
type CardRestrictionParams struct {
	Applicability
	AllowedCards []string `json:"allowed_cards"`
	BlockedCards []string `json:"blocked_cards"`
}

func (CardRestrictionParams) ContractType() ContractType { return TypeCardRestriction }

// ParseParams validates a raw parameter set against a contract type and
// returns the typed variant with defaults applied. Parameter sets arrive
// as generic JSON maps (from API requests or the database) and every
// coercion failure surfaces as a validation error naming the field.
func ParseParams(contractType ContractType, raw map[string]any) (Params, error) {
	applicability, err := parseApplicability(raw)
	if err != nil {
		return nil, err
	}

	switch contractType {
	case TypeMCCLimit:
		allowed, ok := stringList(raw["allowed_mcc"])
		if !ok {
			return nil, newParamsError("MCC limit contract requires 'allowed_mcc' list")
		}
		blocked, _ := stringList(raw["blocked_mcc"])
		if blocked == nil {
			blocked = []string{}
		}
		return MCCLimitParams{Applicability: applicability, AllowedMCC: allowed, BlockedMCC: blocked}, nil

	case TypeMerchantBlock:
		blocked, ok := stringList(raw["blocked_merchants"])
		if !ok {
			return nil, newParamsError("Merchant block contract requires 'blocked_merchants' list")
		}
		return MerchantBlockParams{Applicability: applicability, BlockedMerchants: blocked}, nil

	case TypeAmountLimit:
		max, ok := number(raw["max_amount"])
		if !ok {
			return nil, newParamsError("Amount limit contract requires 'max_amount' number")
		}
		return AmountLimitParams{Applicability: applicability, MaxAmount: max}, nil

	case TypeTimeRestriction:
		hours, ok := intList(raw["restricted_hours"])
		if !ok {
			return nil, newParamsError("Time restriction contract requires 'restricted_hours' list")
		}
		for _, hour := range hours {
			if hour < 0 || hour > 23 {
				return nil, newParamsError("Restricted hours must be integers between 0 and 23")
			}
		}
		return TimeRestrictionParams{Applicability: applicability, RestrictedHours: hours}, nil

	case TypeCardRestriction:
		allowed, ok := stringList(raw["allowed_cards"])
		if !ok {
			return nil, newParamsError("Card restriction contract requires 'allowed_cards' list")
		}
		blocked, _ := stringList(raw["blocked_cards"])
		if blocked == nil {
			blocked = []string{}
		}
		return CardRestrictionParams{Applicability: applicability, AllowedCards: allowed, BlockedCards: blocked}, nil
	}

	return nil, NewUnknownContractTypeError(contractType)
}

// parseApplicability reads applicable_cards, defaulting to ["all"]
func parseApplicability(raw map[string]any) (Applicability, error) {
	value, present := raw["applicable_cards"]
	if !present || value == nil {
		return Applicability{ApplicableCards: []string{"all"}}, nil
	}
	cards, ok := stringList(value)
	if !ok {
		return Applicability{}, newParamsError("applicable_cards must be a list")
	}
	return Applicability{ApplicableCards: cards}, nil
}

// stringList coerces a JSON value into a list of strings. Numeric elements
// (e.g. MCC codes sent as numbers) are rendered in decimal form.
func stringList(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			switch e := item.(type) {
			case string:
				out = append(out, e)
			case float64:
				out = append(out, decimal.NewFromFloat(e).String())
			case int:
				out = append(out, fmt.Sprintf("%d", e))
			default:
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}

// intList coerces a JSON value into a list of integers
func intList(value any) ([]int, bool) {
	switch v := value.(type) {
	case []int:
		out := make([]int, len(v))
		copy(out, v)
		return out, true
	case []any:
		out := make([]int, 0, len(v))
		for _, item := range v {
			switch e := item.(type) {
			case int:
				out = append(out, e)
			case float64:
				if e != float64(int(e)) {
					return nil, false
				}
				out = append(out, int(e))
			default:
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}

// number coerces a JSON value into a decimal
func number(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case decimal.Decimal:
		return v, true
	}
	return decimal.Zero, false
}
