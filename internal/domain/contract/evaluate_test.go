package contract

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var noon = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func testPurchase() PurchaseInfo {
	return PurchaseInfo{
		MCC:        "5411",
		Cost:       decimal.NewFromInt(100),
		MerchantID: "MERCH-1",
		CardNumber: "4111111111111111",
	}
}

func TestMCCLimitEvaluate(t *testing.T) {
	params := MCCLimitParams{
		Applicability: Applicability{ApplicableCards: []string{"all"}},
		AllowedMCC:    []string{"5411"},
		BlockedMCC:    []string{"5812"},
	}

	t.Run("allows listed mcc", func(t *testing.T) {
		result := params.Evaluate(testPurchase(), noon)
		assert.True(t, result.Allowed)
		assert.Equal(t, "MCC check passed", result.Reason)
	})

	t.Run("denies unlisted mcc", func(t *testing.T) {
		purchase := testPurchase()
		purchase.MCC = "7995"
		result := params.Evaluate(purchase, noon)
		assert.False(t, result.Allowed)
		assert.Equal(t, "MCC 7995 not in allowed list", result.Reason)
		assert.Equal(t, "7995", result.Details["current_mcc"])
	})

	t.Run("block list wins when allow list empty", func(t *testing.T) {
		blockOnly := MCCLimitParams{BlockedMCC: []string{"5812"}}
		purchase := testPurchase()
		purchase.MCC = "5812"
		result := blockOnly.Evaluate(purchase, noon)
		assert.False(t, result.Allowed)
		assert.Equal(t, "MCC 5812 is blocked", result.Reason)
	})
}

func TestMerchantBlockEvaluate(t *testing.T) {
	params := MerchantBlockParams{BlockedMerchants: []string{"MERCH-9"}}

	t.Run("allows unblocked merchant", func(t *testing.T) {
		result := params.Evaluate(testPurchase(), noon)
		assert.True(t, result.Allowed)
		assert.Equal(t, "Merchant check passed", result.Reason)
	})

	t.Run("denies blocked merchant", func(t *testing.T) {
		purchase := testPurchase()
		purchase.MerchantID = "MERCH-9"
		result := params.Evaluate(purchase, noon)
		assert.False(t, result.Allowed)
		assert.Equal(t, "Merchant MERCH-9 is blocked", result.Reason)
	})
}

func TestAmountLimitEvaluate(t *testing.T) {
	params := AmountLimitParams{MaxAmount: decimal.RequireFromString("150")}

	t.Run("allows amount at limit", func(t *testing.T) {
		purchase := testPurchase()
		purchase.Cost = decimal.NewFromInt(150)
		result := params.Evaluate(purchase, noon)
		assert.True(t, result.Allowed)
	})

	t.Run("denies amount over limit", func(t *testing.T) {
		purchase := testPurchase()
		purchase.Cost = decimal.RequireFromString("150.01")
		result := params.Evaluate(purchase, noon)
		assert.False(t, result.Allowed)
		assert.Equal(t, "Amount 150.01 exceeds limit 150", result.Reason)
	})
}

func TestTimeRestrictionEvaluate(t *testing.T) {
	params := TimeRestrictionParams{RestrictedHours: []int{0, 1, 2, 3}}

	t.Run("allows outside restricted hours", func(t *testing.T) {
		result := params.Evaluate(testPurchase(), noon)
		assert.True(t, result.Allowed)
		assert.Equal(t, "Time check passed", result.Reason)
	})

	t.Run("denies during restricted hour", func(t *testing.T) {
		twoAM := time.Date(2026, 3, 15, 2, 30, 0, 0, time.UTC)
		result := params.Evaluate(testPurchase(), twoAM)
		assert.False(t, result.Allowed)
		assert.Equal(t, "Transactions not allowed at hour 2:00", result.Reason)
		assert.Equal(t, 2, result.Details["current_hour"])
	})
}

func TestCardRestrictionEvaluate(t *testing.T) {
	t.Run("allow list excludes other cards", func(t *testing.T) {
		params := CardRestrictionParams{AllowedCards: []string{"4222"}}
		result := params.Evaluate(testPurchase(), noon)
		assert.False(t, result.Allowed)
		assert.Equal(t, "Card 4111111111111111 not in allowed list", result.Reason)
	})

	t.Run("block list denies listed card", func(t *testing.T) {
		params := CardRestrictionParams{BlockedCards: []string{"4111111111111111"}}
		result := params.Evaluate(testPurchase(), noon)
		assert.False(t, result.Allowed)
		assert.Equal(t, "Card 4111111111111111 is blocked", result.Reason)
	})

	t.Run("passes when unrestricted", func(t *testing.T) {
		params := CardRestrictionParams{}
		result := params.Evaluate(testPurchase(), noon)
		assert.True(t, result.Allowed)
		assert.Equal(t, "Card check passed", result.Reason)
	})
}
