package contract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBasicPurchaseCheck(t *testing.T) {
	t.Run("accepts normal amount", func(t *testing.T) {
		purchase := testPurchase()
		check := BasicPurchaseCheck(purchase)
		assert.True(t, check.Allowed)
		assert.Equal(t, []string{"Amount validation"}, check.RulesChecked)
		assert.Equal(t, "Amount 100 is valid", check.Details["amount_check"])
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		purchase := testPurchase()
		purchase.Cost = decimal.Zero
		check := BasicPurchaseCheck(purchase)
		assert.False(t, check.Allowed)
		assert.Equal(t, "Basic validation failed", check.Reason)
		assert.Equal(t, "Amount must be positive", check.Details["amount_check"])
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		purchase := testPurchase()
		purchase.Cost = decimal.NewFromInt(-1)
		check := BasicPurchaseCheck(purchase)
		assert.False(t, check.Allowed)
	})

	t.Run("rejects amount above ceiling", func(t *testing.T) {
		purchase := testPurchase()
		purchase.Cost = decimal.NewFromInt(1000001)
		check := BasicPurchaseCheck(purchase)
		assert.False(t, check.Allowed)
		assert.Equal(t, "Amount 1000001 exceeds maximum limit", check.Details["amount_check"])
	})

	t.Run("accepts amount at ceiling", func(t *testing.T) {
		purchase := testPurchase()
		purchase.Cost = MaxPurchaseAmount
		check := BasicPurchaseCheck(purchase)
		assert.True(t, check.Allowed)
	})
}
