package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	contractapp "github.com/grantflow/backend/internal/application/contract"
	"github.com/grantflow/backend/internal/domain/contract"
	"github.com/grantflow/backend/internal/domain/payment"
	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/grantflow/backend/internal/interfaces/http/dto"
)

type stubContractRepo struct {
	mock.Mock
}

func (m *stubContractRepo) FindByID(ctx context.Context, id uuid.UUID) (*contract.PaymentContract, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*contract.PaymentContract), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *stubContractRepo) FindAll(ctx context.Context, filter shared.Filter) ([]contract.PaymentContract, error) {
	args := m.Called(ctx, filter)
	if c := args.Get(0); c != nil {
		return c.([]contract.PaymentContract), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *stubContractRepo) FindActive(ctx context.Context) ([]contract.PaymentContract, error) {
	args := m.Called(ctx)
	if c := args.Get(0); c != nil {
		return c.([]contract.PaymentContract), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *stubContractRepo) Create(ctx context.Context, c *contract.PaymentContract) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *stubContractRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type purchaseHandlerFixture struct {
	contractRepo *stubContractRepo
	gateway      *stubGateway
	engine       *gin.Engine
}

func newPurchaseHandlerFixture(t *testing.T) *purchaseHandlerFixture {
	t.Helper()
	f := &purchaseHandlerFixture{
		contractRepo: &stubContractRepo{},
		gateway:      &stubGateway{},
	}

	service := contractapp.NewPurchaseService(f.contractRepo, f.gateway, zap.NewNop())

	f.engine = gin.New()
	api := f.engine.Group("/api/v1")
	NewPurchaseHandler(service).RegisterRoutes(api)
	return f
}

func (f *purchaseHandlerFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func mccContract(t *testing.T) *contract.PaymentContract {
	t.Helper()
	c, err := contract.NewPaymentContract("Grocery only", contract.TypeMCCLimit, map[string]any{
		"allowed_mcc": []any{"5411"},
	}, "")
	require.NoError(t, err)
	return c
}

func TestPurchaseHandlerCheck(t *testing.T) {
	t.Run("allows a purchase passing every contract", func(t *testing.T) {
		f := newPurchaseHandlerFixture(t)
		f.contractRepo.On("FindActive", mock.Anything).Return([]contract.PaymentContract{*mccContract(t)}, nil)

		w := f.do("POST", "/api/v1/purchases/check", gin.H{
			"mcc":         "5411",
			"cost":        100.0,
			"merchant_id": "GROCERY-01",
			"card_number": "4111111111111111",
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, true, data["allowed"])
	})

	t.Run("reports the denying contract", func(t *testing.T) {
		f := newPurchaseHandlerFixture(t)
		f.contractRepo.On("FindActive", mock.Anything).Return([]contract.PaymentContract{*mccContract(t)}, nil)

		w := f.do("POST", "/api/v1/purchases/check", gin.H{
			"mcc":         "5999",
			"cost":        100.0,
			"merchant_id": "OTHER-01",
			"card_number": "4111111111111111",
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, false, data["allowed"])
		assert.Contains(t, data["reason"], "MCC 5999 not in allowed list")
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		f := newPurchaseHandlerFixture(t)

		w := f.do("POST", "/api/v1/purchases/check", gin.H{
			"mcc": "5411",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPurchaseHandlerProcess(t *testing.T) {
	t.Run("settles an allowed purchase with the merchant", func(t *testing.T) {
		f := newPurchaseHandlerFixture(t)
		f.contractRepo.On("FindActive", mock.Anything).Return([]contract.PaymentContract{}, nil)
		f.gateway.On("GetBalance", mock.Anything, "4111111111111111").
			Return(&payment.Balance{CardNumber: "4111111111111111", Balance: decimal.NewFromInt(1000)}, nil)
		f.gateway.On("Transfer", mock.Anything, "4111111111111111", "MERCHANT_GROCERY-01", mock.Anything, "Purchase at GROCERY-01").
			Return(&payment.Transaction{TransactionID: "tx-9", Status: "completed"}, nil)

		w := f.do("POST", "/api/v1/purchases/process", gin.H{
			"mcc":         "5411",
			"cost":        100.0,
			"merchant_id": "GROCERY-01",
			"card_number": "4111111111111111",
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, true, data["allowed"])
		assert.Equal(t, "tx-9", data["transaction_id"])
	})

	t.Run("a denied purchase never reaches the bank", func(t *testing.T) {
		f := newPurchaseHandlerFixture(t)
		f.contractRepo.On("FindActive", mock.Anything).Return([]contract.PaymentContract{*mccContract(t)}, nil)

		w := f.do("POST", "/api/v1/purchases/process", gin.H{
			"mcc":         "5999",
			"cost":        100.0,
			"merchant_id": "OTHER-01",
			"card_number": "4111111111111111",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		f.gateway.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("insufficient balance is reported without a transfer", func(t *testing.T) {
		f := newPurchaseHandlerFixture(t)
		f.contractRepo.On("FindActive", mock.Anything).Return([]contract.PaymentContract{}, nil)
		f.gateway.On("GetBalance", mock.Anything, "4111111111111111").
			Return(&payment.Balance{CardNumber: "4111111111111111", Balance: decimal.NewFromInt(20)}, nil)

		w := f.do("POST", "/api/v1/purchases/process", gin.H{
			"mcc":         "5411",
			"cost":        100.0,
			"merchant_id": "GROCERY-01",
			"card_number": "4111111111111111",
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, false, data["allowed"])
		assert.Equal(t, "Insufficient funds. Balance: 20, Required: 100", data["reason"])
		f.gateway.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("502 when the bank is unreachable", func(t *testing.T) {
		f := newPurchaseHandlerFixture(t)
		f.contractRepo.On("FindActive", mock.Anything).Return([]contract.PaymentContract{}, nil)
		f.gateway.On("GetBalance", mock.Anything, mock.Anything).
			Return(&payment.Balance{Balance: decimal.NewFromInt(1000)}, nil)
		f.gateway.On("Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, payment.ErrBankUnavailable)

		w := f.do("POST", "/api/v1/purchases/process", gin.H{
			"mcc":         "5411",
			"cost":        100.0,
			"merchant_id": "GROCERY-01",
			"card_number": "4111111111111111",
		})

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestPurchaseHandlerDeposit(t *testing.T) {
	f := newPurchaseHandlerFixture(t)
	f.gateway.On("Deposit", mock.Anything, "4111111111111111", decimal.NewFromFloat(500.0), "Top up").
		Return(&payment.Transaction{TransactionID: "tx-3", Status: "completed", Amount: decimal.NewFromInt(500)}, nil)

	w := f.do("POST", "/api/v1/payments/deposit", gin.H{
		"card_number": "4111111111111111",
		"amount":      500.0,
		"reference":   "Top up",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "tx-3", data["transaction_id"])
}

func TestPurchaseHandlerBalance(t *testing.T) {
	f := newPurchaseHandlerFixture(t)
	f.gateway.On("GetBalance", mock.Anything, "4111111111111111").
		Return(&payment.Balance{CardNumber: "4111111111111111", Balance: decimal.NewFromFloat(1250.75), Currency: "RUB"}, nil)

	w := f.do("GET", "/api/v1/payments/balance/4111111111111111", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "RUB", data["currency"])
}
