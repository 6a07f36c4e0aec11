package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	contractapp "github.com/grantflow/backend/internal/application/contract"
)

// PurchaseHandler handles purchase validation and payment API endpoints
type PurchaseHandler struct {
	BaseHandler
	purchaseService *contractapp.PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchaseService *contractapp.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
	}
}

// ProcessWithContractRequest represents a purchase processed against one named contract
// @Description Request body for processing a purchase against a single contract
type ProcessWithContractRequest struct {
	ContractID string `json:"contract_id" binding:"required,uuid" example:"6f1e0e56-3f6e-4f0b-9d2e-2a1f9c9b8a70"`
	PurchaseRequest
}

// DepositRequest represents a deposit to a card
// @Description Request body for depositing funds to a card
type DepositRequest struct {
	CardNumber string  `json:"card_number" binding:"required,min=8,max=32" example:"4111111111111111"`
	Amount     float64 `json:"amount" binding:"required,gt=0" example:"1000.00"`
	Reference  string  `json:"reference" binding:"max=255" example:"Top up"`
}

// TransferRequest represents a card to card transfer
// @Description Request body for transferring funds between cards
type TransferRequest struct {
	FromCard  string  `json:"from_card" binding:"required,min=8,max=32" example:"4111111111111111"`
	ToCard    string  `json:"to_card" binding:"required,min=8,max=32" example:"4222222222222222"`
	Amount    float64 `json:"amount" binding:"required,gt=0" example:"250.00"`
	Reference string  `json:"reference" binding:"max=255" example:"Refund"`
}

// Check godoc
// @ID           checkPurchase
// @Summary      Check a purchase against active contracts
// @Description  Run the amount ceiling and every applicable active contract without moving money
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        request body PurchaseRequest true "Purchase to validate"
// @Success      200 {object} APIResponse[contract.RuleCheck]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchases/check [post]
func (h *PurchaseHandler) Check(c *gin.Context) {
	var req PurchaseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	check, err := h.purchaseService.CheckPurchase(c.Request.Context(), toPurchaseInfo(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, check)
}

// Process godoc
// @ID           processPurchase
// @Summary      Process a purchase
// @Description  Validate the purchase and, when allowed, transfer the amount to the merchant
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        request body PurchaseRequest true "Purchase to process"
// @Success      200 {object} APIResponse[contractapp.PurchaseResult]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchases/process [post]
func (h *PurchaseHandler) Process(c *gin.Context) {
	var req PurchaseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.purchaseService.ProcessPurchase(c.Request.Context(), toPurchaseInfo(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ProcessWithContract godoc
// @ID           processPurchaseWithContract
// @Summary      Process a purchase against one contract
// @Description  Validate the purchase against a single named contract and settle when allowed
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        request body ProcessWithContractRequest true "Purchase and contract"
// @Success      200 {object} APIResponse[contractapp.PurchaseResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchases/process-with-contract [post]
func (h *PurchaseHandler) ProcessWithContract(c *gin.Context) {
	var req ProcessWithContractRequest
	if !h.bindJSON(c, &req) {
		return
	}

	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	result, err := h.purchaseService.ProcessPurchaseWithContract(c.Request.Context(), contractID, toPurchaseInfo(req.PurchaseRequest))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Deposit godoc
// @ID           depositFunds
// @Summary      Deposit funds to a card
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body DepositRequest true "Deposit request"
// @Success      200 {object} APIResponse[payment.Transaction]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/deposit [post]
func (h *PurchaseHandler) Deposit(c *gin.Context) {
	var req DepositRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tx, err := h.purchaseService.Deposit(c.Request.Context(), req.CardNumber, decimal.NewFromFloat(req.Amount), req.Reference)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tx)
}

// Transfer godoc
// @ID           transferFunds
// @Summary      Transfer funds between cards
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body TransferRequest true "Transfer request"
// @Success      200 {object} APIResponse[payment.Transaction]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/transfer [post]
func (h *PurchaseHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tx, err := h.purchaseService.Transfer(c.Request.Context(), req.FromCard, req.ToCard, decimal.NewFromFloat(req.Amount), req.Reference)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tx)
}

// Balance godoc
// @ID           getCardBalance
// @Summary      Get a card balance
// @Tags         payments
// @Produce      json
// @Param        cardNumber path string true "Card number"
// @Success      200 {object} APIResponse[payment.Balance]
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/balance/{cardNumber} [get]
func (h *PurchaseHandler) Balance(c *gin.Context) {
	cardNumber := c.Param("cardNumber")
	if cardNumber == "" {
		h.BadRequest(c, "Missing card number")
		return
	}

	balance, err := h.purchaseService.GetBalance(c.Request.Context(), cardNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, balance)
}

// Transactions godoc
// @ID           getCardTransactions
// @Summary      Get a card's transaction history
// @Tags         payments
// @Produce      json
// @Param        cardNumber path string true "Card number"
// @Success      200 {object} APIResponse[[]payment.Transaction]
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/transactions/{cardNumber} [get]
func (h *PurchaseHandler) Transactions(c *gin.Context) {
	cardNumber := c.Param("cardNumber")
	if cardNumber == "" {
		h.BadRequest(c, "Missing card number")
		return
	}

	transactions, err := h.purchaseService.GetTransactions(c.Request.Context(), cardNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, transactions)
}

// RegisterRoutes registers purchase and payment routes on the given router group
func (h *PurchaseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	purchases := rg.Group("/purchases")
	{
		purchases.POST("/check", h.Check)
		purchases.POST("/process", h.Process)
		purchases.POST("/process-with-contract", h.ProcessWithContract)
	}

	payments := rg.Group("/payments")
	{
		payments.POST("/deposit", h.Deposit)
		payments.POST("/transfer", h.Transfer)
		payments.GET("/balance/:cardNumber", h.Balance)
		payments.GET("/transactions/:cardNumber", h.Transactions)
	}
}
