package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	contractapp "github.com/grantflow/backend/internal/application/contract"
	"github.com/grantflow/backend/internal/domain/contract"
	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/grantflow/backend/internal/interfaces/http/dto"
)

// ContractHandler handles payment contract API endpoints
type ContractHandler struct {
	BaseHandler
	contractService *contractapp.ContractService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(contractService *contractapp.ContractService) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
	}
}

// CreateContractRequest represents a request to create a payment contract
// @Description Request body for creating a payment contract
type CreateContractRequest struct {
	Name         string         `json:"name" binding:"required,min=1,max=255" example:"Grocery only"`
	ContractType string         `json:"contract_type" binding:"required" example:"mcc_limit"`
	Parameters   map[string]any `json:"parameters" binding:"required"`
	Description  string         `json:"description" binding:"max=500" example:"Restrict spending to grocery stores"`
}

// PurchaseRequest represents a purchase to validate or process
// @Description A purchase attempt with its card and merchant details
type PurchaseRequest struct {
	MCC        string  `json:"mcc" binding:"required,len=4" example:"5411"`
	Cost       float64 `json:"cost" binding:"required,gt=0" example:"125.50"`
	MerchantID string  `json:"merchant_id" binding:"required,min=1,max=64" example:"GROCERY-01"`
	CardNumber string  `json:"card_number" binding:"required,min=8,max=32" example:"4111111111111111"`
}

// ExecuteContractRequest represents a request to run one contract against a purchase
// @Description Request body for executing a single contract against a purchase
type ExecuteContractRequest struct {
	ContractID string `json:"contract_id" binding:"required,uuid" example:"6f1e0e56-3f6e-4f0b-9d2e-2a1f9c9b8a70"`
	PurchaseRequest
}

// ContractResponse represents a payment contract in API responses
type ContractResponse struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	ContractType string         `json:"contract_type"`
	Parameters   map[string]any `json:"parameters"`
	Description  string         `json:"description,omitempty"`
	Status       string         `json:"status"`
	dto.TimestampResponse
}

func toContractResponse(c *contract.PaymentContract) ContractResponse {
	resp := ContractResponse{
		ID:           c.ID,
		Name:         c.Name,
		ContractType: string(c.ContractType),
		Parameters:   c.Parameters,
		Description:  c.Description,
		Status:       string(c.Status),
	}
	resp.CreatedAt = c.CreatedAt
	resp.UpdatedAt = c.UpdatedAt
	return resp
}

func toPurchaseInfo(req PurchaseRequest) contract.PurchaseInfo {
	return contract.PurchaseInfo{
		MCC:        req.MCC,
		Cost:       decimal.NewFromFloat(req.Cost),
		MerchantID: req.MerchantID,
		CardNumber: req.CardNumber,
	}
}

// Create godoc
// @ID           createContract
// @Summary      Create a payment contract
// @Description  Create a spending rule applied to purchases on matching cards
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        request body CreateContractRequest true "Contract creation request"
// @Success      201 {object} APIResponse[ContractResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /contracts [post]
func (h *ContractHandler) Create(c *gin.Context) {
	var req CreateContractRequest
	if !h.bindJSON(c, &req) {
		return
	}

	created, err := h.contractService.CreateContract(c.Request.Context(), contractapp.CreateContractRequest{
		Name:         req.Name,
		ContractType: contract.ContractType(req.ContractType),
		Parameters:   req.Parameters,
		Description:  req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toContractResponse(created))
}

// List godoc
// @ID           listContracts
// @Summary      List payment contracts
// @Tags         contracts
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]ContractResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /contracts [get]
func (h *ContractHandler) List(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if listReq.Page == 0 {
		listReq.Page = 1
	}
	if listReq.PageSize == 0 {
		listReq.PageSize = 20
	}

	contracts, err := h.contractService.ListContracts(c.Request.Context(), shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]ContractResponse, 0, len(contracts))
	for i := range contracts {
		items = append(items, toContractResponse(&contracts[i]))
	}

	h.Success(c, items)
}

// GetByID godoc
// @ID           getContractById
// @Summary      Get a payment contract
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} APIResponse[ContractResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /contracts/{id} [get]
func (h *ContractHandler) GetByID(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	found, err := h.contractService.GetContract(c.Request.Context(), contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toContractResponse(found))
}

// Delete godoc
// @ID           deleteContract
// @Summary      Delete a payment contract
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /contracts/{id} [delete]
func (h *ContractHandler) Delete(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	if err := h.contractService.DeleteContract(c.Request.Context(), contractID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Execute godoc
// @ID           executeContract
// @Summary      Execute one contract against a purchase
// @Description  Evaluate a single contract in isolation without moving money
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        request body ExecuteContractRequest true "Execution request"
// @Success      200 {object} APIResponse[contract.Evaluation]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /contracts/execute [post]
func (h *ContractHandler) Execute(c *gin.Context) {
	var req ExecuteContractRequest
	if !h.bindJSON(c, &req) {
		return
	}

	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	evaluation, err := h.contractService.ExecuteContract(c.Request.Context(), contractID, toPurchaseInfo(req.PurchaseRequest))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, evaluation)
}

// ContractsForCard godoc
// @ID           listContractsForCard
// @Summary      List contracts applicable to a card
// @Tags         contracts
// @Produce      json
// @Param        cardNumber path string true "Card number"
// @Success      200 {object} APIResponse[[]ContractResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /contracts/cards/{cardNumber} [get]
func (h *ContractHandler) ContractsForCard(c *gin.Context) {
	cardNumber := c.Param("cardNumber")
	if cardNumber == "" {
		h.BadRequest(c, "Missing card number")
		return
	}

	contracts, err := h.contractService.ContractsForCard(c.Request.Context(), cardNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]ContractResponse, 0, len(contracts))
	for i := range contracts {
		items = append(items, toContractResponse(&contracts[i]))
	}

	h.Success(c, items)
}

// RegisterRoutes registers contract routes on the given router group
func (h *ContractHandler) RegisterRoutes(rg *gin.RouterGroup) {
	contracts := rg.Group("/contracts")
	{
		contracts.POST("", h.Create)
		contracts.GET("", h.List)
		contracts.GET("/:id", h.GetByID)
		contracts.DELETE("/:id", h.Delete)
		contracts.POST("/execute", h.Execute)
		contracts.GET("/cards/:cardNumber", h.ContractsForCard)
	}
}
