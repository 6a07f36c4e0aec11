package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	grantapp "github.com/grantflow/backend/internal/application/grant"
	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/grantflow/backend/internal/interfaces/http/dto"
)

// GrantHandler handles grant program API endpoints
type GrantHandler struct {
	BaseHandler
	grantService *grantapp.GrantService
}

// NewGrantHandler creates a new GrantHandler
func NewGrantHandler(grantService *grantapp.GrantService) *GrantHandler {
	return &GrantHandler{
		grantService: grantService,
	}
}

// ParticipantInputRequest identifies one invitee by user ID or email
// @Description A participant to invite, identified by user ID or email
type ParticipantInputRequest struct {
	Identifier string `json:"identifier" binding:"required,min=1,max=255" example:"alice@example.com"`
	Role       string `json:"role" binding:"required,oneof=supervisor grantee" example:"grantee"`
}

// RequirementInputRequest describes one requirement of a stage
// @Description A requirement attached to a stage
type RequirementInputRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255" example:"Progress report"`
	Description string `json:"description" binding:"max=500" example:"Upload the Q1 progress report"`
}

// StageInputRequest describes one stage of a new program
// @Description A disbursement stage of a new program
type StageInputRequest struct {
	Order        int                       `json:"order" binding:"required,min=1" example:"1"`
	Amount       float64                   `json:"amount" binding:"required,gt=0" example:"1000.00"`
	Requirements []RequirementInputRequest `json:"requirements" binding:"dive"`
}

// CreateGrantRequest represents a request to create a new grant program
// @Description Request body for creating a new grant program
type CreateGrantRequest struct {
	Name              string                    `json:"name" binding:"required,min=1,max=255" example:"Research Grant 2026"`
	BankAccountNumber string                    `json:"bank_account_number" binding:"required,min=1,max=64" example:"4111111111111111"`
	Stages            []StageInputRequest       `json:"stages" binding:"required,min=1,dive"`
	Participants      []ParticipantInputRequest `json:"participants" binding:"dive"`
}

// InviteParticipantRequest represents a request to invite a participant
// @Description Request body for inviting a participant to a program
type InviteParticipantRequest struct {
	Identifier string `json:"identifier" binding:"required,min=1,max=255" example:"bob@example.com"`
	Role       string `json:"role" binding:"required,oneof=supervisor grantee" example:"supervisor"`
}

// ChangeRoleRequest represents a request to change a participant's role
// @Description Request body for changing a participant's role
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=supervisor grantee" example:"supervisor"`
}

// UpdateBankAccountRequest represents a request to change the payout account
// @Description Request body for updating the program's payout account
type UpdateBankAccountRequest struct {
	BankAccountNumber string `json:"bank_account_number" binding:"required,min=1,max=64" example:"4222222222222222"`
}

// SubmitProofRequest represents a proof submission for a requirement
// @Description Request body for submitting proof of a requirement
type SubmitProofRequest struct {
	ProofReference string `json:"proof_reference" binding:"required,min=1,max=500" example:"https://docs.example.com/report-q1.pdf"`
}

// RequirementResponse represents a requirement in API responses
type RequirementResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	ContractGated  bool       `json:"contract_gated"`
	Status         string     `json:"status"`
	ProofReference *string    `json:"proof_reference,omitempty"`
	SubmittedBy    *uuid.UUID `json:"submitted_by,omitempty"`
}

// StageResponse represents a stage in API responses
type StageResponse struct {
	ID           uuid.UUID             `json:"id"`
	Order        int                   `json:"order"`
	Amount       decimal.Decimal       `json:"amount"`
	Status       string                `json:"status"`
	Requirements []RequirementResponse `json:"requirements"`
}

// ParticipantResponse represents a participant in API responses
type ParticipantResponse struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	Active bool      `json:"active"`
}

// GrantResponse represents a grant program in API responses
type GrantResponse struct {
	ID                uuid.UUID             `json:"id"`
	Name              string                `json:"name"`
	BankAccountNumber string                `json:"bank_account_number"`
	Status            string                `json:"status"`
	GrantorID         uuid.UUID             `json:"grantor_id"`
	TotalAmount       decimal.Decimal       `json:"total_amount"`
	Stages            []StageResponse       `json:"stages"`
	Participants      []ParticipantResponse `json:"participants"`
	Version           int                   `json:"version"`
	dto.TimestampResponse
}

// StageCompletionResponse reports the outcome of completing a stage
type StageCompletionResponse struct {
	Program          GrantResponse `json:"program"`
	ProgramCompleted bool          `json:"program_completed"`
	NextStageID      *uuid.UUID    `json:"next_stage_id,omitempty"`
	PayoutAttempted  bool          `json:"payout_attempted"`
	PayoutSucceeded  bool          `json:"payout_succeeded"`
	PayoutReference  string        `json:"payout_reference,omitempty"`
}

func toGrantResponse(p *grant.GrantProgram) GrantResponse {
	stages := make([]StageResponse, 0, len(p.Stages))
	for i := range p.Stages {
		s := &p.Stages[i]
		reqs := make([]RequirementResponse, 0, len(s.Requirements))
		for j := range s.Requirements {
			r := &s.Requirements[j]
			reqs = append(reqs, RequirementResponse{
				ID:             r.ID,
				Name:           r.Name,
				Description:    r.Description,
				ContractGated:  r.ContractGated,
				Status:         string(r.Status),
				ProofReference: r.ProofReference,
				SubmittedBy:    r.SubmittedBy,
			})
		}
		stages = append(stages, StageResponse{
			ID:           s.ID,
			Order:        s.Order,
			Amount:       s.Amount,
			Status:       string(s.CompletionStatus),
			Requirements: reqs,
		})
	}

	participants := make([]ParticipantResponse, 0, len(p.Participants))
	for i := range p.Participants {
		pt := &p.Participants[i]
		participants = append(participants, ParticipantResponse{
			ID:     pt.ID,
			UserID: pt.UserID,
			Role:   string(pt.Role),
			Active: pt.Active,
		})
	}

	resp := GrantResponse{
		ID:                p.ID,
		Name:              p.Name,
		BankAccountNumber: p.BankAccountNumber,
		Status:            string(p.Status),
		GrantorID:         p.GrantorID,
		TotalAmount:       p.TotalAmount(),
		Stages:            stages,
		Participants:      participants,
		Version:           p.Version,
	}
	resp.CreatedAt = p.CreatedAt
	resp.UpdatedAt = p.UpdatedAt
	return resp
}

// Create godoc
// @ID           createGrant
// @Summary      Create a grant program
// @Description  Create a draft grant program with stages and invited participants
// @Tags         grants
// @Accept       json
// @Produce      json
// @Param        request body CreateGrantRequest true "Grant creation request"
// @Success      201 {object} APIResponse[GrantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /grants [post]
func (h *GrantHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateGrantRequest
	if !h.bindJSON(c, &req) {
		return
	}

	appReq := grantapp.CreateProgramRequest{
		GrantorID:         userID,
		Name:              req.Name,
		BankAccountNumber: req.BankAccountNumber,
	}
	for _, st := range req.Stages {
		stage := grantapp.StageInput{
			Order:  st.Order,
			Amount: decimal.NewFromFloat(st.Amount),
		}
		for _, r := range st.Requirements {
			stage.Requirements = append(stage.Requirements, grantapp.RequirementInput{
				Name:        r.Name,
				Description: r.Description,
			})
		}
		appReq.Stages = append(appReq.Stages, stage)
	}
	for _, p := range req.Participants {
		appReq.Participants = append(appReq.Participants, grantapp.ParticipantInput{
			Identifier: p.Identifier,
			Role:       grant.Role(p.Role),
		})
	}

	program, err := h.grantService.CreateProgram(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toGrantResponse(program))
}

// List godoc
// @ID           listGrants
// @Summary      List grant programs
// @Description  List the programs the authenticated user participates in
// @Tags         grants
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]GrantResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /grants [get]
func (h *GrantHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

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

	page, err := h.grantService.ListPrograms(c.Request.Context(), userID, shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]GrantResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, toGrantResponse(&page.Items[i]))
	}

	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getGrantById
// @Summary      Get a grant program
// @Description  Retrieve a program the authenticated user participates in
// @Tags         grants
// @Produce      json
// @Param        id path string true "Program ID" format(uuid)
// @Success      200 {object} APIResponse[GrantResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /grants/{id} [get]
func (h *GrantHandler) GetByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	programID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid program ID")
		return
	}

	program, err := h.grantService.GetProgram(c.Request.Context(), programID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toGrantResponse(program))
}

// Confirm godoc
// @ID           confirmGrant
// @Summary      Confirm a grant program
// @Description  Fund the program from the external bank and activate its first stage
// @Tags         grants
// @Produce      json
// @Param        id path string true "Program ID" format(uuid)
// @Success      200 {object} APIResponse[GrantResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /grants/{id}/confirm [post]
func (h *GrantHandler) Confirm(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	programID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid program ID")
		return
	}

	program, err := h.grantService.ConfirmProgram(c.Request.Context(), programID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toGrantResponse(program))
}

// InviteParticipant godoc
// @ID           inviteParticipant
// @Summary      Invite a participant
// @Description  Invite a user to the program by ID or email
// @Tags         grants
// @Accept       json
// @Produce      json
// @Param        id path string true "Program ID" format(uuid)
// @Param        request body InviteParticipantRequest true "Invitation request"
// @Success      200 {object} APIResponse[GrantResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /grants/{id}/participants [post]
func (h *GrantHandler) InviteParticipant(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	programID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid program ID")
		return
	}

	var req InviteParticipantRequest
	if !h.bindJSON(c, &req) {
		return
	}

	program, err := h.grantService.InviteParticipant(c.Request.Context(), programID, userID, req.Identifier, grant.Role(req.Role))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toGrantResponse(program))
}

// ChangeParticipantRole godoc
// @ID           changeParticipantRole
// @Summary      Change a participant's role
// @Tags         grants
// @Accept       json
// @Produce      json
// @Param        id path string true "Program ID" format(uuid)
// @Param        participantId path string true "Participant ID" format(uuid)
// @Param        request body ChangeRoleRequest true "Role change request"
// @Success      200 {object} APIResponse[GrantResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /grants/{id}/participants/{participantId} [patch]
func (h *GrantHandler) ChangeParticipantRole(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	programID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid program ID")
		return
	}
	participantID, err := uuid.Parse(c.Param("participantId"))
	if err != nil {
		h.BadRequest(c, "Invalid participant ID")
		return
	}

	var req ChangeRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	program, err := h.grantService.ChangeParticipantRole(c.Request.Context(), programID, userID, participantID, grant.Role(req.Role))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toGrantResponse(program))
}

// RemoveParticipant godoc
// @ID           removeParticipant
// @Summary      Remove a participant
// @Tags         grants
// @Produce      json
// @Param        id path string true "Program ID" format(uuid)
// @Param        participantId path string true "Participant ID" format(uuid)
// @Success      200 {object} APIResponse[GrantResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /grants/{id}/participants/{participantId} [delete]
func (h *GrantHandler) RemoveParticipant(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	programID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid program ID")
		return
	}
	participantID, err := uuid.Parse(c.Param("participantId"))
	if err != nil {
		h.BadRequest(c, "Invalid participant ID")
		return
	}

	program, err := h.grantService.RemoveParticipant(c.Request.Context(), programID, userID, participantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toGrantResponse(program))
}

// UpdateBankAccount godoc
// @ID           updateGrantBankAccount
// @Summary      Update the payout account
// @Tags         grants
// @Accept       json
// @Produce      json
// @Param        id path string true "Program ID" format(uuid)
// @Param        request body UpdateBankAccountRequest true "Bank account update request"
// @Success      200 {object} APIResponse[GrantResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /grants/{id}/bank-account [put]
func (h *GrantHandler) UpdateBankAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	programID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid program ID")
		return
	}

	var req UpdateBankAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}

	program, err := h.grantService.UpdateBankAccount(c.Request.Context(), programID, userID, req.BankAccountNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toGrantResponse(program))
}

// SubmitProof godoc
// @ID           submitRequirementProof
// @Summary      Submit proof for a requirement
// @Description  Attach a proof reference to a pending requirement of the active stage
// @Tags         grants
// @Accept       json
// @Produce      json
// @Param        id path string true "Requirement ID" format(uuid)
// @Param        request body SubmitProofRequest true "Proof submission"
// @Success      200 {object} APIResponse[GrantResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /grants/requirements/{id}/proof [post]
func (h *GrantHandler) SubmitProof(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	requirementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid requirement ID")
		return
	}

	var req SubmitProofRequest
	if !h.bindJSON(c, &req) {
		return
	}

	program, err := h.grantService.SubmitRequirementProof(c.Request.Context(), requirementID, userID, req.ProofReference)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toGrantResponse(program))
}

// CompleteRequirement godoc
// @ID           completeRequirement
// @Summary      Mark a requirement as completed
// @Tags         grants
// @Produce      json
// @Param        id path string true "Requirement ID" format(uuid)
// @Success      200 {object} APIResponse[GrantResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /grants/requirements/{id}/complete [post]
func (h *GrantHandler) CompleteRequirement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	requirementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid requirement ID")
		return
	}

	program, err := h.grantService.CompleteRequirement(c.Request.Context(), requirementID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toGrantResponse(program))
}

// CompleteStage godoc
// @ID           completeStage
// @Summary      Complete a stage
// @Description  Complete the active stage, pay out its amount and activate the next one
// @Tags         grants
// @Produce      json
// @Param        id path string true "Stage ID" format(uuid)
// @Success      200 {object} APIResponse[StageCompletionResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /grants/stages/{id}/complete [post]
func (h *GrantHandler) CompleteStage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	stageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid stage ID")
		return
	}

	result, err := h.grantService.CompleteStage(c.Request.Context(), stageID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, StageCompletionResponse{
		Program:          toGrantResponse(result.Program),
		ProgramCompleted: result.ProgramCompleted,
		NextStageID:      result.NextStageID,
		PayoutAttempted:  result.PayoutAttempted,
		PayoutSucceeded:  result.PayoutSucceeded,
		PayoutReference:  result.PayoutReference,
	})
}

// RegisterRoutes registers grant routes on the given router group
func (h *GrantHandler) RegisterRoutes(rg *gin.RouterGroup) {
	grants := rg.Group("/grants")
	{
		grants.POST("", h.Create)
		grants.GET("", h.List)
		grants.GET("/:id", h.GetByID)
		grants.POST("/:id/confirm", h.Confirm)
		grants.POST("/:id/participants", h.InviteParticipant)
		grants.PATCH("/:id/participants/:participantId", h.ChangeParticipantRole)
		grants.DELETE("/:id/participants/:participantId", h.RemoveParticipant)
		grants.PUT("/:id/bank-account", h.UpdateBankAccount)
		grants.POST("/requirements/:id/proof", h.SubmitProof)
		grants.POST("/requirements/:id/complete", h.CompleteRequirement)
		grants.POST("/stages/:id/complete", h.CompleteStage)
	}
}
