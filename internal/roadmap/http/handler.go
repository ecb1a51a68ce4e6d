package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillnavigator/roadmap-service/internal/logging"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/domain"
)

const (
	msgSuccess      = "Roadmap generated and credit deducted."
	msgMissing      = "Missing required fields."
	msgNoCredit     = "Insufficient credits."
	msgGeneration   = "Failed to generate roadmap."
	msgPublish      = "Failed to publish roadmap."
	msgSettlement   = "Failed to deduct credit for the generated roadmap."
	msgLedger       = "Credit ledger unavailable."
	msgInternal     = "Internal server error."
	codeInternal    = "INTERNAL_ERROR"
	allowedMethods  = "POST, OPTIONS"
	allowedHeaders  = "Content-Type, Authorization, X-Request-Id"
	headerAllowOrig = "Access-Control-Allow-Origin"
)

// Runner executes one generation workflow.
type Runner interface {
	Run(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}

type Handler struct {
	workflow Runner
}

func New(workflow Runner) *Handler {
	return &Handler{workflow: workflow}
}

// Register mounts the roadmap routes on an /api/v1 group.
func (h *Handler) Register(rg gin.IRoutes) {
	rg.POST("/roadmaps", h.generate)
	rg.OPTIONS("/roadmaps", h.preflight)
}

func (h *Handler) preflight(c *gin.Context) {
	c.Header(headerAllowOrig, "*")
	c.Header("Access-Control-Allow-Methods", allowedMethods)
	c.Header("Access-Control-Allow-Headers", allowedHeaders)
	c.Status(http.StatusOK)
}

func (h *Handler) generate(c *gin.Context) {
	// Set for callers that send no Origin and so bypass the CORS middleware.
	c.Header(headerAllowOrig, "*")

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logging.New(c.Request.Context()).LogWarnf("generate", "malformed request body: %v", err)
		c.JSON(http.StatusBadRequest, errorResponse{Status: "error", Code: domain.CodeValidation, Message: msgMissing})
		return
	}

	result, err := h.workflow.Run(c.Request.Context(), domain.GenerationRequest{
		UserID:       req.UserID,
		SkillName:    req.SkillName,
		CurrentLevel: req.CurrentLevel,
	})
	if err != nil {
		status, body := errorFor(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, successResponse{
		Status:           "success",
		Message:          msgSuccess,
		DownloadURL:      result.Artifact.AccessURL,
		NewCreditBalance: result.NewBalance,
	})
}

// errorFor maps a workflow failure onto a status and a fixed message. The
// cause is never exposed.
func errorFor(err error) (int, errorResponse) {
	var werr *domain.WorkflowError
	if !errors.As(err, &werr) {
		return http.StatusInternalServerError, errorResponse{Status: "error", Code: codeInternal, Message: msgInternal}
	}

	resp := errorResponse{Status: "error", Code: werr.Code}
	switch werr.Code {
	case domain.CodeValidation:
		resp.Message = msgMissing
		return http.StatusBadRequest, resp
	case domain.CodeInsufficientCredits:
		resp.Message = msgNoCredit
		return http.StatusPaymentRequired, resp
	case domain.CodeGeneration:
		resp.Message = msgGeneration
	case domain.CodePublish:
		resp.Message = msgPublish
	case domain.CodeSettlement:
		resp.Message = msgSettlement
	case domain.CodeLedgerUnavailable:
		resp.Message = msgLedger
	default:
		resp.Message = msgInternal
	}
	return http.StatusInternalServerError, resp
}
