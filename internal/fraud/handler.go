package fraud

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/creator-reviews/pkg/common"
	"github.com/richxcame/creator-reviews/pkg/middleware"
	"github.com/richxcame/creator-reviews/pkg/validation"
)

// Handler handles HTTP requests for the anti-fraud service
type Handler struct {
	creators *CreatorService
	reviews  *ReviewService
}

// NewHandler creates a new fraud handler
func NewHandler(creators *CreatorService, reviews *ReviewService) *Handler {
	return &Handler{creators: creators, reviews: reviews}
}

// creatorCheckResult mirrors the public API shape consumed by the frontend
type creatorCheckResult struct {
	Passed            bool              `json:"passed"`
	RiskScore         int               `json:"riskScore"`
	Flags             []string          `json:"flags"`
	SimilarCreators   []SimilarityMatch `json:"similarCreators"`
	DuplicateLinks    []string          `json:"duplicateLinks"`
	ShouldBlock       bool              `json:"shouldBlock"`
	NeedsManualReview bool              `json:"needsManualReview"`
}

// reviewCheckResult mirrors the internal API shape for review moderation
type reviewCheckResult struct {
	Passed            bool     `json:"passed"`
	RiskScore         int      `json:"riskScore"`
	Flags             []string `json:"flags"`
	AutoApproved      bool     `json:"autoApproved"`
	AutoRejected      bool     `json:"autoRejected"`
	NeedsManualReview bool     `json:"needsManualReview"`
}

// CheckCreator evaluates a proposed creator profile for fraud.
// Callers may only check submissions for themselves.
func (h *Handler) CheckCreator(c *gin.Context) {
	authedUserID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreatorSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.UserID != authedUserID {
		common.ErrorResponse(c, http.StatusForbidden, "user_id mismatch")
		return
	}

	verdict, err := h.creators.EvaluateCreatorSubmission(c.Request.Context(), &req)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.SuccessResponse(c, creatorCheckResult{
		Passed:            verdict.Passed,
		RiskScore:         verdict.RiskScore,
		Flags:             verdict.Flags,
		SimilarCreators:   verdict.SimilarCreators,
		DuplicateLinks:    verdict.DuplicateLinks,
		ShouldBlock:       verdict.ShouldBlock,
		NeedsManualReview: verdict.NeedsManualReview,
	})
}

// CheckReview evaluates a pending review and applies any terminal decision.
// This is a service-to-service endpoint; admin re-evaluation reuses it and
// always runs from current facts.
func (h *Handler) CheckReview(c *gin.Context) {
	var req struct {
		ReviewID string `json:"review_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "review_id is required")
		return
	}

	reviewID, err := uuid.Parse(req.ReviewID)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid review_id")
		return
	}

	verdict, err := h.reviews.EvaluateReviewSubmission(c.Request.Context(), reviewID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.SuccessResponse(c, reviewCheckResult{
		Passed:            verdict.Passed,
		RiskScore:         verdict.RiskScore,
		Flags:             verdict.Flags,
		AutoApproved:      verdict.AutoApprove,
		AutoRejected:      !verdict.Passed,
		NeedsManualReview: verdict.NeedsManualReview,
	})
}
