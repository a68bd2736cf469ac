package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/app/requests"
	"github.com/address-resolver/app/responses"
	"github.com/address-resolver/app/services"
)

// AdminController serves maintenance endpoints
type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

// NewAdminController creates an AdminController
func NewAdminController(adminService *services.AdminService, logger *zap.Logger) *AdminController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminController{
		adminService: adminService,
		logger:       logger,
	}
}

// GetStats returns service, cache and review figures
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		ac.fail(c, "STATS_ERROR", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// InvalidateCache drops stale cache entries, or all of them
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	var req requests.InvalidateCacheRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "INVALID_REQUEST", err.Error())
			return
		}
	}

	if err := ac.adminService.InvalidateCache(c.Request.Context(), req.All); err != nil {
		ac.fail(c, "INVALIDATE_ERROR", err)
		return
	}

	ac.logger.Info("Cache invalidated", zap.Bool("all", req.All))
	c.JSON(http.StatusOK, gin.H{"invalidated": true, "all": req.All})
}

// Reindex rebuilds the search index from the loaded master
func (ac *AdminController) Reindex(c *gin.Context) {
	res, err := ac.adminService.Reindex(c.Request.Context())
	if err != nil {
		ac.fail(c, "REINDEX_ERROR", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListReviews pages through the review queue
func (ac *AdminController) ListReviews(c *gin.Context) {
	reviews := ac.adminService.Reviews()
	if reviews == nil {
		ac.fail(c, "REVIEW_DISABLED", services.ErrReviewDisabled)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		badRequest(c, "INVALID_LIMIT", "limit must be between 1 and 500")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		badRequest(c, "INVALID_OFFSET", "offset must not be negative")
		return
	}

	query := services.ReviewQuery{
		Status: c.DefaultQuery("status", models.ReviewStatusPending),
		RunID:  c.Query("run_id"),
		Limit:  limit,
		Offset: offset,
	}

	list, total, err := reviews.List(c.Request.Context(), query)
	if err != nil {
		ac.fail(c, "REVIEW_ERROR", err)
		return
	}

	c.JSON(http.StatusOK, responses.ReviewListResponse{
		Reviews: list,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// ApproveReview accepts the automatic result of a review
func (ac *AdminController) ApproveReview(c *gin.Context) {
	ac.decide(c, "approve", func(rs *services.ReviewService, req requests.ReviewDecisionRequest) (*models.AddressReview, error) {
		return rs.Approve(c.Request.Context(), c.Param("id"), req.ReviewerID)
	})
}

// RejectReview closes a review without a result
func (ac *AdminController) RejectReview(c *gin.Context) {
	ac.decide(c, "reject", func(rs *services.ReviewService, req requests.ReviewDecisionRequest) (*models.AddressReview, error) {
		return rs.Reject(c.Request.Context(), c.Param("id"), req.ReviewerID)
	})
}

// CorrectReview stores a reviewer supplied address
func (ac *AdminController) CorrectReview(c *gin.Context) {
	reviews := ac.adminService.Reviews()
	if reviews == nil {
		ac.fail(c, "REVIEW_DISABLED", services.ErrReviewDisabled)
		return
	}

	var req requests.ReviewCorrectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	result := models.ResolvedFromRecord(req.Record(), models.StrategyManual)
	review, err := reviews.Correct(c.Request.Context(), c.Param("id"), req.ReviewerID, result)
	if err != nil {
		ac.fail(c, "REVIEW_ERROR", err)
		return
	}

	c.JSON(http.StatusOK, responses.ReviewActionResponse{ReviewID: review.ID, Action: "correct", Review: review})
}

func (ac *AdminController) decide(c *gin.Context, action string,
	do func(*services.ReviewService, requests.ReviewDecisionRequest) (*models.AddressReview, error)) {
	reviews := ac.adminService.Reviews()
	if reviews == nil {
		ac.fail(c, "REVIEW_DISABLED", services.ErrReviewDisabled)
		return
	}

	var req requests.ReviewDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	review, err := do(reviews, req)
	if err != nil {
		ac.fail(c, "REVIEW_ERROR", err)
		return
	}

	c.JSON(http.StatusOK, responses.ReviewActionResponse{ReviewID: review.ID, Action: action, Review: review})
}

// fail maps service errors to HTTP statuses
func (ac *AdminController) fail(c *gin.Context, code string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrReviewNotFound):
		status, code = http.StatusNotFound, "REVIEW_NOT_FOUND"
	case errors.Is(err, services.ErrReviewNotPending):
		status, code = http.StatusConflict, "REVIEW_ALREADY_DECIDED"
	case errors.Is(err, services.ErrCacheDisabled),
		errors.Is(err, services.ErrSearchDisabled),
		errors.Is(err, services.ErrReviewDisabled):
		status = http.StatusNotImplemented
	default:
		ac.logger.Error("Admin request failed", zap.String("code", code), zap.Error(err))
	}

	c.JSON(status, responses.ErrorResponse{Error: code, Message: err.Error()})
}
