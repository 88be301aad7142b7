package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/model"
	"github.com/stemsi/assessment-pipeline/internal/response"
	"github.com/stemsi/assessment-pipeline/internal/service"
	"github.com/stemsi/assessment-pipeline/internal/validator"
)

// ReviewHandler handles moderation endpoints.
type ReviewHandler struct {
	reviewService *service.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// SubmitEdits godoc
// PATCH /api/v1/admin/questions/:id
// Saves edits without changing status. An edit that changes nothing is
// reported with saved=false rather than as an error.
func (h *ReviewHandler) SubmitEdits(c *gin.Context) {
	var patch model.QuestionPatch
	if fields := validator.Bind(c, &patch); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.reviewService.SubmitEdits(c.Request.Context(), c.Param("id"), patch)
	if errors.Is(err, apperror.ErrNothingToSave) {
		response.Success(c, http.StatusOK, gin.H{"saved": false, "question": q})
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"saved": true, "question": q})
}

// Approve godoc
// POST /api/v1/admin/questions/:id/approve
func (h *ReviewHandler) Approve(c *gin.Context) {
	var req model.ApproveRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	q, err := h.reviewService.Approve(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// Reject godoc
// POST /api/v1/admin/questions/:id/reject
func (h *ReviewHandler) Reject(c *gin.Context) {
	var req model.RejectRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	q, err := h.reviewService.Reject(c.Request.Context(), c.Param("id"), req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// BatchSetStatus godoc
// POST /api/v1/admin/questions/batch-status
// Applies one status to many questions; responds 207 when some failed.
func (h *ReviewHandler) BatchSetStatus(c *gin.Context) {
	var req model.BatchStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	out, err := h.reviewService.BatchSetStatus(c.Request.Context(), req.IDs, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Batch(c, out)
}
