package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/assessment-pipeline/internal/middleware"
	"github.com/stemsi/assessment-pipeline/internal/model"
	"github.com/stemsi/assessment-pipeline/internal/response"
	"github.com/stemsi/assessment-pipeline/internal/service"
	"github.com/stemsi/assessment-pipeline/internal/validator"
)

// PlayHandler serves shared quizzes to anonymous participants.
type PlayHandler struct {
	deliveryService *service.DeliveryService
}

// NewPlayHandler creates a new PlayHandler.
func NewPlayHandler(deliveryService *service.DeliveryService) *PlayHandler {
	return &PlayHandler{deliveryService: deliveryService}
}

// OpenQuiz godoc
// GET /api/v1/public/quizzes/:slug
// Returns the participant view and a play token. Password-protected quizzes
// come back locked with questions withheld.
func (h *PlayHandler) OpenQuiz(c *gin.Context) {
	view, err := h.deliveryService.Open(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// UnlockQuiz godoc
// POST /api/v1/public/quizzes/:slug/unlock
// A wrong password is 403; the participant may retry.
func (h *PlayHandler) UnlockQuiz(c *gin.Context) {
	var req model.UnlockRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.deliveryService.Unlock(c.Request.Context(), c.Param("slug"), req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// GradeAnswers godoc
// POST /api/v1/public/quizzes/:slug/grade
// Scores answers for the session without recording them.
func (h *PlayHandler) GradeAnswers(c *gin.Context) {
	var req model.GradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.deliveryService.Grade(c.Request.Context(), c.Param("slug"), middleware.GetPlayToken(c), req.Answers)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// SubmitAttempt godoc
// POST /api/v1/public/quizzes/:slug/attempts
// Records the session's single attempt. A repeat submit is 409.
func (h *PlayHandler) SubmitAttempt(c *gin.Context) {
	var req model.SubmitAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.deliveryService.Submit(c.Request.Context(), c.Param("slug"), middleware.GetPlayToken(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"attempt": attempt})
}
