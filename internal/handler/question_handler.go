package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/assessment-pipeline/internal/model"
	"github.com/stemsi/assessment-pipeline/internal/response"
	"github.com/stemsi/assessment-pipeline/internal/service"
	"github.com/stemsi/assessment-pipeline/internal/validator"
)

// QuestionHandler handles question ingestion and lookup endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ImportQuestions godoc
// POST /api/v1/admin/questions/import
// Normalizes and stores raw question records of any supported shape.
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	var req model.ImportQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.questionService.Import(c.Request.Context(), req.Records)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if len(res.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	response.Success(c, status, res)
}

// ListQuestions godoc
// GET /api/v1/admin/questions?status=&domain=&topic=&page=&per_page=
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	var query model.ListQuestionsQuery
	if fields := validator.BindQuery(c, &query); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, page, err := h.questionService.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questions": questions}, page)
}

// GetQuestion godoc
// GET /api/v1/admin/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	q, err := h.questionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/questions/:id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	if err := h.questionService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "question deleted"})
}

// BulkDeleteQuestions godoc
// POST /api/v1/admin/questions/bulk-delete
// Deletes every id independently; responds 207 when some failed.
func (h *QuestionHandler) BulkDeleteQuestions(c *gin.Context) {
	var req model.BulkDeleteRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	response.Batch(c, h.questionService.BulkDelete(c.Request.Context(), req.IDs))
}
