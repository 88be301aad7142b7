package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/assessment-pipeline/internal/model"
	"github.com/stemsi/assessment-pipeline/internal/response"
	"github.com/stemsi/assessment-pipeline/internal/service"
	"github.com/stemsi/assessment-pipeline/internal/validator"
)

// QuizHandler handles quiz assembly, publishing and sharing endpoints.
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// CreateQuiz godoc
// POST /api/v1/admin/quizzes
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req model.CreateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.quizService.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"quiz": q})
}

// ListQuizzes godoc
// GET /api/v1/admin/quizzes?status=&page=&per_page=
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	var query model.ListQuizzesQuery
	if fields := validator.BindQuery(c, &query); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quizzes, page, err := h.quizService.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"quizzes": quizzes}, page)
}

// GetQuiz godoc
// GET /api/v1/admin/quizzes/:id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	q, err := h.quizService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": q})
}

// SetQuestions godoc
// PUT /api/v1/admin/quizzes/:id/questions
// Rebuilds the question list in the given order.
func (h *QuizHandler) SetQuestions(c *gin.Context) {
	var req model.SetQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.quizService.SetQuestions(c.Request.Context(), c.Param("id"), req.Questions)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": q})
}

// AddQuestion godoc
// POST /api/v1/admin/quizzes/:id/questions
// Appends an approved question. Adding one already present is a no-op.
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, added, err := h.quizService.AddQuestion(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"quiz": q, "added": added})
}

// RemoveQuestion godoc
// DELETE /api/v1/admin/quizzes/:id/questions/:question_id
func (h *QuizHandler) RemoveQuestion(c *gin.Context) {
	q, err := h.quizService.RemoveQuestion(c.Request.Context(), c.Param("id"), c.Param("question_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": q})
}

// UpdatePoints godoc
// PATCH /api/v1/admin/quizzes/:id/questions/:question_id
func (h *QuizHandler) UpdatePoints(c *gin.Context) {
	var req model.UpdatePointsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.quizService.UpdatePoints(c.Request.Context(), c.Param("id"), c.Param("question_id"), req.Points)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": q})
}

// PublishQuiz godoc
// POST /api/v1/admin/quizzes/:id/publish
func (h *QuizHandler) PublishQuiz(c *gin.Context) {
	q, err := h.quizService.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": q})
}

// EnableSharing godoc
// POST /api/v1/admin/quizzes/:id/share
// Makes the quiz public. A previously shared quiz keeps its slug.
func (h *QuizHandler) EnableSharing(c *gin.Context) {
	var req model.EnableSharingRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	q, err := h.quizService.EnableSharing(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": q, "slug": q.PublicSlug})
}

// DisableSharing godoc
// DELETE /api/v1/admin/quizzes/:id/share
func (h *QuizHandler) DisableSharing(c *gin.Context) {
	q, err := h.quizService.DisableSharing(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": q})
}

// ListAttempts godoc
// GET /api/v1/admin/quizzes/:id/attempts?page=&per_page=
func (h *QuizHandler) ListAttempts(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))

	attempts, p, err := h.quizService.ListAttempts(c.Request.Context(), c.Param("id"), page, perPage)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"attempts": attempts}, p)
}
