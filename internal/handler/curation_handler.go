package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/assessment-pipeline/internal/model"
	"github.com/stemsi/assessment-pipeline/internal/response"
	"github.com/stemsi/assessment-pipeline/internal/service"
	"github.com/stemsi/assessment-pipeline/internal/validator"
)

// CurationHandler serves question suggestions.
type CurationHandler struct {
	curationService *service.CurationService
}

// NewCurationHandler creates a new CurationHandler.
func NewCurationHandler(curationService *service.CurationService) *CurationHandler {
	return &CurationHandler{curationService: curationService}
}

// Suggest godoc
// POST /api/v1/admin/curation/suggest
// Classifies a natural-language request and samples matching approved
// questions not already in the caller's selection.
func (h *CurationHandler) Suggest(c *gin.Context) {
	var req model.SuggestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.curationService.Suggest(c.Request.Context(), req)
	if errors.Is(err, service.ErrClassifierUnavailable) {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrClassifierUnavailable)
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}
