package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
)

// BatchResult is the body of a bulk operation response.
type BatchResult struct {
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// NewBatchResult flattens an outcome for the wire.
func NewBatchResult(o apperror.BatchOutcome) BatchResult {
	res := BatchResult{Succeeded: o.Succeeded}
	if res.Succeeded == nil {
		res.Succeeded = []string{}
	}
	if len(o.Failed) > 0 {
		res.Failed = make(map[string]string, len(o.Failed))
		for id, err := range o.Failed {
			res.Failed[id] = err.Error()
		}
	}
	return res
}

// Batch sends 200 when every item succeeded and 207 otherwise.
func Batch(c *gin.Context, o apperror.BatchOutcome) {
	status := http.StatusOK
	if len(o.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, envelope(c, NewBatchResult(o), batchError(o), nil))
}

func batchError(o apperror.BatchOutcome) *ErrorBody {
	if len(o.Failed) == 0 {
		return nil
	}
	return newErrorBody(ErrPartialFailure, nil)
}

// Classify maps a domain error to its HTTP status and error code.
func Classify(err error) (int, ErrCode) {
	var ve *apperror.ValidationError
	var se *apperror.StoreError
	var pbf *apperror.PartialBatchFailure
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ErrValidation
	case errors.Is(err, apperror.ErrNothingToSave):
		return http.StatusBadRequest, ErrNothingToSave
	case errors.Is(err, apperror.ErrAccessDenied):
		return http.StatusForbidden, ErrAccessDenied
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, ErrNotFound
	case errors.Is(err, apperror.ErrAlreadySubmitted):
		return http.StatusConflict, ErrAlreadySubmitted
	case errors.Is(err, apperror.ErrSlugTaken):
		return http.StatusConflict, ErrSlugTaken
	case errors.As(err, &pbf):
		return http.StatusMultiStatus, ErrPartialFailure
	case errors.As(err, &se):
		return http.StatusBadGateway, ErrUpstream
	}
	return http.StatusInternalServerError, ErrInternal
}

// Error writes err using Classify. Validation errors carry the offending field.
func Error(c *gin.Context, err error) {
	status, code := Classify(err)
	var ve *apperror.ValidationError
	if errors.As(err, &ve) {
		FailWithFields(c, status, code, map[string]string{ve.Field: ve.Reason})
		return
	}
	Fail(c, status, code)
}
