package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Access ────────────────────────────────────────────────────────
	ErrAccessDenied     ErrCode = "ACCESS_DENIED"
	ErrPlayTokenMissing ErrCode = "PLAY_TOKEN_REQUIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrNothingToSave  ErrCode = "NOTHING_TO_SAVE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound  ErrCode = "NOT_FOUND"
	ErrConflict  ErrCode = "CONFLICT"
	ErrSlugTaken ErrCode = "SLUG_TAKEN"

	// ─── Delivery ──────────────────────────────────────────────────────
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"

	// ─── Bulk operations ───────────────────────────────────────────────
	ErrPartialFailure ErrCode = "PARTIAL_FAILURE"

	// ─── Upstream ──────────────────────────────────────────────────────
	ErrUpstream              ErrCode = "UPSTREAM_ERROR"
	ErrClassifierUnavailable ErrCode = "CLASSIFIER_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Access ────────────────────────────────────────────────────────
	case ErrAccessDenied:
		return "Access denied."
	case ErrPlayTokenMissing:
		return "A play token is required. Open the quiz first."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrNothingToSave:
		return "The edit does not change anything."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrSlugTaken:
		return "Could not allocate a unique public link. Please retry."

	// ─── Delivery ──────────────────────────────────────────────────────
	case ErrAlreadySubmitted:
		return "This session has already been submitted."

	// ─── Bulk operations ───────────────────────────────────────────────
	case ErrPartialFailure:
		return "Some items could not be processed."

	// ─── Upstream ──────────────────────────────────────────────────────
	case ErrUpstream:
		return "A backing service failed. Please try again."
	case ErrClassifierUnavailable:
		return "Question curation is not configured."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
