package apperrors

// =============================================================================
// Error Codes
// =============================================================================

type ErrorCode string

const (
	ErrorCodeInternalError          ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidationError        ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound               ErrorCode = "NOT_FOUND"
	ErrorCodePlayerNotFound         ErrorCode = "PLAYER_NOT_FOUND"
	ErrorCodePlayerUnavailable      ErrorCode = "PLAYER_UNAVAILABLE"
	ErrorCodeBusUnavailable         ErrorCode = "BUS_UNAVAILABLE"
	ErrorCodeContentTypeUnsupported ErrorCode = "CONTENT_TYPE_UNSUPPORTED"
	ErrorCodeContentUnavailable     ErrorCode = "CONTENT_UNAVAILABLE"
)

// ErrorType categorizes errors following Stripe API conventions.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates invalid parameters, missing required fields, etc.
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	// ErrorTypeAPIError indicates an internal API error.
	ErrorTypeAPIError ErrorType = "api_error"
)

// ErrorBody is the serialized error payload.
// Format: {"type": "invalid_request_error", "code": "NOT_FOUND", "message": "..."}
type ErrorBody struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// AppError is the base error type for HTTP responses.
type AppError struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
}

func (err *AppError) Error() string {
	return err.Message
}

// Body returns the serialized payload for HTTP responses.
func (err *AppError) Body() ErrorBody {
	errType := ErrorTypeAPIError
	if err.StatusCode >= 400 && err.StatusCode < 500 {
		errType = ErrorTypeInvalidRequest
	}
	return ErrorBody{
		Type:    errType,
		Code:    string(err.Code),
		Message: err.Message,
	}
}

func NewAppError(code ErrorCode, message string, statusCode int, details map[string]any) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

func NewValidationError(message string, details map[string]any) *AppError {
	return NewAppError(ErrorCodeValidationError, message, 400, details)
}

func NewNotFoundResource(resource, id string) *AppError {
	message := resource + " not found"
	details := map[string]any{
		"resource": resource,
	}
	if id != "" {
		message = resource + " not found: " + id
		details["id"] = id
	}
	return NewAppError(ErrorCodeNotFound, message, 404, details)
}

func NewPlayerNotFoundError(id string) *AppError {
	return NewAppError(ErrorCodePlayerNotFound, "player not found: "+id, 404, map[string]any{"id": id})
}

// NewBusUnavailableError wraps a failed publish or subscribe on the message bus.
func NewBusUnavailableError(message string) *AppError {
	return NewAppError(ErrorCodeBusUnavailable, message, 502, nil)
}

func NewUnsupportedContentError(message string) *AppError {
	return NewAppError(ErrorCodeContentTypeUnsupported, message, 400, nil)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrorCodeInternalError, message, 500, nil)
}

// EnsureAppError converts an arbitrary error into an AppError.
func EnsureAppError(err error) *AppError {
	if err == nil {
		return NewInternalError("Unknown error")
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalError("Internal server error")
}
