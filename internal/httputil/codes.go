package httputil

// Machine-readable error codes returned alongside human messages.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidation         = "VALIDATION_ERROR"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodePasswordIncorrect  = "PASSWORD_INCORRECT"
	CodeInternalError      = "INTERNAL_ERROR"
)
