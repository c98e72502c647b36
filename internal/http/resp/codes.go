package resp

// Application error codes carried in dto.ErrorResponse.
const (
	CodeBadRequest    = 40000
	CodeUnauthorized  = 40100
	CodeForbidden     = 40300
	CodeNotFound      = 40400
	CodeConflict      = 40900
	CodeGone          = 41000
	CodeInternalError = 50000
)
