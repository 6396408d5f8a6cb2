package utils

import "errors"

// API error codes returned in the error envelope.
const (
	CodeInvalidFilter     = "INVALID_FILTER"
	CodeProductNotFound   = "PRODUCT_NOT_FOUND"
	CodeNoData            = "NO_DATA"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodePipelineFailed    = "PIPELINE_FAILED"
	CodeRequestTimeout    = "REQUEST_TIMEOUT"
	CodeInternalError     = "INTERNAL_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInvalidToken      = "INVALID_TOKEN"
)

// Common application errors.
var (
	ErrInvalidToken = errors.New("INVALID_TOKEN")
	ErrTokenExpired = errors.New("TOKEN_EXPIRED")
)
