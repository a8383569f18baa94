package request

import "github.com/infigaming-com/fxboard/errors"

const (
	ErrCodeInvalidSlowRequestThreshold = 11000 + iota
	ErrCodeFailedToCreateRequest
	ErrCodeFailedToSendRequest
	ErrCodeFailedToReadResponseBody
	ErrCodeRequestTimeout
)

var (
	ErrInvalidSlowRequestThreshold = errors.NewError(ErrCodeInvalidSlowRequestThreshold, "invalid slow request threshold", nil)
	ErrFailedToCreateRequest       = errors.NewError(ErrCodeFailedToCreateRequest, "failed to create request", nil)
	ErrFailedToSendRequest         = errors.NewError(ErrCodeFailedToSendRequest, "failed to send request", nil)
	ErrFailedToReadResponseBody    = errors.NewError(ErrCodeFailedToReadResponseBody, "failed to read response body", nil)
	ErrRequestTimeout              = errors.NewError(ErrCodeRequestTimeout, "request timeout", nil)
)
