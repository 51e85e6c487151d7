package errors

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Code    int               `json:"code"`
	Reason  string            `json:"reason"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// NewErrorResponse converts any error into the response body. Errors that
// are not catalog errors are reported as internal errors without leaking
// their message.
func NewErrorResponse(err error) *ErrorResponse {
	e := errors.FromError(err)
	if e == nil {
		return nil
	}
	if e.Reason == "" {
		e = ErrInternalServerError
	}
	return &ErrorResponse{
		Code:    int(e.Code),
		Reason:  e.Reason,
		Message: e.Message,
		Details: e.Metadata,
	}
}
