package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-admin/internal/domain"
	"user-admin/internal/export"
	resp "user-admin/internal/transport/http/response"
)

// AppError carries a business code and a client-safe message. Err is logged,
// never shown.
type AppError struct {
	Code int
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *AppError) Unwrap() error { return e.Err }

func BadRequest(msg string) *AppError { return &AppError{Code: resp.CodeBadRequest, Msg: msg} }
func NotFound(msg string) *AppError   { return &AppError{Code: resp.CodeNotFound, Msg: msg} }
func Conflict(msg string) *AppError   { return &AppError{Code: resp.CodeConflict, Msg: msg} }
func Internal(msg string, err error) *AppError {
	return &AppError{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// toAppError maps service and domain errors onto the response codes.
func toAppError(err error) *AppError {
	var ae *AppError
	switch {
	case errors.As(err, &ae):
		return ae
	case domain.IsValidation(err):
		return BadRequest(err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		return NotFound("user not found")
	case errors.Is(err, domain.ErrDuplicateEmail):
		return Conflict("a user with this email already exists")
	case errors.Is(err, export.ErrArchiveDisabled):
		return &AppError{Code: resp.CodeUnavailable, Msg: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return &AppError{Code: resp.CodeTimeout, Msg: "timeout", Err: err}
	default:
		return Internal("internal error", err)
	}
}

func (h *AdminHandler) fail(c *gin.Context, err error) {
	ae := toAppError(err)
	if ae.Code >= 500 {
		_ = c.Error(err)
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	resp.Abort(c, ae.Code, ae.Msg)
}
