package gql

import (
	"errors"

	"groupchat/internal/domain"
)

const (
	CodeNotFound      = "NOT_FOUND"
	CodeInvalidCursor = "INVALID_CURSOR"
	CodeInvalidRange  = "INVALID_RANGE"
	CodeForbidden     = "FORBIDDEN"
	CodeBadRequest    = "BAD_REQUEST"
	CodeInternal      = "INTERNAL"
)

// codedError carries a machine readable code into the GraphQL error's
// extensions.
type codedError struct {
	err  error
	code string
}

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

func (e *codedError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	return &codedError{err: err, code: errorCode(err)}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrInvalidCursor):
		return CodeInvalidCursor
	case errors.Is(err, domain.ErrInvalidRange):
		return CodeInvalidRange
	case errors.Is(err, domain.ErrForbidden):
		return CodeForbidden
	case errors.Is(err, domain.ErrBadRequest):
		return CodeBadRequest
	default:
		return CodeInternal
	}
}
