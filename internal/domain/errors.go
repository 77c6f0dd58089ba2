package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidCursor = errors.New("invalid cursor")
	ErrInvalidRange  = errors.New("invalid range")
	ErrForbidden     = errors.New("forbidden")
	ErrBadRequest    = errors.New("bad request")
)
