package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidCursor = errors.New("invalid pagination cursor")
	ErrForbidden     = errors.New("user not authorized to perform this action")
	ErrAlreadyExists = errors.New("already exists")
)
