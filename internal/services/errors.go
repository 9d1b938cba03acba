package services

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrDuplicateUser       = errors.New("user already registered")
	ErrUnknownUser         = errors.New("unknown user")
	ErrWrongPassword       = errors.New("wrong password")
	ErrInvalidImageRequest = errors.New("cannot delete and replace the image at once")
	ErrEmptyTagName        = errors.New("tag name is empty")
)
