package tools

import "errors"

var (
	ErrToolUnregistered      = errors.New("tool is not registered")
	ErrToolAlreadyRegistered = errors.New("tool is already registered")
	ErrInvalidToolSpec       = errors.New("invalid tool spec")
	ErrInvalidArguments      = errors.New("invalid tool arguments")
)
