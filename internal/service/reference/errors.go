package reference

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках аллокатора
	ErrInternal = errors.New("reference: internal error")
)
