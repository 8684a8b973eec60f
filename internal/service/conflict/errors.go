package conflict

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках детектора
	ErrInternal = errors.New("conflict: internal error")
)
