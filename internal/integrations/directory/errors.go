package directory

import "errors"

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден или неактивен
	ErrResourceNotFound = errors.New("directory: resource not found")

	// ErrUserNotFound возвращается, когда пользователь не найден или неактивен
	ErrUserNotFound = errors.New("directory: user not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("directory client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("directory client: invalid response")
)
