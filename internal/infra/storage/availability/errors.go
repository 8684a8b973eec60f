package availability

import "errors"

var (
	// ErrWindowNotFound возвращается, когда окно доступности не найдено или удалено
	ErrWindowNotFound = errors.New("availability.repository: window not found")

	// ErrUsageLimitReached возвращается, когда счётчик бронирований окна достиг max_bookings
	ErrUsageLimitReached = errors.New("availability.repository: usage limit reached")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("availability.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("availability.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("availability.repository: failed to scan row")
)
