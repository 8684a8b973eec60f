package create_booking

import (
	"time"
)

// Request модель запроса на создание бронирования
type Request struct {
	TenantID    int64     // ID арендатора
	RequesterID int64     // ID пользователя, который бронирует
	ResourceID  int64     // ID бронируемого ресурса
	AssigneeID  *int64    // ID исполнителя (опционально)
	StartTime   time.Time // Начало интервала
	EndTime     time.Time // Конец интервала (не включается)
	TimeZone    string    // Часовой пояс бронирования, по умолчанию UTC
	Notes       *string   // Дополнительные заметки (опционально)
}
