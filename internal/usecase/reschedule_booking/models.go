package reschedule_booking

import "time"

// Request модель запроса на перенос бронирования
type Request struct {
	TenantID  int64     // ID арендатора
	UserID    int64     // ID пользователя, выполняющего перенос
	BookingID int64     // ID переносимого бронирования
	StartTime time.Time // Новое начало интервала
	EndTime   time.Time // Новый конец интервала (не включается)
}
