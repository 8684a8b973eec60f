package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модель запроса на получение слотов ресурса
type Request struct {
	TenantID        int64     // ID арендатора
	ResourceID      int64     // ID ресурса
	AssigneeID      *int64    // ID исполнителя (опционально, для окон сотрудников)
	Date            time.Time // Дата (используются только год, месяц и день)
	DurationMinutes int       // Длительность слота в минутах
	TimeZone        string    // Часовой пояс дня, по умолчанию UTC
}

// Response модель ответа со списком слотов
type Response struct {
	Date            time.Time         // Начало дня в запрошенном часовом поясе
	ResourceID      int64             // ID ресурса
	TimeZone        string            // Часовой пояс
	DurationMinutes int               // Длительность слотов
	Slots           []domain.TimeSlot // Слоты, отсортированные по началу
}

// AvailableCount возвращает количество свободных слотов
func (r *Response) AvailableCount() int {
	count := 0
	for _, s := range r.Slots {
		if s.IsAvailable {
			count++
		}
	}
	return count
}
