package get_available_slots

import (
	"fmt"
	"strconv"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	Date            string          `json:"date"`
	ResourceID      int64           `json:"resourceId"`
	TimeZone        string          `json:"timeZone"`
	DurationMinutes int             `json:"durationMinutes"`
	AvailableCount  int             `json:"availableCount"`
	Slots           []AvailableSlot `json:"slots"`
}

// AvailableSlot модель временного слота
type AvailableSlot struct {
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	IsAvailable bool      `json:"isAvailable"`
	WindowID    int64     `json:"windowId"`
	Cost        *float64  `json:"cost,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
// Время слотов отдается в часовом поясе запроса
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	loc := resp.Date.Location()
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			StartTime:   slot.StartTime.In(loc),
			EndTime:     slot.EndTime.In(loc),
			IsAvailable: slot.IsAvailable,
			WindowID:    slot.WindowID,
			Cost:        slot.Cost,
			Reason:      slot.Reason,
		}
	}

	return &AvailableSlotsResponse{
		Date:            resp.Date.Format(domain.DateFormat),
		ResourceID:      resp.ResourceID,
		TimeZone:        resp.TimeZone,
		DurationMinutes: resp.DurationMinutes,
		AvailableCount:  resp.AvailableCount(),
		Slots:           slots,
	}
}

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(tenantID, resourceID int64, assigneeID *int64, dateStr, durationStr, tz string) (*getAvailableSlots.Request, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}

	duration, err := strconv.Atoi(durationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q: %w", durationStr, err)
	}

	return &getAvailableSlots.Request{
		TenantID:        tenantID,
		ResourceID:      resourceID,
		AssigneeID:      assigneeID,
		Date:            date,
		DurationMinutes: duration,
		TimeZone:        tz,
	}, nil
}
