package check_availability

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	checkAvailability "github.com/m04kA/SMC-SchedulingService/internal/usecase/check_availability"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	ResourceID  int64        `json:"resourceId"`
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
	Occurrences []Occurrence `json:"occurrences"`
}

// Occurrence вхождение окна доступности
type Occurrence struct {
	WindowID   int64                     `json:"windowId"`
	Title      string                    `json:"title"`
	Start      time.Time                 `json:"start"`
	End        time.Time                 `json:"end"`
	Bookings   []*models.BookingResponse `json:"bookings"`
	FreeRanges []Range                   `json:"freeRanges"`
}

// Range свободный интервал
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *checkAvailability.Response) *AvailabilityResponse {
	occurrences := make([]Occurrence, len(resp.Occurrences))
	for i, o := range resp.Occurrences {
		occurrences[i] = Occurrence{
			WindowID:   o.WindowID,
			Title:      o.Title,
			Start:      o.Interval.Start,
			End:        o.Interval.End,
			Bookings:   models.FromDomainBookingList(o.Bookings),
			FreeRanges: toRanges(o.FreeRanges),
		}
	}

	return &AvailabilityResponse{
		ResourceID:  resp.ResourceID,
		Start:       resp.Start,
		End:         resp.End,
		Occurrences: occurrences,
	}
}

func toRanges(intervals []domain.Interval) []Range {
	res := make([]Range, len(intervals))
	for i, iv := range intervals {
		res[i] = Range{Start: iv.Start, End: iv.End}
	}
	return res
}
