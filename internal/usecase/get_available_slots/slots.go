package get_available_slots

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// dayInterval возвращает сутки [00:00, следующая полночь) в часовом поясе loc
func dayInterval(date time.Time, loc *time.Location) domain.Interval {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return domain.Interval{Start: start, End: start.AddDate(0, 0, 1)}
}

// candidateSlots генерирует интервалы [t, t+duration) внутри вхождения, обрезанного до суток
// Шаг равен шагу слотов окна, слот не может выходить за конец вхождения.
// Сетка отсчитывается от начала вхождения, даже если оно началось накануне
//
// Пример: вхождение 09:00-17:00, шаг 30, длительность 60 → 09:00, 09:30, ..., 16:00
func candidateSlots(occurrence, day domain.Interval, stepMinutes, durationMinutes int) []domain.Interval {
	clipped, ok := occurrence.Intersect(day)
	if !ok || stepMinutes <= 0 {
		return nil
	}

	step := time.Duration(stepMinutes) * time.Minute
	first := clipped.Start
	if rem := first.Sub(occurrence.Start) % step; rem != 0 {
		first = first.Add(step - rem)
	}

	res := make([]domain.Interval, 0)
	for t := first; ; t = domain.AddMinutes(t, stepMinutes) {
		candidate := domain.NewInterval(t, durationMinutes)
		if candidate.End.After(clipped.End) {
			break
		}
		res = append(res, candidate)
	}
	return res
}

// sortSlots сортирует слоты по началу, при равенстве по ID окна
func sortSlots(slots []domain.TimeSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if !slots[i].StartTime.Equal(slots[j].StartTime) {
			return slots[i].StartTime.Before(slots[j].StartTime)
		}
		return slots[i].WindowID < slots[j].WindowID
	})
}
