package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

type txKey struct{}

type referenceKey struct {
	tenantID  int64
	reference string
}

// Store хранилище в памяти для окон доступности и бронирований
// Все транзакции сериализуются одним мьютексом, при ошибке состояние откатывается к снимку
type Store struct {
	mu sync.Mutex

	windows    map[int64]domain.AvailabilityWindow
	bookings   map[int64]domain.Booking
	references map[referenceKey]int64

	nextWindowID  int64
	nextBookingID int64

	now func() time.Time
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		windows:    make(map[int64]domain.AvailabilityWindow),
		bookings:   make(map[int64]domain.Booking),
		references: make(map[referenceKey]int64),
		now:        time.Now,
	}
}

// Bookings возвращает репозиторий бронирований поверх хранилища
func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{store: s}
}

// Windows возвращает репозиторий окон доступности поверх хранилища
func (s *Store) Windows() *WindowRepository {
	return &WindowRepository{store: s}
}

// DoSerializable выполняет fn атомарно относительно других операций хранилища
// Вложенный вызов выполняется в рамках внешней транзакции
func (s *Store) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	// Контекст отменён до фиксации - изменения не применяются
	if err := ctx.Err(); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// lock захватывает мьютекс, если вызов выполняется вне транзакции
// DoReadOnly выполняет fn под блокировкой хранилища без снимка для отката
func (s *Store) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(context.WithValue(ctx, txKey{}, s))
}

func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

type snapshot struct {
	windows    map[int64]domain.AvailabilityWindow
	bookings   map[int64]domain.Booking
	references map[referenceKey]int64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		windows:    make(map[int64]domain.AvailabilityWindow, len(s.windows)),
		bookings:   make(map[int64]domain.Booking, len(s.bookings)),
		references: make(map[referenceKey]int64, len(s.references)),
	}
	for k, v := range s.windows {
		snap.windows[k] = v
	}
	for k, v := range s.bookings {
		snap.bookings[k] = v
	}
	for k, v := range s.references {
		snap.references[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.windows = snap.windows
	s.bookings = snap.bookings
	s.references = snap.references
}

// WithClock задает источник времени для полей created_at/updated_at
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}
