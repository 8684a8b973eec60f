package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

const table = "bookings"

var columns = []string{
	"id",
	"tenant_id",
	"reference",
	"resource_id",
	"requester_id",
	"assignee_id",
	"availability_window_id",
	"start_time",
	"end_time",
	"duration_minutes",
	"time_zone",
	"status",
	"notes",
	"cost",
	"rescheduled_from_id",
	"rescheduled_to_id",
	"confirmed_at",
	"actual_start_at",
	"actual_end_at",
	"cancelled_at",
	"cancellation_reason",
	"created_at",
	"created_by",
	"updated_at",
	"updated_by",
	"deleted_at",
	"deleted_by",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Если в контексте передана активная транзакция (через context.Value), использует её.
//
// Номер бронирования уникален в пределах арендатора. При коллизии вставка не выполняется
// (ON CONFLICT DO NOTHING), транзакция остаётся рабочей, возвращается ErrReferenceTaken
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"tenant_id",
			"reference",
			"resource_id",
			"requester_id",
			"assignee_id",
			"availability_window_id",
			"start_time",
			"end_time",
			"duration_minutes",
			"time_zone",
			"status",
			"notes",
			"cost",
			"rescheduled_from_id",
			"created_by",
		).
		Values(
			booking.TenantID,
			booking.Reference,
			booking.ResourceID,
			booking.RequesterID,
			booking.AssigneeID,
			booking.AvailabilityWindowID,
			booking.StartTime.UTC(),
			booking.EndTime.UTC(),
			booking.DurationMinutes,
			booking.TimeZone,
			booking.Status,
			booking.Notes,
			booking.Cost,
			booking.RescheduledFromID,
			booking.CreatedBy,
		).
		Suffix("ON CONFLICT (tenant_id, reference) DO NOTHING RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReferenceTaken
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return booking, nil
}

// GetByID получает неудалённое бронирование арендатора по ID
func (r *Repository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID, "deleted_at": nil})

	// В транзакции блокируем строку до смены статуса
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %w", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %w", ErrScanRow, err)
	}

	return booking, nil
}

// ListActiveOverlapping возвращает активные бронирования ресурса, пересекающиеся с интервалом
// Пересечение полуоткрытое: start_time < iv.End AND end_time > iv.Start
// Внутри транзакции строки блокируются (FOR UPDATE), чтобы параллельное создание ждало фиксации
func (r *Repository) ListActiveOverlapping(ctx context.Context, tenantID, resourceID int64, iv domain.Interval, excludeID *int64) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{
			"tenant_id":   tenantID,
			"resource_id": resourceID,
			"status":      statusStrings(domain.ActiveStatuses),
			"deleted_at":  nil,
		}).
		Where(squirrel.Lt{"start_time": iv.End.UTC()}).
		Where(squirrel.Gt{"end_time": iv.Start.UTC()})

	if excludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeID})
	}

	selectBuilder = selectBuilder.OrderBy("start_time ASC", "id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveOverlapping - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveOverlapping - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// CountActiveByWindow считает активные бронирования, привязанные к окну
// Если iv задан, учитываются только пересекающиеся с ним бронирования
func (r *Repository) CountActiveByWindow(ctx context.Context, windowID int64, iv *domain.Interval, excludeID *int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("COUNT(*)").
		From(table).
		Where(squirrel.Eq{
			"availability_window_id": windowID,
			"status":                 statusStrings(domain.ActiveStatuses),
			"deleted_at":             nil,
		})

	if iv != nil {
		selectBuilder = selectBuilder.
			Where(squirrel.Lt{"start_time": iv.End.UTC()}).
			Where(squirrel.Gt{"end_time": iv.Start.UTC()})
	}
	if excludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountActiveByWindow - build select query: %w", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActiveByWindow - scan count: %w", ErrScanRow, err)
	}

	return count, nil
}

// MaxReference возвращает наибольший номер бронирования арендатора с префиксом
// Номера имеют фиксированную длину, поэтому лексикографический максимум совпадает с числовым.
// Пустая строка означает, что номеров с таким префиксом ещё нет
func (r *Repository) MaxReference(ctx context.Context, tenantID int64, prefix string) (string, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COALESCE(MAX(reference), '')").
		From(table).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Like{"reference": prefix + "%"}).
		ToSql()

	if err != nil {
		return "", fmt.Errorf("%w: MaxReference - build select query: %w", ErrBuildQuery, err)
	}

	var reference string
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&reference); err != nil {
		return "", fmt.Errorf("%w: MaxReference - scan reference: %w", ErrScanRow, err)
	}

	return reference, nil
}

// UpdateStatus сохраняет новый статус и аудиторские поля бронирования
// Обновление выполняется только если текущий статус в БД равен from (compare-and-swap),
// иначе возвращается ErrStatusChanged
func (r *Repository) UpdateStatus(ctx context.Context, booking *domain.Booking, from domain.BookingStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("status", booking.Status).
		Set("confirmed_at", booking.ConfirmedAt).
		Set("actual_start_at", booking.ActualStartAt).
		Set("actual_end_at", booking.ActualEndAt).
		Set("cancelled_at", booking.CancelledAt).
		Set("cancellation_reason", booking.CancellationReason).
		Set("rescheduled_to_id", booking.RescheduledToID).
		Set("updated_at", booking.UpdatedAt.UTC()).
		Set("updated_by", booking.UpdatedBy).
		Where(squirrel.Eq{
			"id":         booking.ID,
			"tenant_id":  booking.TenantID,
			"status":     from,
			"deleted_at": nil,
		}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %w", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrStatusChanged
	}

	return nil
}

// List получает бронирования арендатора с фильтрацией
// Без явного статуса и IncludeInactive возвращаются только активные бронирования
func (r *Repository) List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"tenant_id": filter.TenantID, "deleted_at": nil})

	if filter.ResourceID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"resource_id": *filter.ResourceID})
	}
	if filter.RequesterID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"requester_id": *filter.RequesterID})
	}
	if filter.AssigneeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"assignee_id": *filter.AssigneeID})
	}

	// Фильтрация по периоду
	if filter.From != nil {
		selectBuilder = selectBuilder.Where(squirrel.Gt{"end_time": filter.From.UTC()})
	}
	if filter.To != nil {
		selectBuilder = selectBuilder.Where(squirrel.Lt{"start_time": filter.To.UTC()})
	}

	// Фильтрация по статусу
	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeInactive {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(domain.ActiveStatuses)})
	}

	limit := filter.Limit
	if limit == 0 {
		limit = domain.DefaultListLimit
	}
	selectBuilder = selectBuilder.OrderBy("start_time ASC", "id ASC").Limit(limit)

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// SoftDelete помечает бронирование удалённым
// Физическое удаление не используется, история бронирований сохраняется
func (r *Repository) SoftDelete(ctx context.Context, tenantID, id, deletedBy int64, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("deleted_at", at.UTC()).
		Set("deleted_by", deletedBy).
		Set("updated_at", at.UTC()).
		Set("updated_by", deletedBy).
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID, "deleted_at": nil}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SoftDelete - build update query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SoftDelete - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: SoftDelete - get rows affected: %w", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking

	err := row.Scan(
		&booking.ID,
		&booking.TenantID,
		&booking.Reference,
		&booking.ResourceID,
		&booking.RequesterID,
		&booking.AssigneeID,
		&booking.AvailabilityWindowID,
		&booking.StartTime,
		&booking.EndTime,
		&booking.DurationMinutes,
		&booking.TimeZone,
		&booking.Status,
		&booking.Notes,
		&booking.Cost,
		&booking.RescheduledFromID,
		&booking.RescheduledToID,
		&booking.ConfirmedAt,
		&booking.ActualStartAt,
		&booking.ActualEndAt,
		&booking.CancelledAt,
		&booking.CancellationReason,
		&booking.CreatedAt,
		&booking.CreatedBy,
		&booking.UpdatedAt,
		&booking.UpdatedBy,
		&booking.DeletedAt,
		&booking.DeletedBy,
	)
	if err != nil {
		return nil, err
	}

	booking.StartTime = booking.StartTime.UTC()
	booking.EndTime = booking.EndTime.UTC()

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %w", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %w", ErrScanRow, err)
	}

	return bookings, nil
}

func statusStrings(statuses []domain.BookingStatus) []string {
	res := make([]string, len(statuses))
	for i, s := range statuses {
		res[i] = string(s)
	}
	return res
}
