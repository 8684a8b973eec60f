package availability

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

const table = "availability_windows"

var columns = []string{
	"id",
	"tenant_id",
	"resource_id",
	"staff_id",
	"title",
	"start_time",
	"end_time",
	"time_zone",
	"is_all_day",
	"recurrence_type",
	"recurrence_interval",
	"days_of_week",
	"day_of_month",
	"recurrence_end_date",
	"max_occurrences",
	"min_booking_duration_minutes",
	"max_booking_duration_minutes",
	"slot_interval_minutes",
	"enforce_slot_alignment",
	"buffer_before_minutes",
	"buffer_after_minutes",
	"min_advance_notice_hours",
	"max_advance_booking_days",
	"max_concurrent_bookings",
	"current_bookings",
	"max_bookings",
	"utilization",
	"base_price",
	"price_per_hour",
	"currency",
	"is_active",
	"is_published",
	"requires_approval",
	"created_at",
	"created_by",
	"updated_at",
	"updated_by",
	"deleted_at",
	"deleted_by",
}

// utilizationExpr пересчитывает процент заполнения по новому значению счётчика
const utilizationExpr = "CASE WHEN max_bookings = 0 THEN 0 ELSE ROUND((%s) * 100.0 / max_bookings, 2) END"

// Repository репозиторий окон доступности
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория окон доступности
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает окно доступности
// Если в контексте передана активная транзакция, использует её
func (r *Repository) Create(ctx context.Context, w *domain.AvailabilityWindow) (*domain.AvailabilityWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"tenant_id",
			"resource_id",
			"staff_id",
			"title",
			"start_time",
			"end_time",
			"time_zone",
			"is_all_day",
			"recurrence_type",
			"recurrence_interval",
			"days_of_week",
			"day_of_month",
			"recurrence_end_date",
			"max_occurrences",
			"min_booking_duration_minutes",
			"max_booking_duration_minutes",
			"slot_interval_minutes",
			"enforce_slot_alignment",
			"buffer_before_minutes",
			"buffer_after_minutes",
			"min_advance_notice_hours",
			"max_advance_booking_days",
			"max_concurrent_bookings",
			"current_bookings",
			"max_bookings",
			"utilization",
			"base_price",
			"price_per_hour",
			"currency",
			"is_active",
			"is_published",
			"requires_approval",
			"created_by",
		).
		Values(
			w.TenantID,
			w.ResourceID,
			w.StaffID,
			w.Title,
			w.StartTime.UTC(),
			w.EndTime.UTC(),
			w.TimeZone,
			w.IsAllDay,
			recurrenceType(w.Recurrence.Type),
			w.Recurrence.Interval,
			pq.Array(weekdaysToInts(w.Recurrence.DaysOfWeek)),
			w.Recurrence.DayOfMonth,
			w.Recurrence.EndDate,
			w.Recurrence.MaxOccurrences,
			w.MinBookingDurationMinutes,
			w.MaxBookingDurationMinutes,
			w.SlotIntervalMinutes,
			w.EnforceSlotAlignment,
			w.BufferBeforeMinutes,
			w.BufferAfterMinutes,
			w.MinAdvanceNoticeHours,
			w.MaxAdvanceBookingDays,
			w.MaxConcurrentBookings,
			w.CurrentBookings,
			w.MaxBookings,
			domain.ComputeUtilization(w.CurrentBookings, w.MaxBookings),
			w.BasePrice,
			w.PricePerHour,
			w.Currency,
			w.IsActive,
			w.IsPublished,
			w.RequiresApproval,
			w.CreatedBy,
		).
		Suffix("RETURNING id, utilization, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&w.ID,
		&w.Utilization,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return w, nil
}

// GetByID получает неудалённое окно доступности арендатора
func (r *Repository) GetByID(ctx context.Context, tenantID, id int64) (*domain.AvailabilityWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID, "deleted_at": nil}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %w", ErrBuildQuery, err)
	}

	w, err := scanWindow(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWindowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan window: %w", ErrScanRow, err)
	}

	return w, nil
}

// List получает окна доступности по фильтру
// Фильтр по ресурсу включает окна без привязки к ресурсу (применимые к любому)
func (r *Repository) List(ctx context.Context, filter domain.WindowsFilter) ([]*domain.AvailabilityWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"tenant_id": filter.TenantID})

	if filter.ResourceID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Or{
			squirrel.Eq{"resource_id": *filter.ResourceID},
			squirrel.Eq{"resource_id": nil},
		})
	}
	if filter.StaffID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"staff_id": *filter.StaffID})
	}
	if filter.OnlyBookable {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"is_active": true, "is_published": true})
	}
	if !filter.IncludeDeleted {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"deleted_at": nil})
	}
	if filter.During != nil {
		selectBuilder = selectBuilder.Where(mayOccurIn(*filter.During))
	}

	selectBuilder = selectBuilder.OrderBy("start_time ASC", "id ASC")
	if !filter.Unlimited {
		limit := filter.Limit
		if limit == 0 {
			limit = domain.DefaultListLimit
		}
		selectBuilder = selectBuilder.Limit(limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	windows := make([]*domain.AvailabilityWindow, 0)
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan window: %w", ErrScanRow, err)
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %w", ErrScanRow, err)
	}

	return windows, nil
}

// mayOccurIn отбирает окна, у которых может быть вхождение в диапазоне (как domain.MayOccurIn)
// Разовое окно должно пересекаться с диапазоном, серия - начаться до его конца и не закончиться раньше начала
func mayOccurIn(rng domain.Interval) squirrel.Sqlizer {
	single := []string{"", string(domain.RecurrenceNone)}
	return squirrel.Or{
		squirrel.And{
			squirrel.Eq{"recurrence_type": single},
			squirrel.Gt{"end_time": rng.Start},
			squirrel.Lt{"start_time": rng.End},
		},
		squirrel.And{
			squirrel.NotEq{"recurrence_type": single},
			squirrel.Lt{"start_time": rng.End},
			squirrel.Or{
				squirrel.Eq{"recurrence_end_date": nil},
				squirrel.Expr("recurrence_end_date + (end_time - start_time) + INTERVAL '2 days' > ?", rng.Start),
			},
		},
	}
}

// Update обновляет параметры окна
// Счётчик current_bookings не перезаписывается, utilization пересчитывается по новому max_bookings
func (r *Repository) Update(ctx context.Context, w *domain.AvailabilityWindow) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("resource_id", w.ResourceID).
		Set("staff_id", w.StaffID).
		Set("title", w.Title).
		Set("start_time", w.StartTime.UTC()).
		Set("end_time", w.EndTime.UTC()).
		Set("time_zone", w.TimeZone).
		Set("is_all_day", w.IsAllDay).
		Set("recurrence_type", recurrenceType(w.Recurrence.Type)).
		Set("recurrence_interval", w.Recurrence.Interval).
		Set("days_of_week", pq.Array(weekdaysToInts(w.Recurrence.DaysOfWeek))).
		Set("day_of_month", w.Recurrence.DayOfMonth).
		Set("recurrence_end_date", w.Recurrence.EndDate).
		Set("max_occurrences", w.Recurrence.MaxOccurrences).
		Set("min_booking_duration_minutes", w.MinBookingDurationMinutes).
		Set("max_booking_duration_minutes", w.MaxBookingDurationMinutes).
		Set("slot_interval_minutes", w.SlotIntervalMinutes).
		Set("enforce_slot_alignment", w.EnforceSlotAlignment).
		Set("buffer_before_minutes", w.BufferBeforeMinutes).
		Set("buffer_after_minutes", w.BufferAfterMinutes).
		Set("min_advance_notice_hours", w.MinAdvanceNoticeHours).
		Set("max_advance_booking_days", w.MaxAdvanceBookingDays).
		Set("max_concurrent_bookings", w.MaxConcurrentBookings).
		Set("max_bookings", w.MaxBookings).
		Set("utilization", squirrel.Expr(
			"CASE WHEN ?::int = 0 THEN 0 ELSE ROUND(current_bookings * 100.0 / ?::int, 2) END",
			w.MaxBookings, w.MaxBookings,
		)).
		Set("base_price", w.BasePrice).
		Set("price_per_hour", w.PricePerHour).
		Set("currency", w.Currency).
		Set("is_active", w.IsActive).
		Set("is_published", w.IsPublished).
		Set("requires_approval", w.RequiresApproval).
		Set("updated_by", w.UpdatedBy).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": w.ID, "tenant_id": w.TenantID, "deleted_at": nil}).
		Suffix("RETURNING current_bookings, utilization, updated_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %w", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&w.CurrentBookings, &w.Utilization, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrWindowNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}

	return nil
}

// SoftDelete помечает окно удалённым
func (r *Repository) SoftDelete(ctx context.Context, tenantID, id, deletedBy int64, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("deleted_at", at.UTC()).
		Set("deleted_by", deletedBy).
		Set("is_active", false).
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
		return ErrWindowNotFound
	}

	return nil
}

// IncrementUsage атомарно увеличивает current_bookings
// Условие max_bookings = 0 OR current_bookings < max_bookings проверяется в том же UPDATE,
// поэтому параллельные бронирования не могут превысить лимит
func (r *Repository) IncrementUsage(ctx context.Context, windowID int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("current_bookings", squirrel.Expr("current_bookings + 1")).
		Set("utilization", squirrel.Expr(fmt.Sprintf(utilizationExpr, "current_bookings + 1"))).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": windowID, "deleted_at": nil}).
		Where(squirrel.Or{
			squirrel.Eq{"max_bookings": 0},
			squirrel.Expr("current_bookings < max_bookings"),
		}).
		Suffix("RETURNING current_bookings").
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: IncrementUsage - build update query: %w", ErrBuildQuery, err)
	}

	var current int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUsageLimitReached
	}
	if err != nil {
		return 0, fmt.Errorf("%w: IncrementUsage - execute update: %w", ErrExecQuery, err)
	}

	return current, nil
}

// DecrementUsage атомарно уменьшает current_bookings, не опуская его ниже нуля
func (r *Repository) DecrementUsage(ctx context.Context, windowID int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("current_bookings", squirrel.Expr("GREATEST(current_bookings - 1, 0)")).
		Set("utilization", squirrel.Expr(fmt.Sprintf(utilizationExpr, "GREATEST(current_bookings - 1, 0)"))).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": windowID}).
		Suffix("RETURNING current_bookings").
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: DecrementUsage - build update query: %w", ErrBuildQuery, err)
	}

	var current int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrWindowNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: DecrementUsage - execute update: %w", ErrExecQuery, err)
	}

	return current, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWindow(row rowScanner) (*domain.AvailabilityWindow, error) {
	var (
		w          domain.AvailabilityWindow
		recType    string
		daysOfWeek pq.Int64Array
	)

	err := row.Scan(
		&w.ID,
		&w.TenantID,
		&w.ResourceID,
		&w.StaffID,
		&w.Title,
		&w.StartTime,
		&w.EndTime,
		&w.TimeZone,
		&w.IsAllDay,
		&recType,
		&w.Recurrence.Interval,
		&daysOfWeek,
		&w.Recurrence.DayOfMonth,
		&w.Recurrence.EndDate,
		&w.Recurrence.MaxOccurrences,
		&w.MinBookingDurationMinutes,
		&w.MaxBookingDurationMinutes,
		&w.SlotIntervalMinutes,
		&w.EnforceSlotAlignment,
		&w.BufferBeforeMinutes,
		&w.BufferAfterMinutes,
		&w.MinAdvanceNoticeHours,
		&w.MaxAdvanceBookingDays,
		&w.MaxConcurrentBookings,
		&w.CurrentBookings,
		&w.MaxBookings,
		&w.Utilization,
		&w.BasePrice,
		&w.PricePerHour,
		&w.Currency,
		&w.IsActive,
		&w.IsPublished,
		&w.RequiresApproval,
		&w.CreatedAt,
		&w.CreatedBy,
		&w.UpdatedAt,
		&w.UpdatedBy,
		&w.DeletedAt,
		&w.DeletedBy,
	)
	if err != nil {
		return nil, err
	}

	w.Recurrence.Type = domain.RecurrenceType(recType)
	w.Recurrence.DaysOfWeek = intsToWeekdays(daysOfWeek)
	w.StartTime = w.StartTime.UTC()
	w.EndTime = w.EndTime.UTC()

	return &w, nil
}

func recurrenceType(t domain.RecurrenceType) string {
	if t == "" {
		return string(domain.RecurrenceNone)
	}
	return string(t)
}

func weekdaysToInts(days []time.Weekday) []int64 {
	res := make([]int64, 0, len(days))
	for _, d := range days {
		res = append(res, int64(d))
	}
	return res
}

func intsToWeekdays(days []int64) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	res := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		res = append(res, time.Weekday(d))
	}
	return res
}
