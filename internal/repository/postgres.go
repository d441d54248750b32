// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/dealer-backoffice/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUserExists возвращается при попытке создать пользователя с уже существующим логином.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrLeaveRequestNotFound возвращается, если заявка на отсутствие не найдена.
	ErrLeaveRequestNotFound = errors.New("leave request not found")
	// ErrLeaveRequestDecided возвращается при повторном решении по заявке.
	ErrLeaveRequestDecided = errors.New("leave request already decided")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(retryDelays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(retryDelays) {
			break
		}

		timer := time.NewTimer(retryDelays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Ping проверяет доступность БД.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// CreateUser создаёт нового пользователя.
func (r *PostgresRepository) CreateUser(ctx context.Context, login string, passwordHash []byte) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (login, password_hash) VALUES ($1, $2) RETURNING id`,
		login, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, login)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByLogin возвращает пользователя по логину.
func (r *PostgresRepository) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	var u model.User
	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, login, password_hash, created_at FROM users WHERE login = $1`,
			login,
		).Scan(&u.ID, &u.Login, &u.PasswordHash, &u.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// CreateQuotation сохраняет коммерческое предложение.
func (r *PostgresRepository) CreateQuotation(ctx context.Context, q *model.Quotation) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO quotations (
			id, user_id, customer_name, vin, tax_rate_percent, is_tax_inclusive, add_on_included,
			total_or_base_price, base_price, tax_amount, non_taxable_add_on, grand_total
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at`,
		q.ID, q.UserID, q.CustomerName, q.VIN, q.TaxRatePercent, q.IsTaxInclusive, q.AddOnIncluded,
		q.TotalOrBasePriceCents, q.BasePriceCents, q.TaxAmountCents, q.NonTaxableAddOnCents, q.GrandTotalCents,
	).Scan(&q.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert quotation: %w", err)
	}
	return nil
}

// GetQuotationsByUser возвращает предложения пользователя, новые первыми.
func (r *PostgresRepository) GetQuotationsByUser(ctx context.Context, userID int64) ([]model.Quotation, error) {
	var res []model.Quotation

	err := r.withRetry(ctx, func() error {
		res = nil

		rows, err := r.pool.Query(ctx,
			`SELECT id, user_id, customer_name, vin, tax_rate_percent, is_tax_inclusive, add_on_included,
			        total_or_base_price, base_price, tax_amount, non_taxable_add_on, grand_total, created_at
			 FROM quotations
			 WHERE user_id = $1
			 ORDER BY created_at DESC`,
			userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var q model.Quotation
			if err := rows.Scan(
				&q.ID, &q.UserID, &q.CustomerName, &q.VIN, &q.TaxRatePercent, &q.IsTaxInclusive, &q.AddOnIncluded,
				&q.TotalOrBasePriceCents, &q.BasePriceCents, &q.TaxAmountCents, &q.NonTaxableAddOnCents,
				&q.GrandTotalCents, &q.CreatedAt,
			); err != nil {
				return fmt.Errorf("scan quotation: %w", err)
			}
			res = append(res, q)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("select quotations: %w", err)
	}

	return res, nil
}

const leaveRequestColumns = `id, user_id, kind, start_date, start_time, duration_value, end_date, end_time,
	reason, status, decided_by, decided_at, created_at`

func scanLeaveRequest(row pgx.Row) (model.LeaveRequest, error) {
	var (
		lr     model.LeaveRequest
		status string
	)
	err := row.Scan(
		&lr.ID, &lr.UserID, &lr.Kind, &lr.StartDate, &lr.StartTime, &lr.DurationValue, &lr.EndDate, &lr.EndTime,
		&lr.Reason, &status, &lr.DecidedBy, &lr.DecidedAt, &lr.CreatedAt,
	)
	lr.Status = model.LeaveStatus(status)
	return lr, err
}

// CreateLeaveRequest сохраняет заявку на отсутствие.
func (r *PostgresRepository) CreateLeaveRequest(ctx context.Context, lr *model.LeaveRequest) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO leave_requests (id, user_id, kind, start_date, start_time, duration_value, end_date, end_time, reason, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		lr.ID, lr.UserID, lr.Kind, lr.StartDate, lr.StartTime, lr.DurationValue, lr.EndDate, lr.EndTime,
		lr.Reason, string(lr.Status),
	).Scan(&lr.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert leave request: %w", err)
	}
	return nil
}

// GetLeaveRequestsByUser возвращает заявки пользователя, новые первыми.
func (r *PostgresRepository) GetLeaveRequestsByUser(ctx context.Context, userID int64) ([]model.LeaveRequest, error) {
	var res []model.LeaveRequest

	err := r.withRetry(ctx, func() error {
		res = nil

		rows, err := r.pool.Query(ctx,
			`SELECT `+leaveRequestColumns+`
			 FROM leave_requests
			 WHERE user_id = $1
			 ORDER BY created_at DESC`,
			userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			lr, err := scanLeaveRequest(rows)
			if err != nil {
				return fmt.Errorf("scan leave request: %w", err)
			}
			res = append(res, lr)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("select leave requests: %w", err)
	}

	return res, nil
}

// DecideLeaveRequest переводит заявку из статуса PENDING в указанный статус.
// Строка заявки блокируется, чтобы два руководителя не приняли решение одновременно.
func (r *PostgresRepository) DecideLeaveRequest(ctx context.Context, id uuid.UUID, status model.LeaveStatus, deciderID int64) (*model.LeaveRequest, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM leave_requests WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeaveRequestNotFound
		}
		return nil, fmt.Errorf("lock leave request: %w", err)
	}

	if model.LeaveStatus(current) != model.LeaveStatusPending {
		return nil, ErrLeaveRequestDecided
	}

	lr, err := scanLeaveRequest(tx.QueryRow(ctx,
		`UPDATE leave_requests
		 SET status = $2, decided_by = $3, decided_at = now()
		 WHERE id = $1
		 RETURNING `+leaveRequestColumns,
		id, string(status), deciderID,
	))
	if err != nil {
		return nil, fmt.Errorf("update leave request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &lr, nil
}

// ApprovedPermissionHours возвращает сумму часов одобренных отпрашиваний пользователя,
// начинающихся в указанный день.
func (r *PostgresRepository) ApprovedPermissionHours(ctx context.Context, userID int64, day time.Time) (float64, error) {
	var hours float64
	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COALESCE(SUM(duration_value), 0)
			 FROM leave_requests
			 WHERE user_id = $1 AND start_date = $2 AND kind = $3 AND status = $4`,
			userID, day, "hourlyPermission", string(model.LeaveStatusApproved),
		).Scan(&hours)
	})
	if err != nil {
		return 0, fmt.Errorf("sum approved permissions: %w", err)
	}
	return hours, nil
}

// UpsertAttendance сохраняет отметку о рабочем дне. Повторная отметка за тот же день
// заменяет предыдущую.
func (r *PostgresRepository) UpsertAttendance(ctx context.Context, e *model.AttendanceEntry) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attendance_entries (
			user_id, work_date, hours_worked, expected_hours, allowance_hours, effective_expected_hours, percentage
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, work_date) DO UPDATE SET
			hours_worked = EXCLUDED.hours_worked,
			expected_hours = EXCLUDED.expected_hours,
			allowance_hours = EXCLUDED.allowance_hours,
			effective_expected_hours = EXCLUDED.effective_expected_hours,
			percentage = EXCLUDED.percentage
		 RETURNING id, created_at`,
		e.UserID, e.WorkDate, e.HoursWorked, e.ExpectedHours, e.EarlyDepartureAllowanceHours,
		e.EffectiveExpectedHours, e.Percentage,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// GetAttendanceByUser возвращает отметки пользователя, последние дни первыми.
func (r *PostgresRepository) GetAttendanceByUser(ctx context.Context, userID int64) ([]model.AttendanceEntry, error) {
	var res []model.AttendanceEntry

	err := r.withRetry(ctx, func() error {
		res = nil

		rows, err := r.pool.Query(ctx,
			`SELECT id, user_id, work_date, hours_worked, expected_hours, allowance_hours,
			        effective_expected_hours, percentage, created_at
			 FROM attendance_entries
			 WHERE user_id = $1
			 ORDER BY work_date DESC`,
			userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e model.AttendanceEntry
			if err := rows.Scan(
				&e.ID, &e.UserID, &e.WorkDate, &e.HoursWorked, &e.ExpectedHours, &e.EarlyDepartureAllowanceHours,
				&e.EffectiveExpectedHours, &e.Percentage, &e.CreatedAt,
			); err != nil {
				return fmt.Errorf("scan attendance: %w", err)
			}
			res = append(res, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("select attendance: %w", err)
	}

	return res, nil
}
