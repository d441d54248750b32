// Package service реализует бизнес-логику бэк-офиса автосалона.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/dealer-backoffice/internal/attendance"
	"github.com/mmeshcher/dealer-backoffice/internal/leave"
	"github.com/mmeshcher/dealer-backoffice/internal/model"
	"github.com/mmeshcher/dealer-backoffice/internal/pricing"
	"github.com/mmeshcher/dealer-backoffice/internal/repository"
	"github.com/mmeshcher/dealer-backoffice/internal/taxrate"
	"github.com/mmeshcher/dealer-backoffice/internal/validation"
)

var (
	// ErrInvalidCredentials возвращается при неверном логине или пароле.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden возвращается, если у пользователя нет прав на действие.
	ErrForbidden = errors.New("forbidden")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	Ping(ctx context.Context) error
	CreateUser(ctx context.Context, login string, passwordHash []byte) (int64, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	CreateQuotation(ctx context.Context, q *model.Quotation) error
	GetQuotationsByUser(ctx context.Context, userID int64) ([]model.Quotation, error)
	CreateLeaveRequest(ctx context.Context, lr *model.LeaveRequest) error
	GetLeaveRequestsByUser(ctx context.Context, userID int64) ([]model.LeaveRequest, error)
	DecideLeaveRequest(ctx context.Context, id uuid.UUID, status model.LeaveStatus, deciderID int64) (*model.LeaveRequest, error)
	ApprovedPermissionHours(ctx context.Context, userID int64, day time.Time) (float64, error)
	UpsertAttendance(ctx context.Context, e *model.AttendanceEntry) error
	GetAttendanceByUser(ctx context.Context, userID int64) ([]model.AttendanceEntry, error)
}

// RateProvider возвращает действующую ставку НДС из внешнего сервиса.
type RateProvider interface {
	FetchRate(ctx context.Context, country string) (taxrate.Update, error)
}

// Settings содержит бизнес-параметры сервиса.
type Settings struct {
	DefaultTaxRatePercent float64
	TaxRateCountry        string
	TaxRateRefresh        time.Duration
	ExpectedShiftHours    float64
	ManagerLogins         []string
}

// Service содержит бизнес-логику бэк-офиса.
type Service struct {
	repo     Repository
	rates    RateProvider
	settings Settings
	managers map[string]struct{}
	logger   *zap.Logger

	mu      sync.RWMutex
	taxRate model.TaxRate
}

// NewService создаёт новый сервис. rates может быть nil: тогда всегда используется ставка по умолчанию.
func NewService(repo Repository, rates RateProvider, settings Settings, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.TaxRateRefresh <= 0 {
		settings.TaxRateRefresh = time.Hour
	}

	managers := make(map[string]struct{}, len(settings.ManagerLogins))
	for _, login := range settings.ManagerLogins {
		if login = strings.TrimSpace(login); login != "" {
			managers[login] = struct{}{}
		}
	}

	return &Service{
		repo:     repo,
		rates:    rates,
		settings: settings,
		managers: managers,
		logger:   logger,
		taxRate: model.TaxRate{
			Country:     settings.TaxRateCountry,
			RatePercent: settings.DefaultTaxRatePercent,
			UpdatedAt:   time.Now().UTC(),
		},
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// RegisterUser регистрирует нового сотрудника.
func (s *Service) RegisterUser(ctx context.Context, login, password string) (int64, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.CreateUser(ctx, login, hashed)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return 0, repository.ErrUserExists
		}
		return 0, err
	}
	return id, nil
}

// AuthenticateUser проверяет логин и пароль сотрудника и возвращает его идентификатор.
func (s *Service) AuthenticateUser(ctx context.Context, login, password string) (int64, error) {
	u, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}

	return u.ID, nil
}

// IsManager сообщает, может ли сотрудник принимать решения по заявкам.
func (s *Service) IsManager(login string) bool {
	_, ok := s.managers[login]
	return ok
}

// CurrentTaxRate возвращает действующую ставку НДС.
func (s *Service) CurrentTaxRate() model.TaxRate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taxRate
}

func (s *Service) setTaxRate(rate model.TaxRate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taxRate = rate
}

// Breakdown рассчитывает разбивку цены. Если ставка не указана, берётся действующая.
func (s *Service) Breakdown(in pricing.QuoteInput) (pricing.Breakdown, error) {
	q, err := in.Quote(decimal.NewFromFloat(s.CurrentTaxRate().RatePercent))
	if err != nil {
		return pricing.Breakdown{}, err
	}
	return pricing.ComputeBreakdown(q)
}

// ResolveLeaveEnd вычисляет окончание заявки без сохранения.
func (s *Service) ResolveLeaveEnd(in leave.RequestInput) (leave.Resolution, error) {
	req, err := in.Request()
	if err != nil {
		return leave.Resolution{}, err
	}
	return leave.ResolveEnd(req)
}

// Progress рассчитывает процент выполнения смены без сохранения.
func (s *Service) Progress(in attendance.ProgressInput) (attendance.ProgressOutput, error) {
	return in.Compute()
}

// QuotationInput описывает запрос на создание коммерческого предложения.
type QuotationInput struct {
	CustomerName string             `json:"customerName"`
	VIN          string             `json:"vin,omitempty"`
	Quote        pricing.QuoteInput `json:"quote"`
}

// CreateQuotation рассчитывает и сохраняет коммерческое предложение.
func (s *Service) CreateQuotation(ctx context.Context, userID int64, in QuotationInput) (*model.Quotation, error) {
	customer := strings.TrimSpace(in.CustomerName)
	if customer == "" {
		return nil, validation.Invalid("customerName", "is required")
	}

	vin := validation.NormalizeVIN(in.VIN)
	if vin != "" && !validation.IsValidVIN(vin) {
		return nil, validation.Invalid("vin", "is not a valid 17-character VIN")
	}

	q, err := in.Quote.Quote(decimal.NewFromFloat(s.CurrentTaxRate().RatePercent))
	if err != nil {
		return nil, err
	}
	b, err := pricing.ComputeBreakdown(q)
	if err != nil {
		return nil, err
	}
	r := b.Rounded()

	quotation := &model.Quotation{
		ID:                    uuid.New(),
		UserID:                userID,
		CustomerName:          customer,
		VIN:                   vin,
		TaxRatePercent:        q.TaxRatePercent.InexactFloat64(),
		IsTaxInclusive:        q.IsTaxInclusive,
		AddOnIncluded:         q.AddOnIncluded,
		TotalOrBasePriceCents: pricing.Cents(q.TotalOrBasePrice),
		BasePriceCents:        pricing.Cents(r.BasePrice),
		TaxAmountCents:        pricing.Cents(r.TaxAmount),
		NonTaxableAddOnCents:  pricing.Cents(r.NonTaxableAddOn),
		GrandTotalCents:       pricing.Cents(r.GrandTotal),
	}

	if err := s.repo.CreateQuotation(ctx, quotation); err != nil {
		return nil, err
	}
	return quotation, nil
}

// GetQuotationsByUser возвращает коммерческие предложения сотрудника.
func (s *Service) GetQuotationsByUser(ctx context.Context, userID int64) ([]model.Quotation, error) {
	return s.repo.GetQuotationsByUser(ctx, userID)
}

// LeaveRequestInput описывает заявку на отсутствие вместе с комментарием.
type LeaveRequestInput struct {
	leave.RequestInput
	Reason string `json:"reason,omitempty"`
}

// SubmitLeaveRequest вычисляет окончание заявки и сохраняет её в статусе PENDING.
func (s *Service) SubmitLeaveRequest(ctx context.Context, userID int64, in LeaveRequestInput) (*model.LeaveRequest, error) {
	req, err := in.Request()
	if err != nil {
		return nil, err
	}
	res, err := leave.ResolveEnd(req)
	if err != nil {
		return nil, err
	}

	lr := &model.LeaveRequest{
		ID:            uuid.New(),
		UserID:        userID,
		Kind:          string(req.Kind),
		StartDate:     req.StartDate,
		DurationValue: req.DurationValue,
		EndDate:       res.EndDate,
		Reason:        strings.TrimSpace(in.Reason),
		Status:        model.LeaveStatusPending,
	}
	if req.StartTime != nil {
		v := req.StartTime.String()
		lr.StartTime = &v
	}
	if res.EndTime != nil {
		v := res.EndTime.String()
		lr.EndTime = &v
	}

	if err := s.repo.CreateLeaveRequest(ctx, lr); err != nil {
		return nil, err
	}
	return lr, nil
}

// GetLeaveRequestsByUser возвращает заявки сотрудника.
func (s *Service) GetLeaveRequestsByUser(ctx context.Context, userID int64) ([]model.LeaveRequest, error) {
	return s.repo.GetLeaveRequestsByUser(ctx, userID)
}

// DecideLeaveRequest одобряет или отклоняет заявку. Доступно только руководителям.
func (s *Service) DecideLeaveRequest(ctx context.Context, deciderID int64, deciderLogin string, id uuid.UUID, approve bool) (*model.LeaveRequest, error) {
	if !s.IsManager(deciderLogin) {
		return nil, ErrForbidden
	}

	status := model.LeaveStatusRejected
	if approve {
		status = model.LeaveStatusApproved
	}
	return s.repo.DecideLeaveRequest(ctx, id, status, deciderID)
}

// AttendanceInput описывает отметку об отработанном дне.
type AttendanceInput struct {
	WorkDate      string   `json:"workDate"`
	HoursWorked   *float64 `json:"hoursWorked"`
	ExpectedHours *float64 `json:"expectedHours,omitempty"`
}

// RecordAttendance сохраняет отметку о рабочем дне. Согласованный ранний уход
// равен сумме одобренных отпрашиваний за этот день, но не больше ожидаемых часов.
func (s *Service) RecordAttendance(ctx context.Context, userID int64, in AttendanceInput) (*model.AttendanceEntry, error) {
	day, err := validation.ParseDate("workDate", in.WorkDate)
	if err != nil {
		return nil, err
	}
	worked, err := validation.Required("hoursWorked", in.HoursWorked)
	if err != nil {
		return nil, err
	}

	expected := s.settings.ExpectedShiftHours
	if in.ExpectedHours != nil {
		expected = *in.ExpectedHours
	}
	if err := validation.Positive("expectedHours", expected); err != nil {
		return nil, err
	}

	allowance, err := s.repo.ApprovedPermissionHours(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if allowance > expected {
		allowance = expected
	}

	p, err := attendance.ComputeProgress(worked, expected, allowance)
	if err != nil {
		return nil, err
	}
	r := p.Rounded()

	entry := &model.AttendanceEntry{
		UserID:                       userID,
		WorkDate:                     day,
		HoursWorked:                  worked,
		ExpectedHours:                expected,
		EarlyDepartureAllowanceHours: allowance,
		EffectiveExpectedHours:       r.EffectiveExpectedHours,
		Percentage:                   r.Percentage,
	}
	if err := s.repo.UpsertAttendance(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetAttendanceByUser возвращает отметки сотрудника.
func (s *Service) GetAttendanceByUser(ctx context.Context, userID int64) ([]model.AttendanceEntry, error) {
	return s.repo.GetAttendanceByUser(ctx, userID)
}

// StartTaxRateUpdates запускает фоновое обновление ставки НДС из внешнего сервиса.
func (s *Service) StartTaxRateUpdates(ctx context.Context) {
	if s.rates == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(s.settings.TaxRateRefresh)
		defer ticker.Stop()

		s.refreshTaxRate(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refreshTaxRate(ctx)
			}
		}
	}()
}

func (s *Service) refreshTaxRate(ctx context.Context) {
	country := s.settings.TaxRateCountry

	for attempt := 0; attempt < 2; attempt++ {
		update, err := s.rates.FetchRate(ctx, country)

		var limited *taxrate.RateLimitError
		if errors.As(err, &limited) && limited.RetryAfter > 0 {
			timer := time.NewTimer(limited.RetryAfter)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			continue
		}
		if err != nil {
			s.logger.Warn("tax rate refresh failed", zap.Error(err), zap.String("country", country))
			return
		}
		if !update.Changed {
			return
		}

		s.setTaxRate(model.TaxRate{
			Country:     country,
			RatePercent: update.Rate.RatePercent,
			UpdatedAt:   time.Now().UTC(),
		})
		s.logger.Info("tax rate updated", zap.String("country", country), zap.Float64("rate", update.Rate.RatePercent))
		return
	}
}
