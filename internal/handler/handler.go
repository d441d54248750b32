// Package handler содержит HTTP-обработчики API бэк-офиса автосалона.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/dealer-backoffice/internal/attendance"
	"github.com/mmeshcher/dealer-backoffice/internal/leave"
	"github.com/mmeshcher/dealer-backoffice/internal/middleware"
	"github.com/mmeshcher/dealer-backoffice/internal/model"
	"github.com/mmeshcher/dealer-backoffice/internal/pricing"
	"github.com/mmeshcher/dealer-backoffice/internal/repository"
	"github.com/mmeshcher/dealer-backoffice/internal/service"
	"github.com/mmeshcher/dealer-backoffice/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Ping(ctx context.Context) error
	RegisterUser(ctx context.Context, login, password string) (int64, error)
	AuthenticateUser(ctx context.Context, login, password string) (int64, error)
	CurrentTaxRate() model.TaxRate
	Breakdown(in pricing.QuoteInput) (pricing.Breakdown, error)
	ResolveLeaveEnd(in leave.RequestInput) (leave.Resolution, error)
	Progress(in attendance.ProgressInput) (attendance.ProgressOutput, error)
	CreateQuotation(ctx context.Context, userID int64, in service.QuotationInput) (*model.Quotation, error)
	GetQuotationsByUser(ctx context.Context, userID int64) ([]model.Quotation, error)
	SubmitLeaveRequest(ctx context.Context, userID int64, in service.LeaveRequestInput) (*model.LeaveRequest, error)
	GetLeaveRequestsByUser(ctx context.Context, userID int64) ([]model.LeaveRequest, error)
	DecideLeaveRequest(ctx context.Context, deciderID int64, deciderLogin string, id uuid.UUID, approve bool) (*model.LeaveRequest, error)
	RecordAttendance(ctx context.Context, userID int64, in service.AttendanceInput) (*model.AttendanceEntry, error)
	GetAttendanceByUser(ctx context.Context, userID int64) ([]model.AttendanceEntry, error)
}

// Handler реализует HTTP-обработчики API бэк-офиса.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, validation.ErrInvalidInput) || errors.Is(err, validation.ErrUnsupportedRequestKind)
}

// writeJSON кодирует ответ целиком до записи заголовков.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
		writeStatus(w, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeStatus(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}

// Healthz проверяет доступность хранилища.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Error("ping storage error", zap.Error(err))
		writeStatus(w, http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового сотрудника.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	userID, err := h.service.RegisterUser(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			writeStatus(w, http.StatusConflict)
			return
		}
		h.logger.Error("register user error", zap.Error(err))
		writeStatus(w, http.StatusInternalServerError)
		return
	}

	if err := h.authMiddleware.SetAuthCookie(w, userID, req.Login); err != nil {
		h.logger.Error("set auth cookie error", zap.Error(err))
		writeStatus(w, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Login выполняет аутентификацию сотрудника и установку cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	userID, err := h.service.AuthenticateUser(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeStatus(w, http.StatusUnauthorized)
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		writeStatus(w, http.StatusInternalServerError)
		return
	}

	if err := h.authMiddleware.SetAuthCookie(w, userID, req.Login); err != nil {
		h.logger.Error("set auth cookie error", zap.Error(err))
		writeStatus(w, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetTaxRate возвращает действующую ставку НДС.
func (h *Handler) GetTaxRate(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.CurrentTaxRate())
}

// CalcBreakdown рассчитывает разбивку цены без сохранения.
func (h *Handler) CalcBreakdown(w http.ResponseWriter, r *http.Request) {
	var in pricing.QuoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	b, err := h.service.Breakdown(in)
	if err != nil {
		h.writeError(w, err, "calc breakdown error")
		return
	}

	h.writeJSON(w, http.StatusOK, pricing.NewBreakdownOutput(b))
}

// CalcLeaveEnd вычисляет окончание заявки без сохранения.
func (h *Handler) CalcLeaveEnd(w http.ResponseWriter, r *http.Request) {
	var in leave.RequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	res, err := h.service.ResolveLeaveEnd(in)
	if err != nil {
		h.writeError(w, err, "calc leave end error")
		return
	}

	h.writeJSON(w, http.StatusOK, leave.NewResolutionOutput(res))
}

// CalcProgress рассчитывает процент выполнения смены без сохранения.
func (h *Handler) CalcProgress(w http.ResponseWriter, r *http.Request) {
	var in attendance.ProgressInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	out, err := h.service.Progress(in)
	if err != nil {
		h.writeError(w, err, "calc progress error")
		return
	}

	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, msg string, fields ...zap.Field) {
	switch {
	case isValidationError(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, service.ErrForbidden):
		writeStatus(w, http.StatusForbidden)
	case errors.Is(err, repository.ErrLeaveRequestNotFound):
		writeStatus(w, http.StatusNotFound)
	case errors.Is(err, repository.ErrLeaveRequestDecided):
		writeStatus(w, http.StatusConflict)
	default:
		h.logger.Error(msg, append(fields, zap.Error(err))...)
		writeStatus(w, http.StatusInternalServerError)
	}
}

type quotationResponse struct {
	ID               string                  `json:"id"`
	CustomerName     string                  `json:"customerName"`
	VIN              string                  `json:"vin,omitempty"`
	TotalOrBasePrice float64                 `json:"totalOrBasePrice"`
	IsTaxInclusive   bool                    `json:"isTaxInclusive"`
	AddOnIncluded    bool                    `json:"addOnIncluded,omitempty"`
	Breakdown        pricing.BreakdownOutput `json:"breakdown"`
	CreatedAt        string                  `json:"createdAt"`
}

func newQuotationResponse(q model.Quotation) quotationResponse {
	return quotationResponse{
		ID:               q.ID.String(),
		CustomerName:     q.CustomerName,
		VIN:              q.VIN,
		TotalOrBasePrice: pricing.FromCents(q.TotalOrBasePriceCents).InexactFloat64(),
		IsTaxInclusive:   q.IsTaxInclusive,
		AddOnIncluded:    q.AddOnIncluded,
		Breakdown: pricing.BreakdownOutput{
			BasePrice:       pricing.FromCents(q.BasePriceCents).InexactFloat64(),
			TaxAmount:       pricing.FromCents(q.TaxAmountCents).InexactFloat64(),
			NonTaxableAddOn: pricing.FromCents(q.NonTaxableAddOnCents).InexactFloat64(),
			GrandTotal:      pricing.FromCents(q.GrandTotalCents).InexactFloat64(),
			TaxRatePercent:  q.TaxRatePercent,
		},
		CreatedAt: q.CreatedAt.Format(time.RFC3339),
	}
}

// CreateQuotation рассчитывает и сохраняет коммерческое предложение текущего сотрудника.
func (h *Handler) CreateQuotation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeStatus(w, http.StatusUnauthorized)
		return
	}

	var in service.QuotationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	q, err := h.service.CreateQuotation(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, err, "create quotation error", zap.Int64("userID", userID))
		return
	}

	h.writeJSON(w, http.StatusCreated, newQuotationResponse(*q))
}

// GetQuotations возвращает коммерческие предложения текущего сотрудника.
func (h *Handler) GetQuotations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeStatus(w, http.StatusUnauthorized)
		return
	}

	quotations, err := h.service.GetQuotationsByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("get quotations error", zap.Error(err), zap.Int64("userID", userID))
		writeStatus(w, http.StatusInternalServerError)
		return
	}

	if len(quotations) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]quotationResponse, 0, len(quotations))
	for _, q := range quotations {
		resp = append(resp, newQuotationResponse(q))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type leaveRequestResponse struct {
	ID            string  `json:"id"`
	RequestKind   string  `json:"requestKind"`
	StartDate     string  `json:"startDate"`
	StartTime     string  `json:"startTime,omitempty"`
	DurationValue float64 `json:"durationValue"`
	EndDate       string  `json:"endDate,omitempty"`
	EndTime       string  `json:"endTime,omitempty"`
	Reason        string  `json:"reason,omitempty"`
	Status        string  `json:"status"`
	DecidedAt     string  `json:"decidedAt,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

func newLeaveRequestResponse(lr model.LeaveRequest) leaveRequestResponse {
	resp := leaveRequestResponse{
		ID:            lr.ID.String(),
		RequestKind:   lr.Kind,
		StartDate:     lr.StartDate.Format(validation.DateLayout),
		DurationValue: lr.DurationValue,
		Reason:        lr.Reason,
		Status:        string(lr.Status),
		CreatedAt:     lr.CreatedAt.Format(time.RFC3339),
	}
	if lr.StartTime != nil {
		resp.StartTime = *lr.StartTime
	}
	if lr.EndDate != nil {
		resp.EndDate = lr.EndDate.Format(validation.DateLayout)
	}
	if lr.EndTime != nil {
		resp.EndTime = *lr.EndTime
	}
	if lr.DecidedAt != nil {
		resp.DecidedAt = lr.DecidedAt.Format(time.RFC3339)
	}
	return resp
}

// CreateLeaveRequest регистрирует заявку на отсутствие текущего сотрудника.
func (h *Handler) CreateLeaveRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeStatus(w, http.StatusUnauthorized)
		return
	}

	var in service.LeaveRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	lr, err := h.service.SubmitLeaveRequest(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, err, "submit leave request error", zap.Int64("userID", userID))
		return
	}

	h.writeJSON(w, http.StatusCreated, newLeaveRequestResponse(*lr))
}

// GetLeaveRequests возвращает заявки текущего сотрудника.
func (h *Handler) GetLeaveRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeStatus(w, http.StatusUnauthorized)
		return
	}

	requests, err := h.service.GetLeaveRequestsByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("get leave requests error", zap.Error(err), zap.Int64("userID", userID))
		writeStatus(w, http.StatusInternalServerError)
		return
	}

	if len(requests) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]leaveRequestResponse, 0, len(requests))
	for _, lr := range requests {
		resp = append(resp, newLeaveRequestResponse(lr))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type decisionRequest struct {
	Approve *bool `json:"approve"`
}

// DecideLeaveRequest одобряет или отклоняет заявку.
func (h *Handler) DecideLeaveRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeStatus(w, http.StatusUnauthorized)
		return
	}
	login, _ := middleware.GetLoginFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeStatus(w, http.StatusNotFound)
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Approve == nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	lr, err := h.service.DecideLeaveRequest(r.Context(), userID, login, id, *req.Approve)
	if err != nil {
		h.writeError(w, err, "decide leave request error", zap.String("id", id.String()))
		return
	}

	h.writeJSON(w, http.StatusOK, newLeaveRequestResponse(*lr))
}

type attendanceResponse struct {
	WorkDate                     string  `json:"workDate"`
	HoursWorked                  float64 `json:"hoursWorked"`
	ExpectedHours                float64 `json:"expectedHours"`
	EarlyDepartureAllowanceHours float64 `json:"earlyDepartureAllowanceHours"`
	EffectiveExpectedHours       float64 `json:"effectiveExpectedHours"`
	Percentage                   float64 `json:"percentage"`
}

func newAttendanceResponse(e model.AttendanceEntry) attendanceResponse {
	return attendanceResponse{
		WorkDate:                     e.WorkDate.Format(validation.DateLayout),
		HoursWorked:                  e.HoursWorked,
		ExpectedHours:                e.ExpectedHours,
		EarlyDepartureAllowanceHours: e.EarlyDepartureAllowanceHours,
		EffectiveExpectedHours:       e.EffectiveExpectedHours,
		Percentage:                   e.Percentage,
	}
}

// RecordAttendance сохраняет отметку о рабочем дне текущего сотрудника.
func (h *Handler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeStatus(w, http.StatusUnauthorized)
		return
	}

	var in service.AttendanceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	e, err := h.service.RecordAttendance(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, err, "record attendance error", zap.Int64("userID", userID))
		return
	}

	h.writeJSON(w, http.StatusOK, newAttendanceResponse(*e))
}

// GetAttendance возвращает отметки текущего сотрудника.
func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeStatus(w, http.StatusUnauthorized)
		return
	}

	entries, err := h.service.GetAttendanceByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("get attendance error", zap.Error(err), zap.Int64("userID", userID))
		writeStatus(w, http.StatusInternalServerError)
		return
	}

	if len(entries) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]attendanceResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, newAttendanceResponse(e))
	}

	h.writeJSON(w, http.StatusOK, resp)
}
