// Package model содержит доменные сущности бэк-офиса автосалона.
package model

import (
	"time"

	"github.com/google/uuid"
)

// User представляет сотрудника, зарегистрированного в бэк-офисе.
type User struct {
	ID           int64
	Login        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Quotation описывает коммерческое предложение по автомобилю. Суммы хранятся в халалах.
type Quotation struct {
	ID                    uuid.UUID
	UserID                int64
	CustomerName          string
	VIN                   string
	TaxRatePercent        float64
	IsTaxInclusive        bool
	AddOnIncluded         bool
	TotalOrBasePriceCents int64
	BasePriceCents        int64
	TaxAmountCents        int64
	NonTaxableAddOnCents  int64
	GrandTotalCents       int64
	CreatedAt             time.Time
}

// LeaveStatus описывает статус заявки на отсутствие.
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "PENDING"
	LeaveStatusApproved LeaveStatus = "APPROVED"
	LeaveStatusRejected LeaveStatus = "REJECTED"
)

// LeaveRequest описывает заявку сотрудника на отпрашивание или отпуск.
type LeaveRequest struct {
	ID            uuid.UUID
	UserID        int64
	Kind          string
	StartDate     time.Time
	StartTime     *string
	DurationValue float64
	EndDate       *time.Time
	EndTime       *string
	Reason        string
	Status        LeaveStatus
	DecidedBy     *int64
	DecidedAt     *time.Time
	CreatedAt     time.Time
}

// AttendanceEntry описывает отработанное время сотрудника за день.
type AttendanceEntry struct {
	ID                           int64
	UserID                       int64
	WorkDate                     time.Time
	HoursWorked                  float64
	ExpectedHours                float64
	EarlyDepartureAllowanceHours float64
	EffectiveExpectedHours       float64
	Percentage                   float64
	CreatedAt                    time.Time
}

// TaxRate содержит действующую ставку НДС.
type TaxRate struct {
	Country     string    `json:"country"`
	RatePercent float64   `json:"ratePercent"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
