package domain

import (
	"github.com/google/uuid"
)

// Timestamps in DTOs are ISO 8601 strings in UTC ("2006-01-02T15:04:05Z").

type OrderDTO struct {
	ID                 string   `json:"id"`
	CompanyName        string   `json:"companyName"`
	ContactName        string   `json:"contactName,omitempty"`
	ContactEmail       string   `json:"contactEmail,omitempty"`
	ContactPhone       string   `json:"contactPhone,omitempty"`
	Description        string   `json:"description,omitempty"`
	Price              float64  `json:"price"`
	Currency           string   `json:"currency"`
	Priority           string   `json:"priority"`
	Statuses           []string `json:"statuses"`
	PrimaryStatus      string   `json:"primaryStatus,omitempty"`
	AssignedToID       string   `json:"assignedToId"`
	AssignedToName     string   `json:"assignedToName"`
	IsYearlyPackage    bool     `json:"isYearlyPackage"`
	HasPaymentReminder bool     `json:"hasPaymentReminder"`
	Version            int      `json:"version"`
	CreatedAt          string   `json:"createdAt"`
	UpdatedAt          string   `json:"updatedAt"`
}

type OrderHistoryDTO struct {
	ID            uuid.UUID `json:"id"`
	OrderID       string    `json:"orderId"`
	Sequence      int       `json:"sequence"`
	Kind          string    `json:"kind"`
	Status        string    `json:"status,omitempty"`
	ChangedByID   string    `json:"changedById"`
	ChangedByName string    `json:"changedByName"`
	Note          string    `json:"note,omitempty"`
	ChangedAt     string    `json:"changedAt"`
}

type InvoiceItemDTO struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Amount      float64 `json:"amount"`
}

type InvoiceDTO struct {
	ID            uuid.UUID        `json:"id"`
	InvoiceNumber string           `json:"invoiceNumber"`
	ClientID      uuid.UUID        `json:"clientId"`
	ClientName    string           `json:"clientName"`
	SourceOrderID string           `json:"sourceOrderId,omitempty"`
	Status        string           `json:"status"`
	IssueDate     string           `json:"issueDate"`
	DueDate       string           `json:"dueDate"`
	Currency      string           `json:"currency"`
	VATRate       float64          `json:"vatRate"`
	Subtotal      float64          `json:"subtotal"`
	VATAmount     float64          `json:"vatAmount"`
	Total         float64          `json:"total"`
	Notes         string           `json:"notes,omitempty"`
	PaidAt        string           `json:"paidAt,omitempty"`
	Items         []InvoiceItemDTO `json:"items"`
}

// InvoiceSyncDTO describes what the invoice side effect of a status toggle did
type InvoiceSyncDTO struct {
	InvoiceID     uuid.UUID `json:"invoiceId"`
	InvoiceNumber string    `json:"invoiceNumber"`
	Status        string    `json:"status"`
	Created       bool      `json:"created"`
	ClientCreated bool      `json:"clientCreated"`
	Warnings      []string  `json:"warnings,omitempty"`
}

// StatusToggleDTO is returned by the status toggle endpoint
type StatusToggleDTO struct {
	Order       OrderDTO        `json:"order"`
	InvoiceSync *InvoiceSyncDTO `json:"invoiceSync,omitempty"`
}

type StatusCountsDTO struct {
	Total  int64            `json:"total"`
	Counts map[string]int64 `json:"counts"`
}

type PaymentReminderDTO struct {
	ID        uuid.UUID `json:"id"`
	OrderID   string    `json:"orderId"`
	RemindAt  string    `json:"remindAt"`
	Note      string    `json:"note,omitempty"`
	Sent      bool      `json:"sent"`
	SentAt    string    `json:"sentAt,omitempty"`
	CreatedAt string    `json:"createdAt"`
}

// AuthUserDTO describes the authenticated caller
type AuthUserDTO struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	IsAdmin bool     `json:"isAdmin"`
}

type UserDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

type NotificationDTO struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	ActionURL  string    `json:"actionUrl,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  string    `json:"createdAt"`
	EntityID   string    `json:"entityId,omitempty"`
	EntityType string    `json:"entityType,omitempty"`
}

type UnreadCountDTO struct {
	Count int `json:"count"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// Requests

type CreateOrderRequest struct {
	ID            string  `json:"id,omitempty" validate:"omitempty,max=64"`
	CompanyName   string  `json:"companyName" validate:"required,max=200"`
	ContactName   string  `json:"contactName,omitempty" validate:"max=200"`
	ContactEmail  string  `json:"contactEmail,omitempty" validate:"omitempty,email,max=255"`
	ContactPhone  string  `json:"contactPhone,omitempty" validate:"max=50"`
	Description   string  `json:"description,omitempty"`
	Price         float64 `json:"price" validate:"gte=0"`
	Currency      string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	Priority      string  `json:"priority,omitempty" validate:"omitempty,oneof=Low Medium High Urgent"`
	AssignedToID  string  `json:"assignedToId,omitempty" validate:"max=255"`
	YearlyPackage bool    `json:"isYearlyPackage,omitempty"`
}

type UpdateOrderRequest struct {
	CompanyName  string  `json:"companyName" validate:"required,max=200"`
	ContactName  string  `json:"contactName,omitempty" validate:"max=200"`
	ContactEmail string  `json:"contactEmail,omitempty" validate:"omitempty,email,max=255"`
	ContactPhone string  `json:"contactPhone,omitempty" validate:"max=50"`
	Description  string  `json:"description,omitempty"`
	Price        float64 `json:"price" validate:"gte=0"`
	Currency     string  `json:"currency" validate:"required,len=3"`
	Priority     string  `json:"priority" validate:"required,oneof=Low Medium High Urgent"`
	Note         string  `json:"note,omitempty" validate:"max=1000"`
}

type ToggleStatusRequest struct {
	Status  string `json:"status" validate:"required,max=50"`
	Enabled *bool  `json:"enabled" validate:"required"`
	Note    string `json:"note,omitempty" validate:"max=1000"`
}

type AssignOrderRequest struct {
	AssigneeID string `json:"assigneeId" validate:"max=255"`
	Note       string `json:"note,omitempty" validate:"max=1000"`
}

type ReviewRequest struct {
	Note string `json:"note,omitempty" validate:"max=1000"`
}

type YearlyPackageRequest struct {
	YearlyPackage *bool  `json:"yearlyPackage" validate:"required"`
	Note          string `json:"note,omitempty" validate:"max=1000"`
}

type SchedulePaymentReminderRequest struct {
	RemindAt string `json:"remindAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Note     string `json:"note,omitempty" validate:"max=1000"`
}
