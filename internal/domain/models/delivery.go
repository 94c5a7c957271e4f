package models

import "time"

// DeliveryStatus is the outcome of one send attempt.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// DeliveryLogEntry is an immutable record of one send attempt.
type DeliveryLogEntry struct {
	RunID          string         `json:"run_id"`
	RecipientEmail string         `json:"recipient_email"`
	Subject        string         `json:"subject"`
	ReportDate     time.Time      `json:"report_date"`
	AttachmentName string         `json:"attachment_name"`
	Status         DeliveryStatus `json:"status"`
	ErrorClass     ErrorClass     `json:"error_class,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
