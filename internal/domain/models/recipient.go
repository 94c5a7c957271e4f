package models

import "slices"

// ReportTypeDaily is the subscription tag for the daily DPR mail.
const ReportTypeDaily = "daily"

// Recipient is a person subscribed to one or more report types.
type Recipient struct {
	Email       string   `json:"email" validate:"required,email"`
	Name        string   `json:"name" validate:"required"`
	Role        string   `json:"role"`
	Phone       string   `json:"phone,omitempty"`
	Active      bool     `json:"active"`
	ReportTypes []string `json:"report_types"`
}

// Subscribed reports whether the recipient is active and subscribed to reportType.
func (r Recipient) Subscribed(reportType string) bool {
	return r.Active && slices.Contains(r.ReportTypes, reportType)
}
