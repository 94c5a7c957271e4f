package models

// OutboundMessage is one report delivery to one recipient.
type OutboundMessage struct {
	To             Recipient
	Subject        string
	HTMLBody       string
	Attachment     []byte
	AttachmentName string
}

// DistributionRequest is the body of a manual distribution trigger.
type DistributionRequest struct {
	ReportDate string `json:"report_date"`
	Force      bool   `json:"force"`
}

// TestEmailRequest asks for a configuration probe to be sent to one address.
type TestEmailRequest struct {
	To string `json:"to" binding:"required,email"`
}
