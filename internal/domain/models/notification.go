// internal/domain/models/notification.go
package models

import (
	"time"
)

// Notification templates.
const (
	TemplateSessionConfirmed  = "session_open_confirmed"
	TemplateSessionCancelled  = "session_confirm_cancelled"
	TemplateLecturerConfirmed = "lecturer_session_open_confirmed"
	TemplateLecturerCancelled = "lecturer_session_confirm_cancelled"
	TemplateSupplierDelivery  = "procurements"
)

// Report templates.
const (
	ReportDeliveryNote = "seance_delivery_note"
)

// Recipient is one addressee of a notification.
type Recipient struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

// SeanceSummary is the part of a seance shown in notifications and reports.
type SeanceSummary struct {
	Name     string    `bson:"name" json:"name"`
	Date     time.Time `bson:"date" json:"date"`
	Duration float64   `bson:"duration" json:"duration"`
}

// NotificationData is the template context shared by every notification.
// Templates use the fields they need.
type NotificationData struct {
	SessionName  string          `bson:"session_name,omitempty" json:"session_name,omitempty"`
	SessionDate  time.Time       `bson:"session_date,omitempty" json:"session_date,omitempty"`
	Notes        string          `bson:"notes,omitempty" json:"notes,omitempty"`
	ContactName  string          `bson:"contact_name,omitempty" json:"contact_name,omitempty"`
	SupplierName string          `bson:"supplier_name,omitempty" json:"supplier_name,omitempty"`
	Seances      []SeanceSummary `bson:"seances,omitempty" json:"seances,omitempty"`
}

// Document is a rendered report.
type Document struct {
	Filename    string `bson:"filename" json:"filename"`
	ContentType string `bson:"content_type" json:"content_type"`
	Content     []byte `bson:"content" json:"-"`
}

// Message is one notification handed to the notification collaborator.
type Message struct {
	Template    string
	To          []Recipient
	Data        NotificationData
	Attachments []Document
}
