package models

import "time"

// Status values of a notification
const (
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// Kinds of notifications
const (
	NotificationApproval  = "approval"
	NotificationRejection = "rejection"
)

// Notification is an entry of the sent-notification log. The e-mails are simulated, so this log is the only place
// where their contents end up
type Notification struct {
	ID      string    `json:"id"`
	To      string    `json:"to"`
	ToName  string    `json:"toName"`
	Subject string    `json:"subject"`
	HTML    string    `json:"html"`
	Kind    string    `json:"kind"`
	SentAt  time.Time `json:"sentAt"`
	Status  string    `json:"status"`
}

// ImageInfo is the registry entry of an uploaded image
type ImageInfo struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"type"`
	Size        int       `json:"size"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Image is an uploaded image together with its base64 encoded data
type Image struct {
	ImageInfo
	Data string `json:"data"`
}
