package models

import (
	"time"
)

// Diagnosis is a stored plant diagnosis. ImageURL holds either the original
// data URI or a blob-store URL when image storage is configured.
type Diagnosis struct {
	ID        string    `json:"id"`
	AppID     string    `json:"app_id"`
	UserID    string    `json:"user_id"`
	ImageURL  string    `json:"image_url,omitempty"`
	Query     string    `json:"query,omitempty"`
	Language  string    `json:"language"`
	Diagnosis string    `json:"diagnosis"`
	CreatedAt time.Time `json:"timestamp"`
}

type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Anonymous   bool      `json:"anonymous"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
