package models

import "time"

// FileInfo represents metadata about an uploaded layer data document.
type FileInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	UploadedAt  time.Time `json:"uploadedAt"`
	Status      string    `json:"status"` // "uploaded", "error"
}
