package models

import "time"

// RecognitionResult is the outcome of identifying one uploaded image.
type RecognitionResult struct {
	Recognized bool       `json:"recognized"`
	StudentID  string     `json:"student_id,omitempty"`
	FullName   string     `json:"full_name,omitempty"`
	Confidence float64    `json:"confidence"`
	Marked     bool       `json:"marked"`
	Duplicate  bool       `json:"duplicate"`
	Reason     string     `json:"reason,omitempty"`
	AttendedOn *time.Time `json:"attended_on,omitempty"`
}

// EnrollmentResult reports how many uploads were stored for a student.
type EnrollmentResult struct {
	StudentID  string `json:"student_id"`
	Saved      int    `json:"saved"`
	Rejected   int    `json:"rejected"`
	PhotoCount int    `json:"photo_count"`
}
