package models

import "time"

// Attendance sources.
const (
	SourceRecognition = "recognition"
	SourceLive        = "live"
	SourceManual      = "manual"
)

// Attendance is one student's presence record for a calendar day.
type Attendance struct {
	ID         int64     `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	AttendedOn time.Time `db:"attended_on" json:"attended_on"`
	MarkedAt   time.Time `db:"marked_at" json:"marked_at"`
	Source     string    `db:"source" json:"source"`
	Confidence float64   `db:"confidence" json:"confidence"`
}

// AttendanceRecord joins attendance with student identity for listings.
type AttendanceRecord struct {
	Attendance
	FullName  string `db:"full_name" json:"full_name"`
	ClassName string `db:"class_name" json:"class_name"`
}

// MarkAttendanceRequest records attendance manually for a given day.
type MarkAttendanceRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// MarkResult reports whether a mark was inserted or already present.
type MarkResult struct {
	StudentID  string    `json:"student_id"`
	AttendedOn time.Time `json:"attended_on"`
	Marked     bool      `json:"marked"`
	Duplicate  bool      `json:"duplicate"`
}

// AttendanceFilter narrows attendance listings.
type AttendanceFilter struct {
	StudentID string
	ClassName string
	From      *time.Time
	To        *time.Time
	Page      int
	PerPage   int
}

// DayRosterEntry is one student's presence state for a roster day.
type DayRosterEntry struct {
	StudentID string     `db:"student_id" json:"student_id"`
	FullName  string     `db:"full_name" json:"full_name"`
	ClassName string     `db:"class_name" json:"class_name"`
	Present   bool       `db:"present" json:"present"`
	MarkedAt  *time.Time `db:"marked_at" json:"marked_at,omitempty"`
	Source    *string    `db:"source" json:"source,omitempty"`
}

// DailyCount is attendance volume for a single day.
type DailyCount struct {
	Day   time.Time `db:"day" json:"day"`
	Count int       `db:"count" json:"count"`
}

// AttendanceStats summarizes recent attendance activity.
type AttendanceStats struct {
	TotalStudents int          `json:"total_students"`
	EnrolledCount int          `json:"enrolled_count"`
	PresentToday  int          `json:"present_today"`
	Last30Days    []DailyCount `json:"last_30_days"`
	GeneratedAt   time.Time    `json:"generated_at"`
}
