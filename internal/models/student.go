package models

import "time"

// Student is an enrolled person the recognizer can identify.
type Student struct {
	ID            string    `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"full_name"`
	ClassName     string    `db:"class_name" json:"class_name"`
	GuardianEmail string    `db:"guardian_email" json:"guardian_email,omitempty"`
	PhotoCount    int       `db:"photo_count" json:"photo_count"`
	Enrolled      bool      `db:"enrolled" json:"enrolled"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CreateStudentRequest is the payload for registering a student.
type CreateStudentRequest struct {
	ID            string `json:"id" validate:"required,max=32"`
	FullName      string `json:"full_name" validate:"required,max=128"`
	ClassName     string `json:"class_name" validate:"required,max=64"`
	GuardianEmail string `json:"guardian_email" validate:"omitempty,email"`
}

// UpdateStudentRequest is the payload for editing a student.
type UpdateStudentRequest struct {
	FullName      *string `json:"full_name" validate:"omitempty,max=128"`
	ClassName     *string `json:"class_name" validate:"omitempty,max=64"`
	GuardianEmail *string `json:"guardian_email" validate:"omitempty,email"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	ClassName string
	Search    string
	Page      int
	PerPage   int
}
