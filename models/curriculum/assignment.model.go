package curriculum

import (
	"time"

	"gorm.io/gorm"
)

// Assignment belongs to one week
type Assignment struct {
	gorm.Model
	WeekID      uint       `json:"week_id" gorm:"index;not null"`
	Title       string     `json:"title"`
	Description string     `json:"description" gorm:"type:text"`
	Deadline    *time.Time `json:"deadline"`
	IsPublished bool       `json:"is_published" gorm:"default:false"`
	IsDeleted   bool       `gorm:"default:false"`
}

func (Assignment) TableName() string {
	return "assignments"
}

// Submission review states
const (
	SubmissionPending  = "PENDING"
	SubmissionApproved = "APPROVED"
	SubmissionRejected = "REJECTED"
)

// AssignmentSubmission tracks a user's submission and its review outcome.
// Review happens in the assignment review surface; only APPROVED rows count
// toward progression.
type AssignmentSubmission struct {
	gorm.Model
	UserID          uint       `json:"user_id" gorm:"index;not null"`
	AssignmentID    uint       `json:"assignment_id" gorm:"index;not null"`
	SubmissionURL   string     `json:"submission_url"`
	Status          string     `json:"status" gorm:"type:varchar(20);default:'PENDING'"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	ReviewedBy      *uint      `json:"reviewed_by"`
	RejectionReason string     `json:"rejection_reason"`
	IsDeleted       bool       `gorm:"default:false"`
}

func (AssignmentSubmission) TableName() string {
	return "assignment_submissions"
}
