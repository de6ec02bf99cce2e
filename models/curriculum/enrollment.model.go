package curriculum

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment tracks a user's membership in a cohort
type Enrollment struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"index:idx_user_cohort,unique;not null"`
	CohortID    uint       `json:"cohort_id" gorm:"index:idx_user_cohort,unique;not null"`
	Status      string     `json:"status" gorm:"default:'ENROLLED'"` // ENROLLED, IN_PROGRESS, COMPLETED
	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	IsDeleted   bool       `gorm:"default:false"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
