package curriculum

import (
	"time"

	"gorm.io/gorm"
)

// CohortStatus defines the lifecycle state of a cohort
type CohortStatus string

const (
	CohortDraft     CohortStatus = "DRAFT"
	CohortPublished CohortStatus = "PUBLISHED"
	CohortActive    CohortStatus = "ACTIVE"
	CohortCompleted CohortStatus = "COMPLETED"
)

// Cohort represents a time-boxed group enrollment spanning multiple weeks
type Cohort struct {
	gorm.Model
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      CohortStatus `json:"status" gorm:"type:varchar(20);default:'DRAFT'"`
	StartDate   *time.Time   `json:"start_date"`
	EndDate     *time.Time   `json:"end_date"`
	IsDeleted   bool         `gorm:"default:false"`
}

func (Cohort) TableName() string {
	return "cohorts"
}
