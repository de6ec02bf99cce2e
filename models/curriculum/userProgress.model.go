package curriculum

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserWeekProgress is the per (user, week) progression record the unlock
// evaluator and the week recalculator operate on.
//
// Invariants: IsUnlocked=false implies UnlockedAt=nil, and
// CompletionPercentage == 100 exactly when CompletedAt is set.
type UserWeekProgress struct {
	gorm.Model
	UserID               uint           `json:"user_id" gorm:"index:idx_user_week,unique;not null"`
	WeekID               uint           `json:"week_id" gorm:"index:idx_user_week,unique;not null"`
	CohortID             uint           `json:"cohort_id" gorm:"index;not null"`
	CompletionPercentage float64        `json:"completion_percentage" gorm:"default:0"` // 0-100, two decimals
	IsUnlocked           bool           `json:"is_unlocked" gorm:"default:false"`
	UnlockedAt           *time.Time     `json:"unlocked_at"`
	CompletedAt          *time.Time     `json:"completed_at"`
	CompletionData       datatypes.JSON `json:"completion_data"` // per-activity-kind breakdown
	IsDeleted            bool           `gorm:"default:false"`
}

func (UserWeekProgress) TableName() string {
	return "user_week_progress"
}
