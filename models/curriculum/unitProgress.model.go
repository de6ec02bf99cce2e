package curriculum

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LessonProgress tracks a user's progress through one lesson. Lesson
// completion is an explicit call, never a side effect of finishing the
// last topic, so a minimum-time gate can still apply.
type LessonProgress struct {
	gorm.Model
	UserID               uint           `json:"user_id" gorm:"index:idx_user_lesson,unique;not null"`
	LessonID             uint           `json:"lesson_id" gorm:"index:idx_user_lesson,unique;not null"`
	StartedAt            time.Time      `json:"started_at"`
	CompletedAt          *time.Time     `json:"completed_at"`
	TimeSpentSeconds     int            `json:"time_spent_seconds" gorm:"default:0"`
	CompletionPercentage float64        `json:"completion_percentage" gorm:"default:0"`
	CompletionData       datatypes.JSON `json:"completion_data"`
	IsDeleted            bool           `gorm:"default:false"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

// ModuleProgress tracks a user's progress through one module, aggregated
// from its lessons' completion state.
type ModuleProgress struct {
	gorm.Model
	UserID               uint           `json:"user_id" gorm:"index:idx_user_module,unique;not null"`
	ModuleID             uint           `json:"module_id" gorm:"index:idx_user_module,unique;not null"`
	StartedAt            time.Time      `json:"started_at"`
	CompletedAt          *time.Time     `json:"completed_at"`
	TimeSpentSeconds     int            `json:"time_spent_seconds" gorm:"default:0"`
	CompletionPercentage float64        `json:"completion_percentage" gorm:"default:0"`
	CompletionData       datatypes.JSON `json:"completion_data"`
	IsDeleted            bool           `gorm:"default:false"`
}

func (ModuleProgress) TableName() string {
	return "module_progress"
}
