package curriculum

import "gorm.io/gorm"

// LessonStatus defines the publication state of a lesson
type LessonStatus string

const (
	LessonDraft     LessonStatus = "DRAFT"
	LessonPublished LessonStatus = "PUBLISHED"
	LessonArchived  LessonStatus = "ARCHIVED"
)

// Lesson belongs to one module and owns topics
type Lesson struct {
	gorm.Model
	ModuleID               uint         `json:"module_id" gorm:"index;not null"`
	Title                  string       `json:"title"`
	Description            string       `json:"description"`
	MinTimeRequiredSeconds int          `json:"min_time_required_seconds" gorm:"default:0"`
	OrderIndex             int          `json:"order_index" gorm:"default:0"`
	Status                 LessonStatus `json:"status" gorm:"type:varchar(20);default:'DRAFT'"`
	IsFree                 bool         `json:"is_free" gorm:"default:false"`
	IsDeleted              bool         `gorm:"default:false"`
}

func (Lesson) TableName() string {
	return "lessons"
}
