package curriculum

import (
	"time"

	"gorm.io/gorm"
)

// LiveClass belongs to one week
type LiveClass struct {
	gorm.Model
	WeekID      uint      `json:"week_id" gorm:"index;not null"`
	Title       string    `json:"title"`
	MeetingURL  string    `json:"meeting_url"`
	ScheduledAt time.Time `json:"scheduled_at"`
	IsDeleted   bool      `gorm:"default:false"`
}

func (LiveClass) TableName() string {
	return "live_classes"
}

// LiveClassAttendance marks whether a user attended a live class.
// Attendance gates week unlocks but never contributes to the week
// percentage aggregate.
type LiveClassAttendance struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"index:idx_user_live_class,unique;not null"`
	LiveClassID uint       `json:"live_class_id" gorm:"index:idx_user_live_class,unique;not null"`
	Attended    bool       `json:"attended" gorm:"default:false"`
	AttendedAt  *time.Time `json:"attended_at"`
	IsDeleted   bool       `gorm:"default:false"`
}

func (LiveClassAttendance) TableName() string {
	return "live_class_attendances"
}
