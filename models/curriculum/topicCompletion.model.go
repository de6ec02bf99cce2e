package curriculum

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TopicCompletion tracks a user's progress through one topic. The unique
// (user, topic) index is what serializes double-submitted completion
// requests down to a single coin award.
type TopicCompletion struct {
	gorm.Model
	UserID               uint           `json:"user_id" gorm:"index:idx_user_topic,unique;not null"`
	TopicID              uint           `json:"topic_id" gorm:"index:idx_user_topic,unique;not null"`
	StartedAt            time.Time      `json:"started_at"`
	CompletedAt          *time.Time     `json:"completed_at"`
	TimeSpentSeconds     int            `json:"time_spent_seconds" gorm:"default:0"`
	CompletionPercentage float64        `json:"completion_percentage" gorm:"default:0"`
	LastPositionSeconds  int            `json:"last_position_seconds" gorm:"default:0"`
	CoinsAwarded         int64          `json:"coins_awarded" gorm:"default:0"`
	CompletionData       datatypes.JSON `json:"completion_data"`
	IsDeleted            bool           `gorm:"default:false"`
}

func (TopicCompletion) TableName() string {
	return "topic_completions"
}
