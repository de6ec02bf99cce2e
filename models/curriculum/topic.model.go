package curriculum

import "gorm.io/gorm"

// Topic is the leaf completable unit. Completing a topic is the only
// action that awards coins.
type Topic struct {
	gorm.Model
	LessonID               uint   `json:"lesson_id" gorm:"index;not null"`
	Title                  string `json:"title"`
	ContentType            string `json:"content_type" gorm:"default:'VIDEO'"` // VIDEO, TEXT, EXERCISE
	VideoURL               string `json:"video_url"`
	TextContent            string `json:"text_content" gorm:"type:text"`
	CoinReward             int64  `json:"coin_reward" gorm:"default:0"`
	MinTimeRequiredSeconds int    `json:"min_time_required_seconds" gorm:"default:0"`
	OrderIndex             int    `json:"order_index" gorm:"default:0"`
	IsPublished            bool   `json:"is_published" gorm:"default:false"`
	IsDeleted              bool   `gorm:"default:false"`
}

func (Topic) TableName() string {
	return "topics"
}
