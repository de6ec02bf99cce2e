package curriculum

import "gorm.io/gorm"

// Quiz belongs to one week. Scoring happens in the assessment surface;
// the progression engine only consumes pass/fail outcomes.
type Quiz struct {
	gorm.Model
	WeekID         uint   `json:"week_id" gorm:"index;not null"`
	Title          string `json:"title"`
	PassPercentage int    `json:"pass_percentage" gorm:"default:70"`
	IsPublished    bool   `json:"is_published" gorm:"default:false"`
	IsDeleted      bool   `gorm:"default:false"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizAttempt represents one graded attempt at a quiz
type QuizAttempt struct {
	gorm.Model
	UserID        uint `json:"user_id" gorm:"index;not null"`
	QuizID        uint `json:"quiz_id" gorm:"index;not null"`
	Score         int  `json:"score"`
	MaxScore      int  `json:"max_score"`
	Passed        bool `json:"passed" gorm:"default:false"`
	AttemptNumber int  `json:"attempt_number" gorm:"default:1"`
	IsDeleted     bool `gorm:"default:false"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
