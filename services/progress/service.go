package progress

import (
	"errors"
	"fmt"
	"math"
	"time"

	"lms/models/curriculum"
	"lms/services/events"
	"lms/services/rewards"
	"lms/services/unlock"

	"gorm.io/gorm"
)

// PreconditionError marks an action attempted against a locked week or a
// unit whose completion gate is not yet satisfied. The caller can always
// recover by satisfying the precondition and re-requesting.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// CompletionMetadata describes how a unit was completed
type CompletionMetadata struct {
	Method           string `json:"method"` // video_watched, text_read, manual
	WatchTimeSeconds int    `json:"watch_time_seconds,omitempty"`
}

// ProgressSummary is the computed progress of an aggregate unit
type ProgressSummary struct {
	Percentage         float64 `json:"percentage"`
	CompletedCount     int64   `json:"completed_count"`
	TotalCount         int64   `json:"total_count"`
	TimeRequirementMet bool    `json:"time_requirement_met"`
	CanComplete        bool    `json:"can_complete"`
}

// ServiceConfig holds dependencies for the progression service.
type ServiceConfig struct {
	DB        *gorm.DB
	Ledger    *rewards.Ledger
	Evaluator *unlock.Evaluator
	Bus       *events.Bus
	Now       func() time.Time // defaults to time.Now
}

// Service is the completion tracker for topics, lessons and modules plus
// the week progress recalculator. Each public operation runs completion,
// reward, recalculation and cascade unlock inside one transaction.
type Service struct {
	db        *gorm.DB
	ledger    *rewards.Ledger
	evaluator *unlock.Evaluator
	bus       *events.Bus
	now       func() time.Time
}

// NewService creates a progression service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	bus := cfg.Bus
	if bus == nil {
		bus = events.Default
	}
	return &Service{
		db:        cfg.DB,
		ledger:    cfg.Ledger,
		evaluator: cfg.Evaluator,
		bus:       bus,
		now:       now,
	}
}

// round2 rounds a percentage to two decimals
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func clampPercentage(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// weekForLessonTx resolves a lesson's containing week
func (s *Service) weekForLessonTx(tx *gorm.DB, lesson *curriculum.Lesson) (*curriculum.Week, error) {
	var module curriculum.Module
	if err := tx.Where("id = ? AND is_deleted = ?", lesson.ModuleID, false).First(&module).Error; err != nil {
		return nil, fmt.Errorf("module not found for lesson %d: %w", lesson.ID, err)
	}
	var week curriculum.Week
	if err := tx.Where("id = ? AND is_deleted = ?", module.WeekID, false).First(&week).Error; err != nil {
		return nil, fmt.Errorf("week not found for module %d: %w", module.ID, err)
	}
	return &week, nil
}

// weekForTopicTx resolves a topic's containing week through its lesson
func (s *Service) weekForTopicTx(tx *gorm.DB, topic *curriculum.Topic) (*curriculum.Week, error) {
	var lesson curriculum.Lesson
	if err := tx.Where("id = ? AND is_deleted = ?", topic.LessonID, false).First(&lesson).Error; err != nil {
		return nil, fmt.Errorf("lesson not found for topic %d: %w", topic.ID, err)
	}
	return s.weekForLessonTx(tx, &lesson)
}

// requireWeekUnlockedTx returns a PreconditionError unless the user has
// an unlocked progress record for the week.
func (s *Service) requireWeekUnlockedTx(tx *gorm.DB, userID uint, week *curriculum.Week) error {
	var progress curriculum.UserWeekProgress
	err := tx.Where("user_id = ? AND week_id = ? AND is_deleted = ?", userID, week.ID, false).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !progress.IsUnlocked) {
		return &PreconditionError{Reason: fmt.Sprintf("Week %d is locked", week.WeekNumber+1)}
	}
	return err
}
