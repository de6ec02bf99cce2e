package progress

import (
	"encoding/json"
	"errors"
	"fmt"

	"lms/models/curriculum"
	"lms/services/events"

	"gorm.io/gorm"
)

// StartLesson creates a lesson progress record if none exists; an
// existing record is returned unchanged.
func (s *Service) StartLesson(userID uint, lessonID uint) (*curriculum.LessonProgress, error) {
	var lesson curriculum.Lesson
	if err := s.db.Where("id = ? AND is_deleted = ? AND status = ?", lessonID, false, curriculum.LessonPublished).
		First(&lesson).Error; err != nil {
		return nil, fmt.Errorf("lesson not found: %w", err)
	}

	var record curriculum.LessonProgress
	err := s.db.Where("user_id = ? AND lesson_id = ? AND is_deleted = ?", userID, lessonID, false).
		First(&record).Error
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record = curriculum.LessonProgress{
		UserID:    userID,
		LessonID:  lessonID,
		StartedAt: s.now(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// CalculateLessonProgress computes the lesson's percentage from its
// topics' completion state and whether the minimum-time gate is met.
func (s *Service) CalculateLessonProgress(userID uint, lessonID uint) (*ProgressSummary, error) {
	var lesson curriculum.Lesson
	if err := s.db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return nil, fmt.Errorf("lesson not found: %w", err)
	}

	var total, completed int64
	if err := s.db.Model(&curriculum.Topic{}).
		Where("lesson_id = ? AND is_deleted = ? AND is_published = ?", lessonID, false, true).
		Count(&total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&curriculum.TopicCompletion{}).
		Joins("JOIN topics ON topics.id = topic_completions.topic_id").
		Where("topic_completions.user_id = ? AND topic_completions.completed_at IS NOT NULL AND topic_completions.is_deleted = ?", userID, false).
		Where("topics.lesson_id = ? AND topics.is_deleted = ? AND topics.is_published = ?", lessonID, false, true).
		Count(&completed).Error; err != nil {
		return nil, err
	}

	// 0 total topics means 0%, never a division by zero
	percentage := float64(0)
	if total > 0 {
		percentage = round2(100 * float64(completed) / float64(total))
	}

	timeSpent := 0
	var record curriculum.LessonProgress
	err := s.db.Where("user_id = ? AND lesson_id = ? AND is_deleted = ?", userID, lessonID, false).
		First(&record).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		timeSpent = record.TimeSpentSeconds
	}

	timeMet := lesson.MinTimeRequiredSeconds == 0 || timeSpent >= lesson.MinTimeRequiredSeconds
	return &ProgressSummary{
		Percentage:         percentage,
		CompletedCount:     completed,
		TotalCount:         total,
		TimeRequirementMet: timeMet,
		CanComplete:        timeMet && percentage == 100,
	}, nil
}

// CompleteLesson explicitly marks the lesson completed. Finishing the
// last topic never completes a lesson on its own; this call applies the
// minimum-time gate on top of 100% topic completion. Lesson completion
// awards no coins.
func (s *Service) CompleteLesson(userID uint, lessonID uint, meta CompletionMetadata) (*curriculum.LessonProgress, error) {
	var lesson curriculum.Lesson
	if err := s.db.Where("id = ? AND is_deleted = ? AND status = ?", lessonID, false, curriculum.LessonPublished).
		First(&lesson).Error; err != nil {
		return nil, fmt.Errorf("lesson not found: %w", err)
	}

	week, err := s.weekForLessonTx(s.db, &lesson)
	if err != nil {
		return nil, err
	}

	var record curriculum.LessonProgress
	err = s.db.Where("user_id = ? AND lesson_id = ? AND is_deleted = ?", userID, lessonID, false).
		First(&record).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil && record.CompletedAt != nil {
		return &record, nil
	}

	if err := s.requireWeekUnlockedTx(s.db, userID, week); err != nil {
		return nil, err
	}

	// Time contributed with this call counts toward the gate
	timeSpent := record.TimeSpentSeconds
	if meta.WatchTimeSeconds > timeSpent {
		timeSpent = meta.WatchTimeSeconds
	}

	summary, err := s.CalculateLessonProgress(userID, lessonID)
	if err != nil {
		return nil, err
	}
	if summary.Percentage < 100 {
		return nil, &PreconditionError{Reason: fmt.Sprintf("Lesson has %d of %d topics completed", summary.CompletedCount, summary.TotalCount)}
	}
	if lesson.MinTimeRequiredSeconds > 0 && timeSpent < lesson.MinTimeRequiredSeconds {
		return nil, &PreconditionError{Reason: fmt.Sprintf("Minimum time of %d seconds not yet spent on lesson", lesson.MinTimeRequiredSeconds)}
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		now := s.now()
		metaJSON, merr := json.Marshal(meta)
		if merr != nil {
			return merr
		}

		if record.ID == 0 {
			record = curriculum.LessonProgress{
				UserID:    userID,
				LessonID:  lessonID,
				StartedAt: now,
			}
		}
		record.CompletedAt = &now
		record.CompletionPercentage = 100
		record.TimeSpentSeconds = timeSpent
		record.CompletionData = metaJSON
		return tx.Save(&record).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	s.bus.Emit(events.LessonCompleted, map[string]interface{}{
		"user_id":   userID,
		"lesson_id": lesson.ID,
		"week_id":   week.ID,
	})
	return &record, nil
}

// UpdateLessonProgress records partial progress against an in-progress
// lesson. Percentage is clamped to [0,100].
func (s *Service) UpdateLessonProgress(userID uint, lessonID uint, percentage float64, positionSeconds int) (*curriculum.LessonProgress, error) {
	record, err := s.StartLesson(userID, lessonID)
	if err != nil {
		return nil, err
	}
	if record.CompletedAt != nil {
		return record, nil
	}

	record.CompletionPercentage = clampPercentage(percentage)
	if positionSeconds > record.TimeSpentSeconds {
		record.TimeSpentSeconds = positionSeconds
	}
	if err := s.db.Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}
