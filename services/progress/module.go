package progress

import (
	"encoding/json"
	"errors"
	"fmt"

	"lms/models/curriculum"
	"lms/services/events"

	"gorm.io/gorm"
)

// StartModule creates a module progress record if none exists; an
// existing record is returned unchanged.
func (s *Service) StartModule(userID uint, moduleID uint) (*curriculum.ModuleProgress, error) {
	var module curriculum.Module
	if err := s.db.Where("id = ? AND is_deleted = ?", moduleID, false).First(&module).Error; err != nil {
		return nil, fmt.Errorf("module not found: %w", err)
	}

	var record curriculum.ModuleProgress
	err := s.db.Where("user_id = ? AND module_id = ? AND is_deleted = ?", userID, moduleID, false).
		First(&record).Error
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record = curriculum.ModuleProgress{
		UserID:    userID,
		ModuleID:  moduleID,
		StartedAt: s.now(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// CalculateModuleProgress computes the module's percentage from its
// lessons' completion state. Modules carry no minimum-time gate of their
// own, so the time requirement is always met.
func (s *Service) CalculateModuleProgress(userID uint, moduleID uint) (*ProgressSummary, error) {
	var module curriculum.Module
	if err := s.db.Where("id = ? AND is_deleted = ?", moduleID, false).First(&module).Error; err != nil {
		return nil, fmt.Errorf("module not found: %w", err)
	}

	var total, completed int64
	if err := s.db.Model(&curriculum.Lesson{}).
		Where("module_id = ? AND is_deleted = ? AND status = ?", moduleID, false, curriculum.LessonPublished).
		Count(&total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&curriculum.LessonProgress{}).
		Joins("JOIN lessons ON lessons.id = lesson_progress.lesson_id").
		Where("lesson_progress.user_id = ? AND lesson_progress.completed_at IS NOT NULL AND lesson_progress.is_deleted = ?", userID, false).
		Where("lessons.module_id = ? AND lessons.is_deleted = ? AND lessons.status = ?", moduleID, false, curriculum.LessonPublished).
		Count(&completed).Error; err != nil {
		return nil, err
	}

	percentage := float64(0)
	if total > 0 {
		percentage = round2(100 * float64(completed) / float64(total))
	}

	return &ProgressSummary{
		Percentage:         percentage,
		CompletedCount:     completed,
		TotalCount:         total,
		TimeRequirementMet: true,
		CanComplete:        percentage == 100,
	}, nil
}

// CompleteModule explicitly marks the module completed once all its
// lessons are. Module completion awards no coins.
func (s *Service) CompleteModule(userID uint, moduleID uint, meta CompletionMetadata) (*curriculum.ModuleProgress, error) {
	var module curriculum.Module
	if err := s.db.Where("id = ? AND is_deleted = ?", moduleID, false).First(&module).Error; err != nil {
		return nil, fmt.Errorf("module not found: %w", err)
	}

	var week curriculum.Week
	if err := s.db.Where("id = ? AND is_deleted = ?", module.WeekID, false).First(&week).Error; err != nil {
		return nil, fmt.Errorf("week not found for module %d: %w", module.ID, err)
	}

	var record curriculum.ModuleProgress
	err := s.db.Where("user_id = ? AND module_id = ? AND is_deleted = ?", userID, moduleID, false).
		First(&record).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil && record.CompletedAt != nil {
		return &record, nil
	}

	if err := s.requireWeekUnlockedTx(s.db, userID, &week); err != nil {
		return nil, err
	}

	summary, err := s.CalculateModuleProgress(userID, moduleID)
	if err != nil {
		return nil, err
	}
	if !summary.CanComplete {
		return nil, &PreconditionError{Reason: fmt.Sprintf("Module has %d of %d lessons completed", summary.CompletedCount, summary.TotalCount)}
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		now := s.now()
		metaJSON, merr := json.Marshal(meta)
		if merr != nil {
			return merr
		}

		if record.ID == 0 {
			record = curriculum.ModuleProgress{
				UserID:    userID,
				ModuleID:  moduleID,
				StartedAt: now,
			}
		}
		record.CompletedAt = &now
		record.CompletionPercentage = 100
		record.CompletionData = metaJSON
		return tx.Save(&record).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	s.bus.Emit(events.ModuleCompleted, map[string]interface{}{
		"user_id":   userID,
		"module_id": module.ID,
		"week_id":   week.ID,
	})
	return &record, nil
}
