package progress

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"lms/models/curriculum"
	"lms/services/events"
	"lms/services/unlock"

	"gorm.io/gorm"
)

// completionEntry is one unit's breakdown inside the week's
// completion_data document.
type completionEntry struct {
	CompletedAt      *time.Time `json:"completed_at"`
	CoinsEarned      int64      `json:"coins_earned"`
	CompletionMethod string     `json:"completion_method"`
}

// recalcResult reports what a recalculation changed so the public
// wrappers can emit events after the transaction commits.
type recalcResult struct {
	Progress        *curriculum.UserWeekProgress
	BecameCompleted bool
	NextUnlocked    *curriculum.Week
}

// RecalculateWeekProgress aggregates every countable completion in the
// week into one percentage, maintains completed_at and cascades into the
// next week's unlock evaluation.
func (s *Service) RecalculateWeekProgress(userID uint, week *curriculum.Week) (*curriculum.UserWeekProgress, error) {
	var result *recalcResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		r, err := s.recalcWeekTx(tx, userID, week)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emitRecalcEvents(userID, week, result)
	return result.Progress, nil
}

func (s *Service) recalcWeekTx(tx *gorm.DB, userID uint, week *curriculum.Week) (*recalcResult, error) {
	// Countable units: topics, quizzes, assignments. Live class attendance
	// gates unlocks but never contributes to the percentage.
	var totalTopics, totalQuizzes, totalAssignments int64
	if err := tx.Model(&curriculum.Topic{}).
		Joins("JOIN lessons ON lessons.id = topics.lesson_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.week_id = ? AND topics.is_deleted = ? AND topics.is_published = ?", week.ID, false, true).
		Count(&totalTopics).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&curriculum.Quiz{}).
		Where("week_id = ? AND is_deleted = ? AND is_published = ?", week.ID, false, true).
		Count(&totalQuizzes).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&curriculum.Assignment{}).
		Where("week_id = ? AND is_deleted = ? AND is_published = ?", week.ID, false, true).
		Count(&totalAssignments).Error; err != nil {
		return nil, err
	}

	completedTopics, err := unlock.CountCompletions(tx, unlock.CompletionTopics, userID, week.ID)
	if err != nil {
		return nil, err
	}
	passedQuizzes, err := unlock.CountCompletions(tx, unlock.CompletionQuizzes, userID, week.ID)
	if err != nil {
		return nil, err
	}
	approvedAssignments, err := unlock.CountCompletions(tx, unlock.CompletionAssignments, userID, week.ID)
	if err != nil {
		return nil, err
	}

	total := totalTopics + totalQuizzes + totalAssignments
	completed := completedTopics + passedQuizzes + approvedAssignments
	percentage := float64(0)
	if total > 0 {
		percentage = round2(100 * float64(completed) / float64(total))
	}

	var progress curriculum.UserWeekProgress
	err = tx.Where("user_id = ? AND week_id = ? AND is_deleted = ?", userID, week.ID, false).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = curriculum.UserWeekProgress{
			UserID:   userID,
			WeekID:   week.ID,
			CohortID: week.CohortID,
		}
	} else if err != nil {
		return nil, err
	}

	data, err := s.buildCompletionDataTx(tx, userID, week)
	if err != nil {
		return nil, err
	}

	progress.CompletionPercentage = percentage
	progress.CompletionData = data

	result := &recalcResult{}
	if percentage >= 100 {
		if progress.CompletedAt == nil {
			now := s.now()
			progress.CompletedAt = &now
			result.BecameCompleted = true
		}
	} else if progress.CompletedAt != nil {
		// Content added after completion can legitimately lower the
		// percentage; the completion timestamp must regress with it.
		progress.CompletedAt = nil
	}

	if err := tx.Save(&progress).Error; err != nil {
		return nil, err
	}
	result.Progress = &progress

	if result.BecameCompleted {
		if _, next, err := s.evaluator.EvaluateAndUnlockNextTx(tx, userID, week); err != nil {
			return nil, err
		} else if next != nil {
			result.NextUnlocked = next
		}
		if err := s.updateEnrollmentTx(tx, userID, week); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// buildCompletionDataTx assembles the per-activity-kind breakdown stored
// on the week's progress row.
func (s *Service) buildCompletionDataTx(tx *gorm.DB, userID uint, week *curriculum.Week) ([]byte, error) {
	data := map[string]map[string]completionEntry{
		"topics":       {},
		"quizzes":      {},
		"assignments":  {},
		"live_classes": {},
	}

	var topicCompletions []curriculum.TopicCompletion
	if err := tx.Model(&curriculum.TopicCompletion{}).
		Joins("JOIN topics ON topics.id = topic_completions.topic_id").
		Joins("JOIN lessons ON lessons.id = topics.lesson_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("topic_completions.user_id = ? AND topic_completions.completed_at IS NOT NULL AND topic_completions.is_deleted = ?", userID, false).
		Where("modules.week_id = ?", week.ID).
		Find(&topicCompletions).Error; err != nil {
		return nil, err
	}
	for _, tc := range topicCompletions {
		method := "topic_completed"
		var meta CompletionMetadata
		if len(tc.CompletionData) > 0 {
			if err := json.Unmarshal(tc.CompletionData, &meta); err == nil && meta.Method != "" {
				method = meta.Method
			}
		}
		data["topics"][strconv.Itoa(int(tc.TopicID))] = completionEntry{
			CompletedAt:      tc.CompletedAt,
			CoinsEarned:      tc.CoinsAwarded,
			CompletionMethod: method,
		}
	}

	var attempts []curriculum.QuizAttempt
	if err := tx.Model(&curriculum.QuizAttempt{}).
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Where("quiz_attempts.user_id = ? AND quiz_attempts.passed = ? AND quiz_attempts.is_deleted = ?", userID, true, false).
		Where("quizzes.week_id = ?", week.ID).
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	for _, a := range attempts {
		completedAt := a.UpdatedAt
		data["quizzes"][strconv.Itoa(int(a.QuizID))] = completionEntry{
			CompletedAt:      &completedAt,
			CompletionMethod: "quiz_passed",
		}
	}

	var submissions []curriculum.AssignmentSubmission
	if err := tx.Model(&curriculum.AssignmentSubmission{}).
		Joins("JOIN assignments ON assignments.id = assignment_submissions.assignment_id").
		Where("assignment_submissions.user_id = ? AND assignment_submissions.status = ? AND assignment_submissions.is_deleted = ?", userID, curriculum.SubmissionApproved, false).
		Where("assignments.week_id = ?", week.ID).
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	for _, sub := range submissions {
		data["assignments"][strconv.Itoa(int(sub.AssignmentID))] = completionEntry{
			CompletedAt:      sub.ReviewedAt,
			CompletionMethod: "assignment_approved",
		}
	}

	var attendances []curriculum.LiveClassAttendance
	if err := tx.Model(&curriculum.LiveClassAttendance{}).
		Joins("JOIN live_classes ON live_classes.id = live_class_attendances.live_class_id").
		Where("live_class_attendances.user_id = ? AND live_class_attendances.attended = ? AND live_class_attendances.is_deleted = ?", userID, true, false).
		Where("live_classes.week_id = ?", week.ID).
		Find(&attendances).Error; err != nil {
		return nil, err
	}
	for _, att := range attendances {
		data["live_classes"][strconv.Itoa(int(att.LiveClassID))] = completionEntry{
			CompletedAt:      att.AttendedAt,
			CompletionMethod: "attended",
		}
	}

	return json.Marshal(data)
}

// updateEnrollmentTx flips the enrollment to COMPLETED when every week
// of the cohort is complete.
func (s *Service) updateEnrollmentTx(tx *gorm.DB, userID uint, week *curriculum.Week) error {
	var totalWeeks, completedWeeks int64
	if err := tx.Model(&curriculum.Week{}).
		Where("cohort_id = ? AND is_deleted = ?", week.CohortID, false).
		Count(&totalWeeks).Error; err != nil {
		return err
	}
	if err := tx.Model(&curriculum.UserWeekProgress{}).
		Where("user_id = ? AND cohort_id = ? AND completed_at IS NOT NULL AND is_deleted = ?", userID, week.CohortID, false).
		Count(&completedWeeks).Error; err != nil {
		return err
	}

	var enrollment curriculum.Enrollment
	err := tx.Where("user_id = ? AND cohort_id = ? AND is_deleted = ?", userID, week.CohortID, false).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if totalWeeks > 0 && completedWeeks >= totalWeeks {
		now := s.now()
		enrollment.Status = "COMPLETED"
		enrollment.CompletedAt = &now
	} else {
		enrollment.Status = "IN_PROGRESS"
	}
	return tx.Save(&enrollment).Error
}

// GetWeekProgress returns the user's progress record for the week,
// creating nothing.
func (s *Service) GetWeekProgress(userID uint, weekID uint) (*curriculum.UserWeekProgress, error) {
	var progress curriculum.UserWeekProgress
	if err := s.db.Where("user_id = ? AND week_id = ? AND is_deleted = ?", userID, weekID, false).
		First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (s *Service) emitRecalcEvents(userID uint, week *curriculum.Week, result *recalcResult) {
	if result == nil {
		return
	}
	if result.BecameCompleted {
		s.bus.Emit(events.WeekCompleted, map[string]interface{}{
			"user_id":     userID,
			"week_id":     week.ID,
			"week_number": week.WeekNumber,
			"cohort_id":   week.CohortID,
		})
	}
	if result.NextUnlocked != nil {
		s.bus.Emit(events.WeekUnlocked, map[string]interface{}{
			"user_id":     userID,
			"week_id":     result.NextUnlocked.ID,
			"week_number": result.NextUnlocked.WeekNumber,
			"cohort_id":   result.NextUnlocked.CohortID,
		})
	}
}
