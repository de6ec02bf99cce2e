package progress

import (
	"errors"
	"fmt"

	"lms/models/curriculum"

	"gorm.io/gorm"
)

// RecordQuizOutcome stores one graded attempt and recalculates the
// quiz's week. The engine never scores quizzes itself; it consumes the
// pass/fail outcome.
func (s *Service) RecordQuizOutcome(userID uint, quizID uint, score, maxScore int, passed bool) (*curriculum.QuizAttempt, error) {
	var quiz curriculum.Quiz
	if err := s.db.Where("id = ? AND is_deleted = ? AND is_published = ?", quizID, false, true).
		First(&quiz).Error; err != nil {
		return nil, fmt.Errorf("quiz not found: %w", err)
	}

	var week curriculum.Week
	if err := s.db.Where("id = ? AND is_deleted = ?", quiz.WeekID, false).First(&week).Error; err != nil {
		return nil, fmt.Errorf("week not found for quiz %d: %w", quiz.ID, err)
	}

	if err := s.requireWeekUnlockedTx(s.db, userID, &week); err != nil {
		return nil, err
	}

	var attempt curriculum.QuizAttempt
	var result *recalcResult
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		var lastAttempt int64
		if err := tx.Model(&curriculum.QuizAttempt{}).
			Where("user_id = ? AND quiz_id = ? AND is_deleted = ?", userID, quizID, false).
			Select("COALESCE(MAX(attempt_number), 0)").
			Scan(&lastAttempt).Error; err != nil {
			return err
		}

		attempt = curriculum.QuizAttempt{
			UserID:        userID,
			QuizID:        quizID,
			Score:         score,
			MaxScore:      maxScore,
			Passed:        passed,
			AttemptNumber: int(lastAttempt) + 1,
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}

		r, err := s.recalcWeekTx(tx, userID, &week)
		result = r
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	s.emitRecalcEvents(userID, &week, result)
	return &attempt, nil
}

// SubmitAssignment stores a pending submission. Resubmitting replaces a
// rejected submission's file and resets it to pending review.
func (s *Service) SubmitAssignment(userID uint, assignmentID uint, submissionURL string) (*curriculum.AssignmentSubmission, error) {
	var assignment curriculum.Assignment
	if err := s.db.Where("id = ? AND is_deleted = ? AND is_published = ?", assignmentID, false, true).
		First(&assignment).Error; err != nil {
		return nil, fmt.Errorf("assignment not found: %w", err)
	}

	var week curriculum.Week
	if err := s.db.Where("id = ? AND is_deleted = ?", assignment.WeekID, false).First(&week).Error; err != nil {
		return nil, fmt.Errorf("week not found for assignment %d: %w", assignment.ID, err)
	}

	if err := s.requireWeekUnlockedTx(s.db, userID, &week); err != nil {
		return nil, err
	}

	var submission curriculum.AssignmentSubmission
	err := s.db.Where("user_id = ? AND assignment_id = ? AND is_deleted = ?", userID, assignmentID, false).
		Order("created_at desc").
		First(&submission).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil && submission.Status != curriculum.SubmissionRejected {
		return &submission, nil
	}

	submission = curriculum.AssignmentSubmission{
		UserID:        userID,
		AssignmentID:  assignmentID,
		SubmissionURL: submissionURL,
		Status:        curriculum.SubmissionPending,
		SubmittedAt:   s.now(),
	}
	if err := s.db.Create(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// ReviewSubmission records the review outcome and, on approval,
// recalculates the assignment's week.
func (s *Service) ReviewSubmission(submissionID uint, reviewerID uint, approved bool, reason string) (*curriculum.AssignmentSubmission, error) {
	var submission curriculum.AssignmentSubmission
	if err := s.db.Where("id = ? AND is_deleted = ?", submissionID, false).First(&submission).Error; err != nil {
		return nil, fmt.Errorf("submission not found: %w", err)
	}

	var assignment curriculum.Assignment
	if err := s.db.Where("id = ? AND is_deleted = ?", submission.AssignmentID, false).First(&assignment).Error; err != nil {
		return nil, fmt.Errorf("assignment not found: %w", err)
	}
	var week curriculum.Week
	if err := s.db.Where("id = ? AND is_deleted = ?", assignment.WeekID, false).First(&week).Error; err != nil {
		return nil, fmt.Errorf("week not found for assignment %d: %w", assignment.ID, err)
	}

	var result *recalcResult
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		now := s.now()
		if approved {
			submission.Status = curriculum.SubmissionApproved
		} else {
			submission.Status = curriculum.SubmissionRejected
			submission.RejectionReason = reason
		}
		submission.ReviewedAt = &now
		submission.ReviewedBy = &reviewerID
		if err := tx.Save(&submission).Error; err != nil {
			return err
		}

		if approved {
			r, err := s.recalcWeekTx(tx, submission.UserID, &week)
			result = r
			return err
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.emitRecalcEvents(submission.UserID, &week, result)
	return &submission, nil
}

// MarkAttendance marks a user attended for a live class. Attendance is
// an unlock-gating signal only, so no week recalculation runs.
func (s *Service) MarkAttendance(userID uint, liveClassID uint) (*curriculum.LiveClassAttendance, error) {
	var liveClass curriculum.LiveClass
	if err := s.db.Where("id = ? AND is_deleted = ?", liveClassID, false).First(&liveClass).Error; err != nil {
		return nil, fmt.Errorf("live class not found: %w", err)
	}

	var attendance curriculum.LiveClassAttendance
	err := s.db.Where("user_id = ? AND live_class_id = ? AND is_deleted = ?", userID, liveClassID, false).
		First(&attendance).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil && attendance.Attended {
		return &attendance, nil
	}

	now := s.now()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		attendance = curriculum.LiveClassAttendance{
			UserID:      userID,
			LiveClassID: liveClassID,
		}
	}
	attendance.Attended = true
	attendance.AttendedAt = &now
	if err := s.db.Save(&attendance).Error; err != nil {
		return nil, err
	}
	return &attendance, nil
}
