package unlock

import (
	"fmt"

	"lms/models/curriculum"

	"gorm.io/gorm"
)

// CompletionCounter counts a user's completed units of one activity kind
// within a week. One implementation exists per rule type; the evaluator
// selects by the rule's type tag.
type CompletionCounter interface {
	Count(tx *gorm.DB, userID uint, weekID uint) (int64, error)
	Label() string
}

// CountCompletions counts a user's completed units of the given kind in a
// week. The week recalculator shares these counters so gating and
// percentage aggregation can never disagree on what "completed" means.
func CountCompletions(tx *gorm.DB, t CompletionType, userID uint, weekID uint) (int64, error) {
	counter, ok := counterFor(t)
	if !ok {
		return 0, fmt.Errorf("unknown completion type %q", t)
	}
	return counter.Count(tx, userID, weekID)
}

func counterFor(t CompletionType) (CompletionCounter, bool) {
	switch t {
	case CompletionTopics:
		return topicCounter{}, true
	case CompletionQuizzes:
		return quizCounter{}, true
	case CompletionAssignments:
		return assignmentCounter{}, true
	case CompletionLiveClasses:
		return liveClassCounter{}, true
	default:
		return nil, false
	}
}

// topicCounter counts completed topics, reached through the
// lesson -> module -> week chain.
type topicCounter struct{}

func (topicCounter) Label() string { return "Topics completed" }

func (topicCounter) Count(tx *gorm.DB, userID uint, weekID uint) (int64, error) {
	var n int64
	err := tx.Model(&curriculum.TopicCompletion{}).
		Joins("JOIN topics ON topics.id = topic_completions.topic_id").
		Joins("JOIN lessons ON lessons.id = topics.lesson_id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("topic_completions.user_id = ? AND topic_completions.completed_at IS NOT NULL AND topic_completions.is_deleted = ?", userID, false).
		Where("modules.week_id = ? AND topics.is_deleted = ? AND topics.is_published = ?", weekID, false, true).
		Count(&n).Error
	return n, err
}

// quizCounter counts quizzes whose latest attempt passed. A failed
// attempt after a pass takes the quiz back out of the count.
type quizCounter struct{}

func (quizCounter) Label() string { return "Quizzes passed" }

func (quizCounter) Count(tx *gorm.DB, userID uint, weekID uint) (int64, error) {
	var n int64
	err := tx.Model(&curriculum.QuizAttempt{}).
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Where("quiz_attempts.user_id = ? AND quiz_attempts.passed = ? AND quiz_attempts.is_deleted = ?", userID, true, false).
		Where("quizzes.week_id = ? AND quizzes.is_deleted = ? AND quizzes.is_published = ?", weekID, false, true).
		Where("quiz_attempts.attempt_number = (SELECT MAX(a.attempt_number) FROM quiz_attempts a WHERE a.user_id = quiz_attempts.user_id AND a.quiz_id = quiz_attempts.quiz_id AND a.is_deleted = ?)", false).
		Distinct("quiz_attempts.quiz_id").
		Count(&n).Error
	return n, err
}

// assignmentCounter counts assignments with an approved submission
type assignmentCounter struct{}

func (assignmentCounter) Label() string { return "Assignments approved" }

func (assignmentCounter) Count(tx *gorm.DB, userID uint, weekID uint) (int64, error) {
	var n int64
	err := tx.Model(&curriculum.AssignmentSubmission{}).
		Joins("JOIN assignments ON assignments.id = assignment_submissions.assignment_id").
		Where("assignment_submissions.user_id = ? AND assignment_submissions.status = ? AND assignment_submissions.is_deleted = ?", userID, curriculum.SubmissionApproved, false).
		Where("assignments.week_id = ? AND assignments.is_deleted = ? AND assignments.is_published = ?", weekID, false, true).
		Distinct("assignment_submissions.assignment_id").
		Count(&n).Error
	return n, err
}

// liveClassCounter counts live classes the user attended
type liveClassCounter struct{}

func (liveClassCounter) Label() string { return "Live classes attended" }

func (liveClassCounter) Count(tx *gorm.DB, userID uint, weekID uint) (int64, error) {
	var n int64
	err := tx.Model(&curriculum.LiveClassAttendance{}).
		Joins("JOIN live_classes ON live_classes.id = live_class_attendances.live_class_id").
		Where("live_class_attendances.user_id = ? AND live_class_attendances.attended = ? AND live_class_attendances.is_deleted = ?", userID, true, false).
		Where("live_classes.week_id = ? AND live_classes.is_deleted = ?", weekID, false).
		Count(&n).Error
	return n, err
}
