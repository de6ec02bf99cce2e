package progress

import (
	"testing"

	"lms/models/curriculum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordQuizOutcomeNumbersAttempts(t *testing.T) {
	env := newTestEnv(t)
	week := env.seedWeek(t, 1, 0)
	env.unlockWeek(t, 1, week)

	quiz := curriculum.Quiz{WeekID: week.ID, Title: "Quiz", IsPublished: true}
	require.NoError(t, env.db.Create(&quiz).Error)

	first, err := env.service.RecordQuizOutcome(1, quiz.ID, 4, 10, false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.AttemptNumber)
	assert.False(t, first.Passed)

	second, err := env.service.RecordQuizOutcome(1, quiz.ID, 9, 10, true)
	require.NoError(t, err)
	assert.Equal(t, 2, second.AttemptNumber)
	assert.True(t, second.Passed)

	// The passing latest attempt counts the quiz as done
	progress, err := env.service.GetWeekProgress(1, week.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(100), progress.CompletionPercentage)

	// A failing third attempt takes it back out
	third, err := env.service.RecordQuizOutcome(1, quiz.ID, 2, 10, false)
	require.NoError(t, err)
	assert.Equal(t, 3, third.AttemptNumber)

	progress, err = env.service.GetWeekProgress(1, week.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(0), progress.CompletionPercentage)
	assert.Nil(t, progress.CompletedAt)
}

func TestRecordQuizOutcomeRejectedWhenWeekLocked(t *testing.T) {
	env := newTestEnv(t)
	week := env.seedWeek(t, 1, 1)

	quiz := curriculum.Quiz{WeekID: week.ID, Title: "Quiz", IsPublished: true}
	require.NoError(t, env.db.Create(&quiz).Error)

	_, err := env.service.RecordQuizOutcome(1, quiz.ID, 10, 10, true)
	var precond *PreconditionError
	require.ErrorAs(t, err, &precond)
}

func TestSubmitAssignmentPendingBlocksResubmit(t *testing.T) {
	env := newTestEnv(t)
	week := env.seedWeek(t, 1, 0)
	env.unlockWeek(t, 1, week)

	assignment := curriculum.Assignment{WeekID: week.ID, Title: "Assignment", IsPublished: true}
	require.NoError(t, env.db.Create(&assignment).Error)

	first, err := env.service.SubmitAssignment(1, assignment.ID, "https://files.example/one.pdf")
	require.NoError(t, err)
	assert.Equal(t, curriculum.SubmissionPending, first.Status)

	// A pending submission is returned as-is, not replaced
	again, err := env.service.SubmitAssignment(1, assignment.ID, "https://files.example/two.pdf")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "https://files.example/one.pdf", again.SubmissionURL)
}

func TestReviewSubmissionApprovalRecalculatesWeek(t *testing.T) {
	env := newTestEnv(t)
	week := env.seedWeek(t, 1, 0)
	env.unlockWeek(t, 1, week)

	assignment := curriculum.Assignment{WeekID: week.ID, Title: "Assignment", IsPublished: true}
	require.NoError(t, env.db.Create(&assignment).Error)

	submission, err := env.service.SubmitAssignment(1, assignment.ID, "https://files.example/essay.pdf")
	require.NoError(t, err)

	reviewed, err := env.service.ReviewSubmission(submission.ID, 99, true, "")
	require.NoError(t, err)
	assert.Equal(t, curriculum.SubmissionApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedAt)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, uint(99), *reviewed.ReviewedBy)

	// The submitter's week reflects the approval
	progress, err := env.service.GetWeekProgress(1, week.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(100), progress.CompletionPercentage)
}

func TestRejectedSubmissionCanBeResubmitted(t *testing.T) {
	env := newTestEnv(t)
	week := env.seedWeek(t, 1, 0)
	env.unlockWeek(t, 1, week)

	assignment := curriculum.Assignment{WeekID: week.ID, Title: "Assignment", IsPublished: true}
	require.NoError(t, env.db.Create(&assignment).Error)

	submission, err := env.service.SubmitAssignment(1, assignment.ID, "https://files.example/v1.pdf")
	require.NoError(t, err)

	rejected, err := env.service.ReviewSubmission(submission.ID, 99, false, "Missing sources")
	require.NoError(t, err)
	assert.Equal(t, curriculum.SubmissionRejected, rejected.Status)
	assert.Equal(t, "Missing sources", rejected.RejectionReason)

	// Rejection never counts toward the week
	progress, err := env.service.GetWeekProgress(1, week.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(0), progress.CompletionPercentage)

	resubmitted, err := env.service.SubmitAssignment(1, assignment.ID, "https://files.example/v2.pdf")
	require.NoError(t, err)
	assert.NotEqual(t, submission.ID, resubmitted.ID)
	assert.Equal(t, curriculum.SubmissionPending, resubmitted.Status)
}

func TestMarkAttendanceIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	week := env.seedWeek(t, 1, 0)

	liveClass := curriculum.LiveClass{WeekID: week.ID, Title: "Live"}
	require.NoError(t, env.db.Create(&liveClass).Error)

	first, err := env.service.MarkAttendance(1, liveClass.ID)
	require.NoError(t, err)
	assert.True(t, first.Attended)
	require.NotNil(t, first.AttendedAt)

	second, err := env.service.MarkAttendance(1, liveClass.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, env.db.Model(&curriculum.LiveClassAttendance{}).
		Where("user_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
