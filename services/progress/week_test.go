package progress

import (
	"encoding/json"
	"testing"

	"lms/models/curriculum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecalculateWeekAggregatesAllActivityKinds(t *testing.T) {
	env := newTestEnv(t)
	week := env.seedWeek(t, 1, 0)
	_, topics := env.seedLesson(t, week.ID, 2, 10, 0)
	env.unlockWeek(t, 1, week)

	quiz := curriculum.Quiz{WeekID: week.ID, Title: "Quiz", IsPublished: true}
	require.NoError(t, env.db.Create(&quiz).Error)
	assignment := curriculum.Assignment{WeekID: week.ID, Title: "Assignment", IsPublished: true}
	require.NoError(t, env.db.Create(&assignment).Error)

	// 2 topics + 1 quiz + 1 assignment = 4 countable units
	_, err := env.service.CompleteTopic(1, topics[0].ID, CompletionMetadata{Method: "manual"})
	require.NoError(t, err)

	progress, err := env.service.GetWeekProgress(1, week.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(25), progress.CompletionPercentage)

	_, err = env.service.RecordQuizOutcome(1, quiz.ID, 8, 10, true)
	require.NoError(t, err)

	progress, err = env.service.GetWeekProgress(1, week.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(50), progress.CompletionPercentage)

	// Live class attendance never moves the percentage
	liveClass := curriculum.LiveClass{WeekID: week.ID, Title: "Live"}
	require.NoError(t, env.db.Create(&liveClass).Error)
	_, err = env.service.MarkAttendance(1, liveClass.ID)
	require.NoError(t, err)

	progress, err = env.service.GetWeekProgress(1, week.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(50), progress.CompletionPercentage)
}

func TestWeekCompletionSetsTimestampOnceAndCascades(t *testing.T) {
	env := newTestEnv(t)
	week0 := env.seedWeek(t, 1, 0)
	week1 := env.seedWeek(t, 1, 1)
	_, topics := env.seedLesson(t, week0.ID, 1, 10, 0)
	env.unlockWeek(t, 1, week0)

	_, err := env.service.CompleteTopic(1, topics[0].ID, CompletionMetadata{Method: "manual"})
	require.NoError(t, err)

	progress, err := env.service.GetWeekProgress(1, week0.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(100), progress.CompletionPercentage)
	require.NotNil(t, progress.CompletedAt)

	// Finishing week 0 unlocked week 1 in the same transaction
	next, err := env.service.GetWeekProgress(1, week1.ID)
	require.NoError(t, err)
	assert.True(t, next.IsUnlocked)
	require.NotNil(t, next.UnlockedAt)

	// Recalculating again leaves the completion timestamp alone
	firstCompletedAt := *progress.CompletedAt
	_, err = env.service.RecalculateWeekProgress(1, week0)
	require.NoError(t, err)
	progress, err = env.service.GetWeekProgress(1, week0.ID)
	require.NoError(t, err)
	require.NotNil(t, progress.CompletedAt)
	assert.Equal(t, firstCompletedAt.Unix(), progress.CompletedAt.Unix())
}

func TestWeekCompletionRegressesWhenContentIsAdded(t *testing.T) {
	env := newTestEnv(t)
	week := env.seedWeek(t, 1, 0)
	lesson, topics := env.seedLesson(t, week.ID, 1, 10, 0)
	env.unlockWeek(t, 1, week)

	_, err := env.service.CompleteTopic(1, topics[0].ID, CompletionMetadata{Method: "manual"})
	require.NoError(t, err)

	progress, err := env.service.GetWeekProgress(1, week.ID)
	require.NoError(t, err)
	require.NotNil(t, progress.CompletedAt)

	// A topic published after completion drops the percentage below 100
	newTopic := curriculum.Topic{LessonID: lesson.ID, Title: "Late addition", CoinReward: 5, IsPublished: true}
	require.NoError(t, env.db.Create(&newTopic).Error)

	_, err = env.service.RecalculateWeekProgress(1, week)
	require.NoError(t, err)

	progress, err = env.service.GetWeekProgress(1, week.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(50), progress.CompletionPercentage)
	assert.Nil(t, progress.CompletedAt)
}

func TestUnpublishingCompletedContentNeverInflatesPercentage(t *testing.T) {
	env := newTestEnv(t)
	week := env.seedWeek(t, 1, 0)
	_, topics := env.seedLesson(t, week.ID, 2, 10, 0)
	env.unlockWeek(t, 1, week)

	_, err := env.service.CompleteTopic(1, topics[0].ID, CompletionMetadata{Method: "manual"})
	require.NoError(t, err)
	_, err = env.service.CompleteTopic(1, topics[1].ID, CompletionMetadata{Method: "manual"})
	require.NoError(t, err)

	progress, err := env.service.GetWeekProgress(1, week.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(100), progress.CompletionPercentage)
	require.NotNil(t, progress.CompletedAt)

	// Unpublishing a completed topic shrinks the countable set on both
	// sides of the division: 1 of 1 remaining, never 2 of 1
	require.NoError(t, env.db.Model(&curriculum.Topic{}).
		Where("id = ?", topics[0].ID).Update("is_published", false).Error)

	_, err = env.service.RecalculateWeekProgress(1, week)
	require.NoError(t, err)
	progress, err = env.service.GetWeekProgress(1, week.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(100), progress.CompletionPercentage)
	require.NotNil(t, progress.CompletedAt)

	// With every topic unpublished nothing is countable: 0%, not NaN,
	// and the completion timestamp regresses with the percentage
	require.NoError(t, env.db.Model(&curriculum.Topic{}).
		Where("id = ?", topics[1].ID).Update("is_published", false).Error)

	_, err = env.service.RecalculateWeekProgress(1, week)
	require.NoError(t, err)
	progress, err = env.service.GetWeekProgress(1, week.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(0), progress.CompletionPercentage)
	assert.Nil(t, progress.CompletedAt)
}

func TestRecalculateStoresCompletionBreakdown(t *testing.T) {
	env := newTestEnv(t)
	week := env.seedWeek(t, 1, 0)
	_, topics := env.seedLesson(t, week.ID, 1, 15, 0)
	env.unlockWeek(t, 1, week)

	_, err := env.service.CompleteTopic(1, topics[0].ID, CompletionMetadata{Method: "video_watched"})
	require.NoError(t, err)

	progress, err := env.service.GetWeekProgress(1, week.ID)
	require.NoError(t, err)

	var data map[string]map[string]struct {
		CoinsEarned      int64  `json:"coins_earned"`
		CompletionMethod string `json:"completion_method"`
	}
	require.NoError(t, json.Unmarshal(progress.CompletionData, &data))

	entry, ok := data["topics"][keyFor(topics[0].ID)]
	require.True(t, ok)
	assert.Equal(t, int64(15), entry.CoinsEarned)
	assert.Equal(t, "video_watched", entry.CompletionMethod)
}

func TestWeekCompletionFlipsEnrollmentStatus(t *testing.T) {
	env := newTestEnv(t)
	week := env.seedWeek(t, 1, 0)
	_, topics := env.seedLesson(t, week.ID, 1, 10, 0)
	env.unlockWeek(t, 1, week)

	require.NoError(t, env.db.Create(&curriculum.Enrollment{
		UserID:     1,
		CohortID:   1,
		Status:     "ENROLLED",
		EnrolledAt: testClock(),
	}).Error)

	_, err := env.service.CompleteTopic(1, topics[0].ID, CompletionMetadata{Method: "manual"})
	require.NoError(t, err)

	var enrollment curriculum.Enrollment
	require.NoError(t, env.db.Where("user_id = ? AND cohort_id = ?", 1, 1).First(&enrollment).Error)
	assert.Equal(t, "COMPLETED", enrollment.Status)
	require.NotNil(t, enrollment.CompletedAt)
}
