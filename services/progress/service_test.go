package progress

import (
	"strconv"
	"testing"
	"time"

	"lms/models"
	"lms/models/curriculum"
	"lms/services/events"
	"lms/services/rewards"
	"lms/services/unlock"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testClock = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

type testEnv struct {
	db        *gorm.DB
	service   *Service
	ledger    *rewards.Ledger
	evaluator *unlock.Evaluator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.CoinTransaction{},
		&models.UserCoinBalance{},
		&curriculum.Cohort{},
		&curriculum.Week{},
		&curriculum.Module{},
		&curriculum.Lesson{},
		&curriculum.Topic{},
		&curriculum.Quiz{},
		&curriculum.QuizAttempt{},
		&curriculum.Assignment{},
		&curriculum.AssignmentSubmission{},
		&curriculum.LiveClass{},
		&curriculum.LiveClassAttendance{},
		&curriculum.TopicCompletion{},
		&curriculum.LessonProgress{},
		&curriculum.ModuleProgress{},
		&curriculum.UserWeekProgress{},
		&curriculum.Enrollment{},
	))

	bus := events.NewBus()
	ledger := rewards.NewLedger(rewards.LedgerConfig{DB: db, Bus: bus, Now: testClock})
	evaluator := unlock.NewEvaluator(unlock.EvaluatorConfig{DB: db, Ledger: ledger, Bus: bus, Now: testClock})
	service := NewService(ServiceConfig{DB: db, Ledger: ledger, Evaluator: evaluator, Bus: bus, Now: testClock})

	return &testEnv{db: db, service: service, ledger: ledger, evaluator: evaluator}
}

func (env *testEnv) seedWeek(t *testing.T, cohortID uint, number int) *curriculum.Week {
	t.Helper()
	week := curriculum.Week{CohortID: cohortID, WeekNumber: number, Title: "Week"}
	require.NoError(t, env.db.Create(&week).Error)
	return &week
}

// seedLesson creates a module and a published lesson with n published
// topics, each rewarding coinReward coins.
func (env *testEnv) seedLesson(t *testing.T, weekID uint, n int, coinReward int64, minTimeSeconds int) (*curriculum.Lesson, []curriculum.Topic) {
	t.Helper()
	module := curriculum.Module{WeekID: weekID, Title: "Module"}
	require.NoError(t, env.db.Create(&module).Error)
	lesson := curriculum.Lesson{
		ModuleID:               module.ID,
		Title:                  "Lesson",
		Status:                 curriculum.LessonPublished,
		MinTimeRequiredSeconds: minTimeSeconds,
	}
	require.NoError(t, env.db.Create(&lesson).Error)

	topics := make([]curriculum.Topic, n)
	for i := range topics {
		topics[i] = curriculum.Topic{LessonID: lesson.ID, Title: "Topic", CoinReward: coinReward, IsPublished: true}
		require.NoError(t, env.db.Create(&topics[i]).Error)
	}
	return &lesson, topics
}

func keyFor(id uint) string {
	return strconv.Itoa(int(id))
}

func (env *testEnv) unlockWeek(t *testing.T, userID uint, week *curriculum.Week) {
	t.Helper()
	now := testClock()
	require.NoError(t, env.db.Create(&curriculum.UserWeekProgress{
		UserID:     userID,
		WeekID:     week.ID,
		CohortID:   week.CohortID,
		IsUnlocked: true,
		UnlockedAt: &now,
	}).Error)
}
