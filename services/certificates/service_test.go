package certificates

import (
	"fmt"
	"testing"
	"time"

	"lms/models/curriculum"
	"lms/services/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testClock = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

func newTestService(t *testing.T) (*Service, *gorm.DB) {
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
		&curriculum.Cohort{},
		&curriculum.Week{},
		&curriculum.UserWeekProgress{},
		&curriculum.Certificate{},
	))
	return NewService(ServiceConfig{DB: db, Bus: events.NewBus(), Now: testClock}), db
}

func seedCompletedCohort(t *testing.T, db *gorm.DB, userID uint, cohortID uint, weeks int, completed int) {
	t.Helper()
	now := testClock()
	for i := 0; i < weeks; i++ {
		week := curriculum.Week{CohortID: cohortID, WeekNumber: i, Title: "Week"}
		require.NoError(t, db.Create(&week).Error)

		progress := curriculum.UserWeekProgress{
			UserID:     userID,
			WeekID:     week.ID,
			CohortID:   cohortID,
			IsUnlocked: true,
			UnlockedAt: &now,
		}
		if i < completed {
			progress.CompletionPercentage = 100
			progress.CompletedAt = &now
		}
		require.NoError(t, db.Create(&progress).Error)
	}
}

func TestIssueCertificateRequiresFullCompletion(t *testing.T) {
	service, db := newTestService(t)
	seedCompletedCohort(t, db, 1, 1, 3, 2)

	_, err := service.IssueCertificate(1, 1)
	assert.ErrorIs(t, err, ErrCohortIncomplete)
}

func TestIssueCertificateForEmptyCohortFails(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.IssueCertificate(1, 1)
	assert.ErrorIs(t, err, ErrCohortIncomplete)
}

func TestIssueCertificateIsIdempotent(t *testing.T) {
	service, db := newTestService(t)
	seedCompletedCohort(t, db, 1, 1, 3, 3)

	first, err := service.IssueCertificate(1, 1)
	require.NoError(t, err)
	assert.Contains(t, first.CertificateNumber, fmt.Sprintf("CERT-%d-", 1))
	assert.Equal(t, testClock(), first.IssuedAt.UTC())

	second, err := service.IssueCertificate(1, 1)
	require.NoError(t, err)
	assert.Equal(t, first.CertificateNumber, second.CertificateNumber)

	var count int64
	require.NoError(t, db.Model(&curriculum.Certificate{}).
		Where("user_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetUserCertificates(t *testing.T) {
	service, db := newTestService(t)
	seedCompletedCohort(t, db, 1, 1, 1, 1)
	seedCompletedCohort(t, db, 1, 2, 1, 1)

	_, err := service.IssueCertificate(1, 1)
	require.NoError(t, err)
	_, err = service.IssueCertificate(1, 2)
	require.NoError(t, err)

	certs, err := service.GetUserCertificates(1)
	require.NoError(t, err)
	assert.Len(t, certs, 2)

	certs, err = service.GetUserCertificates(2)
	require.NoError(t, err)
	assert.Empty(t, certs)
}
