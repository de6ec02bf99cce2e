package utils

import (
	"log"
	"time"

	"lms/config"
	"lms/database"
	"lms/models/curriculum"
	"lms/services/events"
	"lms/services/rewards"
	"lms/services/unlock"

	"github.com/robfig/cron/v3"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(message string) {
	log.Printf("[COHORT-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// sweepCohorts handles the PUBLISHED -> ACTIVE transition once a
// cohort's start date is reached, and opens the first week for every
// enrolled learner.
func sweepCohorts(bus *events.Bus) {
	db := database.Database.Db
	now := time.Now()

	var due []curriculum.Cohort
	if err := db.Where("status = ? AND start_date IS NOT NULL AND start_date <= ? AND is_deleted = false",
		curriculum.CohortPublished, now).Find(&due).Error; err != nil {
		logScheduler("Error fetching due cohorts: " + err.Error())
		return
	}
	if len(due) == 0 {
		return
	}

	ledger := rewards.NewLedger(rewards.LedgerConfig{DB: db, Bus: bus})
	evaluator := unlock.NewEvaluator(unlock.EvaluatorConfig{DB: db, Ledger: ledger, Bus: bus})

	for _, cohort := range due {
		cohort.Status = curriculum.CohortActive
		if err := db.Save(&cohort).Error; err != nil {
			logScheduler("Error activating cohort " + cohort.Title + ": " + err.Error())
			continue
		}
		logScheduler("Cohort ACTIVATED: " + cohort.Title)

		var firstWeek curriculum.Week
		hasFirstWeek := db.Where("cohort_id = ? AND week_number = 0 AND is_deleted = false", cohort.ID).
			First(&firstWeek).Error == nil

		var enrollments []curriculum.Enrollment
		if err := db.Where("cohort_id = ? AND is_deleted = false", cohort.ID).
			Find(&enrollments).Error; err != nil {
			logScheduler("Error fetching enrollments for cohort " + cohort.Title + ": " + err.Error())
			continue
		}

		for _, enrollment := range enrollments {
			if hasFirstWeek {
				if _, err := evaluator.UnlockWeek(enrollment.UserID, &firstWeek); err != nil {
					logScheduler("Error unlocking first week for user: " + err.Error())
				}
			}
			bus.Emit(events.CohortStarted, map[string]interface{}{
				"user_id":      enrollment.UserID,
				"cohort_id":    cohort.ID,
				"cohort_title": cohort.Title,
			})
		}
	}
}

// StartCohortScheduler runs the cohort auto-start sweep on the
// configured cron spec
func StartCohortScheduler(bus *events.Bus) *cron.Cron {
	c := cron.New()

	spec := config.AppConfig.CohortSweepSpec
	if _, err := c.AddFunc(spec, func() { sweepCohorts(bus) }); err != nil {
		logScheduler("Invalid sweep spec '" + spec + "': " + err.Error())
		return c
	}

	c.Start()
	logScheduler("Cohort scheduler started with spec: " + spec)
	return c
}
