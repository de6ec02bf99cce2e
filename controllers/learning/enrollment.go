package learningController

import (
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/models/curriculum"

	"github.com/gofiber/fiber/v2"
)

// EnrollInCohort enrolls the caller and unlocks week 0
func EnrollInCohort(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	cohortID := c.Locals("cohortID").(uint)

	var cohort curriculum.Cohort
	if err := database.Database.Db.
		Where("id = ? AND is_deleted = ? AND status IN ?", cohortID, false, []curriculum.CohortStatus{curriculum.CohortPublished, curriculum.CohortActive}).
		First(&cohort).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Cohort not found or not open!", nil)
	}

	var existing curriculum.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND cohort_id = ? AND is_deleted = ?", userID, cohortID, false).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this cohort!", nil)
	}

	enrollment := curriculum.Enrollment{
		UserID:     userID,
		CohortID:   cohortID,
		Status:     "ENROLLED",
		EnrolledAt: time.Now(),
	}
	tx := database.Database.Db.Begin()
	if err := tx.Create(&enrollment).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll!", nil)
	}
	tx.Commit()

	// Week 0 is always free: unlock it right away
	var weekZero curriculum.Week
	if err := database.Database.Db.Where("cohort_id = ? AND week_number = ? AND is_deleted = ?", cohortID, 0, false).First(&weekZero).Error; err == nil {
		_, evaluator, _ := engine()
		if _, err := evaluator.UnlockWeek(userID, &weekZero); err != nil {
			return respondServiceError(c, err)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled in cohort!", enrollment)
}

// GetEnrollments lists the caller's enrollments
func GetEnrollments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var enrollments []curriculum.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND is_deleted = ?", userID, false).Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched!", enrollments)
}
