package learningController

import (
	"lms/database"
	"lms/middleware"
	"lms/models/curriculum"

	"github.com/gofiber/fiber/v2"
)

func findWeek(c *fiber.Ctx) (*curriculum.Week, error) {
	weekID := c.Locals("weekID").(uint)
	var week curriculum.Week
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", weekID, false).First(&week).Error; err != nil {
		return nil, err
	}
	return &week, nil
}

// GetWeekProgress returns the user's progress record for the week
func GetWeekProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	week, err := findWeek(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Week not found!", nil)
	}

	_, _, service := engine()
	progress, err := service.GetWeekProgress(userID, week.ID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Week progress fetched!", progress)
}

// GetUnlockRequirements returns the diagnostic unlock requirements view
func GetUnlockRequirements(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	week, err := findWeek(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Week not found!", nil)
	}

	_, evaluator, _ := engine()
	summary, err := evaluator.GetUnlockRequirementsSummary(userID, week)
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Unlock requirements fetched!", summary)
}

// UnlockWeek attempts the locked -> unlocked transition for the caller
func UnlockWeek(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	week, err := findWeek(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Week not found!", nil)
	}

	_, evaluator, _ := engine()
	progress, err := evaluator.UnlockWeek(userID, week)
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Week unlocked!", progress)
}

// RecalculateWeekProgress re-aggregates the caller's week percentage
func RecalculateWeekProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	week, err := findWeek(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Week not found!", nil)
	}

	_, _, service := engine()
	progress, err := service.RecalculateWeekProgress(userID, week)
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Week progress recalculated!", progress)
}

// AdminBulkUnlockWeek applies UnlockWeek per user; one user's failure
// never aborts the rest
func AdminBulkUnlockWeek(c *fiber.Ctx) error {
	week, err := findWeek(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Week not found!", nil)
	}

	reqData, ok := c.Locals("validatedBulkUnlock").(*struct {
		UserIDs []uint `json:"userIds"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	_, evaluator, _ := engine()
	results := evaluator.BulkUnlockWeek(week, reqData.UserIDs)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Bulk unlock processed!", results)
}
