package learningController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/services/progress"

	"github.com/gofiber/fiber/v2"
)

// StartTopic records that the user started a topic
func StartTopic(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	topicID := c.Locals("topicID").(uint)

	_, _, service := engine()
	completion, err := service.StartTopic(userID, topicID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Topic started!", completion)
}

// CompleteTopic marks the topic completed, awards its coins and
// recalculates the week
func CompleteTopic(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	topicID := c.Locals("topicID").(uint)

	reqData, ok := c.Locals("validatedCompletion").(*struct {
		Method           string `json:"method"`
		WatchTimeSeconds int    `json:"watchTimeSeconds"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	_, _, service := engine()
	completion, err := service.CompleteTopic(userID, topicID, progress.CompletionMetadata{
		Method:           reqData.Method,
		WatchTimeSeconds: reqData.WatchTimeSeconds,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Topic completed!", completion)
}

// UpdateTopicProgress records partial progress against a topic
func UpdateTopicProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	topicID := c.Locals("topicID").(uint)

	reqData, ok := c.Locals("validatedProgressUpdate").(*struct {
		Percentage      float64 `json:"percentage"`
		PositionSeconds int     `json:"positionSeconds"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	_, _, service := engine()
	completion, err := service.UpdateTopicProgress(userID, topicID, reqData.Percentage, reqData.PositionSeconds)
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated!", completion)
}

// GetLessonProgress returns the computed lesson progress summary
func GetLessonProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	lessonID := c.Locals("lessonID").(uint)

	_, _, service := engine()
	summary, err := service.CalculateLessonProgress(userID, lessonID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson progress fetched!", summary)
}

// CompleteLesson explicitly completes a lesson once its topics and
// minimum-time gate allow
func CompleteLesson(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	lessonID := c.Locals("lessonID").(uint)

	reqData, ok := c.Locals("validatedCompletion").(*struct {
		Method           string `json:"method"`
		WatchTimeSeconds int    `json:"watchTimeSeconds"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	_, _, service := engine()
	record, err := service.CompleteLesson(userID, lessonID, progress.CompletionMetadata{
		Method:           reqData.Method,
		WatchTimeSeconds: reqData.WatchTimeSeconds,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson completed!", record)
}

// UpdateLessonProgress records partial progress against a lesson
func UpdateLessonProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	lessonID := c.Locals("lessonID").(uint)

	reqData, ok := c.Locals("validatedProgressUpdate").(*struct {
		Percentage      float64 `json:"percentage"`
		PositionSeconds int     `json:"positionSeconds"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	_, _, service := engine()
	record, err := service.UpdateLessonProgress(userID, lessonID, reqData.Percentage, reqData.PositionSeconds)
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated!", record)
}

// GetModuleProgress returns the computed module progress summary
func GetModuleProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	moduleID := c.Locals("moduleID").(uint)

	_, _, service := engine()
	summary, err := service.CalculateModuleProgress(userID, moduleID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module progress fetched!", summary)
}

// CompleteModule explicitly completes a module once all its lessons are
// completed
func CompleteModule(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	moduleID := c.Locals("moduleID").(uint)

	reqData, ok := c.Locals("validatedCompletion").(*struct {
		Method           string `json:"method"`
		WatchTimeSeconds int    `json:"watchTimeSeconds"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	_, _, service := engine()
	record, err := service.CompleteModule(userID, moduleID, progress.CompletionMetadata{
		Method:           reqData.Method,
		WatchTimeSeconds: reqData.WatchTimeSeconds,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module completed!", record)
}
