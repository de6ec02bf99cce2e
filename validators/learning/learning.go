package learningValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// requireIDParam parses a positive integer route parameter into Locals
func requireIDParam(param, localKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Params(param)
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				param: "Must be a positive integer!",
			})
		}
		c.Locals(localKey, uint(id))
		return c.Next()
	}
}

func TopicID() fiber.Handler      { return requireIDParam("topic_id", "topicID") }
func LessonID() fiber.Handler     { return requireIDParam("lesson_id", "lessonID") }
func ModuleID() fiber.Handler     { return requireIDParam("module_id", "moduleID") }
func WeekID() fiber.Handler       { return requireIDParam("week_id", "weekID") }
func CohortID() fiber.Handler     { return requireIDParam("cohort_id", "cohortID") }
func QuizID() fiber.Handler       { return requireIDParam("quiz_id", "quizID") }
func AssignmentID() fiber.Handler { return requireIDParam("assignment_id", "assignmentID") }
func SubmissionID() fiber.Handler { return requireIDParam("submission_id", "submissionID") }
func LiveClassID() fiber.Handler  { return requireIDParam("live_class_id", "liveClassID") }

// Completion validates the complete-unit request body
func Completion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Method           string `json:"method"`
			WatchTimeSeconds int    `json:"watchTimeSeconds"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Method) == "" {
			reqData.Method = "manual"
		}
		if reqData.WatchTimeSeconds < 0 {
			errors["watchTimeSeconds"] = "Watch time cannot be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCompletion", reqData)
		return c.Next()
	}
}

// ProgressUpdate validates the partial-progress request body
func ProgressUpdate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Percentage      float64 `json:"percentage"`
			PositionSeconds int     `json:"positionSeconds"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.PositionSeconds < 0 {
			errors["positionSeconds"] = "Position cannot be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedProgressUpdate", reqData)
		return c.Next()
	}
}

// QuizAttempt validates a graded quiz outcome body
func QuizAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Score    int  `json:"score"`
			MaxScore int  `json:"maxScore"`
			Passed   bool `json:"passed"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Score < 0 {
			errors["score"] = "Score cannot be negative!"
		}
		if reqData.MaxScore < 1 {
			errors["maxScore"] = "Max score must be greater than 0!"
		}
		if reqData.Score > reqData.MaxScore {
			errors["score"] = "Score cannot exceed max score!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedQuizAttempt", reqData)
		return c.Next()
	}
}

// Submission validates the assignment submission body
func Submission() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			SubmissionURL string `json:"submissionUrl"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.SubmissionURL) == "" {
			errors["submissionUrl"] = "Submission URL is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSubmission", reqData)
		return c.Next()
	}
}

// Review validates the submission review body
func Review() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Approved bool   `json:"approved"`
			Reason   string `json:"reason"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if !reqData.Approved && strings.TrimSpace(reqData.Reason) == "" {
			errors["reason"] = "Rejection reason is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedReview", reqData)
		return c.Next()
	}
}

// BulkUnlock validates the bulk unlock body
func BulkUnlock() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			UserIDs []uint `json:"userIds"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(reqData.UserIDs) == 0 {
			errors["userIds"] = "At least one user ID is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedBulkUnlock", reqData)
		return c.Next()
	}
}
