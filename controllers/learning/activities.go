package learningController

import (
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// RecordQuizAttempt stores a graded quiz outcome for the caller
func RecordQuizAttempt(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	quizID := c.Locals("quizID").(uint)

	reqData, ok := c.Locals("validatedQuizAttempt").(*struct {
		Score    int  `json:"score"`
		MaxScore int  `json:"maxScore"`
		Passed   bool `json:"passed"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	_, _, service := engine()
	attempt, err := service.RecordQuizOutcome(userID, quizID, reqData.Score, reqData.MaxScore, reqData.Passed)
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz attempt recorded!", attempt)
}

// SubmitAssignment stores a pending submission for review
func SubmitAssignment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	assignmentID := c.Locals("assignmentID").(uint)

	reqData, ok := c.Locals("validatedSubmission").(*struct {
		SubmissionURL string `json:"submissionUrl"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	_, _, service := engine()
	submission, err := service.SubmitAssignment(userID, assignmentID, reqData.SubmissionURL)
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Assignment submitted!", submission)
}

// AdminReviewSubmission approves or rejects a submission; approval
// recalculates the submitter's week
func AdminReviewSubmission(c *fiber.Ctx) error {
	reviewerID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	submissionID := c.Locals("submissionID").(uint)

	reqData, ok := c.Locals("validatedReview").(*struct {
		Approved bool   `json:"approved"`
		Reason   string `json:"reason"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	_, _, service := engine()
	submission, err := service.ReviewSubmission(submissionID, reviewerID, reqData.Approved, reqData.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submission reviewed!", submission)
}

// MarkAttendance marks the caller attended for a live class
func MarkAttendance(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	liveClassID := c.Locals("liveClassID").(uint)

	_, _, service := engine()
	attendance, err := service.MarkAttendance(userID, liveClassID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attendance marked!", attendance)
}
