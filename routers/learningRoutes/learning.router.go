package learningRoutes

import (
	learningController "lms/controllers/learning"
	"lms/middleware"
	learningValidator "lms/validators/learning"

	"github.com/gofiber/fiber/v2"
)

// SetupLearningRoutes sets up all learner-facing progression routes
func SetupLearningRoutes(app *fiber.App) {
	topicGroup := app.Group("/topic")
	topicGroup.Post("/:topic_id/start", middleware.JWTMiddleware, learningValidator.TopicID(), learningController.StartTopic)
	topicGroup.Post("/:topic_id/complete", middleware.JWTMiddleware, learningValidator.TopicID(), learningValidator.Completion(), learningController.CompleteTopic)
	topicGroup.Put("/:topic_id/progress", middleware.JWTMiddleware, learningValidator.TopicID(), learningValidator.ProgressUpdate(), learningController.UpdateTopicProgress)

	lessonGroup := app.Group("/lesson")
	lessonGroup.Get("/:lesson_id/progress", middleware.JWTMiddleware, learningValidator.LessonID(), learningController.GetLessonProgress)
	lessonGroup.Post("/:lesson_id/complete", middleware.JWTMiddleware, learningValidator.LessonID(), learningValidator.Completion(), learningController.CompleteLesson)
	lessonGroup.Put("/:lesson_id/progress", middleware.JWTMiddleware, learningValidator.LessonID(), learningValidator.ProgressUpdate(), learningController.UpdateLessonProgress)

	moduleGroup := app.Group("/module")
	moduleGroup.Get("/:module_id/progress", middleware.JWTMiddleware, learningValidator.ModuleID(), learningController.GetModuleProgress)
	moduleGroup.Post("/:module_id/complete", middleware.JWTMiddleware, learningValidator.ModuleID(), learningValidator.Completion(), learningController.CompleteModule)

	weekGroup := app.Group("/week")
	weekGroup.Get("/:week_id/progress", middleware.JWTMiddleware, learningValidator.WeekID(), learningController.GetWeekProgress)
	weekGroup.Get("/:week_id/requirements", middleware.JWTMiddleware, learningValidator.WeekID(), learningController.GetUnlockRequirements)
	weekGroup.Post("/:week_id/unlock", middleware.JWTMiddleware, learningValidator.WeekID(), learningController.UnlockWeek)
	weekGroup.Post("/:week_id/recalculate", middleware.JWTMiddleware, learningValidator.WeekID(), learningController.RecalculateWeekProgress)

	quizGroup := app.Group("/quiz")
	quizGroup.Post("/:quiz_id/attempt", middleware.JWTMiddleware, learningValidator.QuizID(), learningValidator.QuizAttempt(), learningController.RecordQuizAttempt)

	assignmentGroup := app.Group("/assignment")
	assignmentGroup.Post("/:assignment_id/submit", middleware.JWTMiddleware, learningValidator.AssignmentID(), learningValidator.Submission(), learningController.SubmitAssignment)

	liveClassGroup := app.Group("/live-class")
	liveClassGroup.Post("/:live_class_id/attend", middleware.JWTMiddleware, learningValidator.LiveClassID(), learningController.MarkAttendance)

	cohortGroup := app.Group("/cohort")
	cohortGroup.Post("/:cohort_id/enroll", middleware.JWTMiddleware, learningValidator.CohortID(), learningController.EnrollInCohort)
	cohortGroup.Post("/:cohort_id/certificate/request", middleware.JWTMiddleware, learningValidator.CohortID(), learningController.RequestCertificate)

	userGroup := app.Group("/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, learningController.GetEnrollments)
	userGroup.Get("/certificates", middleware.JWTMiddleware, learningController.GetUserCertificates)

	// Admin routes
	adminGroup := app.Group("/admin")
	adminGroup.Post("/week/:week_id/bulk-unlock", middleware.JWTMiddleware, middleware.RequireAdmin, learningValidator.WeekID(), learningValidator.BulkUnlock(), learningController.AdminBulkUnlockWeek)
	adminGroup.Post("/submission/:submission_id/review", middleware.JWTMiddleware, middleware.RequireAdmin, learningValidator.SubmissionID(), learningValidator.Review(), learningController.AdminReviewSubmission)
}
