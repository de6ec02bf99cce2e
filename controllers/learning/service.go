package learningController

import (
	"errors"

	"lms/database"
	"lms/middleware"
	"lms/services/progress"
	"lms/services/rewards"
	"lms/services/unlock"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// engine wires the progression services against the global database
func engine() (*rewards.Ledger, *unlock.Evaluator, *progress.Service) {
	db := database.Database.Db
	ledger := rewards.NewLedger(rewards.LedgerConfig{DB: db})
	evaluator := unlock.NewEvaluator(unlock.EvaluatorConfig{DB: db, Ledger: ledger})
	service := progress.NewService(progress.ServiceConfig{DB: db, Ledger: ledger, Evaluator: evaluator})
	return ledger, evaluator, service
}

// respondServiceError maps engine errors onto response envelopes.
// Business-rule failures are expected outcomes, never 5xx.
func respondServiceError(c *fiber.Ctx, err error) error {
	var precondition *progress.PreconditionError
	if errors.As(err, &precondition) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, precondition.Reason, nil)
	}
	var progression *unlock.WeekProgressionError
	if errors.As(err, &progression) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, progression.Error(), fiber.Map{
			"unmet_requirements": progression.Unmet,
		})
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Something went wrong!", nil)
}
