package coinRoutes

import (
	coinController "lms/controllers/coins"
	"lms/middleware"
	coinValidator "lms/validators/coins"

	"github.com/gofiber/fiber/v2"
)

func SetupCoinRoutes(app *fiber.App) {
	coinGroup := app.Group("/coins")

	// User routes
	coinGroup.Get("/balance", middleware.JWTMiddleware, coinController.GetCoinBalance)
	coinGroup.Get("/history", middleware.JWTMiddleware, coinValidator.CoinHistory(), coinController.GetCoinHistory)
	coinGroup.Post("/spend", middleware.JWTMiddleware, coinValidator.Spend(), coinController.SpendCoins)

	// Admin routes
	adminGroup := coinGroup.Group("/admin")
	adminGroup.Post("/bonus", middleware.JWTMiddleware, middleware.RequireAdmin, coinValidator.Bonus(), coinController.AdminAwardBonus)
	adminGroup.Post("/recalculate/:user_id", middleware.JWTMiddleware, middleware.RequireAdmin, coinValidator.TargetUser(), coinController.AdminRecalculateBalance)
}
