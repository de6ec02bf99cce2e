package main

import (
	"lms/config"
	"lms/database"
	coinRoutes "lms/routers/coinRoutes"
	learningRoutes "lms/routers/learningRoutes"
	"lms/services/events"
	"lms/utils"

	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	// Side-effect consumers of engine events
	utils.RegisterEmailNotifier(events.Default)
	utils.RegisterAnalyticsForwarder(events.Default)
	utils.StartCohortScheduler(events.Default)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	learningRoutes.SetupLearningRoutes(app)
	coinRoutes.SetupCoinRoutes(app)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
