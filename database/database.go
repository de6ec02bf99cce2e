package database

import (
	"fmt"
	"log"
	"os"

	"lms/models"
	"lms/models/curriculum"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb establishes a connection to PostgreSQL
func ConnectDb() {
	// Build the PostgreSQL connection string
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	// Open database connection
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		os.Exit(2)
	}

	// Set up connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	sqlDB.SetMaxOpenConns(10)   // Maximum open connections
	sqlDB.SetMaxIdleConns(5)    // Maximum idle connections
	sqlDB.SetConnMaxLifetime(0) // No timeout

	// Run database migrations
	runMigrations(db)

	// Save database instance globally
	Database = DbInstance{Db: db}
}

// runMigrations performs database migrations
func runMigrations(db *gorm.DB) {
	log.Println("Running Migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.CoinTransaction{},
		&models.UserCoinBalance{},
		&curriculum.Cohort{},
		&curriculum.Week{},
		&curriculum.Module{},
		&curriculum.Lesson{},
		&curriculum.Topic{},
		&curriculum.Quiz{},
		&curriculum.QuizAttempt{},
		&curriculum.Assignment{},
		&curriculum.AssignmentSubmission{},
		&curriculum.LiveClass{},
		&curriculum.LiveClassAttendance{},
		&curriculum.Enrollment{},
		&curriculum.TopicCompletion{},
		&curriculum.LessonProgress{},
		&curriculum.ModuleProgress{},
		&curriculum.UserWeekProgress{},
		&curriculum.Certificate{},
	)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed successfully.")
}
