package main

import (
	"encoding/csv"
	"log"
	"os"
	"strconv"
	"strings"

	"lms/config"
	"lms/database"
	"lms/models/curriculum"

	"gorm.io/datatypes"
)

// Imports a curriculum from Curriculum.csv. One row per topic; cohort,
// week, module and lesson rows are created on first sight and reused.
//
// Expected headers:
//
//	cohortTitle, weekNumber, weekTitle, unlockRules, moduleTitle,
//	lessonTitle, lessonMinTimeSeconds, topicTitle, contentType,
//	videoUrl, coinReward, topicMinTimeSeconds
func main() {
	// Load config and connect to database
	config.LoadConfig()
	database.ConnectDb()

	// Open CSV file
	file, err := os.Open("Curriculum.csv")
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	// Create CSV reader
	reader := csv.NewReader(file)

	// Read all records
	records, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) < 2 {
		log.Fatal("CSV file is empty or has only headers")
	}

	// Skip header row
	header := records[0]
	log.Printf("CSV Headers: %v", header)
	log.Printf("Total rows to import: %d", len(records)-1)

	// Map header indices
	headerIndex := make(map[string]int)
	for i, h := range header {
		headerIndex[strings.TrimSpace(h)] = i
	}

	inserted := 0
	updated := 0
	skipped := 0

	for i, row := range records[1:] {
		if i%100 == 0 {
			log.Printf("Processing row %d...", i+1)
		}

		cohortTitle := getField(row, headerIndex, "cohortTitle")
		topicTitle := getField(row, headerIndex, "topicTitle")
		lessonTitle := getField(row, headerIndex, "lessonTitle")
		moduleTitle := getField(row, headerIndex, "moduleTitle")
		if cohortTitle == "" || topicTitle == "" || lessonTitle == "" || moduleTitle == "" {
			skipped++
			continue
		}

		cohort := findOrCreateCohort(cohortTitle)
		week := findOrCreateWeek(cohort.ID,
			parseInt(getField(row, headerIndex, "weekNumber")),
			getField(row, headerIndex, "weekTitle"),
			getField(row, headerIndex, "unlockRules"))
		module := findOrCreateModule(week.ID, moduleTitle)
		lesson := findOrCreateLesson(module.ID, lessonTitle,
			parseInt(getField(row, headerIndex, "lessonMinTimeSeconds")))

		topic := curriculum.Topic{
			LessonID:               lesson.ID,
			Title:                  topicTitle,
			ContentType:            getField(row, headerIndex, "contentType"),
			VideoURL:               getField(row, headerIndex, "videoUrl"),
			CoinReward:             int64(parseInt(getField(row, headerIndex, "coinReward"))),
			MinTimeRequiredSeconds: parseInt(getField(row, headerIndex, "topicMinTimeSeconds")),
			OrderIndex:             i,
			IsPublished:            true,
		}
		if topic.ContentType == "" {
			topic.ContentType = "VIDEO"
		}

		var existing curriculum.Topic
		result := database.Database.Db.Where("lesson_id = ? AND title = ?", lesson.ID, topic.Title).First(&existing)

		if result.Error != nil {
			if err := database.Database.Db.Create(&topic).Error; err != nil {
				log.Printf("Error inserting topic %s: %v", topic.Title, err)
				continue
			}
			inserted++
		} else {
			existing.ContentType = topic.ContentType
			existing.VideoURL = topic.VideoURL
			existing.CoinReward = topic.CoinReward
			existing.MinTimeRequiredSeconds = topic.MinTimeRequiredSeconds
			existing.IsPublished = true
			if err := database.Database.Db.Save(&existing).Error; err != nil {
				log.Printf("Error updating topic %s: %v", existing.Title, err)
				continue
			}
			updated++
		}
	}

	log.Printf("Import complete. Inserted: %d, Updated: %d, Skipped: %d", inserted, updated, skipped)
}

func findOrCreateCohort(title string) *curriculum.Cohort {
	var cohort curriculum.Cohort
	if err := database.Database.Db.Where("title = ? AND is_deleted = false", title).First(&cohort).Error; err == nil {
		return &cohort
	}
	cohort = curriculum.Cohort{Title: title, Status: curriculum.CohortDraft}
	if err := database.Database.Db.Create(&cohort).Error; err != nil {
		log.Fatalf("Failed to create cohort %s: %v", title, err)
	}
	return &cohort
}

func findOrCreateWeek(cohortID uint, weekNumber int, title, unlockRules string) *curriculum.Week {
	var week curriculum.Week
	if err := database.Database.Db.Where("cohort_id = ? AND week_number = ? AND is_deleted = false",
		cohortID, weekNumber).First(&week).Error; err == nil {
		return &week
	}
	week = curriculum.Week{CohortID: cohortID, WeekNumber: weekNumber, Title: title}
	if unlockRules != "" {
		week.UnlockRules = datatypes.JSON(unlockRules)
	}
	if err := database.Database.Db.Create(&week).Error; err != nil {
		log.Fatalf("Failed to create week %d: %v", weekNumber, err)
	}
	return &week
}

func findOrCreateModule(weekID uint, title string) *curriculum.Module {
	var module curriculum.Module
	if err := database.Database.Db.Where("week_id = ? AND title = ? AND is_deleted = false",
		weekID, title).First(&module).Error; err == nil {
		return &module
	}
	module = curriculum.Module{WeekID: weekID, Title: title}
	if err := database.Database.Db.Create(&module).Error; err != nil {
		log.Fatalf("Failed to create module %s: %v", title, err)
	}
	return &module
}

func findOrCreateLesson(moduleID uint, title string, minTimeSeconds int) *curriculum.Lesson {
	var lesson curriculum.Lesson
	if err := database.Database.Db.Where("module_id = ? AND title = ? AND is_deleted = false",
		moduleID, title).First(&lesson).Error; err == nil {
		return &lesson
	}
	lesson = curriculum.Lesson{
		ModuleID:               moduleID,
		Title:                  title,
		MinTimeRequiredSeconds: minTimeSeconds,
		Status:                 curriculum.LessonPublished,
	}
	if err := database.Database.Db.Create(&lesson).Error; err != nil {
		log.Fatalf("Failed to create lesson %s: %v", title, err)
	}
	return &lesson
}

func getField(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
