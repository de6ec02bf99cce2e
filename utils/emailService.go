package utils

import (
	"fmt"
	"log"

	"lms/config"
	"lms/database"
	"lms/models"
	"lms/services/events"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Generic Send Email
func SendEmail(toName, toEmail, subject, htmlBody string) error {
	if config.AppConfig.SendGridApiKey == "" {
		log.Printf("--- Email skipped (no API key) ---\nTo: %s\nSubject: %s\n", toEmail, subject)
		return nil
	}

	from := mail.NewEmail("LearnLoop", config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridApiKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Println("Error sending email:", err)
		return err
	}
	if resp.StatusCode >= 400 {
		log.Printf("SendGrid rejected email to %s: %d %s", toEmail, resp.StatusCode, resp.Body)
		return fmt.Errorf("sendgrid status %d", resp.StatusCode)
	}
	return nil
}

// HTML wrapper shared by all notification emails
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1A2B4C; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1A2B4C; line-height: 1.6; }
			.content h2 { color: #1A2B4C; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #2EB872; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #2EB872; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>LEARNLOOP</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 LearnLoop. All rights reserved.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// --- Triggers ---

func SendWeekUnlockedEmail(email, name string, weekNumber int) {
	subject := fmt.Sprintf("Week %d is now unlocked!", weekNumber+1)
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Great progress! You have unlocked <b>Week %d</b> of your program.</p>
		<div class="info-box">New lessons, quizzes and assignments are waiting for you.</div>
		<p>Keep the streak going.</p>`, name, weekNumber+1)
	go SendEmail(name, email, subject, getEmailTemplate("New Week Unlocked", body))
}

func SendWeekCompletedEmail(email, name string, weekNumber int) {
	subject := fmt.Sprintf("Week %d completed", weekNumber+1)
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>You have completed every activity in <b>Week %d</b>. Well done!</p>
		<p>If the next week's requirements are met, it has already been unlocked for you.</p>`, name, weekNumber+1)
	go SendEmail(name, email, subject, getEmailTemplate("Week Completed", body))
}

func SendCertificateEmail(email, name, certificateNumber string) {
	subject := "Your certificate is ready"
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Congratulations on completing your program!</p>
		<div class="info-box">Certificate Number: <b>%s</b></div>
		<p>You can download it from your dashboard.</p>`, name, certificateNumber)
	go SendEmail(name, email, subject, getEmailTemplate("Certificate Issued", body))
}

func SendCohortStartedEmail(email, name, cohortTitle string) {
	subject := fmt.Sprintf("%s has started", cohortTitle)
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your cohort <b>%s</b> is now live. Week 1 is unlocked and ready.</p>
		<p>Log in and complete your first topic to start earning coins.</p>`, name, cohortTitle)
	go SendEmail(name, email, subject, getEmailTemplate("Your Cohort Is Live", body))
}

// RegisterEmailNotifier wires notification emails onto the event bus.
// Lookup failures are logged and swallowed; email is best-effort.
func RegisterEmailNotifier(bus *events.Bus) {
	bus.Subscribe(func(e events.Event) {
		switch e.Name {
		case events.WeekUnlocked:
			if user, ok := lookupUser(e.Payload["user_id"]); ok {
				SendWeekUnlockedEmail(user.Email, user.Name, payloadInt(e.Payload["week_number"]))
			}
		case events.WeekCompleted:
			if user, ok := lookupUser(e.Payload["user_id"]); ok {
				SendWeekCompletedEmail(user.Email, user.Name, payloadInt(e.Payload["week_number"]))
			}
		case events.CertificateIssued:
			if user, ok := lookupUser(e.Payload["user_id"]); ok {
				number, _ := e.Payload["certificate_number"].(string)
				SendCertificateEmail(user.Email, user.Name, number)
			}
		case events.CohortStarted:
			if user, ok := lookupUser(e.Payload["user_id"]); ok {
				title, _ := e.Payload["cohort_title"].(string)
				SendCohortStartedEmail(user.Email, user.Name, title)
			}
		}
	})
}

func lookupUser(id interface{}) (*models.User, bool) {
	userID, ok := id.(uint)
	if !ok || userID == 0 {
		return nil, false
	}
	var user models.User
	if err := database.Database.Db.Select("name, email").First(&user, userID).Error; err != nil {
		log.Printf("Email notifier: user %d lookup failed: %v", userID, err)
		return nil, false
	}
	if user.Email == "" {
		return nil, false
	}
	return &user, true
}

func payloadInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
