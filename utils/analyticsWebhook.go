package utils

import (
	"log"
	"time"

	"lms/config"
	"lms/services/events"

	"github.com/go-resty/resty/v2"
)

var analyticsClient = resty.New().SetTimeout(10 * time.Second)

// ForwardAnalyticsEvent posts a single engine event to the configured
// analytics webhook. Delivery is at-most-once; failures are logged only.
func ForwardAnalyticsEvent(event events.Event) {
	url := config.AppConfig.AnalyticsWebhookURL
	if url == "" {
		return
	}

	body := map[string]interface{}{
		"event":      event.Name,
		"payload":    event.Payload,
		"emitted_at": time.Now().UTC().Format(time.RFC3339),
	}

	req := analyticsClient.R().
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if config.AppConfig.AnalyticsApiKey != "" {
		req.SetHeader("Authorization", "Bearer "+config.AppConfig.AnalyticsApiKey)
	}

	resp, err := req.Post(url)
	if err != nil {
		log.Printf("[ANALYTICS] Failed to forward %s: %v", event.Name, err)
		return
	}
	if resp.StatusCode() >= 400 {
		log.Printf("[ANALYTICS] Webhook rejected %s: %d %s", event.Name, resp.StatusCode(), resp.String())
	}
}

// RegisterAnalyticsForwarder streams every engine event to the
// analytics webhook
func RegisterAnalyticsForwarder(bus *events.Bus) {
	if config.AppConfig.AnalyticsWebhookURL == "" {
		log.Println("Analytics webhook not configured. Event forwarding disabled.")
		return
	}
	bus.Subscribe(ForwardAnalyticsEvent)
}
