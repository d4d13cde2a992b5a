package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"skyrescue-backend/internal/models"
)

// FCMService handles Firebase Cloud Messaging
type FCMService struct {
	client *messaging.Client
}

// NewFCMService creates a new FCM service instance from a credentials file
func NewFCMService(credentialsFile string) (*FCMService, error) {
	ctx := context.Background()

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

// NewFCMServiceFromBase64 creates a new FCM service instance from base64-encoded credentials
// This is useful for cloud deployments (Railway, Fly.io, Render) where you can't upload files easily
func NewFCMServiceFromBase64(credentialsBase64 string) (*FCMService, error) {
	ctx := context.Background()

	credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
	}

	opt := option.WithCredentialsJSON(credentialsJSON)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

// SendHazardAlert pushes a hazard alert to every registered device.
// Used for Critical hazards that demand attention even when the
// dashboard tab is closed. Returns the tokens FCM rejected as no
// longer registered so the caller can prune them.
func (s *FCMService) SendHazardAlert(tokens []string, h models.Hazard) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	title := fmt.Sprintf("%s hazard: %s", h.Severity, h.Kind)
	body := fmt.Sprintf("%s (%s)", h.Details, models.FormatTimeAgo(h.CreatedAt, time.Now()))
	return s.SendMulticast(tokens, title, body, map[string]string{
		"type":      "hazard_alert",
		"hazard_id": h.ID,
		"kind":      string(h.Kind),
		"severity":  string(h.Severity),
		"latitude":  fmt.Sprintf("%f", h.Location.Lat),
		"longitude": fmt.Sprintf("%f", h.Location.Lng),
	})
}

// SendMulticast sends the same message to multiple tokens. The returned
// slice holds tokens rejected as unregistered (uninstalled app, expired
// token); they should be deleted rather than retried.
func (s *FCMService) SendMulticast(tokens []string, title, body string, data map[string]string) ([]string, error) {
	ctx := context.Background()

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}

	response, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("error sending multicast message: %w", err)
	}

	var stale []string
	for i, r := range response.Responses {
		if r.Error != nil && messaging.IsUnregistered(r.Error) {
			stale = append(stale, tokens[i])
		}
	}

	log.Printf("✅ Multicast sent: %d success, %d failures", response.SuccessCount, response.FailureCount)
	return stale, nil
}
