package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"

	"skyrescue-backend/internal/models"
	"skyrescue-backend/internal/store"
)

const maxAnswerTokens = 300

// Service answers operator questions about the live operational
// picture. Answers stream chunk by chunk so the dashboard renders them
// as they arrive.
type Service struct {
	client *openai.Client
	store  *store.Store
	model  string
}

// NewService creates an agent backed by the OpenAI chat API.
func NewService(apiKey string, st *store.Store) *Service {
	return &Service{
		client: openai.NewClient(apiKey),
		store:  st,
		model:  openai.GPT4oMini,
	}
}

// Answer streams a reply to the question. emit is called once per text
// chunk, in order; complete is called exactly once after the final
// chunk, on success only.
func (s *Service) Answer(ctx context.Context, question string, emit func(chunk string), complete func()) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}

	log.Printf("🤖 [AGENT] Answering query: %q", question)

	stream, err := s.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: s.situationPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: question,
			},
		},
		MaxTokens:   maxAnswerTokens,
		Temperature: 0.3,
		Stream:      true,
	})
	if err != nil {
		return fmt.Errorf("openai stream error: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("openai stream recv error: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if content := resp.Choices[0].Delta.Content; content != "" {
			emit(content)
		}
	}

	log.Printf("🤖 [AGENT] Answer complete")
	complete()
	return nil
}

// situationPrompt renders the current entity collections into the
// system prompt so the model answers from live data, not guesses.
func (s *Service) situationPrompt() string {
	var b strings.Builder
	b.WriteString("You are the operations assistant on a drone search-and-rescue dashboard. ")
	b.WriteString("Answer concisely from the live situation below. ")
	b.WriteString("Coordinates are latitude, longitude.\n\n")

	hazards := s.store.Hazards()
	b.WriteString(fmt.Sprintf("Hazards (%d):\n", len(hazards)))
	for _, h := range hazards {
		b.WriteString(fmt.Sprintf("- %s %s at (%.4f, %.4f), severity %s: %s\n",
			h.ID, h.Kind, h.Location.Lat, h.Location.Lng, h.Severity, h.Details))
	}
	if worst, ok := HighestSeverityHazard(hazards); ok {
		b.WriteString(fmt.Sprintf("Most severe hazard: %s (%s)\n", worst.ID, worst.Severity))
	}

	persons := s.store.Persons()
	b.WriteString(fmt.Sprintf("\nDetected persons (%d):\n", len(persons)))
	for _, p := range persons {
		pos := p.Position()
		b.WriteString(fmt.Sprintf("- %s at (%.4f, %.4f), confidence %.2f\n",
			p.ID, pos.Lat, pos.Lng, p.Confidence))
	}

	drones := s.store.Drones()
	b.WriteString(fmt.Sprintf("\nDrones (%d):\n", len(drones)))
	for _, d := range drones {
		state := "disconnected"
		if d.IsConnected {
			state = "connected"
		}
		b.WriteString(fmt.Sprintf("- %s, %s, battery %d%%, at (%.4f, %.4f)\n",
			d.Name, state, d.BatteryLevel, d.Position.Lat, d.Position.Lng))
	}

	return b.String()
}

// HighestSeverityHazard is a convenience lookup for prioritization
// questions that should not burn an API call.
func HighestSeverityHazard(hazards []models.Hazard) (models.Hazard, bool) {
	var best models.Hazard
	found := false
	for _, h := range hazards {
		if !found || h.Severity.Rank() > best.Severity.Rank() {
			best = h
			found = true
		}
	}
	return best, found
}
