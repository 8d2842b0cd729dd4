// Package llm implements the language-model collaborator: structured triage
// assessment and free-text reply generation backed by the OpenAI API.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/healthguide/go-triage/internal/triage"
)

// assessInstruction asks the model for a machine-readable triage assessment.
const assessInstruction = `You are a medical triage assistant for fever cases.
Assess the conversation and respond ONLY with a JSON object with these fields:
  triage_level: one of "EMERGENCY", "URGENT", "SELF_CARE", "FOLLOW_UP"
  escalate: boolean
  summary: short summary of the situation
  recommended_next_steps: array of short action strings
  next_question: one short clarifying question, or empty string if none is needed
  red_flag_detected: boolean
  red_flag_symptom: the red flag symptom name, or empty string
Err on the side of higher urgency when uncertain.`

// Client calls the OpenAI chat completion API for assessment and replies.
type Client struct {
	api    *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds OpenAI collaborator settings.
type Config struct {
	APIKey string
	Model  string
}

// NewClient constructs an OpenAI-backed collaborator. The model defaults to
// gpt-4o-mini when unset.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		api:    openai.NewClient(cfg.APIKey),
		model:  model,
		logger: logger,
	}
}

// Assess requests a structured triage assessment for the conversation plus
// the latest message and parses the JSON reply into a triage.Result.
func (c *Client) Assess(ctx context.Context, history []triage.Message, latest string) (triage.Result, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: assessInstruction,
	})
	for _, m := range history {
		msgs = append(msgs, toOpenAIMessage(m))
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: latest,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return triage.Result{}, fmt.Errorf("assess completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return triage.Result{}, errors.New("assess completion: empty response")
	}

	return parseAssessment(resp.Choices[0].Message.Content)
}

// Respond generates the conversational reply for the given message sequence.
func (c *Client) Respond(ctx context.Context, messages []triage.Message, history []triage.Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, toOpenAIMessage(m))
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("respond completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("respond completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessage(m triage.Message) openai.ChatCompletionMessage {
	role := m.Role
	switch role {
	case openai.ChatMessageRoleSystem, openai.ChatMessageRoleUser, openai.ChatMessageRoleAssistant:
	default:
		role = openai.ChatMessageRoleUser
	}
	return openai.ChatCompletionMessage{Role: role, Content: m.Content}
}

// assessmentPayload mirrors the JSON shape requested from the model.
type assessmentPayload struct {
	TriageLevel          string   `json:"triage_level"`
	Escalate             bool     `json:"escalate"`
	Summary              string   `json:"summary"`
	RecommendedNextSteps []string `json:"recommended_next_steps"`
	NextQuestion         string   `json:"next_question"`
	RedFlagDetected      bool     `json:"red_flag_detected"`
	RedFlagSymptom       string   `json:"red_flag_symptom"`
}

func parseAssessment(content string) (triage.Result, error) {
	var payload assessmentPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return triage.Result{}, fmt.Errorf("parse assessment: %w", err)
	}

	level := triage.Level(strings.ToUpper(strings.TrimSpace(payload.TriageLevel)))
	switch level {
	case triage.LevelEmergency, triage.LevelUrgent, triage.LevelSelfCare, triage.LevelFollowUp:
	default:
		level = triage.LevelFollowUp
	}

	return triage.Result{
		Level:                level,
		Escalate:             payload.Escalate,
		Summary:              payload.Summary,
		RecommendedNextSteps: payload.RecommendedNextSteps,
		NextQuestion:         payload.NextQuestion,
		RedFlagDetected:      payload.RedFlagDetected,
		RedFlagSymptom:       payload.RedFlagSymptom,
	}, nil
}
