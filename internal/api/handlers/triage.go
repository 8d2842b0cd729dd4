// Package handlers provides HTTP handlers for the triage API.
package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/healthguide/go-triage/internal/analytics"
	"github.com/healthguide/go-triage/internal/api/middleware"
	"github.com/healthguide/go-triage/internal/infrastructure/postgres"
	"github.com/healthguide/go-triage/internal/infrastructure/redpanda"
	"github.com/healthguide/go-triage/internal/observability/metrics"
	"github.com/healthguide/go-triage/internal/triage"
)

// TriageHandler handles the conversation endpoints
type TriageHandler struct {
	orchestrator *triage.Orchestrator
	store        *postgres.Store
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewTriageHandler creates a new handler
func NewTriageHandler(orchestrator *triage.Orchestrator, store *postgres.Store, m *metrics.Metrics, logger *zap.Logger) *TriageHandler {
	return &TriageHandler{
		orchestrator: orchestrator,
		store:        store,
		metrics:      m,
		logger:       logger,
	}
}

// Routes returns the handler routes
func (h *TriageHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Turn)
	r.Post("/session", h.CreateSession)
	r.Get("/summary/{sessionID}", h.Summary)
	return r
}

// TurnRequest is the request body for one conversation turn
type TurnRequest struct {
	SessionID         string   `json:"session_id"`
	Message           string   `json:"message"`
	SelectedSymptoms  []string `json:"selected_symptoms,omitempty"`
	EmergencySymptoms bool     `json:"emergency_symptoms_selected,omitempty"`
	AgeGroup          string   `json:"age_group,omitempty"`
	Region            string   `json:"region,omitempty"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	TemperatureC      *float64 `json:"temperature_c,omitempty"`
}

// TurnResponse is the response for one conversation turn
type TurnResponse struct {
	SessionID            string        `json:"session_id"`
	Reply                string        `json:"response"`
	Triage               triage.Result `json:"triage"`
	ConversationComplete bool          `json:"conversation_complete"`
	Outcome              string        `json:"outcome"`
}

// Turn handles POST /api/triage
func (h *TriageHandler) Turn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("triage-handler")
	ctx, span := tracer.Start(ctx, "triage_turn")
	defer span.End()

	start := time.Now()

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	report := triage.NewSymptomReport(req.SelectedSymptoms, req.EmergencySymptoms)
	if req.Message == "" && !report.HasSymptoms() {
		h.jsonError(w, "message or selected_symptoms is required", http.StatusBadRequest)
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}
	span.SetAttributes(attribute.String("session_id", req.SessionID))

	history := []triage.Message{}
	conv, err := h.store.LoadConversation(ctx, req.SessionID)
	if err != nil && !errors.Is(err, postgres.ErrSessionNotFound) {
		h.logger.Error("load conversation failed", zap.Error(err))
		h.jsonError(w, "failed to load conversation", http.StatusInternalServerError)
		return
	}
	if conv != nil {
		history = conv.Messages
	}

	outcome, err := h.orchestrator.ProcessTurn(ctx, triage.TurnInput{
		SessionID: req.SessionID,
		Message:   req.Message,
		History:   history,
		Report:    report,
	})
	if err != nil {
		h.logger.Error("turn processing failed", zap.Error(err))
		h.jsonError(w, "failed to process turn", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	messages := append(history,
		triage.Message{Role: "user", Content: req.Message, Timestamp: now},
		triage.Message{Role: "assistant", Content: outcome.Reply, Timestamp: now},
	)

	entry, err := h.caseEventEntry(req, report, outcome, now)
	if err != nil {
		h.logger.Error("case event build failed", zap.Error(err))
		h.jsonError(w, "failed to record case", http.StatusInternalServerError)
		return
	}

	if err := h.store.SaveConversation(ctx, postgres.Conversation{
		SessionID:   req.SessionID,
		Messages:    messages,
		TriageLevel: string(outcome.Triage.Level),
		Summary:     outcome.Triage.Summary,
		RedFlag:     outcome.Triage.RedFlagSymptom,
	}, entry); err != nil {
		h.logger.Error("save conversation failed", zap.Error(err))
		h.jsonError(w, "failed to save conversation", http.StatusInternalServerError)
		return
	}

	h.metrics.TriageTurnsProcessed.WithLabelValues(string(outcome.Triage.Level)).Inc()
	if outcome.Triage.RedFlagDetected {
		h.metrics.RedFlagsDetected.Inc()
	}
	if outcome.AssessorFallback {
		h.metrics.AssessorFallbacks.Inc()
	}
	h.metrics.CaseEventsProduced.Inc()
	h.metrics.TurnDuration.Observe(time.Since(start).Seconds())

	h.logger.Info("triage turn processed",
		zap.String("session_id", req.SessionID),
		zap.String("request_id", middleware.GetRequestID(ctx)),
		zap.String("level", string(outcome.Triage.Level)),
		zap.String("outcome", string(outcome.Outcome)),
	)

	resp := TurnResponse{
		SessionID:            req.SessionID,
		Reply:                outcome.Reply,
		Triage:               outcome.Triage,
		ConversationComplete: outcome.ConversationComplete,
		Outcome:              string(outcome.Outcome),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// caseEventEntry builds the outbox entry carrying the anonymized case event
// for this turn. It is written in the same transaction as the conversation.
func (h *TriageHandler) caseEventEntry(req TurnRequest, report triage.SymptomReport, outcome *triage.TurnOutcome, now time.Time) (*postgres.OutboxEntry, error) {
	event := analytics.CaseEvent{
		SessionID:    req.SessionID,
		TriageLevel:  string(outcome.Triage.Level),
		RedFlag:      outcome.Triage.RedFlagDetected,
		Symptoms:     report.Symptoms,
		TemperatureC: req.TemperatureC,
		AgeGroup:     req.AgeGroup,
		Region:       req.Region,
		// Coordinates are coarsened to ~1km so events stay anonymous.
		Latitude:   roundCoord(req.Latitude),
		Longitude:  roundCoord(req.Longitude),
		RecordedAt: now,
	}
	if req.TemperatureC != nil {
		assessment := triage.ClassifyTemperature(req.TemperatureC, "")
		event.TempCategory = string(assessment.Category)
	}
	if matches := triage.MatchDiseases(report.Symptoms); len(matches) > 0 {
		event.SuspectedCause = matches[0].DiseaseID
		event.MatchConfidence = matches[0].MatchScore
	}

	payload, err := event.Marshal()
	if err != nil {
		return nil, err
	}
	return &postgres.OutboxEntry{
		SessionID: req.SessionID,
		EventType: analytics.CaseEventType,
		Payload:   payload,
		Topic:     redpanda.TopicFeverCases,
		Key:       req.SessionID,
	}, nil
}

func roundCoord(v *float64) *float64 {
	if v == nil {
		return nil
	}
	rounded := math.Round(*v*100) / 100
	return &rounded
}

// SessionResponse is the response for creating a session
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSession handles POST /api/triage/session
func (h *TriageHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	resp := SessionResponse{
		SessionID: uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// SummaryResponse is the stored state of a session
type SummaryResponse struct {
	SessionID    string           `json:"session_id"`
	TriageLevel  string           `json:"triage_level,omitempty"`
	Summary      string           `json:"summary,omitempty"`
	RedFlag      string           `json:"red_flag,omitempty"`
	MessageCount int              `json:"message_count"`
	Messages     []triage.Message `json:"messages"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Summary handles GET /api/triage/summary/{sessionID}
func (h *TriageHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	conv, err := h.store.LoadConversation(ctx, sessionID)
	if err != nil {
		if errors.Is(err, postgres.ErrSessionNotFound) {
			h.jsonError(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("load conversation failed", zap.Error(err))
		h.jsonError(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	resp := SummaryResponse{
		SessionID:    conv.SessionID,
		TriageLevel:  conv.TriageLevel,
		Summary:      conv.Summary,
		RedFlag:      conv.RedFlag,
		MessageCount: len(conv.Messages),
		Messages:     conv.Messages,
		UpdatedAt:    conv.UpdatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *TriageHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
