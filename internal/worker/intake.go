package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ecosphere/ecosphere/internal/progression"
	"github.com/ecosphere/ecosphere/internal/user"
)

// Disposition tells the subscriber what to do with a message.
type Disposition int

// Message dispositions.
const (
	// Ack removes the message; used for success and for messages that can never succeed.
	Ack Disposition = iota
	// Nack asks for redelivery.
	Nack
)

func (d Disposition) String() string {
	if d == Nack {
		return "nack"
	}
	return "ack"
}

// ActionMessage is an action published for asynchronous recording.
type ActionMessage struct {
	UserID string         `json:"user_id"`
	Type   string         `json:"type"`
	Points any            `json:"points"`
	Data   map[string]any `json:"data,omitempty"`
}

// Recorder records actions against a user.
type Recorder interface {
	Record(ctx context.Context, userID string, action progression.Action) (*progression.Outcome, error)
}

// ActionHandler feeds action messages into the progression engine.
type ActionHandler struct {
	recorder Recorder
	logger   zerolog.Logger
}

// NewActionHandler creates an action handler.
func NewActionHandler(recorder Recorder, logger zerolog.Logger) *ActionHandler {
	return &ActionHandler{recorder: recorder, logger: logger}
}

// Handle records one message. Malformed payloads and store failures are
// redelivered; unknown action types and unknown users are dropped.
func (h *ActionHandler) Handle(ctx context.Context, data []byte) (Disposition, error) {
	var msg ActionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Nack, fmt.Errorf("parse action message: %w", err)
	}

	if msg.UserID == "" {
		h.logger.Warn().Msg("dropping action without user_id")
		return Ack, nil
	}

	action, err := progression.ParseAction(msg.Type, msg.Points, msg.Data)
	if err != nil {
		h.logger.Warn().Err(err).Str("user_id", msg.UserID).Str("type", msg.Type).Msg("dropping invalid action")
		return Ack, nil
	}

	outcome, err := h.recorder.Record(ctx, msg.UserID, action)
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		h.logger.Warn().Str("user_id", msg.UserID).Msg("dropping action for unknown user")
		return Ack, nil
	case errors.Is(err, progression.ErrInvalidAction):
		h.logger.Warn().Err(err).Str("user_id", msg.UserID).Msg("dropping invalid action")
		return Ack, nil
	case err != nil:
		return Nack, fmt.Errorf("record action: %w", err)
	}

	h.logger.Debug().
		Str("user_id", msg.UserID).
		Str("type", msg.Type).
		Int("eco_points", outcome.EcoPoints).
		Int("new_badges", len(outcome.NewBadges)).
		Msg("action recorded")

	return Ack, nil
}
