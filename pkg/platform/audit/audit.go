// Package audit captures key onboarding actions for operational visibility.
// Events are emitted from domain logic through a buffered inbox and published
// to Kafka by a background worker; the request path never blocks on delivery.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Action identifies what happened.
type Action string

const (
	ActionSessionCancelled        Action = "session_cancelled"
	ActionFlowStarted             Action = "onboarding_started"
	ActionDuplicateBlocked        Action = "duplicate_application_blocked"
	ActionCrossValidationMismatch Action = "cross_validation_mismatch"
	ActionFaceVerificationFailed  Action = "face_verification_failed"
	ActionApplicationSubmitted    Action = "application_submitted"
	ActionCommitFailed            Action = "application_commit_failed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	UserID    uuid.UUID         `json:"user_id"`
	Action    Action            `json:"action"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// Sink receives serialized events. The Kafka producer satisfies this.
type Sink interface {
	Send(ctx context.Context, key string, value []byte) error
}

// Publisher buffers events for the worker. Publish never blocks: when the
// inbox is full the event is dropped and counted in the log.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

func (p *Publisher) Publish(_ context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit inbox full, dropping event", "action", event.Action)
	}
}

// Run consumes the inbox and forwards events to the sink until ctx ends.
// Delivery failures are logged and dropped; audit here is operational, not
// a compliance outbox.
func (p *Publisher) Run(ctx context.Context, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-p.inbox:
			payload, err := json.Marshal(event)
			if err != nil {
				p.logger.Error("marshal audit event", "error", err)
				continue
			}
			if err := sink.Send(ctx, event.UserID.String(), payload); err != nil {
				p.logger.Error("publish audit event", "error", err, "action", event.Action)
			}
		}
	}
}

// LogSink writes events to the logger; used when Kafka is not configured.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Send(_ context.Context, key string, value []byte) error {
	s.Logger.Info("audit", "key", key, "event", string(value))
	return nil
}
