// Package service implements the onboarding state machine: given a session,
// an inbound message or uploaded artifact, and the external gateways, it
// decides the next state, mutates session data and emits the response.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bankassist/internal/account"
	"bankassist/internal/onboarding/intent"
	"bankassist/internal/onboarding/models"
	"bankassist/internal/onboarding/session"
	"bankassist/internal/platform/metrics"
	"bankassist/pkg/platform/audit"
	"bankassist/pkg/platform/sentinel"
)

// confirmToken advances a confirmation stage to the next awaiting stage.
const confirmToken = "correct"

// maxFaceRetries caps live-photo attempts; at the cap the application is
// submitted unverified and routed to branch-based manual KYC.
const maxFaceRetries = 3

// SessionStore is the subset of session.Store the state machine needs.
type SessionStore interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Reset(ctx context.Context, userID uuid.UUID) error
}

// ExtractionGateway turns document images into structured field sets and
// interprets free-text corrections. Transient failures are errors wrapping
// sentinel.ErrUnavailable.
type ExtractionGateway interface {
	Extract(ctx context.Context, kind models.ExtractKind, image []byte) (*models.ExtractedRecord, error)
	InterpretCorrection(ctx context.Context, current map[string]string, message string) (map[string]string, error)
}

// BiometricGateway isolates a face from a document image and compares two
// face images. IsolateFace returns sentinel.ErrNotFound when no face exists.
type BiometricGateway interface {
	IsolateFace(ctx context.Context, image []byte) ([]byte, error)
	Match(ctx context.Context, livePhoto, referenceFace []byte) (bool, error)
}

// ObjectStore persists uploaded images and returns a stable retrieval URL.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error)
}

// ApplicationStore is the durable pending-application repository.
type ApplicationStore interface {
	FindByNationalID(ctx context.Context, nationalID string) (*models.PendingApplication, error)
	Create(ctx context.Context, app *models.PendingApplication) error
}

// BalanceReader is an alias to the account read model interface.
type BalanceReader = account.Reader

// AuditPublisher emits operational audit events. Must never block.
type AuditPublisher interface {
	Publish(ctx context.Context, event audit.Event)
}

type nopAudit struct{}

func (nopAudit) Publish(context.Context, audit.Event) {}

// Service drives the conversation.
type Service struct {
	sessions     SessionStore
	locks        *session.KeyedLock
	extraction   ExtractionGateway
	biometric    BiometricGateway
	objects      ObjectStore
	applications ApplicationStore
	balances     BalanceReader

	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditPublisher
	tracer  trace.Tracer
	bucket  string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithBalanceReader(reader BalanceReader) Option {
	return func(s *Service) { s.balances = reader }
}

func WithBucket(bucket string) Option {
	return func(s *Service) { s.bucket = bucket }
}

func New(
	sessions SessionStore,
	extraction ExtractionGateway,
	biometric BiometricGateway,
	objects ObjectStore,
	applications ApplicationStore,
	opts ...Option,
) (*Service, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if extraction == nil || biometric == nil || objects == nil {
		return nil, errors.New("extraction, biometric and object store gateways are required")
	}
	if applications == nil {
		return nil, errors.New("application store is required")
	}

	svc := &Service{
		sessions:     sessions,
		locks:        session.NewKeyedLock(),
		extraction:   extraction,
		biometric:    biometric,
		objects:      objects,
		applications: applications,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		audit:        nopAudit{},
		tracer:       otel.Tracer("bankassist/onboarding"),
		bucket:       "kyc-documents",
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// HandleMessage processes one inbound text message. Flow-level failures are
// reported in the response; an error only means the session store itself
// failed.
func (s *Service) HandleMessage(ctx context.Context, userID uuid.UUID, text string) (*models.Response, error) {
	ctx, span := s.tracer.Start(ctx, "onboarding.message")
	defer span.End()

	unlock := s.locks.Lock(userID)
	defer unlock()

	sess, err := s.sessions.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	span.SetAttributes(attribute.String("onboarding.state", string(sess.State)))

	// Global commands override everything, including mid-confirmation
	// correction text. Priority: cancel > open-account > side query.
	switch intent.Detect(text) {
	case intent.Cancel:
		sess.Reset()
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		s.countSessionCancelled()
		s.audit.Publish(ctx, audit.Event{UserID: userID, Action: audit.ActionSessionCancelled})
		return models.Text(msgCancelled), nil

	case intent.OpenAccount:
		sess.Restart()
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		s.countSessionStarted()
		s.audit.Publish(ctx, audit.Event{UserID: userID, Action: audit.ActionFlowStarted})
		return models.ActionRequired(msgOpenAccount, models.ActionUploadIdentity), nil

	case intent.Balance:
		// Side queries are skipped inside a confirmation stage so the
		// message can be treated as a correction instead.
		if !sess.State.Confirming() {
			return s.answerBalance(ctx, userID), nil
		}
	}

	return s.dispatchText(ctx, sess, text)
}

// dispatchText routes a non-command message by the current state.
func (s *Service) dispatchText(ctx context.Context, sess *models.Session, text string) (*models.Response, error) {
	switch sess.State {
	case models.StateInitial:
		if intent.Detect(text) == intent.Greeting {
			return models.Text(msgWelcome), nil
		}
		return models.Text(msgFallback), nil

	case models.StateAwaitingIDFront:
		return models.ActionRequired(msgAwaitingIDFront, models.ActionUploadIdentity), nil
	case models.StateAwaitingIDBack:
		return models.ActionRequired(msgAwaitingIDBack, models.ActionUploadIdentity), nil
	case models.StateAwaitingTaxDoc:
		return models.ActionRequired(msgAwaitingTaxDoc, models.ActionUploadTax), nil
	case models.StateAwaitingLivePhoto:
		return models.ActionRequired(msgAwaitingLive, models.ActionUploadLivePhoto), nil

	case models.StateConfirmingIDFront:
		return s.confirmOrCorrect(ctx, sess, text, identityStage)
	case models.StateConfirmingIDBack:
		return s.confirmOrCorrect(ctx, sess, text, addressStage)
	case models.StateConfirmingTaxDoc:
		return s.confirmOrCorrect(ctx, sess, text, taxStage)

	case models.StateCompleted:
		return models.Text(msgCompleted), nil
	}

	return models.Text(msgFallback), nil
}

func (s *Service) answerBalance(ctx context.Context, userID uuid.UUID) *models.Response {
	if s.balances == nil {
		return models.Text(msgFallback)
	}
	balance, err := s.balances.BalanceForUser(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Text(msgNoAccount)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "balance lookup failed", "error", err, "user_id", userID)
		return models.Text(msgFallback)
	}
	return models.Text(fmt.Sprintf("Your current balance is %s.", balance.StringFixed(2)))
}

// Span-wrapped gateway calls. Latency of the external collaborators is the
// interesting part of any trace through this flow.

func (s *Service) extract(ctx context.Context, kind models.ExtractKind, image []byte) (*models.ExtractedRecord, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.extract",
		trace.WithAttributes(attribute.String("onboarding.extract_kind", string(kind))))
	defer span.End()
	return s.extraction.Extract(ctx, kind, image)
}

func (s *Service) interpretCorrection(ctx context.Context, current map[string]string, message string) (map[string]string, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.interpret_correction")
	defer span.End()
	return s.extraction.InterpretCorrection(ctx, current, message)
}

func (s *Service) isolateFace(ctx context.Context, image []byte) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.isolate_face")
	defer span.End()
	return s.biometric.IsolateFace(ctx, image)
}

func (s *Service) matchFaces(ctx context.Context, livePhoto, referenceFace []byte) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.match_faces")
	defer span.End()
	return s.biometric.Match(ctx, livePhoto, referenceFace)
}

func (s *Service) putObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.put_object",
		trace.WithAttributes(attribute.String("object.key", key)))
	defer span.End()
	return s.objects.Put(ctx, s.bucket, key, data, contentType)
}

func (s *Service) countSessionStarted() {
	if s.metrics != nil {
		s.metrics.SessionsStarted.Inc()
	}
}

func (s *Service) countSessionCancelled() {
	if s.metrics != nil {
		s.metrics.SessionsCancelled.Inc()
	}
}

func (s *Service) countUpload(kind models.DocumentKind, outcome string) {
	if s.metrics != nil {
		s.metrics.Uploads.WithLabelValues(string(kind), outcome).Inc()
	}
}

func (s *Service) countExtractionFailure(kind models.ExtractKind, reason string) {
	if s.metrics != nil {
		s.metrics.ExtractionFailures.WithLabelValues(string(kind), reason).Inc()
	}
}
