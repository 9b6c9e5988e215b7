// Package handler exposes the conversational onboarding API over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bankassist/internal/onboarding/models"
	"bankassist/internal/platform/metrics"
	"bankassist/internal/platform/middleware"
	dErrors "bankassist/pkg/domain-errors"
	"bankassist/pkg/platform/httputil"
)

// maxUploadBytes bounds one document image. Vision models reject anything
// near this size anyway.
const maxUploadBytes = 8 << 20

// Service defines the interface for onboarding operations.
type Service interface {
	HandleMessage(ctx context.Context, userID uuid.UUID, text string) (*models.Response, error)
	HandleUpload(ctx context.Context, userID uuid.UUID, kind models.DocumentKind, data []byte, contentType string) (*models.Response, error)
}

// Handler handles the chat endpoints.
type Handler struct {
	logger         *slog.Logger
	onboarding     Service
	metrics        *metrics.Metrics
	jwtValidator   middleware.JWTValidator
	requestTimeout time.Duration
}

// New creates a new onboarding Handler.
func New(
	onboarding Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	requestTimeout time.Duration,
) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	return &Handler{
		logger:         logger,
		onboarding:     onboarding,
		metrics:        metrics,
		jwtValidator:   jwtValidator,
		requestTimeout: requestTimeout,
	}
}

// Register registers the chat routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	chatRouter := chi.NewRouter()
	chatRouter.Use(middleware.Recovery(h.logger))
	chatRouter.Use(middleware.RequestID)
	chatRouter.Use(middleware.Logger(h.logger))
	chatRouter.Use(middleware.Timeout(h.requestTimeout))
	chatRouter.Use(middleware.Latency(h.metrics))
	chatRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	chatRouter.Post("/chat", h.handleChat)
	chatRouter.Post("/chat/upload", h.handleUpload)

	r.Mount("/", chatRouter)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid chat request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Message == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "message is required"))
		return
	}

	resp, err := h.onboarding.HandleMessage(ctx, userID, req.Message)
	if err != nil {
		h.logger.ErrorContext(ctx, "handle message failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to process message"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart body"))
		return
	}

	kind := models.DocumentKind(r.FormValue("document_kind"))
	switch kind {
	case models.KindIdentity, models.KindTax, models.KindLivePhoto:
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown document_kind"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read file"))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	resp, err := h.onboarding.HandleUpload(ctx, userID, kind, data, contentType)
	if err != nil {
		h.logger.ErrorContext(ctx, "handle upload failed",
			"request_id", middleware.GetRequestID(ctx),
			"document_kind", string(kind),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to process upload"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// authenticatedUser pulls the user identity set by RequireAuth out of the
// context. A missing or malformed identity means the middleware chain is
// misconfigured, not that the caller did anything wrong.
func (h *Handler) authenticatedUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ctx := r.Context()
	raw := middleware.GetUserID(ctx)
	if raw == "" {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		h.logger.WarnContext(ctx, "token subject is not a user id",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject"))
		return uuid.Nil, false
	}
	return userID, true
}
