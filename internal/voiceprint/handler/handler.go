package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"voxgate/internal/platform/middleware"
	jsonResponse "voxgate/internal/transport/http/json"
	httpError "voxgate/internal/transport/http/shared"
	"voxgate/internal/voiceprint/models"
	dErrors "voxgate/pkg/domain-errors"
	"voxgate/pkg/validation"
)

// Service defines the interface for enrollment and verification operations.
type Service interface {
	Enroll(ctx context.Context, identity string, audio []byte, declaredSize int64) (*models.EnrollResult, error)
	Verify(ctx context.Context, identity string, audio []byte, declaredSize int64) (*models.VerifyResult, error)
	Remove(ctx context.Context, identity string) error
}

// Handler handles the voiceprint endpoints. It owns multipart parsing and
// nothing else; all pass/fail decisions live in the service.
type Handler struct {
	voice          Service
	logger         *slog.Logger
	maxUploadBytes int64
}

// maxFormMemory caps how much of a multipart body is held in memory during
// parsing; the remainder spills to temp files.
const maxFormMemory = 1 << 20

// New creates a voiceprint Handler.
func New(voice Service, logger *slog.Logger, maxUploadBytes int64) *Handler {
	return &Handler{
		voice:          voice,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register registers the public routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.HandleRegister)
	r.Post("/verify", h.HandleVerify)
}

// RegisterAdmin registers administrative routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Delete("/admin/identities/{identity}", h.HandleAdminDelete)
}

// sampleRequest is the parsed multipart payload common to both endpoints.
type sampleRequest struct {
	PhoneNumber  string `validate:"required,notblank"`
	Audio        []byte
	DeclaredSize int64
}

// parseSample extracts phone_number and the audio part from a multipart form.
// The declared size is the part's size as reported by the client, checked by
// the service before any decoding work.
func (h *Handler) parseSample(r *http.Request) (*sampleRequest, error) {
	// Reject grossly oversized bodies before multipart parsing buffers
	// anything. The service re-checks the declared size authoritatively.
	if r.ContentLength > h.maxUploadBytes+maxFormMemory {
		return nil, dErrors.New(dErrors.CodeBadRequest, "upload exceeds maximum size")
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "expected multipart/form-data body")
	}

	req := &sampleRequest{PhoneNumber: r.FormValue("phone_number")}
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "audio file is required")
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read audio file")
	}

	req.Audio = raw
	req.DeclaredSize = header.Size
	return req, nil
}

// HandleRegister implements POST /register.
// Input: multipart form with phone_number and audio file.
// Output: { "message": "Voiceprint registered", "phone_number": "..." }
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, err := h.parseSample(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid register request",
			"error", err,
			"request_id", requestID,
		)
		httpError.WriteError(w, err)
		return
	}

	res, err := h.voice.Enroll(ctx, req.PhoneNumber, req.Audio, req.DeclaredSize)
	if err != nil {
		h.logRequestError(ctx, "register failed", err, requestID)
		httpError.WriteError(w, err)
		return
	}

	jsonResponse.WriteJSON(w, http.StatusOK, RegisterResponse{
		Message:     "Voiceprint registered",
		PhoneNumber: res.Identity,
	})
}

// HandleVerify implements POST /verify.
// Input: multipart form with phone_number and audio file.
// Output: { "match": bool, "similarity": float, "token": "..."? }
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, err := h.parseSample(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid verify request",
			"error", err,
			"request_id", requestID,
		)
		httpError.WriteError(w, err)
		return
	}

	res, err := h.voice.Verify(ctx, req.PhoneNumber, req.Audio, req.DeclaredSize)
	if err != nil {
		h.logRequestError(ctx, "verify failed", err, requestID)
		httpError.WriteError(w, err)
		return
	}

	jsonResponse.WriteJSON(w, http.StatusOK, VerifyResponse{
		Match:      res.Matched,
		Similarity: res.Score,
		Token:      res.Token,
	})
}

// HandleAdminDelete implements DELETE /admin/identities/{identity}.
func (h *Handler) HandleAdminDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := chi.URLParam(r, "identity")

	if err := h.voice.Remove(ctx, identity); err != nil {
		h.logRequestError(ctx, "admin delete failed", err, middleware.GetRequestID(ctx))
		httpError.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// logRequestError logs caller-input failures at warn and faults at error.
func (h *Handler) logRequestError(ctx context.Context, msg string, err error, requestID string) {
	var domainErr *dErrors.Error
	level := h.logger.ErrorContext
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeUnknownIdentity:
			level = h.logger.WarnContext
		}
	}
	level(ctx, msg, "error", err, "request_id", requestID)
}
