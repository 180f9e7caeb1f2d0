package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Service

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"voxgate/internal/voiceprint/handler/mocks"
	"voxgate/internal/voiceprint/models"
	dErrors "voxgate/pkg/domain-errors"
)

const testMaxUpload = 5_000_000

func newTestRouter(t *testing.T) (*mocks.MockService, http.Handler) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockService(ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(mockService, logger, testMaxUpload)

	r := chi.NewRouter()
	h.Register(r)
	h.RegisterAdmin(r)
	return mockService, r
}

// multipartBody builds a multipart form with phone_number and an audio part.
func multipartBody(t *testing.T, phoneNumber string, audio []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	if phoneNumber != "" {
		require.NoError(t, mw.WriteField("phone_number", phoneNumber))
	}
	if audio != nil {
		part, err := mw.CreateFormFile("audio", "sample.wav")
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func doRequest(t *testing.T, router http.Handler, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = body
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleRegister_Success(t *testing.T) {
	mockService, router := newTestRouter(t)
	audio := []byte("fake-wav-bytes")

	mockService.EXPECT().
		Enroll(gomock.Any(), "+15551234567", audio, int64(len(audio))).
		Return(&models.EnrollResult{Identity: "+15551234567"}, nil)

	body, ct := multipartBody(t, "+15551234567", audio)
	rec := doRequest(t, router, http.MethodPost, "/register", body, ct)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Voiceprint registered", resp.Message)
	assert.Equal(t, "+15551234567", resp.PhoneNumber)
}

func TestHandleRegister_MissingPhoneNumber(t *testing.T) {
	mockService, router := newTestRouter(t)
	mockService.EXPECT().Enroll(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	body, ct := multipartBody(t, "", []byte("audio"))
	rec := doRequest(t, router, http.MethodPost, "/register", body, ct)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRegister_MissingAudio(t *testing.T) {
	mockService, router := newTestRouter(t)
	mockService.EXPECT().Enroll(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	body, ct := multipartBody(t, "+15551234567", nil)
	rec := doRequest(t, router, http.MethodPost, "/register", body, ct)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRegister_NotMultipart(t *testing.T) {
	mockService, router := newTestRouter(t)
	mockService.EXPECT().Enroll(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	rec := doRequest(t, router, http.MethodPost, "/register",
		bytes.NewBufferString(`{"phone_number":"+15551234567"}`), "application/json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRegister_ServiceBadRequest(t *testing.T) {
	mockService, router := newTestRouter(t)
	mockService.EXPECT().
		Enroll(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeBadRequest, "audio exceeds maximum duration"))

	body, ct := multipartBody(t, "+15551234567", []byte("audio"))
	rec := doRequest(t, router, http.MethodPost, "/register", body, ct)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bad_request", resp["error"])
	assert.Equal(t, "audio exceeds maximum duration", resp["error_description"])
}

func TestHandleVerify_Match(t *testing.T) {
	mockService, router := newTestRouter(t)
	audio := []byte("fake-wav-bytes")

	mockService.EXPECT().
		Verify(gomock.Any(), "+15551234567", audio, int64(len(audio))).
		Return(&models.VerifyResult{Identity: "+15551234567", Matched: true, Score: 0.97, Token: "jwt"}, nil)

	body, ct := multipartBody(t, "+15551234567", audio)
	rec := doRequest(t, router, http.MethodPost, "/verify", body, ct)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Match)
	assert.InDelta(t, 0.97, resp.Similarity, 1e-9)
	assert.Equal(t, "jwt", resp.Token)
}

func TestHandleVerify_NoMatchOmitsToken(t *testing.T) {
	mockService, router := newTestRouter(t)

	mockService.EXPECT().
		Verify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.VerifyResult{Matched: false, Score: 0.31}, nil)

	body, ct := multipartBody(t, "+15551234567", []byte("audio"))
	rec := doRequest(t, router, http.MethodPost, "/verify", body, ct)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "token")
}

func TestHandleVerify_UnknownIdentityIs404(t *testing.T) {
	mockService, router := newTestRouter(t)

	mockService.EXPECT().
		Verify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnknownIdentity, "identity not enrolled"))

	body, ct := multipartBody(t, "+10000000000", []byte("audio"))
	rec := doRequest(t, router, http.MethodPost, "/verify", body, ct)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unknown_identity", resp["error"])
}

func TestHandleVerify_DimensionMismatchIsProcessingError(t *testing.T) {
	mockService, router := newTestRouter(t)

	mockService.EXPECT().
		Verify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeDimensionMismatch, "voiceprint dimension mismatch"))

	body, ct := multipartBody(t, "+15551234567", []byte("audio"))
	rec := doRequest(t, router, http.MethodPost, "/verify", body, ct)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "processing_error", resp["error"])
}

func TestHandleAdminDelete(t *testing.T) {
	mockService, router := newTestRouter(t)
	mockService.EXPECT().Remove(gomock.Any(), "+15551234567").Return(nil)

	rec := doRequest(t, router, http.MethodDelete, "/admin/identities/+15551234567", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleAdminDelete_Unknown(t *testing.T) {
	mockService, router := newTestRouter(t)
	mockService.EXPECT().Remove(gomock.Any(), "ghost").
		Return(dErrors.New(dErrors.CodeUnknownIdentity, "identity not enrolled"))

	rec := doRequest(t, router, http.MethodDelete, "/admin/identities/ghost", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
