package service

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"voxgate/internal/extractor"
	"voxgate/internal/sentinel"
	"voxgate/internal/voiceprint/models"
	dErrors "voxgate/pkg/domain-errors"
)

func (s *ServiceSuite) TestEnroll_Success() {
	ctx := context.Background()
	audio := []byte("wav-payload")
	print := models.Voiceprint{0.1, 0.2, 0.3}
	now := time.Now().UTC()

	s.mockSizer.EXPECT().CheckSize(int64(len(audio))).Return(nil)
	s.mockExtractor.EXPECT().Extract(gomock.Any(), audio).
		Return(extractor.Result{Print: print, Duration: 2.5, SampleRate: 16000}, nil)
	s.mockRegistry.EXPECT().Put(gomock.Any(), "+15551234567", print).
		Return(&models.Entry{Identity: "+15551234567", Print: print, UpdatedAt: now}, nil)

	res, err := s.service.Enroll(ctx, "+15551234567", audio, int64(len(audio)))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "+15551234567", res.Identity)
	assert.Equal(s.T(), now, res.UpdatedAt)
}

func (s *ServiceSuite) TestEnroll_MissingIdentity() {
	_, err := s.service.Enroll(context.Background(), "", []byte("a"), 1)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestEnroll_OversizeRejectedBeforeExtraction() {
	s.mockSizer.EXPECT().CheckSize(int64(6_000_000)).Return(sentinel.ErrTooLarge)
	s.mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).Times(0)

	_, err := s.service.Enroll(context.Background(), "id", []byte("a"), 6_000_000)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestEnroll_InvalidFormatIsBadRequest() {
	s.mockSizer.EXPECT().CheckSize(gomock.Any()).Return(nil)
	s.mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		Return(extractor.Result{}, sentinel.ErrInvalidFormat)
	s.mockRegistry.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := s.service.Enroll(context.Background(), "id", []byte("junk"), 4)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestEnroll_OverDurationIsBadRequest() {
	s.mockSizer.EXPECT().CheckSize(gomock.Any()).Return(nil)
	s.mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		Return(extractor.Result{}, sentinel.ErrTooLong)

	_, err := s.service.Enroll(context.Background(), "id", []byte("a"), 1)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestEnroll_ExtractionTimeout() {
	s.mockSizer.EXPECT().CheckSize(gomock.Any()).Return(nil)
	s.mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		Return(extractor.Result{}, context.DeadlineExceeded)

	_, err := s.service.Enroll(context.Background(), "id", []byte("a"), 1)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *ServiceSuite) TestEnroll_ExtractorFaultIsProcessingError() {
	s.mockSizer.EXPECT().CheckSize(gomock.Any()).Return(nil)
	s.mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		Return(extractor.Result{}, errors.New("onnx fault"))

	_, err := s.service.Enroll(context.Background(), "id", []byte("a"), 1)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeProcessing))
}

func (s *ServiceSuite) TestEnroll_DimensionMismatchFromRegistry() {
	print := models.Voiceprint{0.1, 0.2}

	s.mockSizer.EXPECT().CheckSize(gomock.Any()).Return(nil)
	s.mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		Return(extractor.Result{Print: print}, nil)
	s.mockRegistry.EXPECT().Put(gomock.Any(), "id", print).
		Return(nil, sentinel.ErrDimensionMismatch)

	_, err := s.service.Enroll(context.Background(), "id", []byte("a"), 1)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeDimensionMismatch))
}

func (s *ServiceSuite) TestRemove_UnknownIdentity() {
	s.mockRegistry.EXPECT().Delete(gomock.Any(), "ghost").Return(sentinel.ErrNotFound)

	err := s.service.Remove(context.Background(), "ghost")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeUnknownIdentity))
}

func (s *ServiceSuite) TestRemove_Success() {
	s.mockRegistry.EXPECT().Delete(gomock.Any(), "id").Return(nil)

	require.NoError(s.T(), s.service.Remove(context.Background(), "id"))
}
