package service

import (
	"context"
	"errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"voxgate/internal/extractor"
	"voxgate/internal/sentinel"
	"voxgate/internal/voiceprint/models"
	dErrors "voxgate/pkg/domain-errors"
)

func (s *ServiceSuite) TestVerify_UnknownIdentitySkipsExtraction() {
	s.mockRegistry.EXPECT().Get(gomock.Any(), "+10000000000").
		Return(nil, sentinel.ErrNotFound)
	s.mockSizer.EXPECT().CheckSize(gomock.Any()).Times(0)
	s.mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).Times(0)

	_, err := s.service.Verify(context.Background(), "+10000000000", []byte("a"), 1)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeUnknownIdentity))
}

func (s *ServiceSuite) TestVerify_MatchMintsToken() {
	stored := models.Voiceprint{1, 0, 0}
	candidate := models.Voiceprint{0.9, 0.1, 0}
	audio := []byte("wav-payload")

	s.mockRegistry.EXPECT().Get(gomock.Any(), "+15551234567").
		Return(&models.Entry{Identity: "+15551234567", Print: stored}, nil)
	s.mockSizer.EXPECT().CheckSize(int64(len(audio))).Return(nil)
	s.mockExtractor.EXPECT().Extract(gomock.Any(), audio).
		Return(extractor.Result{Print: candidate, Duration: 3, SampleRate: 16000}, nil)
	s.mockMatcher.EXPECT().Compare(stored, candidate).
		Return(models.MatchResult{Matched: true, Score: 0.97}, nil)
	s.mockTokens.EXPECT().Mint("+15551234567", 0.97).Return("signed-token", nil)

	res, err := s.service.Verify(context.Background(), "+15551234567", audio, int64(len(audio)))
	require.NoError(s.T(), err)

	assert.True(s.T(), res.Matched)
	assert.Equal(s.T(), 0.97, res.Score)
	assert.Equal(s.T(), "signed-token", res.Token)
}

func (s *ServiceSuite) TestVerify_NoMatchSkipsToken() {
	stored := models.Voiceprint{1, 0, 0}
	candidate := models.Voiceprint{0, 1, 0}

	s.mockRegistry.EXPECT().Get(gomock.Any(), "id").
		Return(&models.Entry{Identity: "id", Print: stored}, nil)
	s.mockSizer.EXPECT().CheckSize(gomock.Any()).Return(nil)
	s.mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		Return(extractor.Result{Print: candidate}, nil)
	s.mockMatcher.EXPECT().Compare(stored, candidate).
		Return(models.MatchResult{Matched: false, Score: 0.12}, nil)
	s.mockTokens.EXPECT().Mint(gomock.Any(), gomock.Any()).Times(0)

	res, err := s.service.Verify(context.Background(), "id", []byte("a"), 1)
	require.NoError(s.T(), err)

	assert.False(s.T(), res.Matched)
	assert.Equal(s.T(), 0.12, res.Score)
	assert.Empty(s.T(), res.Token)
}

func (s *ServiceSuite) TestVerify_OversizeAfterRegistryLookup() {
	s.mockRegistry.EXPECT().Get(gomock.Any(), "id").
		Return(&models.Entry{Identity: "id", Print: models.Voiceprint{1}}, nil)
	s.mockSizer.EXPECT().CheckSize(int64(6_000_000)).Return(sentinel.ErrTooLarge)
	s.mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).Times(0)

	_, err := s.service.Verify(context.Background(), "id", []byte("a"), 6_000_000)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestVerify_CompareDimensionMismatch() {
	stored := models.Voiceprint{1, 0, 0}
	candidate := models.Voiceprint{1, 0}

	s.mockRegistry.EXPECT().Get(gomock.Any(), "id").
		Return(&models.Entry{Identity: "id", Print: stored}, nil)
	s.mockSizer.EXPECT().CheckSize(gomock.Any()).Return(nil)
	s.mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		Return(extractor.Result{Print: candidate}, nil)
	s.mockMatcher.EXPECT().Compare(stored, candidate).
		Return(models.MatchResult{}, sentinel.ErrDimensionMismatch)

	_, err := s.service.Verify(context.Background(), "id", []byte("a"), 1)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeDimensionMismatch))
}

func (s *ServiceSuite) TestVerify_RegistryFaultIsInternal() {
	s.mockRegistry.EXPECT().Get(gomock.Any(), "id").
		Return(nil, errors.New("connection refused"))

	_, err := s.service.Verify(context.Background(), "id", []byte("a"), 1)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestVerify_MintFailureIsInternal() {
	stored := models.Voiceprint{1}
	candidate := models.Voiceprint{1}

	s.mockRegistry.EXPECT().Get(gomock.Any(), "id").
		Return(&models.Entry{Identity: "id", Print: stored}, nil)
	s.mockSizer.EXPECT().CheckSize(gomock.Any()).Return(nil)
	s.mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		Return(extractor.Result{Print: candidate}, nil)
	s.mockMatcher.EXPECT().Compare(stored, candidate).
		Return(models.MatchResult{Matched: true, Score: 1.0}, nil)
	s.mockTokens.EXPECT().Mint("id", 1.0).Return("", errors.New("sign failed"))

	_, err := s.service.Verify(context.Background(), "id", []byte("a"), 1)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInternal))
}
