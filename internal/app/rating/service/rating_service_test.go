package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ratingwatch/internal/app/rating/entity"
	"ratingwatch/internal/app/rating/extractor"
	"ratingwatch/internal/app/rating/fetcher"
	"ratingwatch/internal/app/rating/repository"
	"ratingwatch/internal/app/rating/repository/mocks"
	"ratingwatch/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sourceURL = "https://se.trustpilot.com/review/www.sporttema.se?languages=all&stars=4&stars=5"

func init() {
	logger.Init("rating-service-test", "error")
}

func testSnapshot() *entity.RatingSnapshot {
	reviewCount := 1523
	return &entity.RatingSnapshot{
		Score:       4.7,
		ReviewCount: &reviewCount,
		MaxScore:    5,
		Reviews:     []entity.Review{{ID: "r1", Rating: 5, Text: "Toppen"}},
		Timestamp:   time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC),
		URL:         sourceURL,
	}
}

// ===================== Refresh Tests =====================

func TestRefresh_Success(t *testing.T) {
	// Arrange
	mockFetcher := new(mocks.MockPageFetcher)
	mockExtractor := new(mocks.MockSnapshotExtractor)
	mockRepo := new(mocks.MockSnapshotRepository)
	snapshot := testSnapshot()

	mockFetcher.On("Fetch", mock.Anything, sourceURL).Return("<html>markup</html>", nil)
	mockExtractor.On("Extract", "<html>markup</html>", sourceURL).Return(snapshot, nil)
	mockRepo.On("Save", mock.Anything, snapshot).Return(nil)

	svc := NewRatingService(mockFetcher, mockExtractor, mockRepo, nil, sourceURL)

	// Act
	result, err := svc.Refresh(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, snapshot, result)
	mockFetcher.AssertExpectations(t)
	mockExtractor.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestRefresh_FetchError_PropagatedUnwrapped(t *testing.T) {
	// Arrange: транспортная ошибка уходит вызывающему без оборачивания
	mockFetcher := new(mocks.MockPageFetcher)
	mockExtractor := new(mocks.MockSnapshotExtractor)
	mockRepo := new(mocks.MockSnapshotRepository)

	transportErr := &fetcher.TransportError{URL: sourceURL, Err: errors.New("connection refused")}
	mockFetcher.On("Fetch", mock.Anything, sourceURL).Return("", transportErr)

	svc := NewRatingService(mockFetcher, mockExtractor, mockRepo, nil, sourceURL)

	// Act
	result, err := svc.Refresh(context.Background())

	// Assert
	assert.Nil(t, result)
	assert.Same(t, transportErr, err)
	mockExtractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRefresh_ExtractError_NothingSaved(t *testing.T) {
	// Arrange: сбой извлечения прерывает операцию до записи
	mockFetcher := new(mocks.MockPageFetcher)
	mockExtractor := new(mocks.MockSnapshotExtractor)
	mockRepo := new(mocks.MockSnapshotRepository)

	extractionErr := &extractor.ExtractionError{Reason: extractor.ReasonNoRatingFound, Snippet: "<html>"}
	mockFetcher.On("Fetch", mock.Anything, sourceURL).Return("<html>", nil)
	mockExtractor.On("Extract", "<html>", sourceURL).Return(nil, extractionErr)

	svc := NewRatingService(mockFetcher, mockExtractor, mockRepo, nil, sourceURL)

	// Act
	result, err := svc.Refresh(context.Background())

	// Assert
	assert.Nil(t, result)
	assert.Same(t, extractionErr, err)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRefresh_InvalidSnapshot_Rejected(t *testing.T) {
	// Arrange: score выше потолка шкалы не допускается в хранилище
	mockFetcher := new(mocks.MockPageFetcher)
	mockExtractor := new(mocks.MockSnapshotExtractor)
	mockRepo := new(mocks.MockSnapshotRepository)

	invalid := &entity.RatingSnapshot{
		Score:     9.6,
		MaxScore:  5,
		Reviews:   []entity.Review{},
		Timestamp: time.Now().UTC(),
		URL:       sourceURL,
	}
	mockFetcher.On("Fetch", mock.Anything, sourceURL).Return("<html>", nil)
	mockExtractor.On("Extract", "<html>", sourceURL).Return(invalid, nil)

	svc := NewRatingService(mockFetcher, mockExtractor, mockRepo, nil, sourceURL)

	// Act
	result, err := svc.Refresh(context.Background())

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRefresh_SaveError_Propagated(t *testing.T) {
	// Arrange
	mockFetcher := new(mocks.MockPageFetcher)
	mockExtractor := new(mocks.MockSnapshotExtractor)
	mockRepo := new(mocks.MockSnapshotRepository)
	snapshot := testSnapshot()

	storageErr := &repository.StorageError{Op: "save", Err: errors.New("disk full")}
	mockFetcher.On("Fetch", mock.Anything, sourceURL).Return("<html>", nil)
	mockExtractor.On("Extract", "<html>", sourceURL).Return(snapshot, nil)
	mockRepo.On("Save", mock.Anything, snapshot).Return(storageErr)

	svc := NewRatingService(mockFetcher, mockExtractor, mockRepo, nil, sourceURL)

	// Act
	result, err := svc.Refresh(context.Background())

	// Assert
	assert.Nil(t, result)
	assert.Same(t, storageErr, err)
}

func TestRefresh_PublishesEventAfterSave(t *testing.T) {
	// Arrange
	mockFetcher := new(mocks.MockPageFetcher)
	mockExtractor := new(mocks.MockSnapshotExtractor)
	mockRepo := new(mocks.MockSnapshotRepository)
	mockPublisher := new(mocks.MockEventPublisher)
	snapshot := testSnapshot()

	mockFetcher.On("Fetch", mock.Anything, sourceURL).Return("<html>", nil)
	mockExtractor.On("Extract", "<html>", sourceURL).Return(snapshot, nil)
	mockRepo.On("Save", mock.Anything, snapshot).Return(nil)
	mockPublisher.On("PublishRatingUpdated", mock.Anything, mock.MatchedBy(func(e *entity.RatingUpdatedEvent) bool {
		return e.EventType == "RATING_UPDATED" && e.Score == 4.7 && e.URL == sourceURL
	})).Return(nil)

	svc := NewRatingService(mockFetcher, mockExtractor, mockRepo, mockPublisher, sourceURL)

	// Act
	result, err := svc.Refresh(context.Background())

	// Assert
	require.NoError(t, err)
	assert.NotNil(t, result)
	mockPublisher.AssertExpectations(t)
}

func TestRefresh_PublishError_DoesNotFailRefresh(t *testing.T) {
	// Arrange: снапшот уже сохранен, сбой публикации не роняет Refresh
	mockFetcher := new(mocks.MockPageFetcher)
	mockExtractor := new(mocks.MockSnapshotExtractor)
	mockRepo := new(mocks.MockSnapshotRepository)
	mockPublisher := new(mocks.MockEventPublisher)
	snapshot := testSnapshot()

	mockFetcher.On("Fetch", mock.Anything, sourceURL).Return("<html>", nil)
	mockExtractor.On("Extract", "<html>", sourceURL).Return(snapshot, nil)
	mockRepo.On("Save", mock.Anything, snapshot).Return(nil)
	mockPublisher.On("PublishRatingUpdated", mock.Anything, mock.Anything).
		Return(errors.New("broker unavailable"))

	svc := NewRatingService(mockFetcher, mockExtractor, mockRepo, mockPublisher, sourceURL)

	// Act
	result, err := svc.Refresh(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, snapshot, result)
}

// ===================== Latest / History Tests =====================

func TestLatest_DelegatesToRepository(t *testing.T) {
	// Arrange
	mockRepo := new(mocks.MockSnapshotRepository)
	snapshot := testSnapshot()
	mockRepo.On("Latest", mock.Anything).Return(snapshot, nil)

	svc := NewRatingService(nil, nil, mockRepo, nil, sourceURL)

	// Act
	result, err := svc.Latest(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, snapshot, result)
}

func TestLatest_EmptyStorage(t *testing.T) {
	// Arrange
	mockRepo := new(mocks.MockSnapshotRepository)
	mockRepo.On("Latest", mock.Anything).Return(nil, nil)

	svc := NewRatingService(nil, nil, mockRepo, nil, sourceURL)

	// Act
	result, err := svc.Latest(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestHistory_DelegatesToRepository(t *testing.T) {
	// Arrange
	mockRepo := new(mocks.MockSnapshotRepository)
	snapshots := []entity.RatingSnapshot{*testSnapshot()}
	mockRepo.On("History", mock.Anything, 10).Return(snapshots, nil)

	svc := NewRatingService(nil, nil, mockRepo, nil, sourceURL)

	// Act
	result, err := svc.History(context.Background(), 10)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, snapshots, result)
}
